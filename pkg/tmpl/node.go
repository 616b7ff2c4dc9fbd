package tmpl

import (
	"bytes"
	"fmt"
)

// NodeKind names a node variant. Tag packages declare their own kinds.
type NodeKind string

const (
	KindText     NodeKind = "text"
	KindVariable NodeKind = "variable"
)

// Node is one executable unit of a parsed template.
type Node interface {
	Kind() NodeKind
	Render(buf *bytes.Buffer, ctx *Context) error
}

// Container is implemented by nodes that own nested node lists, such as the
// two branches of a conditional. Branches must be returned in document order.
type Container interface {
	Node
	Branches() []NodeList
}

// NodeList is an ordered sequence of nodes rendered by concatenation.
type NodeList []Node

// Render writes every node in order. Rendering stops at the first error.
func (l NodeList) Render(buf *bytes.Buffer, ctx *Context) error {
	for _, n := range l {
		if err := n.Render(buf, ctx); err != nil {
			return err
		}
	}
	return nil
}

// RenderString renders the list into a new string.
func (l NodeList) RenderString(ctx *Context) (string, error) {
	var buf bytes.Buffer
	if err := l.Render(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FindByKind returns every node of the given kind in the list and in all
// nested branches, in document order.
func (l NodeList) FindByKind(kind NodeKind) []Node {
	var out []Node
	_ = Walk(VisitorFunc(func(n Node) error {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return nil
	}), l)
	return out
}

// TextNode represents literal text between tags.
type TextNode struct {
	Text string
}

func (*TextNode) Kind() NodeKind { return KindText }

func (n *TextNode) Render(buf *bytes.Buffer, _ *Context) error {
	buf.WriteString(n.Text)
	return nil
}

func (n *TextNode) String() string { return fmt.Sprintf("Text(%q)", n.Text) }

// VariableNode represents an output expression: {{ expr }}
type VariableNode struct {
	Expr *FilterExpression
}

func (*VariableNode) Kind() NodeKind { return KindVariable }

func (n *VariableNode) Render(buf *bytes.Buffer, ctx *Context) error {
	v, err := n.Expr.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("rendering {{ %s }}: %w", n.Expr, err)
	}
	buf.WriteString(v.String())
	return nil
}

func (n *VariableNode) String() string { return fmt.Sprintf("Variable(%q)", n.Expr.String()) }
