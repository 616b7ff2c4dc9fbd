package defaulttags

import (
	"bytes"
	"fmt"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
)

const KindWith tmpl.NodeKind = "with"

// WithNode binds Name to the value of Expr while Body renders.
type WithNode struct {
	Expr *tmpl.FilterExpression
	Name string
	Body tmpl.NodeList
}

// WithNodeFactory parses {% with <expr> as <name> %} ... {% endwith %}.
type WithNodeFactory struct{}

func (WithNodeFactory) Build(args string, p *tmpl.Parser) (tmpl.Node, error) {
	bits := tmpl.SmartSplit(args)
	if len(bits) != 3 || bits[1] != "as" {
		return nil, tmpl.NewTagSyntaxError("'with' expected format is 'value as name'")
	}
	if !tmpl.IsIdentifier(bits[2]) {
		return nil, tmpl.NewTagSyntaxError(fmt.Sprintf("'with' name %q is not a valid identifier", bits[2]))
	}
	expr, err := tmpl.ParseFilterExpression(bits[0], p)
	if err != nil {
		return nil, err
	}
	body, err := p.ParseUntil("endwith")
	if err != nil {
		return nil, err
	}
	p.ConsumeToken() // endwith
	return &WithNode{Expr: expr, Name: bits[2], Body: body}, nil
}

func (*WithNode) Kind() tmpl.NodeKind { return KindWith }

// Render pushes a scope holding the binding, renders the body and pops the
// scope again whether or not the body fails.
func (n *WithNode) Render(buf *bytes.Buffer, ctx *tmpl.Context) error {
	v, err := n.Expr.Resolve(ctx)
	if err != nil {
		return err
	}
	return ctx.Scoped(func() error {
		ctx.Set(n.Name, v)
		return n.Body.Render(buf, ctx)
	})
}

// Branches implements tmpl.Container.
func (n *WithNode) Branches() []tmpl.NodeList { return []tmpl.NodeList{n.Body} }

func (n *WithNode) String() string { return fmt.Sprintf("With(%s as %s)", n.Expr, n.Name) }
