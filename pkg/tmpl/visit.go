package tmpl

import (
	"bytes"
	"errors"
	"fmt"
)

// Visitor is called for every node reached by Walk.
type Visitor interface {
	Visit(n Node) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n Node) error

func (f VisitorFunc) Visit(n Node) error { return f(n) }

// SkipBranches may be returned by a Visitor to keep Walk from descending
// into the branches of the node just visited.
var SkipBranches = errors.New("skip branches")

// Walk visits the nodes of l depth-first in document order, descending into
// the branches of every Container.
func Walk(v Visitor, l NodeList) error {
	for _, n := range l {
		err := v.Visit(n)
		if errors.Is(err, SkipBranches) {
			continue
		}
		if err != nil {
			return err
		}
		c, ok := n.(Container)
		if !ok {
			continue
		}
		for _, b := range c.Branches() {
			if err := Walk(v, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pretty returns a line-oriented string representation of the tree.
func Pretty(l NodeList) string {
	var buf bytes.Buffer
	buf.WriteString("NodeList\n")
	ppList(&buf, 2, l)
	return buf.String()
}

func ppList(buf *bytes.Buffer, indent int, l NodeList) {
	for _, n := range l {
		for i := 0; i < indent; i++ {
			buf.WriteByte(' ')
		}
		if s, ok := n.(fmt.Stringer); ok {
			buf.WriteString(s.String())
		} else {
			buf.WriteString(string(n.Kind()))
		}
		buf.WriteByte('\n')
		if c, ok := n.(Container); ok {
			for i, b := range c.Branches() {
				for j := 0; j < indent+2; j++ {
					buf.WriteByte(' ')
				}
				fmt.Fprintf(buf, "#%d\n", i)
				ppList(buf, indent+4, b)
			}
		}
	}
}
