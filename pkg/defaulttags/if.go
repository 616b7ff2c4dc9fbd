package defaulttags

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
)

const KindIf tmpl.NodeKind = "if"

// LinkType says how the clauses of an if tag are combined.
type LinkType int

const (
	OrLink LinkType = iota
	AndLink
)

func (l LinkType) String() string {
	if l == AndLink {
		return "and"
	}
	return "or"
}

// Clause is one "[not ]<expression>" unit of an if tag.
type Clause struct {
	Negate bool
	Expr   *tmpl.FilterExpression
}

// IfNode renders TrueList when its clauses hold and FalseList otherwise.
// FalseList is empty when the tag has no else branch.
type IfNode struct {
	Clauses   []Clause
	Link      LinkType
	TrueList  tmpl.NodeList
	FalseList tmpl.NodeList
}

// IfNodeFactory parses:
//
//	{% if a [and b]* %} ... [{% else %} ...] {% endif %}
//	{% if a [or b]* %} ... [{% else %} ...] {% endif %}
//
// Clauses are found by splitting the argument text on the literal " and "
// and " or " connectives, so a quoted literal containing either word is
// split too.
type IfNodeFactory struct{}

func (IfNodeFactory) Build(args string, p *tmpl.Parser) (tmpl.Node, error) {
	clauses, link, err := parseIfClauses(args, p)
	if err != nil {
		return nil, err
	}
	trueList, err := p.ParseUntil("else", "endif")
	if err != nil {
		return nil, err
	}
	var falseList tmpl.NodeList
	if p.PeekNextTagName() == "else" {
		p.ConsumeToken()
		falseList, err = p.ParseUntil("endif")
		if err != nil {
			return nil, err
		}
	}
	p.ConsumeToken() // endif
	return &IfNode{Clauses: clauses, Link: link, TrueList: trueList, FalseList: falseList}, nil
}

func parseIfClauses(args string, p *tmpl.Parser) ([]Clause, LinkType, error) {
	bits := tmpl.SmartSplit(args)
	if len(bits) == 0 {
		return nil, OrLink, tmpl.NewTagSyntaxError("'if' statement requires at least one argument")
	}
	exprString := strings.Join(bits, " ")

	link := OrLink
	pieces := strings.Split(exprString, " and ")
	if len(pieces) == 1 {
		pieces = strings.Split(exprString, " or ")
	} else {
		link = AndLink
		if strings.Contains(exprString, " or ") {
			return nil, link, tmpl.NewTagSyntaxError("'if' tags can't mix 'and' and 'or'")
		}
	}

	clauses := make([]Clause, 0, len(pieces))
	for _, piece := range pieces {
		var c Clause
		text := strings.TrimSpace(piece)
		if strings.Contains(piece, " ") {
			words := strings.Split(piece, " ")
			if len(words) != 2 {
				return nil, link, tmpl.NewTagSyntaxError("'if' statement improperly formatted")
			}
			if words[0] != "not" {
				return nil, link, tmpl.NewTagSyntaxError("Expected 'not' in if statement")
			}
			c.Negate = true
			text = strings.TrimSpace(words[1])
		}
		expr, err := tmpl.ParseFilterExpression(text, p)
		if err != nil {
			return nil, link, err
		}
		c.Expr = expr
		clauses = append(clauses, c)
	}
	return clauses, link, nil
}

func (*IfNode) Kind() tmpl.NodeKind { return KindIf }

// Holds reports whether the true branch is selected in ctx. Each clause
// contributes (truthy XOR negate); Or links take the first satisfied clause,
// And links require all of them.
func (n *IfNode) Holds(ctx *tmpl.Context) bool {
	if n.Link == OrLink {
		for _, c := range n.Clauses {
			if c.Expr.IsTrue(ctx) != c.Negate {
				return true
			}
		}
		return false
	}
	for _, c := range n.Clauses {
		if c.Expr.IsTrue(ctx) == c.Negate {
			return false
		}
	}
	return true
}

func (n *IfNode) Render(buf *bytes.Buffer, ctx *tmpl.Context) error {
	if n.Holds(ctx) {
		return n.TrueList.Render(buf, ctx)
	}
	return n.FalseList.Render(buf, ctx)
}

// Branches implements tmpl.Container.
func (n *IfNode) Branches() []tmpl.NodeList {
	return []tmpl.NodeList{n.TrueList, n.FalseList}
}

func (n *IfNode) String() string {
	parts := make([]string, len(n.Clauses))
	for i, c := range n.Clauses {
		if c.Negate {
			parts[i] = "not " + c.Expr.String()
		} else {
			parts[i] = c.Expr.String()
		}
	}
	return fmt.Sprintf("If(%s)", strings.Join(parts, " "+n.Link.String()+" "))
}
