package tmpl

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultMaxDepth bounds tag nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 256

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxDepth limits how deeply tags may nest. Values below 1 are ignored.
func WithMaxDepth(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// Parser turns template source into a NodeList. A parser owns its token
// stream and is not safe for concurrent use; parse independent inputs with
// independent parsers.
type Parser struct {
	registry *Registry
	tokens   []Token
	pos      int
	maxDepth int
	open     []Token
}

// NewParser tokenizes src. Tags are resolved against reg.
func NewParser(src string, reg *Registry, opts ...ParserOption) (*Parser, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{registry: reg, tokens: toks, maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Registry returns the registry the parser dispatches tags to.
func (p *Parser) Registry() *Registry { return p.registry }

// Parse parses the whole input.
func (p *Parser) Parse() (NodeList, error) {
	return p.ParseUntil()
}

// ParseUntil parses nodes until a block tag named in terminators is reached.
// The terminator is left in the stream for the caller to inspect with
// NextToken and consume with ConsumeToken. With no terminators it parses to
// the end of input. Reaching the end of input while terminators are pending
// fails with *UnclosedTagError.
func (p *Parser) ParseUntil(terminators ...string) (NodeList, error) {
	var nodes NodeList
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		switch tok.Kind {
		case TokenText:
			p.pos++
			nodes = append(nodes, &TextNode{Text: tok.Content})
		case TokenComment:
			p.pos++
		case TokenVariable:
			p.pos++
			fe, err := ParseFilterExpression(tok.Content, p)
			if err != nil {
				return nil, annotate(err, "{{ }}", tok.Line)
			}
			nodes = append(nodes, &VariableNode{Expr: fe})
		case TokenBlock:
			name, args := splitNameArgs(tok.Content)
			if slices.Contains(terminators, name) {
				return nodes, nil
			}
			p.pos++
			n, err := p.buildTag(tok, name, args, terminators)
			if err != nil {
				return nil, err
			}
			if n != nil {
				nodes = append(nodes, n)
			}
		}
	}
	if len(terminators) > 0 {
		e := &UnclosedTagError{Expected: terminators}
		if len(p.open) > 0 {
			top := p.open[len(p.open)-1]
			e.Tag, e.Line = top.TagName(), top.Line
		}
		return nil, e
	}
	return nodes, nil
}

func (p *Parser) buildTag(tok Token, name, args string, terminators []string) (Node, error) {
	if name == "" {
		return nil, &TagSyntaxError{Line: tok.Line, Msg: "empty block tag"}
	}
	f, ok := p.registry.Lookup(name)
	if !ok {
		return nil, &UnknownTagError{Name: name, Line: tok.Line, Expected: terminators}
	}
	if len(p.open) >= p.maxDepth {
		return nil, &DepthError{Limit: p.maxDepth, Line: tok.Line}
	}
	p.open = append(p.open, tok)
	defer func() { p.open = p.open[:len(p.open)-1] }()
	n, err := f.Build(args, p)
	if err != nil {
		return nil, annotate(err, name, tok.Line)
	}
	return n, nil
}

// annotate fills in the tag name and line of a bare *TagSyntaxError.
func annotate(err error, tag string, line int) error {
	var tse *TagSyntaxError
	if errors.As(err, &tse) && tse.Tag == "" {
		tse.Tag, tse.Line = tag, line
	}
	return err
}

// NextToken returns the token at the current position without consuming it.
func (p *Parser) NextToken() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

// PeekNextTagName returns the tag name of the next token, or "" if the next
// token is not a block tag.
func (p *Parser) PeekNextTagName() string {
	tok, ok := p.NextToken()
	if !ok {
		return ""
	}
	return tok.TagName()
}

// ConsumeToken drops the token at the current position.
func (p *Parser) ConsumeToken() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// SkipPast discards tokens up to and including the block tag named tag,
// without building nodes for them.
func (p *Parser) SkipPast(tag string) error {
	start := p.pos
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if tok.TagName() == tag {
			return nil
		}
	}
	e := &UnclosedTagError{Expected: []string{tag}}
	if len(p.open) > 0 {
		top := p.open[len(p.open)-1]
		e.Tag, e.Line = top.TagName(), top.Line
	} else if start < len(p.tokens) {
		e.Line = p.tokens[start].Line
	}
	return e
}

// Expect consumes the next token, which must be the block tag named tag.
func (p *Parser) Expect(tag string) error {
	tok, ok := p.NextToken()
	if !ok || tok.TagName() != tag {
		return fmt.Errorf("expected {%% %s %%}", tag)
	}
	p.ConsumeToken()
	return nil
}
