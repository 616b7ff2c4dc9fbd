package tmpl

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterExpression is a parsed variable-or-literal reference followed by an
// optional filter pipeline, e.g. name|upper|default('Anon'). It is immutable
// once parsed and may be resolved from concurrent renders.
type FilterExpression struct {
	text    string
	base    operand
	filters []filterCall
}

type operand struct {
	literal Value
	path    []string
}

type filterCall struct {
	name string
	fn   FilterFunc
	args []operand
}

// ParseFilterExpression parses text. Filters are looked up in the parser's
// registry; a nil parser uses the default filter set.
func ParseFilterExpression(text string, p *Parser) (*FilterExpression, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewTagSyntaxError("empty expression")
	}
	parts := splitOutside(text, '|')
	base, err := parseOperand(parts[0])
	if err != nil {
		return nil, err
	}
	fe := &FilterExpression{text: text, base: base}
	for _, f := range parts[1:] {
		fc, err := parseFilterCall(f, p)
		if err != nil {
			return nil, err
		}
		fe.filters = append(fe.filters, fc)
	}
	return fe, nil
}

func (e *FilterExpression) String() string { return e.text }

// Resolve evaluates the expression. Unresolved variables yield NoneValue;
// errors come only from filters.
func (e *FilterExpression) Resolve(ctx *Context) (Value, error) {
	val := e.base.resolve(ctx)
	for _, f := range e.filters {
		args := make([]Value, len(f.args))
		for i, a := range f.args {
			args[i] = a.resolve(ctx)
		}
		var err error
		val, err = f.fn(val, args)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.name, err)
		}
		if val == nil {
			val = NoneValue{}
		}
	}
	return val, nil
}

// IsTrue reports the truthiness of the resolved value. An expression whose
// filters fail is false.
func (e *FilterExpression) IsTrue(ctx *Context) bool {
	v, err := e.Resolve(ctx)
	if err != nil {
		return false
	}
	return v.Truth()
}

func (o operand) resolve(ctx *Context) Value {
	if o.literal != nil {
		return o.literal
	}
	cur, ok := ctx.Lookup(o.path[0])
	if !ok {
		return NoneValue{}
	}
	for _, seg := range o.path[1:] {
		cur, ok = attr(cur, seg)
		if !ok {
			return NoneValue{}
		}
	}
	return cur
}

func parseOperand(s string) (operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return operand{}, NewTagSyntaxError("empty operand")
	}
	if q := s[0]; q == '\'' || q == '"' {
		if len(s) < 2 || s[len(s)-1] != q {
			return operand{}, NewTagSyntaxError(fmt.Sprintf("unterminated string literal %s", s))
		}
		return operand{literal: StringValue(s[1 : len(s)-1])}, nil
	}
	switch s {
	case "true", "True":
		return operand{literal: BoolValue(true)}, nil
	case "false", "False":
		return operand{literal: BoolValue(false)}, nil
	case "none", "None":
		return operand{literal: NoneValue{}}, nil
	}
	if c := s[0]; c == '-' || (c >= '0' && c <= '9') {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return operand{literal: IntValue(n)}, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return operand{literal: FloatValue(f)}, nil
		}
		return operand{}, NewTagSyntaxError(fmt.Sprintf("invalid number %s", s))
	}
	path := strings.Split(s, ".")
	for _, seg := range path {
		if !isIdentSegment(seg) {
			return operand{}, NewTagSyntaxError(fmt.Sprintf("invalid variable name %s", s))
		}
	}
	return operand{path: path}, nil
}

func isIdentSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// IsIdentifier reports whether s is a plain variable name.
func IsIdentifier(s string) bool {
	return isIdentSegment(s) && !(s[0] >= '0' && s[0] <= '9')
}

func parseFilterCall(s string, p *Parser) (filterCall, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return filterCall{}, NewTagSyntaxError("empty filter")
	}
	fc := filterCall{name: s}
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return filterCall{}, NewTagSyntaxError(fmt.Sprintf("unbalanced parentheses in filter %s", s))
		}
		fc.name = strings.TrimSpace(s[:i])
		argStr := strings.TrimSpace(s[i+1 : len(s)-1])
		if argStr != "" {
			for _, a := range splitOutside(argStr, ',') {
				op, err := parseOperand(a)
				if err != nil {
					return filterCall{}, err
				}
				fc.args = append(fc.args, op)
			}
		}
	}
	var ok bool
	if p != nil && p.registry != nil {
		fc.fn, ok = p.registry.Filter(fc.name)
	} else {
		fc.fn, ok = defaultFilters[fc.name]
	}
	if !ok {
		return filterCall{}, NewTagSyntaxError(fmt.Sprintf("unknown filter: %s", fc.name))
	}
	return fc, nil
}

// splitOutside splits s on sep where sep is not inside quotes or parentheses.
func splitOutside(s string, sep byte) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	inStr := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			b.WriteByte(c)
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"':
			inStr = c
			b.WriteByte(c)
		case c == '(':
			depth++
			b.WriteByte(c)
		case c == ')':
			if depth > 0 {
				depth--
			}
			b.WriteByte(c)
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(parts, strings.TrimSpace(b.String()))
}
