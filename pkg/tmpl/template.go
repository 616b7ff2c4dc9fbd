package tmpl

import (
	"fmt"
)

// Template is a compiled template. The node tree is never modified after
// Compile, so one Template can be rendered concurrently as long as every
// render gets its own Context.
type Template struct {
	Name  string
	nodes NodeList
}

// Compile parses src into a Template. Any tag error fails the whole template.
func Compile(name, src string, reg *Registry, opts ...ParserOption) (*Template, error) {
	p, err := NewParser(src, reg, opts...)
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", name, err)
	}
	nodes, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("compiling template %q: %w", name, err)
	}
	return &Template{Name: name, nodes: nodes}, nil
}

// Load fetches name from l and compiles it.
func Load(l Loader, name string, reg *Registry, opts ...ParserOption) (*Template, error) {
	src, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	return Compile(name, src, reg, opts...)
}

// Nodes returns the root node list.
func (t *Template) Nodes() NodeList { return t.nodes }

// Render renders the template against a fresh context holding vars.
func (t *Template) Render(vars map[string]any) (string, error) {
	return t.RenderContext(NewContext(vars))
}

// RenderContext renders the template against ctx.
func (t *Template) RenderContext(ctx *Context) (string, error) {
	out, err := t.nodes.RenderString(ctx)
	if err != nil {
		return "", fmt.Errorf("rendering template %q: %w", t.Name, err)
	}
	return out, nil
}

// TemplateString is template source embedded in other data, such as a YAML
// configuration value.
type TemplateString string

// Validate compiles the string and reports any syntax error.
func (t TemplateString) Validate(reg *Registry) error {
	if _, err := Compile("<string>", string(t), reg); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	return nil
}

// Render compiles and renders the string in one step.
func (t TemplateString) Render(reg *Registry, vars map[string]any) (string, error) {
	tpl, err := Compile("<string>", string(t), reg)
	if err != nil {
		return "", err
	}
	return tpl.Render(vars)
}
