package tmpl

// Context is the render environment: a stack of variable scopes. Lookups
// search from the innermost scope outwards. A Context is owned by a single
// render call; concurrent renders of one template each need their own.
type Context struct {
	scopes []map[string]Value
}

// NewContext creates a context whose root scope holds vars.
func NewContext(vars map[string]any) *Context {
	root := make(map[string]Value, len(vars))
	for k, v := range vars {
		root[k] = FromGo(v)
	}
	return &Context{scopes: []map[string]Value{root}}
}

// Push opens a new innermost scope.
func (c *Context) Push() {
	c.scopes = append(c.scopes, map[string]Value{})
}

// Pop discards the innermost scope. The root scope is never removed.
func (c *Context) Pop() {
	if len(c.scopes) <= 1 {
		return
	}
	c.scopes[len(c.scopes)-1] = nil
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Depth returns the number of scopes, including the root scope.
func (c *Context) Depth() int { return len(c.scopes) }

// Set binds name in the innermost scope.
func (c *Context) Set(name string, v Value) {
	if v == nil {
		v = NoneValue{}
	}
	c.scopes[len(c.scopes)-1][name] = v
}

// Lookup resolves name, innermost scope first.
func (c *Context) Lookup(name string) (Value, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Scoped runs fn inside a fresh scope. The scope is popped on every exit
// path, including errors and panics raised by fn.
func (c *Context) Scoped(fn func() error) error {
	c.Push()
	defer c.Pop()
	return fn()
}
