package engine

import (
	"strings"

	"shout/internal/template"
	"shout/internal/template/ast"
	"shout/internal/template/token"
)

// Fielder is implemented by form-like values that declare their own field
// names, letting suggestion machinery enumerate them without reflection.
type Fielder interface {
	Fields() []string
}

// Context is the evaluation scope active during a render: a stack of layered
// mappings plus the bookkeeping needed to attribute failures back to source.
//
// A Context is bound to the template currently being rendered. Inclusion
// creates a child Context whose parent pointer leads back out, and template
// inheritance records the chain of child templates that were replaced by
// their parents, because that chain is exactly where attribution information
// gets lost.
type Context struct {
	engine   *Engine
	template *Template
	parent   *Context
	blocks   map[string][]ast.Node
	history  []*Template
	scopes   []map[string]any
}

// newContext returns a fresh [Context] bound to t with data as the outermost
// scope.
func newContext(t *Template, data map[string]any) *Context {
	if data == nil {
		data = make(map[string]any)
	}

	return &Context{
		engine:   t.engine,
		template: t,
		blocks:   make(map[string][]ast.Node),
		scopes:   []map[string]any{data},
	}
}

// include returns a child [Context] for rendering sub, sharing the current
// scope stack but tracking its own template binding.
func (c *Context) include(sub *Template) *Context {
	return &Context{
		engine:   c.engine,
		template: sub,
		parent:   c,
		blocks:   make(map[string][]ast.Node),
		scopes:   append([]map[string]any{}, c.scopes...),
	}
}

// Push pushes a new innermost scope.
func (c *Context) Push(scope map[string]any) {
	c.scopes = append(c.scopes, scope)
}

// Pop removes the innermost scope. The outermost scope is never popped.
func (c *Context) Pop() {
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// Set binds key in the innermost scope.
func (c *Context) Set(key string, value any) {
	c.scopes[len(c.scopes)-1][key] = value
}

// Get looks key up through the scope stack, innermost first.
func (c *Context) Get(key string) (any, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][key]; ok {
			return v, true
		}
	}

	return nil, false
}

// Flatten collapses the scope stack into a single map, inner scopes
// shadowing outer ones.
func (c *Context) Flatten() map[string]any {
	flat := make(map[string]any)

	for _, scope := range c.scopes {
		for k, v := range scope {
			flat[k] = v
		}
	}

	return flat
}

// Template returns the template this context is bound to.
func (c *Context) Template() *Template {
	return c.template
}

// Parent returns the context this one was included from, or nil.
func (c *Context) Parent() *Context {
	return c.parent
}

// History returns the chain of child templates replaced during template
// inheritance, child-most first.
func (c *Context) History() []*Template {
	return c.history
}

// Resolve resolves a dotted lookup path against the scope stack.
//
// tok identifies the source chunk the lookup came from, so failures can be
// attributed without any stack introspection. On failure the returned error
// is always a [*template.VariableError].
func (c *Context) Resolve(path string, tok token.Token) (any, error) {
	parts := strings.Split(path, ".")

	current, ok := c.Get(parts[0])
	if !ok {
		return nil, &template.VariableError{
			Current:  c.Flatten(),
			Part:     parts[0],
			Path:     path,
			Template: c.templateName(),
			Token:    tok,
		}
	}

	for _, part := range parts[1:] {
		next, ok := attr(current, part)
		if !ok {
			return nil, &template.VariableError{
				Current:  current,
				Part:     part,
				Path:     path,
				Template: c.templateName(),
				Token:    tok,
			}
		}

		current = next
	}

	return current, nil
}

// templateName returns the name of the bound template, or "" when unknown.
func (c *Context) templateName() string {
	if c.template == nil {
		return ""
	}

	return c.template.name
}
