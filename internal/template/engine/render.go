package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"shout/internal/template"
	"shout/internal/template/ast"
)

// Template is a parsed template bound to its engine.
type Template struct {
	engine *Engine
	name   string
	src    string
	nodes  []ast.Node
}

// Name returns the template's name.
func (t *Template) Name() string {
	return t.name
}

// Source returns the raw source text the template was parsed from.
func (t *Template) Source() string {
	return t.src
}

// Render renders the template against data.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.render(newContext(t, data))
}

// render renders the template into an existing context, following the
// inheritance chain first.
//
// When the template extends a parent, its blocks are recorded as overrides
// (child-most writer wins), the template itself is appended to the context's
// history so failures can still be attributed to it, and rendering restarts
// from the parent.
func (t *Template) render(ctx *Context) (string, error) {
	nodes := t.nodes

	if len(nodes) > 0 && nodes[0].Kind() == ast.KindExtends {
		extends := nodes[0].(ast.Extends)

		parent, err := t.engine.Get(extends.Name)
		if err != nil {
			return "", &template.SyntaxError{
				Msg:      fmt.Sprintf("cannot extend %q: %v", extends.Name, err),
				Template: t.name,
				Span:     &template.Span{Start: extends.Token.Start, End: extends.Token.End},
			}
		}

		for _, node := range nodes[1:] {
			if block, ok := node.(ast.Block); ok {
				if _, exists := ctx.blocks[block.Name]; !exists {
					ctx.blocks[block.Name] = block.Body
				}
			}
		}

		ctx.history = append(ctx.history, t)
		ctx.template = parent

		return parent.render(ctx)
	}

	var sb strings.Builder

	if err := t.engine.renderNodes(ctx, nodes, &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// renderNodes renders a node list into sb.
func (e *Engine) renderNodes(ctx *Context, nodes []ast.Node, sb *strings.Builder) error {
	for _, node := range nodes {
		if err := e.renderNode(ctx, node, sb); err != nil {
			return err
		}
	}

	return nil
}

// renderNode renders a single node into sb.
func (e *Engine) renderNode(ctx *Context, node ast.Node, sb *strings.Builder) error {
	switch n := node.(type) {
	case ast.Text:
		sb.WriteString(n.Value)
	case ast.Variable:
		return e.renderVariable(ctx, n, sb)
	case ast.If:
		return e.renderIf(ctx, n, sb)
	case ast.For:
		return e.renderFor(ctx, n, sb)
	case ast.Include:
		return e.renderInclude(ctx, n, sb)
	case ast.Block:
		if override, ok := ctx.blocks[n.Name]; ok {
			return e.renderNodes(ctx, override, sb)
		}

		return e.renderNodes(ctx, n.Body, sb)
	case ast.URL:
		return e.renderURL(ctx, n, sb)
	case ast.Extends:
		// Handled before node rendering starts, nothing to do here
	default:
		return fmt.Errorf("renderNode: unhandled ast node: %T", n)
	}

	return nil
}

// renderVariable renders a "{{ path }}" substitution.
//
// A failed lookup is offered to the variable hook first. If the hook is
// absent, or declines by returning nil, the engine preserves its un-hooked
// behaviour and substitutes the invalid-value placeholder.
func (e *Engine) renderVariable(ctx *Context, n ast.Variable, sb *strings.Builder) error {
	value, err := ctx.Resolve(n.Path, n.Token)
	if err != nil {
		var lookupErr *template.VariableError
		if !errors.As(err, &lookupErr) {
			return err
		}

		if e.varHook != nil {
			if hookErr := e.varHook.LookupFailed(ctx, lookupErr); hookErr != nil {
				return hookErr
			}
		}

		sb.WriteString(e.invalid)

		return nil
	}

	sb.WriteString(e.stringify(value))

	return nil
}

// renderIf evaluates an if chain, renders the first truthy branch (or the
// else branch) and then reports the outcome to the condition hook.
func (e *Engine) renderIf(ctx *Context, n ast.If, sb *strings.Builder) error {
	var (
		output strings.Builder
		body   []ast.Node
	)

	for _, branch := range n.Branches {
		value, err := e.eval(ctx, branch.Cond)
		if err != nil {
			return err
		}

		if Truthy(value) {
			body = branch.Body
			break
		}
	}

	if body == nil && n.HasElse {
		body = n.Else
	}

	if err := e.renderNodes(ctx, body, &output); err != nil {
		return err
	}

	sb.WriteString(output.String())

	if e.condHook != nil {
		return e.condHook.ConditionRendered(ctx, n, output.String())
	}

	return nil
}

// renderFor renders a "{% for %}" loop. A missing sequence behaves like an
// empty one, after being offered to the variable hook like any other failed
// lookup.
func (e *Engine) renderFor(ctx *Context, n ast.For, sb *strings.Builder) error {
	sequence, err := ctx.Resolve(n.Path, n.Token)
	if err != nil {
		var lookupErr *template.VariableError
		if !errors.As(err, &lookupErr) {
			return err
		}

		if e.varHook != nil {
			if hookErr := e.varHook.LookupFailed(ctx, lookupErr); hookErr != nil {
				return hookErr
			}
		}

		return nil
	}

	v := reflect.ValueOf(sequence)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil
	}

	parent, hasParent := ctx.Get("forloop")

	length := v.Len()
	for i := range length {
		forloop := map[string]any{
			"counter":  i + 1,
			"counter0": i,
			"first":    i == 0,
			"last":     i == length-1,
		}

		if hasParent {
			forloop["parentloop"] = parent
		}

		ctx.Push(map[string]any{
			n.Var:     v.Index(i).Interface(),
			"forloop": forloop,
		})

		err := e.renderNodes(ctx, n.Body, sb)

		ctx.Pop()

		if err != nil {
			return err
		}
	}

	return nil
}

// renderInclude renders an included sub-template with a child context.
//
// The sub-template is also stashed into scope under the key "template", the
// same trick inclusion tags use, which is what lets source attribution find
// it later.
func (e *Engine) renderInclude(ctx *Context, n ast.Include, sb *strings.Builder) error {
	sub, err := e.Get(n.Name)
	if err != nil {
		return &template.SyntaxError{
			Msg:      fmt.Sprintf("cannot include %q: %v", n.Name, err),
			Template: ctx.templateName(),
			Span:     &template.Span{Start: n.Token.Start, End: n.Token.End},
		}
	}

	child := ctx.include(sub)
	child.Push(map[string]any{"template": sub})

	out, err := sub.render(child)
	if err != nil {
		return err
	}

	sb.WriteString(out)

	return nil
}

// renderURL reverses a route and either emits the result or binds it.
//
// An inline url tag that fails to reverse is an error. A bound one silently
// binds the empty string, which is exactly the failure mode the url hook
// exists to catch.
func (e *Engine) renderURL(ctx *Context, n ast.URL, sb *strings.Builder) error {
	args := make([]string, 0, len(n.Args))

	for _, arg := range n.Args {
		value, err := e.eval(ctx, arg)
		if err != nil {
			return err
		}

		args = append(args, e.stringify(value))
	}

	value, ok := e.Reverse(n.Route, args)

	if n.AsVar != "" {
		ctx.Set(n.AsVar, value)

		if e.urlHook != nil {
			return e.urlHook.URLBound(ctx, n, value)
		}

		return nil
	}

	if !ok {
		return &template.SyntaxError{
			Msg:      fmt.Sprintf("cannot reverse %q with arguments %v", n.Route, args),
			Template: ctx.templateName(),
			Span:     &template.Span{Start: n.Token.Start, End: n.Token.End},
		}
	}

	sb.WriteString(value)

	return nil
}

// eval evaluates a condition expression with the usual short-circuit
// semantics. Failed lookups are offered to the variable hook; if it declines
// they evaluate as nil, i.e. falsy, preserving un-hooked behaviour.
func (e *Engine) eval(ctx *Context, expr ast.Expression) (any, error) {
	switch x := expr.(type) {
	case ast.Literal:
		return x.Value, nil
	case ast.Lookup:
		value, err := ctx.Resolve(x.Path, x.Token)
		if err != nil {
			var lookupErr *template.VariableError
			if !errors.As(err, &lookupErr) {
				return nil, err
			}

			if e.varHook != nil {
				if hookErr := e.varHook.LookupFailed(ctx, lookupErr); hookErr != nil {
					return nil, hookErr
				}
			}

			return nil, nil
		}

		return value, nil
	case ast.Not:
		value, err := e.eval(ctx, x.Operand)
		if err != nil {
			return nil, err
		}

		return !Truthy(value), nil
	case ast.And:
		left, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}

		if !Truthy(left) {
			return left, nil
		}

		return e.eval(ctx, x.Right)
	case ast.Or:
		left, err := e.eval(ctx, x.Left)
		if err != nil {
			return nil, err
		}

		if Truthy(left) {
			return left, nil
		}

		return e.eval(ctx, x.Right)
	default:
		return nil, fmt.Errorf("eval: unhandled expression: %T", x)
	}
}

// Truthy reports whether a value counts as true in a condition: nil, false,
// zero numbers, empty strings and empty containers are all false.
func Truthy(value any) bool {
	if value == nil {
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}

	return true
}

// stringify converts a resolved value to output text. nil becomes the
// invalid-value placeholder.
func (e *Engine) stringify(value any) string {
	if value == nil {
		return e.invalid
	}

	return fmt.Sprint(value)
}
