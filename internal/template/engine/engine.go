// Package engine implements the template rendering engine.
//
// The engine owns the loader, a parsed template cache and the route table
// used by the url tag. It also exposes the three extension points the
// diagnostics layer hooks into: variable resolution, conditional evaluation
// and url result binding. With no hooks installed the engine silently
// swallows failed lookups the way most template languages do, substituting
// the configured invalid-value placeholder.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shout/internal/template"
	"shout/internal/template/ast"
	"shout/internal/template/parser"
)

// Loader loads template source by name.
type Loader interface {
	Load(name string) (string, error)
}

// MapLoader is an in-memory [Loader], mostly useful in tests.
type MapLoader map[string]string

// Load implements [Loader] for a [MapLoader].
func (m MapLoader) Load(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	return src, nil
}

// DirLoader loads templates from files under a base directory.
type DirLoader struct {
	// Dir is the base directory.
	Dir string
}

// Load implements [Loader] for a [DirLoader].
//
// Template names are slash separated paths relative to the base directory
// and may not escape it.
func (d DirLoader) Load(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", fmt.Errorf("template name %q escapes the template directory", name)
	}

	contents, err := os.ReadFile(filepath.Join(d.Dir, filepath.FromSlash(name)))
	if err != nil {
		return "", fmt.Errorf("template %q not found: %w", name, err)
	}

	return string(contents), nil
}

// VariableHook intercepts failed dotted lookups.
type VariableHook interface {
	// LookupFailed is called whenever a dotted lookup fails during a render.
	// The failing node's identity and position travel on lookupErr.
	//
	// Returning nil tells the engine to proceed exactly as it would with no
	// hook installed: substitute the invalid-value placeholder, or treat the
	// operand as falsy inside a condition. Returning a non-nil error aborts
	// the render with that error.
	LookupFailed(ctx *Context, lookupErr *template.VariableError) error
}

// ConditionHook observes conditional evaluation.
type ConditionHook interface {
	// ConditionRendered is called after every if chain has been evaluated
	// and its chosen branch rendered. output is the rendered branch text,
	// empty when no branch matched. Returning a non-nil error aborts the
	// render with that error.
	ConditionRendered(ctx *Context, node ast.If, output string) error
}

// URLHook observes url reversal results that are bound to a variable.
type URLHook interface {
	// URLBound is called after a "{% url ... as x %}" result has been bound.
	// Returning a non-nil error aborts the render with that error.
	URLBound(ctx *Context, node ast.URL, value string) error
}

// Option configures an [Engine].
type Option func(*Engine)

// WithRoutes sets the route table used by the url tag. Patterns use angle
// bracket placeholders, e.g. "/users/<id>/".
func WithRoutes(routes map[string]string) Option {
	return func(e *Engine) {
		e.routes = routes
	}
}

// WithStringIfInvalid sets the placeholder substituted for unresolvable
// variables. The default is the empty string.
func WithStringIfInvalid(s string) Option {
	return func(e *Engine) {
		e.invalid = s
	}
}

// Engine loads, caches and renders templates.
//
// All methods are safe for concurrent use once the hooks are installed.
type Engine struct {
	loader   Loader
	routes   map[string]string
	cache    map[string]*Template
	varHook  VariableHook
	condHook ConditionHook
	urlHook  URLHook
	invalid  string
	mu       sync.RWMutex // Guards cache
}

// New returns a new [Engine] loading template source through loader.
func New(loader Loader, options ...Option) *Engine {
	e := &Engine{
		loader: loader,
		cache:  make(map[string]*Template),
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Get returns the named template, loading and parsing it on first use.
func (e *Engine) Get(name string) (*Template, error) {
	e.mu.RLock()
	cached, ok := e.cache[name]
	e.mu.RUnlock()

	if ok {
		return cached, nil
	}

	src, err := e.loader.Load(name)
	if err != nil {
		return nil, err
	}

	return e.FromString(name, src)
}

// FromString parses src as a template and caches it under name.
func (e *Engine) FromString(name, src string) (*Template, error) {
	nodes, err := parser.New(name, src).Parse()
	if err != nil {
		return nil, err
	}

	t := &Template{
		name:   name,
		src:    src,
		nodes:  nodes,
		engine: e,
	}

	e.mu.Lock()
	e.cache[name] = t
	e.mu.Unlock()

	return t, nil
}

// StringIfInvalid returns the configured invalid-value placeholder.
func (e *Engine) StringIfInvalid() string {
	return e.invalid
}

// SetVariableHook installs the variable resolution extension point.
func (e *Engine) SetVariableHook(h VariableHook) {
	e.varHook = h
}

// SetConditionHook installs the conditional evaluation extension point.
func (e *Engine) SetConditionHook(h ConditionHook) {
	e.condHook = h
}

// SetURLHook installs the url binding extension point.
func (e *Engine) SetURLHook(h URLHook) {
	e.urlHook = h
}

// Reverse substitutes args into the named route's pattern, reporting whether
// the reversal succeeded. An unknown route or an argument count mismatch
// produces ("", false).
func (e *Engine) Reverse(route string, args []string) (string, bool) {
	pattern, ok := e.routes[route]
	if !ok {
		return "", false
	}

	var sb strings.Builder

	next := 0

	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '<' {
			sb.WriteByte(pattern[i])
			continue
		}

		end := strings.IndexByte(pattern[i:], '>')
		if end == -1 || next >= len(args) {
			return "", false
		}

		sb.WriteString(args[next])
		next++
		i += end
	}

	if next != len(args) {
		return "", false
	}

	return sb.String(), true
}
