package ast

import "shout/internal/template/token"

// Text is a run of literal template text, emitted verbatim.
type Text struct {
	// Value is the literal text.
	Value string

	// The [token.Text] token covering it.
	Token token.Token
}

func (t Text) Start() token.Token { return t.Token }
func (t Text) End() token.Token   { return t.Token }
func (t Text) Kind() Kind         { return KindText }

// Variable is a "{{ path }}" substitution of a dotted lookup path.
type Variable struct {
	// Path is the dotted lookup path as written, e.g. "user.name".
	Path string

	// The [token.Var] token covering the whole chunk.
	Token token.Token
}

func (v Variable) Start() token.Token { return v.Token }
func (v Variable) End() token.Token   { return v.Token }
func (v Variable) Kind() Kind         { return KindVariable }

// Branch is one arm of an if chain: the "{% if cond %}" or "{% elif cond %}"
// condition together with its body.
type Branch struct {
	// Cond is the parsed condition expression.
	Cond Expression

	// Text is the condition source as written, e.g. "a.b and not c".
	Text string

	// Body is the list of nodes rendered when Cond holds.
	Body []Node
}

// If is a "{% if %}" chain with optional "{% elif %}" branches and an
// optional "{% else %}".
type If struct {
	// Branches are the if/elif arms, in source order. Always non-empty.
	Branches []Branch

	// Else is the body of the "{% else %}" arm, nil when there isn't one.
	Else []Node

	// HasElse distinguishes a missing else from an empty one.
	HasElse bool

	// Token is the opening "{% if %}" tag token.
	Token token.Token

	// EndToken is the closing "{% endif %}" tag token.
	EndToken token.Token
}

func (i If) Start() token.Token { return i.Token }
func (i If) End() token.Token   { return i.EndToken }
func (i If) Kind() Kind         { return KindIf }

// For is a "{% for var in path %}" loop.
type For struct {
	// Var is the loop variable name.
	Var string

	// Path is the dotted lookup path of the iterable.
	Path string

	// Body is rendered once per element.
	Body []Node

	// Token is the opening "{% for %}" tag token.
	Token token.Token

	// EndToken is the closing "{% endfor %}" tag token.
	EndToken token.Token
}

func (f For) Start() token.Token { return f.Token }
func (f For) End() token.Token   { return f.EndToken }
func (f For) Kind() Kind         { return KindFor }

// Include is a "{% include "name" %}" tag.
type Include struct {
	// Name is the included template's name.
	Name string

	// The [token.Tag] token covering the chunk.
	Token token.Token
}

func (i Include) Start() token.Token { return i.Token }
func (i Include) End() token.Token   { return i.Token }
func (i Include) Kind() Kind         { return KindInclude }

// Extends is an "{% extends "name" %}" tag. It may only appear as the first
// node of a template.
type Extends struct {
	// Name is the parent template's name.
	Name string

	// The [token.Tag] token covering the chunk.
	Token token.Token
}

func (e Extends) Start() token.Token { return e.Token }
func (e Extends) End() token.Token   { return e.Token }
func (e Extends) Kind() Kind         { return KindExtends }

// Block is a "{% block name %}" region that a child template may override.
type Block struct {
	// Name is the block's name.
	Name string

	// Body is the default content.
	Body []Node

	// Token is the opening "{% block %}" tag token.
	Token token.Token

	// EndToken is the closing "{% endblock %}" tag token.
	EndToken token.Token
}

func (b Block) Start() token.Token { return b.Token }
func (b Block) End() token.Token   { return b.EndToken }
func (b Block) Kind() Kind         { return KindBlock }

// URL is a "{% url 'route' args... %}" reversal tag, optionally binding its
// result to a variable with "as name".
type URL struct {
	// Route is the route name being reversed.
	Route string

	// Args are the positional arguments substituted into the route pattern.
	Args []Expression

	// AsVar is the variable name the result is bound to, empty when the
	// result is emitted inline instead.
	AsVar string

	// The [token.Tag] token covering the chunk.
	Token token.Token
}

func (u URL) Start() token.Token { return u.Token }
func (u URL) End() token.Token   { return u.Token }
func (u URL) Kind() Kind         { return KindURL }
