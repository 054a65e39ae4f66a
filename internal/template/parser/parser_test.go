package parser_test

import (
	"errors"
	"testing"

	"go.followtheprocess.codes/test"

	"shout/internal/template"
	"shout/internal/template/ast"
	"shout/internal/template/parser"
)

func TestParseVariable(t *testing.T) {
	nodes, err := parser.New("test.html", "Hello {{ name }}!").Parse()
	test.Ok(t, err)
	test.Equal(t, len(nodes), 3)

	text, ok := nodes[0].(ast.Text)
	test.True(t, ok, test.Context("nodes[0] was %T, not ast.Text", nodes[0]))
	test.Equal(t, text.Value, "Hello ")

	variable, ok := nodes[1].(ast.Variable)
	test.True(t, ok, test.Context("nodes[1] was %T, not ast.Variable", nodes[1]))
	test.Equal(t, variable.Path, "name")
	test.Equal(t, variable.Token.Start, 6)
	test.Equal(t, variable.Token.End, 16)
}

func TestParseComment(t *testing.T) {
	nodes, err := parser.New("test.html", "a{# hidden #}b").Parse()
	test.Ok(t, err)

	// Comments produce no nodes
	test.Equal(t, len(nodes), 2)
	test.Equal(t, nodes[0].Kind(), ast.KindText)
	test.Equal(t, nodes[1].Kind(), ast.KindText)
}

func TestParseIf(t *testing.T) {
	src := "{% if a %}1{% elif b.c %}2{% else %}3{% endif %}"

	nodes, err := parser.New("test.html", src).Parse()
	test.Ok(t, err)
	test.Equal(t, len(nodes), 1)

	chain, ok := nodes[0].(ast.If)
	test.True(t, ok, test.Context("nodes[0] was %T, not ast.If", nodes[0]))

	test.Equal(t, len(chain.Branches), 2)
	test.True(t, chain.HasElse)
	test.Equal(t, chain.Branches[0].Text, "a")
	test.Equal(t, chain.Branches[1].Text, "b.c")
	test.Equal(t, len(chain.Branches[0].Body), 1)
	test.Equal(t, len(chain.Else), 1)

	lookup, ok := chain.Branches[1].Cond.(ast.Lookup)
	test.True(t, ok, test.Context("second condition was %T, not ast.Lookup", chain.Branches[1].Cond))
	test.Equal(t, lookup.Path, "b.c")
}

func TestParseCondition(t *testing.T) {
	src := "{% if not a.b and c or d %}x{% endif %}"

	nodes, err := parser.New("test.html", src).Parse()
	test.Ok(t, err)

	chain := nodes[0].(ast.If)

	// or binds loosest: (not a.b and c) or d
	or, ok := chain.Branches[0].Cond.(ast.Or)
	test.True(t, ok, test.Context("condition was %T, not ast.Or", chain.Branches[0].Cond))

	and, ok := or.Left.(ast.And)
	test.True(t, ok, test.Context("or.Left was %T, not ast.And", or.Left))

	not, ok := and.Left.(ast.Not)
	test.True(t, ok, test.Context("and.Left was %T, not ast.Not", and.Left))

	operand, ok := not.Operand.(ast.Lookup)
	test.True(t, ok, test.Context("not.Operand was %T, not ast.Lookup", not.Operand))
	test.Equal(t, operand.Path, "a.b")

	right, ok := or.Right.(ast.Lookup)
	test.True(t, ok, test.Context("or.Right was %T, not ast.Lookup", or.Right))
	test.Equal(t, right.Path, "d")
}

func TestParseConditionLiterals(t *testing.T) {
	tests := []struct {
		want any
		name string
		cond string
	}{
		{name: "true", cond: "True", want: true},
		{name: "false", cond: "False", want: false},
		{name: "none", cond: "None", want: nil},
		{name: "string", cond: "'hello'", want: "hello"},
		{name: "int", cond: "42", want: int64(42)},
		{name: "float", cond: "3.5", want: 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := parser.New("test.html", "{% if "+tt.cond+" %}x{% endif %}").Parse()
			test.Ok(t, err)

			chain := nodes[0].(ast.If)

			literal, ok := chain.Branches[0].Cond.(ast.Literal)
			test.True(t, ok, test.Context("condition was %T, not ast.Literal", chain.Branches[0].Cond))
			test.Equal(t, literal.Value, tt.want)
		})
	}
}

func TestParseFor(t *testing.T) {
	src := "{% for item in items %}{{ item }}{% endfor %}"

	nodes, err := parser.New("test.html", src).Parse()
	test.Ok(t, err)
	test.Equal(t, len(nodes), 1)

	loop, ok := nodes[0].(ast.For)
	test.True(t, ok, test.Context("nodes[0] was %T, not ast.For", nodes[0]))
	test.Equal(t, loop.Var, "item")
	test.Equal(t, loop.Path, "items")
	test.Equal(t, len(loop.Body), 1)
}

func TestParseInheritance(t *testing.T) {
	src := `{% extends "base.html" %}{% block content %}hi{% endblock %}`

	nodes, err := parser.New("child.html", src).Parse()
	test.Ok(t, err)
	test.Equal(t, len(nodes), 2)

	extends, ok := nodes[0].(ast.Extends)
	test.True(t, ok, test.Context("nodes[0] was %T, not ast.Extends", nodes[0]))
	test.Equal(t, extends.Name, "base.html")

	block, ok := nodes[1].(ast.Block)
	test.True(t, ok, test.Context("nodes[1] was %T, not ast.Block", nodes[1]))
	test.Equal(t, block.Name, "content")
}

func TestParseInclude(t *testing.T) {
	nodes, err := parser.New("test.html", "{% include 'partial.html' %}").Parse()
	test.Ok(t, err)

	include, ok := nodes[0].(ast.Include)
	test.True(t, ok, test.Context("nodes[0] was %T, not ast.Include", nodes[0]))
	test.Equal(t, include.Name, "partial.html")
}

func TestParseURL(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		nodes, err := parser.New("test.html", "{% url 'detail' user.id %}").Parse()
		test.Ok(t, err)

		url, ok := nodes[0].(ast.URL)
		test.True(t, ok, test.Context("nodes[0] was %T, not ast.URL", nodes[0]))
		test.Equal(t, url.Route, "detail")
		test.Equal(t, url.AsVar, "")
		test.Equal(t, len(url.Args), 1)

		arg, ok := url.Args[0].(ast.Lookup)
		test.True(t, ok, test.Context("arg was %T, not ast.Lookup", url.Args[0]))
		test.Equal(t, arg.Path, "user.id")
	})

	t.Run("bound", func(t *testing.T) {
		nodes, err := parser.New("test.html", "{% url 'detail' user.id as target %}").Parse()
		test.Ok(t, err)

		url := nodes[0].(ast.URL)
		test.Equal(t, url.Route, "detail")
		test.Equal(t, url.AsVar, "target")
		test.Equal(t, len(url.Args), 1)
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unclosed delimiter", src: "{{ name"},
		{name: "empty variable", src: "{{ }}"},
		{name: "unknown tag", src: "{% widget %}"},
		{name: "unexpected endif", src: "{% endif %}"},
		{name: "unexpected else", src: "{% else %}"},
		{name: "unclosed if", src: "{% if a %}x"},
		{name: "unclosed for", src: "{% for a in b %}x"},
		{name: "malformed for", src: "{% for a of b %}x{% endfor %}"},
		{name: "extends not first", src: `x{% extends "base.html" %}`},
		{name: "extends unquoted", src: "{% extends base.html %}"},
		{name: "block without name", src: "{% block %}x{% endblock %}"},
		{name: "bad condition", src: "{% if a b %}x{% endif %}"},
		{name: "dangling operator", src: "{% if a and %}x{% endif %}"},
		{name: "url missing binding name", src: "{% url 'detail' as %}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.New("test.html", tt.src).Parse()
			test.Err(t, err, test.Context("source %q should not parse", tt.src))

			test.True(
				t,
				errors.Is(err, template.ErrTemplateSyntax),
				test.Context("error %v does not unwrap to ErrTemplateSyntax", err),
			)
		})
	}
}
