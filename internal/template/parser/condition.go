package parser

import (
	"strconv"
	"strings"

	"shout/internal/template/ast"
	"shout/internal/template/token"
)

// parseCondition parses an if/elif condition expression.
//
// Grammar, loosest binding first:
//
//	or      = and { "or" and }
//	and     = not { "and" not }
//	not     = "not" not | primary
//	primary = literal | lookup
//
// Operands become a binary Left/Right tree so that later stages can walk
// every operand regardless of short-circuit evaluation.
func (p *Parser) parseCondition(cond string, tok token.Token) (ast.Expression, error) {
	items, err := splitQuoted(cond)
	if err != nil || len(items) == 0 {
		return nil, p.errorf(tok, "malformed condition %q", cond)
	}

	cp := &condParser{parser: p, items: items, tok: tok}

	expr, err := cp.parseOr()
	if err != nil {
		return nil, err
	}

	if cp.pos != len(cp.items) {
		return nil, p.errorf(tok, "unexpected %q in condition %q", cp.items[cp.pos], cond)
	}

	return expr, nil
}

// condParser parses a single pre-split condition expression.
type condParser struct {
	parser *Parser
	items  []string
	pos    int
	tok    token.Token
}

// peek returns the next item without consuming it, or "" when exhausted.
func (c *condParser) peek() string {
	if c.pos >= len(c.items) {
		return ""
	}

	return c.items[c.pos]
}

func (c *condParser) parseOr() (ast.Expression, error) {
	left, err := c.parseAnd()
	if err != nil {
		return nil, err
	}

	for c.peek() == "or" {
		c.pos++

		right, err := c.parseAnd()
		if err != nil {
			return nil, err
		}

		left = ast.Or{Left: left, Right: right, Token: c.tok}
	}

	return left, nil
}

func (c *condParser) parseAnd() (ast.Expression, error) {
	left, err := c.parseNot()
	if err != nil {
		return nil, err
	}

	for c.peek() == "and" {
		c.pos++

		right, err := c.parseNot()
		if err != nil {
			return nil, err
		}

		left = ast.And{Left: left, Right: right, Token: c.tok}
	}

	return left, nil
}

func (c *condParser) parseNot() (ast.Expression, error) {
	if c.peek() == "not" {
		c.pos++

		operand, err := c.parseNot()
		if err != nil {
			return nil, err
		}

		return ast.Not{Operand: operand, Token: c.tok}, nil
	}

	item := c.peek()
	if item == "" {
		return nil, c.parser.errorf(c.tok, "condition ended unexpectedly")
	}

	c.pos++

	return c.parser.primary(item, c.tok)
}

// primary parses a single expression atom: a literal or a dotted lookup.
func (p *Parser) primary(item string, tok token.Token) (ast.Expression, error) {
	switch item {
	case "True":
		return ast.Literal{Value: true, Token: tok}, nil
	case "False":
		return ast.Literal{Value: false, Token: tok}, nil
	case "None":
		return ast.Literal{Value: nil, Token: tok}, nil
	}

	if unquoted, ok := unquote(item); ok {
		return ast.Literal{Value: unquoted, Token: tok}, nil
	}

	if n, err := strconv.ParseInt(item, 10, 64); err == nil {
		return ast.Literal{Value: n, Token: tok}, nil
	}

	if f, err := strconv.ParseFloat(item, 64); err == nil {
		return ast.Literal{Value: f, Token: tok}, nil
	}

	if !validPath(item) {
		return nil, p.errorf(tok, "invalid expression %q", item)
	}

	return ast.Lookup{Path: item, Token: tok}, nil
}

// validPath reports whether s is a plausible dotted lookup path: dot
// separated parts, none empty.
func validPath(s string) bool {
	if s == "" {
		return false
	}

	for part := range strings.SplitSeq(s, ".") {
		if part == "" {
			return false
		}
	}

	return true
}
