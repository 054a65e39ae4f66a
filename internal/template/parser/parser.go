// Package parser implements the template parser, turning lexed source chunks
// into an abstract syntax tree.
package parser

import (
	"fmt"
	"strings"

	"shout/internal/template"
	"shout/internal/template/ast"
	"shout/internal/template/lexer"
	"shout/internal/template/token"
)

// Parser is the template parser.
type Parser struct {
	name string       // Name of the template being parsed
	src  string       // Raw source text
	lex  *lexer.Lexer // Lexer producing chunk tokens
	tok  token.Token  // Current token under inspection
}

// New initialises and returns a new [Parser] for the named template source.
func New(name, src string) *Parser {
	p := &Parser{
		name: name,
		src:  src,
		lex:  lexer.New(src),
	}

	p.advance()

	return p
}

// Parse parses the template to completion.
//
// An "{% extends %}" tag is only legal as the very first node, which Parse
// enforces here so the renderer can rely on it.
func (p *Parser) Parse() ([]ast.Node, error) {
	nodes, stop, _, _, err := p.parseUntil()
	if err != nil {
		return nil, err
	}

	if stop != "" {
		return nil, p.errorf(p.tok, "unexpected {%% %s %%}", stop)
	}

	for i, node := range nodes {
		if node.Kind() == ast.KindExtends && i != 0 {
			return nil, p.errorf(node.Start(), "{%% extends %%} must be the first tag in the template")
		}
	}

	return nodes, nil
}

// advance advances the parser by a single token.
func (p *Parser) advance() {
	p.tok = p.lex.Next()
}

// text returns the chunk of source text described by tok, delimiters stripped
// and whitespace trimmed.
func (p *Parser) text(tok token.Token) string {
	return strings.TrimSpace(p.src[tok.Start+2 : tok.End-2])
}

// errorf builds a [template.SyntaxError] pointing at tok.
func (p *Parser) errorf(tok token.Token, format string, a ...any) error {
	return &template.SyntaxError{
		Msg:      fmt.Sprintf(format, a...),
		Template: p.name,
		Span:     &template.Span{Start: tok.Start, End: tok.End},
	}
}

// parseUntil parses nodes until EOF or until it hits a tag whose leading word
// is one of stops.
//
// It returns the parsed nodes, the stop word encountered ("" at EOF), the
// remainder of the stop tag's content after the word, and the stop tag's
// token.
func (p *Parser) parseUntil(stops ...string) (nodes []ast.Node, stop, rest string, stopTok token.Token, err error) {
	for {
		tok := p.tok

		switch tok.Kind {
		case token.EOF:
			return nodes, "", "", tok, nil
		case token.Error:
			return nil, "", "", tok, p.errorf(tok, "unclosed delimiter")
		case token.Comment:
			p.advance()
		case token.Text:
			nodes = append(nodes, ast.Text{Value: p.src[tok.Start:tok.End], Token: tok})
			p.advance()
		case token.Var:
			path := p.text(tok)
			if path == "" {
				return nil, "", "", tok, p.errorf(tok, "empty variable expression")
			}

			nodes = append(nodes, ast.Variable{Path: path, Token: tok})
			p.advance()
		case token.Tag:
			word, tagRest := splitWord(p.text(tok))

			for _, s := range stops {
				if word == s {
					p.advance()
					return nodes, word, tagRest, tok, nil
				}
			}

			node, err := p.parseTag(word, tagRest, tok)
			if err != nil {
				return nil, "", "", tok, err
			}

			nodes = append(nodes, node)
		default:
			return nil, "", "", tok, p.errorf(tok, "unexpected token %s", tok.Kind)
		}
	}
}

// parseTag parses a single tag chunk, dispatching on its leading word. The
// parser has not yet been advanced past tok when parseTag is called.
func (p *Parser) parseTag(word, rest string, tok token.Token) (ast.Node, error) {
	switch word {
	case "if":
		return p.parseIf(rest, tok)
	case "for":
		return p.parseFor(rest, tok)
	case "include":
		p.advance()

		name, ok := unquote(rest)
		if !ok {
			return nil, p.errorf(tok, "include requires a quoted template name")
		}

		return ast.Include{Name: name, Token: tok}, nil
	case "extends":
		p.advance()

		name, ok := unquote(rest)
		if !ok {
			return nil, p.errorf(tok, "extends requires a quoted template name")
		}

		return ast.Extends{Name: name, Token: tok}, nil
	case "block":
		return p.parseBlock(rest, tok)
	case "url":
		p.advance()
		return p.parseURL(rest, tok)
	case "elif", "else", "endif", "endfor", "endblock":
		return nil, p.errorf(tok, "unexpected {%% %s %%}", word)
	default:
		return nil, p.errorf(tok, "unknown tag %q", word)
	}
}

// parseIf parses an if/elif/else chain. cond is the content of the opening
// tag after the "if" word.
func (p *Parser) parseIf(cond string, tok token.Token) (ast.Node, error) {
	p.advance()

	result := ast.If{Token: tok}

	for {
		expr, err := p.parseCondition(cond, tok)
		if err != nil {
			return nil, err
		}

		body, stop, rest, stopTok, err := p.parseUntil("elif", "else", "endif")
		if err != nil {
			return nil, err
		}

		result.Branches = append(result.Branches, ast.Branch{Cond: expr, Text: cond, Body: body})

		switch stop {
		case "elif":
			cond = rest
			tok = stopTok
		case "else":
			elseBody, stop, _, endTok, err := p.parseUntil("endif")
			if err != nil {
				return nil, err
			}

			if stop != "endif" {
				return nil, p.errorf(endTok, "unclosed {%% if %%}, expected {%% endif %%}")
			}

			result.Else = elseBody
			result.HasElse = true
			result.EndToken = endTok

			return result, nil
		case "endif":
			result.EndToken = stopTok
			return result, nil
		default:
			return nil, p.errorf(stopTok, "unclosed {%% if %%}, expected {%% endif %%}")
		}
	}
}

// parseFor parses a "{% for var in path %}" loop.
func (p *Parser) parseFor(rest string, tok token.Token) (ast.Node, error) {
	p.advance()

	fields := strings.Fields(rest)
	if len(fields) != 3 || fields[1] != "in" {
		return nil, p.errorf(tok, "malformed {%% for %%}, expected {%% for var in sequence %%}")
	}

	body, stop, _, endTok, err := p.parseUntil("endfor")
	if err != nil {
		return nil, err
	}

	if stop != "endfor" {
		return nil, p.errorf(endTok, "unclosed {%% for %%}, expected {%% endfor %%}")
	}

	return ast.For{
		Var:      fields[0],
		Path:     fields[2],
		Body:     body,
		Token:    tok,
		EndToken: endTok,
	}, nil
}

// parseBlock parses a "{% block name %}" region.
func (p *Parser) parseBlock(rest string, tok token.Token) (ast.Node, error) {
	p.advance()

	name := strings.TrimSpace(rest)
	if name == "" || len(strings.Fields(name)) != 1 {
		return nil, p.errorf(tok, "block requires exactly one name")
	}

	body, stop, _, endTok, err := p.parseUntil("endblock")
	if err != nil {
		return nil, err
	}

	if stop != "endblock" {
		return nil, p.errorf(endTok, "unclosed {%% block %%}, expected {%% endblock %%}")
	}

	return ast.Block{Name: name, Body: body, Token: tok, EndToken: endTok}, nil
}

// parseURL parses a "{% url 'route' args... [as var] %}" tag.
func (p *Parser) parseURL(rest string, tok token.Token) (ast.Node, error) {
	items, err := splitQuoted(rest)
	if err != nil || len(items) == 0 {
		return nil, p.errorf(tok, "malformed {%% url %%}, expected {%% url 'route' args... %%}")
	}

	route := items[0]
	if unquoted, ok := unquote(route); ok {
		route = unquoted
	}

	result := ast.URL{Route: route, Token: tok}

	args := items[1:]
	for i, item := range args {
		if item == "as" {
			if len(args) != i+2 {
				return nil, p.errorf(tok, "{%% url ... as %%} requires exactly one variable name")
			}

			result.AsVar = args[i+1]

			return result, nil
		}

		expr, err := p.primary(item, tok)
		if err != nil {
			return nil, err
		}

		result.Args = append(result.Args, expr)
	}

	return result, nil
}

// splitWord splits off the first whitespace separated word of s.
func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)

	idx := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	if idx == -1 {
		return s, ""
	}

	return s[:idx], strings.TrimSpace(s[idx:])
}

// unquote strips a single level of matched quotes, reporting whether s was
// actually quoted.
func unquote(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s, false
	}

	if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
		return s[1 : len(s)-1], true
	}

	return s, false
}

// splitQuoted splits s on whitespace while keeping quoted strings together,
// quotes included.
func splitQuoted(s string) ([]string, error) {
	var (
		items   []string
		current strings.Builder
		quote   byte
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			current.WriteByte(c)

			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			current.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n':
			if current.Len() > 0 {
				items = append(items, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated string in %q", s)
	}

	if current.Len() > 0 {
		items = append(items, current.String())
	}

	return items, nil
}
