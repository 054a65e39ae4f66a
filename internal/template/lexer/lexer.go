// Package lexer implements the lexical scanner for template source.
//
// The template grammar is delimiter based so, unlike a scanner for a free-form
// language, the lexer only has to split the source into four chunk kinds:
// literal text, variables "{{ ... }}", tags "{% ... %}" and comments
// "{# ... #}". Every emitted token carries the byte offsets of the whole
// chunk, delimiters included, so later stages can always point back at the
// exact source span.
package lexer

import (
	"strings"

	"shout/internal/template/token"
)

// Openers and closers are paired by index.
var (
	openers = []string{"{{", "{%", "{#"}
	closers = []string{"}}", "%}", "#}"}
	kinds   = []token.Kind{token.Var, token.Tag, token.Comment}
)

// Lexer splits template source into chunk tokens.
type Lexer struct {
	src string // Raw source text
	pos int    // Current byte offset into src
}

// New returns a new [Lexer] reading from src.
func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next scans and returns the next token in the source.
//
// Once the source is exhausted, Next returns [token.EOF] forever. An
// unterminated delimiter produces a [token.Error] covering the remainder
// of the source.
func (l *Lexer) Next() token.Token {
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Start: len(l.src), End: len(l.src)}
	}

	start := l.pos
	rest := l.src[l.pos:]

	which, offset := nextOpener(rest)
	if which == -1 {
		// No more delimiters, the rest is literal text
		l.pos = len(l.src)
		return token.Token{Kind: token.Text, Start: start, End: len(l.src)}
	}

	if offset > 0 {
		// Literal text up to the opener
		l.pos = start + offset
		return token.Token{Kind: token.Text, Start: start, End: l.pos}
	}

	// Positioned on an opener, find its closer
	closer := closers[which]

	end := strings.Index(rest[2:], closer)
	if end == -1 {
		l.pos = len(l.src)
		return token.Token{Kind: token.Error, Start: start, End: len(l.src)}
	}

	l.pos = start + 2 + end + len(closer)

	return token.Token{Kind: kinds[which], Start: start, End: l.pos}
}

// nextOpener returns the index into openers of the earliest opening delimiter
// in s along with its byte offset, or (-1, -1) if there are none.
func nextOpener(s string) (which, offset int) {
	which = -1
	offset = -1

	for i, opener := range openers {
		idx := strings.Index(s, opener)
		if idx == -1 {
			continue
		}

		if offset == -1 || idx < offset {
			which = i
			offset = idx
		}
	}

	return which, offset
}
