// Package template holds the types shared by every stage of the template
// engine: source spans, the syntax error family and the low level variable
// lookup error.
//
// The engine itself lives in the engine subpackage, the grammar stages in
// token, lexer, ast and parser.
package template

import (
	"errors"
	"fmt"

	"shout/internal/template/token"
)

// ErrTemplateSyntax is the sentinel for the whole template syntax error
// family. Every error raised while parsing or rendering a template unwraps
// to it, so callers can catch the broad family with [errors.Is].
var ErrTemplateSyntax = errors.New("template syntax error")

// Span is a half-open byte range [Start, End) into a template's source text.
type Span struct {
	Start int // Byte offset of the start of the span
	End   int // Byte offset just past the end of the span
}

// SyntaxError is an error in template source, raised at parse or render time.
type SyntaxError struct {
	Span     *Span  // Optional span of source the error points at
	Msg      string // Descriptive message explaining the error
	Template string // Name of the template, may be empty if unknown
}

// Error implements the error interface for a [SyntaxError].
func (e *SyntaxError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("%s: %s", e.Template, e.Msg)
	}

	return e.Msg
}

// Unwrap links a [SyntaxError] into the [ErrTemplateSyntax] family.
func (e *SyntaxError) Unwrap() error {
	return ErrTemplateSyntax
}

// VariableError is the low level "does not exist" signal raised when a dotted
// lookup fails against the evaluation scope.
//
// It records which part of the path failed, the whole path as written, and
// the value that was being navigated at the moment of failure, which is what
// suggestion machinery needs to enumerate plausible alternatives.
type VariableError struct {
	Current  any         // The value being navigated when Part failed
	Part     string      // The specific sub-path that did not resolve
	Path     string      // The whole dotted path as written
	Template string      // Name of the template the originating token belongs to
	Token    token.Token // The originating chunk token
}

// Error implements the error interface for a [VariableError].
func (e *VariableError) Error() string {
	if e.Part != e.Path {
		return fmt.Sprintf("token %q of %q does not resolve", e.Part, e.Path)
	}

	return fmt.Sprintf("variable %q does not resolve", e.Path)
}

// LineCol converts a byte offset into 1-indexed line and column numbers
// within src, for human facing display.
func LineCol(src string, offset int) (line, col int) {
	line = 1
	lastNewLine := -1

	for i := 0; i < len(src) && i < offset; i++ {
		if src[i] == '\n' {
			lastNewLine = i
			line++
		}
	}

	return line, offset - lastNewLine
}
