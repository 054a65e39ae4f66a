// Package token provides the set of lexical tokens for template source.
package token

import (
	"fmt"
	"slices"
)

// Kind is the kind of a token.
type Kind int

//go:generate stringer -type Kind -linecomment
const (
	EOF     Kind = iota // EOF
	Error               // Error
	Text                // Text
	Var                 // Var
	Tag                 // Tag
	Comment             // Comment
)

// Token is a lexical token in a template.
//
// A token covers one chunk of the source text, delimiters included. A Var
// token for "{{ user.name }}" starts at the '{' of '{{' and ends just after
// the '}' of '}}'.
type Token struct {
	Kind  Kind // The kind of token this is
	Start int  // Byte offset from the start of the source to the start of this token
	End   int  // Byte offset from the start of the source to the end of this token
}

// String implements [fmt.Stringer] for a [Token].
func (t Token) String() string {
	return fmt.Sprintf("<Token::%s start=%d, end=%d>", t.Kind, t.Start, t.End)
}

// Is reports whether the token is any of the provided [Kind]s.
func (t Token) Is(kinds ...Kind) bool {
	return slices.Contains(kinds, t.Kind)
}
