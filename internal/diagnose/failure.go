package diagnose

import (
	"fmt"
	"strings"

	"shout/internal/template"
)

// failure gathers everything known about one intercepted lookup failure.
// It is assembled at interception time and immutable thereafter, either
// becoming a [MissingVariableError] or being discarded by suppression.
type failure struct {
	span        *template.Span
	token       string
	expression  string
	resolved    string
	during      string
	candidates  []string
	suggestions []string
}

// message renders the human facing multi-line diagnostic.
//
// The exact wording is a contract: the first line names the failing token
// and template, an optional line offers suggestions (singular and plural
// phrasing differ), and the trailers say exactly which configuration entry
// silences this occurrence only versus globally.
func (f failure) message() string {
	var sb strings.Builder

	if f.token != f.expression {
		fmt.Fprintf(&sb, "Token '%s' of '%s' does not resolve in template '%s'.\n", f.token, f.expression, f.resolved)
	} else {
		fmt.Fprintf(&sb, "Variable '%s' does not resolve in template '%s'.\n", f.expression, f.resolved)
	}

	switch len(f.suggestions) {
	case 0:
		// No near-misses, nothing to offer
	case 1:
		fmt.Fprintf(&sb, "Possibly you meant to use '%s'.\n", f.suggestions[0])
	default:
		fmt.Fprintf(&sb, "Possibly you meant one of %s.\n", quoteJoin(f.suggestions))
	}

	fmt.Fprintf(&sb, "Silence this occurrence by adding '%s' = [%q] under [silenced].\n", f.expression, f.resolved)
	fmt.Fprintf(&sb, "Silence this everywhere by adding %q to the silenced list.", f.expression)

	return sb.String()
}

// err converts the failure into its distinguished error.
func (f failure) err() *MissingVariableError {
	return &MissingVariableError{
		SyntaxError: template.SyntaxError{
			Msg:      f.message(),
			Template: f.resolved,
			Span:     f.span,
		},
		Token:       f.token,
		Expression:  f.expression,
		Resolved:    f.resolved,
		Candidates:  f.candidates,
		Suggestions: f.suggestions,
		During:      f.during,
	}
}

// quoteJoin renders a name list as 'a', 'b', 'c'.
func quoteJoin(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, "'"+name+"'")
	}

	return strings.Join(quoted, ", ")
}
