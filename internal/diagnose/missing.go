package diagnose

import "shout/internal/template"

// MissingVariableError is the distinguished error raised for a surfaced
// lookup failure.
//
// It belongs to the engine's syntax error family, so callers already
// catching [template.ErrTemplateSyntax] or [*template.SyntaxError] keep
// working, but it additionally carries the structured fields tooling needs
// without parsing the message text.
type MissingVariableError struct {
	template.SyntaxError

	// Token is the specific sub-path that did not resolve, e.g. "c" out
	// of "a.b.c".
	Token string

	// Expression is the whole dotted path as written.
	Expression string

	// Resolved is the best-effort template attribution, or
	// [UnknownSource].
	Resolved string

	// Candidates is every template in the lookup chain that plausibly
	// contains the failing expression.
	Candidates []string

	// Suggestions are ranked near-miss alternatives, possibly empty.
	Suggestions []string

	// During is the literal substring matched in the resolved template's
	// source.
	During string
}

// Unwrap links a [MissingVariableError] into the syntax error family.
func (e *MissingVariableError) Unwrap() error {
	return &e.SyntaxError
}

// DebugInfo is the structured payload attached to a surfaced failure,
// mirroring the structure the engine's own error rendering works with.
type DebugInfo struct {
	// Template is the resolved template name.
	Template string `json:"template" yaml:"template"`

	// Start is the byte offset of the start of the matched span.
	Start int `json:"start" yaml:"start"`

	// End is the byte offset just past the end of the matched span.
	End int `json:"end" yaml:"end"`

	// During is the literal substring matched.
	During string `json:"during" yaml:"during"`
}

// Debug returns the structured payload for a surfaced failure.
func (e *MissingVariableError) Debug() DebugInfo {
	info := DebugInfo{
		Template: e.Resolved,
		During:   e.During,
	}

	if e.Span != nil {
		info.Start = e.Span.Start
		info.End = e.Span.End
	}

	return info
}

// MissingElseError is raised for an exhaustiveness gap: an if chain with
// elif branches but no closing else, which usually means the author forgot
// a fallback branch. It is deliberately a different type from
// [MissingVariableError] so the two cannot be confused programmatically,
// but it belongs to the same syntax error family.
type MissingElseError struct {
	template.SyntaxError

	// Condition is the chain's suppression key, e.g. "if a elif b".
	Condition string

	// Resolved is the best-effort template attribution, or
	// [UnknownSource].
	Resolved string

	// Candidates is every template that plausibly contains the chain.
	Candidates []string
}

// Unwrap links a [MissingElseError] into the syntax error family.
func (e *MissingElseError) Unwrap() error {
	return &e.SyntaxError
}
