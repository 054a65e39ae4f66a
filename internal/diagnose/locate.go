package diagnose

import (
	"sort"
	"strings"

	"shout/internal/template"
	"shout/internal/template/engine"
	"shout/internal/template/token"
)

// UnknownSource is the template attribution sentinel used when no candidate
// template's source contains the failing expression.
const UnknownSource = "<unknown source>"

// Locate reconstructs which template's source text produced failing.
//
// By the time a lookup fails, the engine's own bookkeeping has lost precise
// provenance: across extends and include boundaries the template bound to
// the context is frequently not the one whose literal text contains the
// failing expression. Locate therefore assembles a candidate chain in
// priority order (the recorded inheritance history, the template bound to
// the context, the templates of enclosing contexts, and finally any template
// stashed by value in the scope) and scans each candidate's source for a
// structural occurrence of failing, preferring one at or after the
// originating token's offset.
//
// The full deduplicated candidate list is always returned, whichever one
// matched, because suppression needs every plausible attribution. The match
// itself is best-effort: a substring repeated across a template, or one that
// also appears in an unrelated tag, can be attributed to the wrong
// occurrence. That is a documented property of the approach, not something
// worth mirroring the whole parser to fix.
func Locate(ctx *engine.Context, failing string, origin token.Token) (name string, span *template.Span, candidates []string) {
	templates := candidateTemplates(ctx)

	candidates = make([]string, 0, len(templates))
	for _, t := range templates {
		candidates = append(candidates, t.Name())
	}

	for _, t := range templates {
		if match := structuralMatch(t.Source(), failing, origin.Start); match != nil {
			return t.Name(), match, candidates
		}
	}

	return UnknownSource, nil, candidates
}

// candidateTemplates collects every template that could plausibly contain
// the failing expression, in priority order, deduplicated by name.
func candidateTemplates(ctx *engine.Context) []*engine.Template {
	var ordered []*engine.Template

	ordered = append(ordered, ctx.History()...)

	for c := ctx; c != nil; c = c.Parent() {
		if t := c.Template(); t != nil {
			ordered = append(ordered, t)
		}

		ordered = append(ordered, c.History()...)
	}

	// Inclusion tags stash their sub-template into scope by value, walk the
	// flattened scope in key order so the chain is deterministic.
	flat := ctx.Flatten()

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if t, ok := flat[key].(*engine.Template); ok {
			ordered = append(ordered, t)
		}
	}

	seen := make(map[string]struct{}, len(ordered))
	unique := ordered[:0]

	for _, t := range ordered {
		if _, dup := seen[t.Name()]; dup {
			continue
		}

		seen[t.Name()] = struct{}{}
		unique = append(unique, t)
	}

	return unique
}

// structuralMatch finds an occurrence of needle in src that sits inside a
// variable or tag delimiter, preferring the first occurrence at or after the
// after offset, falling back to the first structural occurrence anywhere.
func structuralMatch(src, needle string, after int) *template.Span {
	if needle == "" {
		return nil
	}

	var first *template.Span

	for from := 0; ; {
		idx := strings.Index(src[from:], needle)
		if idx == -1 {
			return first
		}

		start := from + idx
		from = start + 1

		if !structural(src, start, len(needle)) {
			continue
		}

		if start >= after {
			return &template.Span{Start: start, End: start + len(needle)}
		}

		if first == nil {
			first = &template.Span{Start: start, End: start + len(needle)}
		}
	}
}

// structural reports whether src[at:at+length] lies between a variable or
// tag opener and its closer. Occurrences inside comment delimiters, or in
// literal text, are not structural.
func structural(src string, at, length int) bool {
	openVar := strings.LastIndex(src[:at], "{{")
	openTag := strings.LastIndex(src[:at], "{%")
	openComment := strings.LastIndex(src[:at], "{#")

	open := max(openVar, openTag, openComment)
	if open == -1 || open == openComment {
		return false
	}

	closer := "}}"
	if open == openTag {
		closer = "%}"
	}

	closeIdx := strings.Index(src[open:], closer)
	if closeIdx == -1 {
		return false
	}

	return open+closeIdx >= at+length
}
