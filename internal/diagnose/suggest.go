package diagnose

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"shout/internal/template/engine"
)

const (
	maxSuggestions = 3   // At most this many near-misses are offered
	cutoff         = 0.6 // Minimum similarity ratio for a near-miss
)

// Suggest returns ranked near-miss alternatives for a failing lookup token,
// drawn from the runtime shape of the value that was being navigated.
//
// Mappings contribute their keys, sized sequences their valid indexes (when
// the token itself is numeric), form-like values their declared field names
// and anything else its exported fields and methods. Matching is case
// insensitive but results keep their original casing.
func Suggest(failing string, current any) []string {
	candidates := candidateNames(failing, current)
	if len(candidates) == 0 {
		return nil
	}

	originals := make(map[string]string, len(candidates))
	lowered := make([]string, 0, len(candidates))

	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if _, seen := originals[lower]; !seen {
			originals[lower] = candidate
			lowered = append(lowered, lower)
		}
	}

	matches := closeMatches(strings.ToLower(failing), lowered)

	suggestions := make([]string, 0, len(matches))
	for _, match := range matches {
		suggestions = append(suggestions, originals[match])
	}

	return suggestions
}

// candidateNames enumerates the plausible member names of current.
func candidateNames(failing string, current any) []string {
	if current == nil {
		return nil
	}

	if m, ok := current.(map[string]any); ok {
		return sortedKeys(m)
	}

	if f, ok := current.(engine.Fielder); ok {
		return f.Fields()
	}

	v := reflect.ValueOf(current)

	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}

		keys := make([]string, 0, v.Len())
		for _, key := range v.MapKeys() {
			keys = append(keys, key.String())
		}

		sort.Strings(keys)

		return keys
	case reflect.Slice, reflect.Array:
		if _, err := strconv.Atoi(failing); err != nil {
			return nil
		}

		indexes := make([]string, 0, v.Len())
		for i := range v.Len() {
			indexes = append(indexes, strconv.Itoa(i))
		}

		return indexes
	case reflect.Struct:
		return publicMembers(v.Type(), reflect.TypeOf(current))
	default:
		return nil
	}
}

// publicMembers returns the exported field and method names of a struct
// type, the Go reading of "publicly visible attributes". original is the
// value's type before pointer indirection so pointer-receiver methods are
// included.
func publicMembers(structType, original reflect.Type) []string {
	var names []string

	for _, field := range reflect.VisibleFields(structType) {
		if field.IsExported() && !field.Anonymous {
			names = append(names, field.Name)
		}
	}

	methods := original
	if methods.Kind() != reflect.Pointer {
		methods = reflect.PointerTo(methods)
	}

	for i := range methods.NumMethod() {
		names = append(names, methods.Method(i).Name)
	}

	sort.Strings(names)

	return names
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// closeMatches returns the candidates most similar to word in descending
// similarity order, filtered by [cutoff] and capped at [maxSuggestions].
// Ties keep candidate order, which callers ensure is deterministic.
func closeMatches(word string, candidates []string) []string {
	type scored struct {
		name  string
		score float64
	}

	var results []scored

	for _, candidate := range candidates {
		if score := ratio(word, candidate); score >= cutoff {
			results = append(results, scored{name: candidate, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}

	matches := make([]string, 0, len(results))
	for _, result := range results {
		matches = append(matches, result.name)
	}

	return matches
}

// ratio is the classic sequence-matcher similarity: twice the number of
// matched bytes over the total length of both strings, in [0, 1].
func ratio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}

	return 2 * float64(matched(a, b)) / float64(total)
}

// matched counts matching bytes by recursively carving out the longest
// common substring and matching the pieces either side of it.
func matched(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}

	return size + matched(a[:ai], b[:bi]) + matched(a[ai+size:], b[bi+size:])
}

// longestCommonSubstring returns the start offsets and length of the longest
// substring common to a and b.
func longestCommonSubstring(a, b string) (ai, bi, size int) {
	if a == "" || b == "" {
		return 0, 0, 0
	}

	// lengths[j] is the length of the common suffix ending at a[i], b[j-1]
	// from the previous row of the implicit DP table
	lengths := make([]int, len(b)+1)

	for i := range len(a) {
		// Walk backwards so we can update in place
		for j := len(b); j >= 1; j-- {
			if a[i] == b[j-1] {
				lengths[j] = lengths[j-1] + 1

				if lengths[j] > size {
					size = lengths[j]
					ai = i - size + 1
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
		}
	}

	return ai, bi, size
}
