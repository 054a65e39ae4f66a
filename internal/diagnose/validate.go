package diagnose

import "fmt"

// A CheckError is one configuration validation finding. It satisfies error
// so findings can flow through ordinary error plumbing, but Validate
// returns them as a slice because a broken configuration usually has more
// than one problem and reporting only the first wastes a round trip.
type CheckError struct {
	// ID is the stable machine-readable identifier, e.g. "shout.E001".
	ID string

	// Message describes the specific violation, naming the offending value.
	Message string

	// Hint says how to fix it.
	Hint string
}

// Error implements the error interface for a [CheckError].
func (c CheckError) Error() string {
	return fmt.Sprintf("%s: %s", c.ID, c.Message)
}

// Check error identifiers. The numbering is append-only: retired checks
// leave gaps rather than renumbering their successors.
const (
	checkBareString     = "shout.E001"
	checkListElement    = "shout.E002"
	checkKeyNotString   = "shout.E003"
	checkValueNotList   = "shout.E004"
	checkEmptyScope     = "shout.E005"
	checkScopeNotString = "shout.E006"
	checkStarStar       = "shout.E007"
	checkBadType        = "shout.E008"
)

// Validate checks a raw silenced configuration value before it is converted
// into [Rules], collecting every violation rather than stopping at the
// first.
//
// The accepted shapes mirror [RulesFrom]: nothing, a list of expression
// strings, or a mapping from expression strings to lists of template name
// strings. A bare string is the classic mistake (a lone expression instead
// of a single element list) and gets its own check. The fully global
// wildcard, every expression in every template, would disable the
// diagnostics entirely and is rejected outright.
func Validate(value any) []CheckError {
	var errs []CheckError

	switch v := value.(type) {
	case nil:
		// Absent is fine
	case string:
		errs = append(errs, CheckError{
			ID:      checkBareString,
			Message: fmt.Sprintf("silenced value %q appears to be a string", v),
			Hint:    fmt.Sprintf("did you mean [%q]?", v),
		})
	case []string:
		// Already uniformly typed, nothing to check per element
	case []any:
		for i, elem := range v {
			if _, ok := elem.(string); !ok {
				errs = append(errs, CheckError{
					ID:      checkListElement,
					Message: fmt.Sprintf("silenced entry %d is %T, not a string", i, elem),
					Hint:    "every entry in a silenced list must be a quoted expression",
				})
			}
		}
	case map[string][]string:
		for key, templates := range v {
			errs = append(errs, validateScope(key, templates)...)
		}
	case map[any]any:
		// Generic decoders hand back untyped keys, only strings are usable
		for rawKey, raw := range v {
			key, ok := rawKey.(string)
			if !ok {
				errs = append(errs, CheckError{
					ID:      checkKeyNotString,
					Message: fmt.Sprintf("silenced key %v is %T, not a string", rawKey, rawKey),
					Hint:    "silenced keys must be quoted expressions",
				})

				continue
			}

			templates, ok := stringList(raw)
			if !ok {
				errs = append(errs, CheckError{
					ID:      checkValueNotList,
					Message: fmt.Sprintf("silenced value for %q is %T, not a list of template names", key, raw),
					Hint:    fmt.Sprintf("write %q = [\"template.html\"]", key),
				})

				continue
			}

			errs = append(errs, validateScope(key, templates)...)
		}
	case map[string]any:
		for key, raw := range v {
			templates, ok := stringList(raw)
			if !ok {
				errs = append(errs, CheckError{
					ID:      checkValueNotList,
					Message: fmt.Sprintf("silenced value for %q is %T, not a list of template names", key, raw),
					Hint:    fmt.Sprintf("write %q = [\"template.html\"]", key),
				})

				continue
			}

			errs = append(errs, validateScope(key, templates)...)
		}
	default:
		errs = append(errs, CheckError{
			ID:      checkBadType,
			Message: fmt.Sprintf("silenced configuration is %T", value),
			Hint:    "use a list of expressions or a table of expression to template names",
		})
	}

	return errs
}

// validateScope checks one expression to template-names entry.
func validateScope(key string, templates []string) []CheckError {
	var errs []CheckError

	if len(templates) == 0 {
		errs = append(errs, CheckError{
			ID:      checkEmptyScope,
			Message: fmt.Sprintf("silenced entry %q has an empty template list", key),
			Hint:    fmt.Sprintf("add template names, or use %q to silence everywhere", Any),
		})
	}

	wildcardScope := false

	for i, name := range templates {
		if name == "" {
			errs = append(errs, CheckError{
				ID:      checkScopeNotString,
				Message: fmt.Sprintf("silenced entry %q has an empty template name at position %d", key, i),
				Hint:    "template names must be non-empty strings",
			})
		}

		if name == Any {
			wildcardScope = true
		}
	}

	if key == Any && wildcardScope {
		errs = append(errs, CheckError{
			ID:      checkStarStar,
			Message: fmt.Sprintf("silenced entry %q = [%q] silences everything everywhere", Any, Any),
			Hint:    "remove the entry, or disable the diagnostics explicitly instead",
		})
	}

	return errs
}

// stringList converts a raw decoded list into []string, reporting per
// element problems through [checkScopeNotString]'s caller by refusing the
// whole value when any element is not a string.
func stringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, false
			}

			out = append(out, s)
		}

		return out, true
	default:
		return nil, false
	}
}
