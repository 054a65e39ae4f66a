// Package diagnose turns silently swallowed template lookup failures into
// loud, precise diagnostics.
//
// It hooks the engine's extension points, classifies each failure against a
// suppression allow-list, reconstructs which template's source text produced
// the failing expression and offers ranked near-miss suggestions from the
// live evaluation scope.
package diagnose

// Any is the wildcard sentinel usable on either side of a suppression rule:
// as a variable path it means "any variable", as a template scope member it
// means "any template".
const Any = "*"

// Rules maps a variable path (or [Any]) to the set of template names (or
// [Any]) the rule silences it in.
//
// Rules are cheap, immutable once built and re-derived from configuration on
// every failure, so concurrent renders never need locking around them.
type Rules map[string]map[string]struct{}

// RulesFrom builds [Rules] from a raw configuration value.
//
// Two shapes are accepted: a flat list of variable paths, each implicitly
// scoped to any template, or a mapping from variable path to a list of
// template names. Anything malformed is skipped here, the startup check
// ([Validate]) is responsible for telling the user about it. A rule pairing
// the any-variable sentinel with the any-template sentinel is ignored: that
// combination would disable the feature wholesale and is rejected by
// validation.
func RulesFrom(value any) Rules {
	rules := make(Rules)

	add := func(variable string, scopes ...string) {
		for _, scope := range scopes {
			if variable == Any && scope == Any {
				continue
			}

			if rules[variable] == nil {
				rules[variable] = make(map[string]struct{})
			}

			rules[variable][scope] = struct{}{}
		}
	}

	switch v := value.(type) {
	case nil:
		return rules
	case []string:
		for _, variable := range v {
			add(variable, Any)
		}
	case []any:
		for _, item := range v {
			if variable, ok := item.(string); ok {
				add(variable, Any)
			}
		}
	case map[string][]string:
		for variable, scopes := range v {
			add(variable, scopes...)
		}
	case map[string]any:
		for variable, raw := range v {
			switch scopes := raw.(type) {
			case []string:
				add(variable, scopes...)
			case []any:
				for _, item := range scopes {
					if scope, ok := item.(string); ok {
						add(variable, scope)
					}
				}
			}
		}
	}

	return rules
}

// merged returns the union of the built-in rules and user, leaving both
// inputs untouched.
func merged(user Rules) Rules {
	rules := make(Rules, len(builtinRules)+len(user))

	for _, source := range []Rules{builtinRules, user} {
		for variable, scopes := range source {
			if rules[variable] == nil {
				rules[variable] = make(map[string]struct{}, len(scopes))
			}

			for scope := range scopes {
				rules[variable][scope] = struct{}{}
			}
		}
	}

	return rules
}

// Silenced reports whether a failure of expression should be suppressed.
//
// resolved is the best-effort template attribution and candidates every
// template that could plausibly contain the expression. Because attribution
// is inherently ambiguous across inheritance and inclusion, the match is
// deliberately broad: the failure is silenced if any plausible attribution
// matches either a rule for the expression itself or an any-variable rule.
// Adding rules can therefore only ever turn a raise into a suppress, never
// the reverse.
func Silenced(expression, resolved string, candidates []string, user Rules) bool {
	rules := merged(user)

	scopes := rules[expression]
	anyVariable := rules[Any]

	if _, ok := scopes[Any]; ok {
		return true
	}

	if _, ok := scopes[resolved]; ok {
		return true
	}

	for _, candidate := range candidates {
		if _, ok := scopes[candidate]; ok {
			return true
		}
	}

	for _, candidate := range candidates {
		if _, ok := anyVariable[candidate]; ok {
			return true
		}
	}

	if _, ok := anyVariable[resolved]; ok {
		return true
	}

	return false
}
