package diagnose

// builtinRules are lookups against engine internals that are legitimately
// absent in ordinary renders. They ship as a fixed table which user
// configuration extends, never replaces.
var builtinRules = Rules{
	// Only nested loops have a parent loop, but shared partials reference
	// it from both levels.
	"forloop.parentloop": {Any: {}},
	// Only bound when templates are rendered inside a request cycle, which
	// the lint tooling is not.
	"csrf_token": {Any: {}},
}
