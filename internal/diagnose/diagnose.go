package diagnose

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"shout/internal/template"
	"shout/internal/template/ast"
	"shout/internal/template/engine"
)

// Options configures a [HookSet].
type Options struct {
	// Logger receives debug logs for suppressed failures and warnings for
	// internal diagnostic faults. Defaults to a discarding logger.
	Logger *log.Logger

	// Silenced are the user supplied suppression rules for variable
	// lookups, merged under the built-in table on every failure.
	Silenced Rules

	// SilencedURLs are the user supplied suppression rules for bound url
	// reversals, keyed by "route asvar".
	SilencedURLs Rules

	// ShoutVariables enables the variable lookup and conditional hooks.
	ShoutVariables bool

	// ShoutURLs enables the url binding hook.
	ShoutURLs bool
}

// HookSet owns the diagnostic hooks for one engine.
//
// A HookSet is constructed with [New] and wired into the engine with
// [HookSet.Install]. There is no uninstall: once hooked, the engine stays
// hooked for its lifetime.
type HookSet struct {
	engine        *engine.Engine
	logger        *log.Logger
	options       Options
	mu            sync.Mutex // Guards installation state
	varInstalled  bool
	urlInstalled  bool
	installations int
}

// New returns a [HookSet] for eng. Nothing is wired until
// [HookSet.Install] is called.
func New(eng *engine.Engine, options Options) *HookSet {
	logger := options.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &HookSet{
		engine:  eng,
		logger:  logger,
		options: options,
	}
}

// Install wires the enabled hooks into the engine.
//
// Install is idempotent: each hook is installed at most once and repeated
// calls are no-ops, guarded per hook so a second call performs no
// re-installation side effects.
func (h *HookSet) Install() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.options.ShoutVariables && !h.varInstalled {
		h.engine.SetVariableHook(h)
		h.engine.SetConditionHook(h)
		h.varInstalled = true
		h.installations += 2
	}

	if h.options.ShoutURLs && !h.urlInstalled {
		h.engine.SetURLHook(h)
		h.urlInstalled = true
		h.installations++
	}
}

// Installations returns how many hook installations have been performed,
// for observing idempotence.
func (h *HookSet) Installations() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.installations
}

// LookupFailed implements [engine.VariableHook].
//
// It assembles the full diagnostic for the failed lookup, consults the
// suppression policy and either returns the distinguished error or declines
// so the engine proceeds exactly as it would un-hooked.
func (h *HookSet) LookupFailed(ctx *engine.Context, lookupErr *template.VariableError) error {
	f := h.failureFor(ctx, lookupErr)

	if Silenced(lookupErr.Path, f.resolved, f.candidates, h.options.Silenced) {
		h.logger.Debug("silenced missing variable",
			"variable", lookupErr.Path,
			"template", f.resolved,
		)

		return nil
	}

	return f.err()
}

// failureFor assembles a [failure] for a lookup error, degrading to an
// unknown source and no suggestions if diagnostic generation itself fails.
// Generating the diagnostic must never replace the original failure with an
// unrelated crash.
func (h *HookSet) failureFor(ctx *engine.Context, lookupErr *template.VariableError) failure {
	f := failure{
		token:      lookupErr.Part,
		expression: lookupErr.Path,
		resolved:   UnknownSource,
		during:     lookupErr.Path,
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Warn("diagnostic generation failed",
					"variable", lookupErr.Path,
					"panic", fmt.Sprint(r),
				)

				f.resolved = UnknownSource
				f.span = nil
				f.suggestions = nil
			}
		}()

		f.resolved, f.span, f.candidates = Locate(ctx, lookupErr.Path, lookupErr.Token)
		f.suggestions = Suggest(lookupErr.Part, lookupErr.Current)
	}()

	return f
}

// ConditionRendered implements [engine.ConditionHook].
//
// Two separate failure classes hide inside conditionals. An if chain with
// elif branches but no else is an exhaustiveness gap. And short-circuit
// evaluation masks failing operands entirely, so when the chain produced no
// output every operand leaf is force-evaluated regardless of what
// short-circuiting skipped.
func (h *HookSet) ConditionRendered(ctx *engine.Context, node ast.If, output string) error {
	if len(node.Branches) > 1 && !node.HasElse {
		if err := h.exhaustivenessGap(ctx, node); err != nil {
			return err
		}
	}

	if output == "" {
		for _, branch := range node.Branches {
			if err := h.force(ctx, branch.Cond); err != nil {
				return err
			}
		}
	}

	return nil
}

// exhaustivenessGap reports an if/elif chain without an else, subject to the
// same suppression policy as variable failures, keyed by the chain's
// conditions as written.
func (h *HookSet) exhaustivenessGap(ctx *engine.Context, node ast.If) error {
	key := conditionKey(node)

	resolved, span, candidates := Locate(ctx, node.Branches[0].Text, node.Token)

	if Silenced(key, resolved, candidates, h.options.Silenced) {
		h.logger.Debug("silenced exhaustiveness gap",
			"condition", key,
			"template", resolved,
		)

		return nil
	}

	msg := fmt.Sprintf(
		"Conditional '%s' has {%% elif %%} branches but no {%% else %%} in template '%s'.\n"+
			"Silence this occurrence by adding '%s' = [%q] under [silenced].\n"+
			"Silence this everywhere by adding %q to the silenced list.",
		key, resolved, key, resolved, key,
	)

	return &MissingElseError{
		SyntaxError: template.SyntaxError{
			Msg:      msg,
			Template: resolved,
			Span:     span,
		},
		Condition:  key,
		Resolved:   resolved,
		Candidates: candidates,
	}
}

// force walks a condition's operand tree depth-first over its binary
// operand links and resolves every lookup leaf, regardless of whether
// short-circuiting skipped it.
//
// A leaf that fails re-enters the ordinary lookup failure path, so the
// distinguished error propagates. Any other error raised during this
// speculative re-evaluation is discarded.
func (h *HookSet) force(ctx *engine.Context, expr ast.Expression) error {
	switch x := expr.(type) {
	case ast.And:
		if err := h.force(ctx, x.Left); err != nil {
			return err
		}

		return h.force(ctx, x.Right)
	case ast.Or:
		if err := h.force(ctx, x.Left); err != nil {
			return err
		}

		return h.force(ctx, x.Right)
	case ast.Not:
		return h.force(ctx, x.Operand)
	case ast.Lookup:
		_, err := ctx.Resolve(x.Path, x.Token)
		if err == nil {
			return nil
		}

		if lookupErr, ok := err.(*template.VariableError); ok {
			return h.LookupFailed(ctx, lookupErr)
		}

		return nil
	default:
		return nil
	}
}

// URLBound implements [engine.URLHook].
//
// An empty reversal result that was explicitly bound to a variable is a
// failure: the author asked for the value by name and got nothing. The
// suppression key is the compound "route asvar" rather than a dotted path.
func (h *HookSet) URLBound(ctx *engine.Context, node ast.URL, value string) error {
	if value != "" || node.AsVar == "" {
		return nil
	}

	key := node.Route + " " + node.AsVar

	var (
		resolved   = UnknownSource
		span       *template.Span
		candidates []string
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Warn("diagnostic generation failed",
					"url", key,
					"panic", fmt.Sprint(r),
				)

				resolved = UnknownSource
				span = nil
			}
		}()

		resolved, span, candidates = Locate(ctx, node.Route, node.Token)
	}()

	if Silenced(key, resolved, candidates, h.options.SilencedURLs) {
		h.logger.Debug("silenced empty url binding",
			"url", key,
			"template", resolved,
		)

		return nil
	}

	msg := fmt.Sprintf(
		"{%% url '%s' ... as %s %%} resolved to nothing in template '%s'.\n"+
			"Silence this occurrence by adding '%s' = [%q] under [silenced-urls].\n"+
			"Silence this everywhere by adding %q to the silenced-urls list.",
		node.Route, node.AsVar, resolved, key, resolved, key,
	)

	return &MissingVariableError{
		SyntaxError: template.SyntaxError{
			Msg:      msg,
			Template: resolved,
			Span:     span,
		},
		Token:      node.AsVar,
		Expression: key,
		Resolved:   resolved,
		Candidates: candidates,
		During:     node.Route,
	}
}

// conditionKey renders an if chain's conditions as its suppression key,
// e.g. "if a elif b.c".
func conditionKey(node ast.If) string {
	var sb strings.Builder

	for i, branch := range node.Branches {
		if i == 0 {
			sb.WriteString("if ")
		} else {
			sb.WriteString(" elif ")
		}

		sb.WriteString(branch.Text)
	}

	return sb.String()
}
