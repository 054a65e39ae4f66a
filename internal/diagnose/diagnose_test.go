package diagnose_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.followtheprocess.codes/test"
	"go.followtheprocess.codes/txtar"
	"go.uber.org/goleak"

	"shout/internal/config"
	"shout/internal/diagnose"
	"shout/internal/template"
	"shout/internal/template/engine"
)

// render builds an engine over templates, installs hooks with options and
// renders entry against data.
func render(
	t *testing.T,
	templates map[string]string,
	options diagnose.Options,
	entry string,
	data map[string]any,
) (string, error) {
	t.Helper()

	eng := engine.New(engine.MapLoader(templates))

	hooks := diagnose.New(eng, options)
	hooks.Install()

	tmpl, err := eng.Get(entry)
	test.Ok(t, err)

	return tmpl.Render(data)
}

// shoutEverything enables both diagnostics with no user suppression.
func shoutEverything() diagnose.Options {
	return diagnose.Options{ShoutVariables: true, ShoutURLs: true}
}

func TestMissingVariable(t *testing.T) {
	_, err := render(
		t,
		map[string]string{"page.html": "{{ b }}"},
		shoutEverything(),
		"page.html",
		map[string]any{"be": 1},
	)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))

	test.Equal(t, missing.Token, "b")
	test.Equal(t, missing.Expression, "b")
	test.Equal(t, missing.Resolved, "page.html")
	test.EqualFunc(t, missing.Suggestions, []string{"be"}, equalStrings)

	want := "Variable 'b' does not resolve in template 'page.html'.\n" +
		"Possibly you meant to use 'be'.\n" +
		"Silence this occurrence by adding 'b' = [\"page.html\"] under [silenced].\n" +
		"Silence this everywhere by adding \"b\" to the silenced list."

	test.Diff(t, missing.Msg, want)
}

func TestMissingVariableSecondLine(t *testing.T) {
	src := "this works: {{ a }}\nthis does not work: {{ b }}"

	_, err := render(
		t,
		map[string]string{"page.html": src},
		shoutEverything(),
		"page.html",
		map[string]any{"a": 1, "be": 2},
	)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))

	test.True(
		t,
		strings.Contains(missing.Msg, "Variable 'b'"),
		test.Context("message was %q", missing.Msg),
	)
	test.True(
		t,
		strings.Contains(missing.Msg, "meant to use 'be'"),
		test.Context("message was %q", missing.Msg),
	)

	// The span points at the second occurrence, on line 2
	test.NotEqual(t, missing.Span, nil)

	line, _ := template.LineCol(src, missing.Span.Start)
	test.Equal(t, line, 2)
}

func TestMissingVariableDegradedDiagnostics(t *testing.T) {
	// Enumerating explosiveForm's fields panics mid-diagnostic, which must
	// degrade the report rather than crash the render.
	_, err := render(
		t,
		map[string]string{"page.html": "{{ a.b }}"},
		shoutEverything(),
		"page.html",
		map[string]any{"a": explosiveForm{}},
	)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))

	test.Equal(t, missing.Token, "b")
	test.Equal(t, missing.Expression, "a.b")
	test.Equal(t, missing.Resolved, diagnose.UnknownSource)
	test.Equal(t, len(missing.Suggestions), 0, test.Context("suggestions were %v", missing.Suggestions))
	test.True(t, missing.Span == nil, test.Context("span was %+v", missing.Span))
}

func TestMissingVariableNestedPath(t *testing.T) {
	_, err := render(
		t,
		map[string]string{"page.html": "{{ a.b.c }}"},
		shoutEverything(),
		"page.html",
		map[string]any{"a": map[string]any{"b": map[string]any{"cd": 1}}},
	)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))

	test.Equal(t, missing.Token, "c")
	test.Equal(t, missing.Expression, "a.b.c")
	test.Equal(t, missing.During, "a.b.c")
	test.EqualFunc(t, missing.Suggestions, []string{"cd"}, equalStrings)

	want := "Token 'c' of 'a.b.c' does not resolve in template 'page.html'.\n" +
		"Possibly you meant to use 'cd'.\n" +
		"Silence this occurrence by adding 'a.b.c' = [\"page.html\"] under [silenced].\n" +
		"Silence this everywhere by adding \"a.b.c\" to the silenced list."

	test.Diff(t, missing.Msg, want)

	info := missing.Debug()
	test.Equal(t, info.Template, "page.html")
	test.Equal(t, info.Start, 3)
	test.Equal(t, info.End, 8)
	test.Equal(t, info.During, "a.b.c")
}

func TestMissingVariableManySuggestions(t *testing.T) {
	_, err := render(
		t,
		map[string]string{"page.html": "{{ c }}"},
		shoutEverything(),
		"page.html",
		map[string]any{"cd": 1, "ce": 2, "cf": 3},
	)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))

	test.True(
		t,
		strings.Contains(missing.Msg, "Possibly you meant one of 'cd', 'ce', 'cf'.\n"),
		test.Context("message was %q", missing.Msg),
	)
}

func TestMissingVariableErrorFamily(t *testing.T) {
	_, err := render(
		t,
		map[string]string{"page.html": "{{ nope }}"},
		shoutEverything(),
		"page.html",
		nil,
	)
	test.Err(t, err)

	// The distinguished error stays catchable as the broad syntax family
	test.True(t, errors.Is(err, template.ErrTemplateSyntax), test.Context("got %v", err))

	var syntaxErr *template.SyntaxError
	test.True(t, errors.As(err, &syntaxErr), test.Context("got %T", err))
	test.Equal(t, syntaxErr.Template, "page.html")
}

func TestSuppression(t *testing.T) {
	tests := []struct {
		data     map[string]any
		name     string
		src      string
		silenced []string
		scoped   map[string][]string
		wantErr  bool
	}{
		{
			name:    "not silenced",
			src:     "{{ nope }}",
			wantErr: true,
		},
		{
			name:     "silenced everywhere",
			src:      "{{ nope }}",
			silenced: []string{"nope"},
			wantErr:  false,
		},
		{
			name:     "different expression silenced",
			src:      "{{ nope }}",
			silenced: []string{"other"},
			wantErr:  true,
		},
		{
			name:    "silenced in this template",
			src:     "{{ nope }}",
			scoped:  map[string][]string{"nope": {"page.html"}},
			wantErr: false,
		},
		{
			name:    "silenced in another template only",
			src:     "{{ nope }}",
			scoped:  map[string][]string{"nope": {"other.html"}},
			wantErr: true,
		},
		{
			name:    "any variable in this template",
			src:     "{{ nope }}",
			scoped:  map[string][]string{diagnose.Any: {"page.html"}},
			wantErr: false,
		},
		{
			name:    "builtin parentloop in outermost loop",
			src:     "{% for x in xs %}{{ forloop.parentloop }}{% endfor %}",
			data:    map[string]any{"xs": []any{1}},
			wantErr: false,
		},
		{
			name:    "builtin csrf token",
			src:     "{{ csrf_token }}",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := shoutEverything()

			if tt.silenced != nil {
				options.Silenced = diagnose.RulesFrom(tt.silenced)
			}

			if tt.scoped != nil {
				options.Silenced = diagnose.RulesFrom(tt.scoped)
			}

			_, err := render(t, map[string]string{"page.html": tt.src}, options, "page.html", tt.data)

			if tt.wantErr {
				test.Err(t, err)
			} else {
				test.Ok(t, err)
			}
		})
	}
}

func TestShortCircuitForcing(t *testing.T) {
	// Unhooked, short-circuiting means undefined_var is never evaluated.
	// When the chain renders nothing, every operand leaf gets forced.
	src := "{% if False and undefined_var %}x{% endif %}"

	_, err := render(t, map[string]string{"page.html": src}, shoutEverything(), "page.html", nil)
	test.Err(t, err)

	var missing *diagnose.MissingVariableError
	test.True(t, errors.As(err, &missing), test.Context("got %T", err))
	test.Equal(t, missing.Expression, "undefined_var")
}

func TestShortCircuitForcingSkippedWhenRendered(t *testing.T) {
	// A chain that produced output is not re-evaluated
	src := "{% if True or undefined_var %}x{% endif %}"

	got, err := render(t, map[string]string{"page.html": src}, shoutEverything(), "page.html", nil)
	test.Ok(t, err)
	test.Equal(t, got, "x")
}

func TestExhaustiveness(t *testing.T) {
	src := "{% if a %}1{% elif b %}2{% endif %}"

	t.Run("raises", func(t *testing.T) {
		_, err := render(
			t,
			map[string]string{"page.html": src},
			shoutEverything(),
			"page.html",
			map[string]any{"a": true, "b": false},
		)
		test.Err(t, err)

		var gap *diagnose.MissingElseError
		test.True(t, errors.As(err, &gap), test.Context("got %T", err))
		test.Equal(t, gap.Condition, "if a elif b")

		// Deliberately not the same type as a missing variable
		var missing *diagnose.MissingVariableError
		test.True(t, !errors.As(err, &missing), test.Context("got %T", err))

		test.True(
			t,
			strings.Contains(
				gap.Msg,
				"Conditional 'if a elif b' has {% elif %} branches but no {% else %} in template 'page.html'.",
			),
			test.Context("message was %q", gap.Msg),
		)
	})

	t.Run("silenced by condition key", func(t *testing.T) {
		options := shoutEverything()
		options.Silenced = diagnose.RulesFrom([]string{"if a elif b"})

		got, err := render(
			t,
			map[string]string{"page.html": src},
			options,
			"page.html",
			map[string]any{"a": true, "b": false},
		)
		test.Ok(t, err)
		test.Equal(t, got, "1")
	})

	t.Run("else closes the gap", func(t *testing.T) {
		closed := "{% if a %}1{% elif b %}2{% else %}3{% endif %}"

		got, err := render(
			t,
			map[string]string{"page.html": closed},
			shoutEverything(),
			"page.html",
			map[string]any{"a": true, "b": false},
		)
		test.Ok(t, err)
		test.Equal(t, got, "1")
	})

	t.Run("plain if is exempt", func(t *testing.T) {
		plain := "{% if a %}1{% endif %}"

		got, err := render(
			t,
			map[string]string{"page.html": plain},
			shoutEverything(),
			"page.html",
			map[string]any{"a": true},
		)
		test.Ok(t, err)
		test.Equal(t, got, "1")
	})
}

func TestURLBound(t *testing.T) {
	src := "{% url 'nope' as target %}"

	t.Run("raises", func(t *testing.T) {
		eng := engine.New(engine.MapLoader{"page.html": src})

		hooks := diagnose.New(eng, shoutEverything())
		hooks.Install()

		tmpl, err := eng.Get("page.html")
		test.Ok(t, err)

		_, err = tmpl.Render(nil)
		test.Err(t, err)

		var missing *diagnose.MissingVariableError
		test.True(t, errors.As(err, &missing), test.Context("got %T", err))
		test.Equal(t, missing.Expression, "nope target")
		test.Equal(t, missing.Token, "target")

		want := "{% url 'nope' ... as target %} resolved to nothing in template 'page.html'.\n" +
			"Silence this occurrence by adding 'nope target' = [\"page.html\"] under [silenced-urls].\n" +
			"Silence this everywhere by adding \"nope target\" to the silenced-urls list."

		test.Diff(t, missing.Msg, want)
	})

	t.Run("silenced", func(t *testing.T) {
		options := shoutEverything()
		options.SilencedURLs = diagnose.RulesFrom([]string{"nope target"})

		_, err := render(t, map[string]string{"page.html": src}, options, "page.html", nil)
		test.Ok(t, err)
	})

	t.Run("resolving url is fine", func(t *testing.T) {
		eng := engine.New(
			engine.MapLoader{"page.html": "{% url 'home' as target %}{{ target }}"},
			engine.WithRoutes(map[string]string{"home": "/"}),
		)

		hooks := diagnose.New(eng, shoutEverything())
		hooks.Install()

		tmpl, err := eng.Get("page.html")
		test.Ok(t, err)

		got, err := tmpl.Render(nil)
		test.Ok(t, err)
		test.Equal(t, got, "/")
	})

	t.Run("inline empty is exempt", func(t *testing.T) {
		// Only "as var" bindings are checked, inline failures already error
		eng := engine.New(
			engine.MapLoader{"page.html": "{% url 'home' %}"},
			engine.WithRoutes(map[string]string{"home": "/"}),
		)

		hooks := diagnose.New(eng, shoutEverything())
		hooks.Install()

		tmpl, err := eng.Get("page.html")
		test.Ok(t, err)

		got, err := tmpl.Render(nil)
		test.Ok(t, err)
		test.Equal(t, got, "/")
	})
}

func TestInstallIdempotent(t *testing.T) {
	eng := engine.New(engine.MapLoader{"page.html": "{{ nope }}"})

	hooks := diagnose.New(eng, shoutEverything())

	test.Equal(t, hooks.Installations(), 0)

	hooks.Install()
	test.Equal(t, hooks.Installations(), 3)

	hooks.Install()
	hooks.Install()
	test.Equal(t, hooks.Installations(), 3)
}

func TestInstallDisabled(t *testing.T) {
	eng := engine.New(engine.MapLoader{"page.html": "[{{ nope }}]"})

	hooks := diagnose.New(eng, diagnose.Options{})
	hooks.Install()

	test.Equal(t, hooks.Installations(), 0)

	tmpl, err := eng.Get("page.html")
	test.Ok(t, err)

	// With nothing installed the engine swallows the failure as usual
	got, err := tmpl.Render(nil)
	test.Ok(t, err)
	test.Equal(t, got, "[]")
}

func TestScenarios(t *testing.T) {
	// Force colour for diffs but only locally
	test.ColorEnabled(os.Getenv("CI") == "")

	pattern := filepath.Join("testdata", "*.txtar")
	files, err := filepath.Glob(pattern)
	test.Ok(t, err)
	test.True(t, len(files) > 0, test.Context("no txtar fixtures found"))

	for _, file := range files {
		name := filepath.Base(file)
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			archive, err := txtar.ParseFile(file)
			test.Ok(t, err)

			templates := make(engine.MapLoader)

			for _, candidate := range []string{"page.html", "base.html", "partial.html"} {
				if src, ok := archive.Read(candidate); ok {
					templates[candidate] = src
				}
			}

			_, ok := templates["page.html"]
			test.True(t, ok, test.Context("%s missing page.html", file))

			options := shoutEverything()

			if raw, ok := archive.Read("config.toml"); ok {
				cfg, err := config.Parse(strings.NewReader(raw))
				test.Ok(t, err)

				options = diagnose.Options{
					Silenced:       diagnose.RulesFrom(cfg.Silenced()),
					SilencedURLs:   diagnose.RulesFrom(cfg.SilencedURLs()),
					ShoutVariables: cfg.ShoutVariables(),
					ShoutURLs:      cfg.ShoutURLs(),
				}
			}

			eng := engine.New(templates)

			hooks := diagnose.New(eng, options)
			hooks.Install()

			tmpl, err := eng.Get("page.html")
			test.Ok(t, err)

			got, err := tmpl.Render(nil)

			if want, ok := archive.Read("want.txt"); ok {
				test.Err(t, err, test.Context("%s expected a diagnostic", file))
				test.Diff(t, err.Error(), strings.TrimRight(want, "\n"))

				return
			}

			test.Ok(t, err)

			if want, ok := archive.Read("output.txt"); ok {
				test.Diff(t, strings.TrimRight(got, "\n"), strings.TrimRight(want, "\n"))
			}
		})
	}
}

// explosiveForm panics when asked to enumerate its field names.
type explosiveForm struct{}

func (explosiveForm) Fields() []string {
	panic("field enumeration exploded")
}
