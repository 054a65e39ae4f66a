package shout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"go.followtheprocess.codes/msg"
	"golang.org/x/sync/errgroup"

	"shout/internal/diagnose"
	"shout/internal/template"
	"shout/internal/template/engine"
)

// LintOptions are the options passed to the lint subcommand.
type LintOptions struct {
	// Path is the path (file or directory) to lint.
	Path string

	// Config is the path to the config file, defaulting to shout.toml in
	// the current directory.
	Config string

	// Data is an optional path to a TOML file providing the render
	// context. Without it templates render against an empty scope.
	Data string

	// Debug enables debug logging.
	Debug bool
}

// lintFinding is one surfaced diagnostic attributed to the template that
// triggered it.
type lintFinding struct {
	template string
	message  string
	span     *template.Span
}

// Lint implements the lint subcommand.
//
// Every template under the path is rendered with the diagnostics installed,
// so the failures that production rendering would swallow show up here,
// attributed to a file, line and column.
func (s Shout) Lint(ctx context.Context, options LintOptions) error {
	logger := s.logger.WithPrefix("lint").With("path", options.Path)
	logger.Debug("Linting path")

	cfg, err := s.loadConfig(options.Config, logger)
	if err != nil {
		return err
	}

	if !cfg.ShoutVariables() && !cfg.ShoutURLs() {
		logger.Warn("All diagnostics are disabled by config, lint will find nothing")
	}

	data, err := loadData(options.Data)
	if err != nil {
		return err
	}

	info, err := os.Stat(options.Path)
	if err != nil {
		return fmt.Errorf("could not get path info: %w", err)
	}

	root := options.Path

	var names []string

	if info.IsDir() {
		logger.Debug("Path is a directory")

		names, err = templateNames(root)
		if err != nil {
			return err
		}
	} else {
		logger.Debug("Path is a file")

		root = filepath.Dir(options.Path)
		names = []string{filepath.Base(options.Path)}
	}

	logger.Debug("Rendering templates given by path", "number", len(names))

	eng := engine.New(
		engine.DirLoader{Dir: root},
		engine.WithRoutes(cfg.Routes),
		engine.WithStringIfInvalid(cfg.StringIfInvalid),
	)

	hooks := diagnose.New(eng, diagnose.Options{
		Logger:         logger,
		Silenced:       diagnose.RulesFrom(cfg.Silenced()),
		SilencedURLs:   diagnose.RulesFrom(cfg.SilencedURLs()),
		ShoutVariables: cfg.ShoutVariables(),
		ShoutURLs:      cfg.ShoutURLs(),
	})
	hooks.Install()

	var (
		mu       sync.Mutex
		findings []lintFinding
	)

	group := errgroup.Group{}

	for _, name := range names {
		group.Go(func() error {
			finding, err := lintTemplate(eng, name, data)
			if err != nil {
				return err
			}

			if finding != nil {
				mu.Lock()
				findings = append(findings, *finding)
				mu.Unlock()
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	sort.Slice(findings, func(i, j int) bool {
		return findings[i].template < findings[j].template
	})

	for _, finding := range findings {
		s.printFinding(eng, finding)
	}

	if len(findings) > 0 {
		return fmt.Errorf("%d template(s) failed", len(findings))
	}

	for _, name := range names {
		msg.Fsuccess(s.stdout, "%s is clean", name)
	}

	return nil
}

// lintTemplate renders one template, converting surfaced diagnostics into
// findings and passing real failures through.
func lintTemplate(eng *engine.Engine, name string, data map[string]any) (*lintFinding, error) {
	t, err := eng.Get(name)
	if err != nil {
		var syntaxErr *template.SyntaxError
		if errors.As(err, &syntaxErr) {
			return findingFrom(name, syntaxErr), nil
		}

		return nil, err
	}

	_, err = t.Render(data)
	if err == nil {
		return nil, nil
	}

	var syntaxErr *template.SyntaxError
	if errors.As(err, &syntaxErr) {
		return findingFrom(name, syntaxErr), nil
	}

	return nil, err
}

// findingFrom builds a finding from any member of the syntax error family,
// preferring the error's own template attribution over the entrypoint name.
func findingFrom(name string, err *template.SyntaxError) *lintFinding {
	resolved := err.Template
	if resolved == "" || resolved == diagnose.UnknownSource {
		resolved = name
	}

	return &lintFinding{
		template: resolved,
		message:  err.Msg,
		span:     err.Span,
	}
}

// printFinding writes one finding as "name:line:col" followed by the
// diagnostic message and, when the span is known, the offending source line
// with the span highlighted.
func (s Shout) printFinding(eng *engine.Engine, finding lintFinding) {
	header := lipgloss.NewStyle().Bold(true)
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Underline(true)

	location := finding.template

	var source string
	if t, err := eng.Get(finding.template); err == nil {
		source = t.Source()
	}

	if finding.span != nil && source != "" {
		line, col := template.LineCol(source, finding.span.Start)
		location = fmt.Sprintf("%s:%d:%d", finding.template, line, col)
	}

	fmt.Fprintln(s.stdout, header.Render(location))
	fmt.Fprintln(s.stdout, finding.message)

	if finding.span != nil && source != "" {
		fmt.Fprintln(s.stdout, highlight(source, *finding.span, bad))
	}

	fmt.Fprintln(s.stdout)
}

// highlight returns the source line containing span with the spanned text
// styled.
func highlight(source string, span template.Span, style lipgloss.Style) string {
	lineStart := strings.LastIndexByte(source[:span.Start], '\n') + 1

	lineEnd := strings.IndexByte(source[span.Start:], '\n')
	if lineEnd == -1 {
		lineEnd = len(source)
	} else {
		lineEnd += span.Start
	}

	end := min(span.End, lineEnd)

	return source[lineStart:span.Start] + style.Render(source[span.Start:end]) + source[end:lineEnd]
}

// templateNames collects the template files under root, named relative to
// it so they load through the engine as written in source.
func templateNames(root string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if ext := filepath.Ext(path); ext != ".html" && ext != ".tmpl" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		names = append(names, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk %s: %w", root, err)
	}

	return names, nil
}

// loadData decodes an optional TOML data file into a render scope.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data := make(map[string]any)

	if _, err := toml.DecodeFile(path, &data); err != nil {
		return nil, fmt.Errorf("could not load data file: %w", err)
	}

	return data, nil
}
