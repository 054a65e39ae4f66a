package cmd

import (
	"github.com/spf13/cobra"

	"shout/internal/shout"
)

const lintLong = `
The path argument may be a directory or a file.

If it is the name of a template file, that file alone is rendered with
the diagnostics installed.

If it is a directory, it is scanned recursively for files with the
'.html' or '.tmpl' extension and every matching template is rendered.

Templates render against an empty scope unless --data provides a TOML
file of values, so an unannotated lint run surfaces every name the
templates expect.
`

// lint returns the lint subcommand.
func lint(debug *bool) *cobra.Command {
	var options shout.LintOptions

	cmd := &cobra.Command{
		Use:   "lint <path>",
		Short: "Render templates and report swallowed failures",
		Long:  lintLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = args[0]
			options.Debug = *debug

			app := shout.New(options.Debug, cmd.OutOrStdout(), cmd.ErrOrStderr())

			return app.Lint(cmd.Context(), options)
		},
	}

	cmd.Flags().StringVarP(&options.Config, "config", "c", "", "Path to the config file")
	cmd.Flags().StringVarP(&options.Data, "data", "D", "", "Path to a TOML file providing the render context")

	return cmd
}
