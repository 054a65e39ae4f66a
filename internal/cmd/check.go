package cmd

import (
	"github.com/spf13/cobra"

	"shout/internal/shout"
)

const checkLong = `
The config argument is the path to a shout.toml file, defaulting to
shout.toml in the current directory.

Both the silenced and silenced-urls values are validated in full, so
every problem in the config is reported in one pass.
`

// check returns the check subcommand.
func check(debug *bool) *cobra.Command {
	var options shout.CheckOptions

	cmd := &cobra.Command{
		Use:   "check [config]",
		Short: "Validate the suppression configuration",
		Long:  checkLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				options.Config = args[0]
			}

			options.Debug = *debug

			app := shout.New(options.Debug, cmd.OutOrStdout(), cmd.ErrOrStderr())

			return app.Check(cmd.Context(), options)
		},
	}

	cmd.Flags().StringVarP(&options.Format, "format", "f", "text", "Output format, one of text, json or yaml")

	return cmd
}
