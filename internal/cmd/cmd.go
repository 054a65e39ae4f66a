// Package cmd implements shout's CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// Build builds and returns the shout CLI.
func Build() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:           "shout",
		Short:         "Make silently swallowed template failures loud",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logs")

	root.AddCommand(check(&debug), lint(&debug))

	return root
}
