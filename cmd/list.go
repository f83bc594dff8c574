package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// newListCmd creates the 'list' subcommand
func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered matchers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			names := app.Registry.Names()
			if wantsJSON(flags, app) {
				return outputAsJSON(cmd.OutOrStdout(), names)
			}

			out := cmd.OutOrStdout()
			if len(names) == 0 {
				warningColor.Fprintln(out, "No matchers registered")
				return nil
			}
			if !flags.quiet {
				headerColor.Fprintln(out, "MATCHERS")
				fmt.Fprintln(out, strings.Repeat("=", 40))
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
