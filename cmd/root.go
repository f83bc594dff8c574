// Package cmd provides the matchkit command-line interface.
package cmd

import (
	"encoding/json"
	"errors"
	"io"

	"matchkit/bootstrap"
	"matchkit/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// ErrSuiteFailed is returned by check when at least one case did not pass.
var ErrSuiteFailed = errors.New("suite failed")

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	outputJSON bool
	configFile string
	noColor    bool
	quiet      bool
	logLevel   string
}

// NewRootCmd creates the matchkit command with all subcommands.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "matchkit",
		Short: "Declare and evaluate matchers",
		Long: `matchkit evaluates expectations built from declaratively defined matchers.

Suites of expectations are written in YAML and checked with 'matchkit check'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().BoolVar(&flags.outputJSON, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file path (default: ./matchkit.yaml if present)")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&flags.quiet, "quiet", false, "Suppress non-essential output")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newListCmd(flags))
	root.AddCommand(newCheckCmd(flags))

	return root
}

// initApp wires the application for a subcommand. Logs go to the command's
// stderr.
func initApp(cmd *cobra.Command, flags *rootFlags) (*bootstrap.App, error) {
	app, err := bootstrap.NewApp(bootstrap.Options{
		ConfigPath: flags.configFile,
		LogWriter:  cmd.ErrOrStderr(),
		LogLevel:   flags.logLevel,
	})
	if err != nil {
		return nil, err
	}
	if !app.Config.Output.Color {
		color.NoColor = true
	}
	return app, nil
}

// wantsJSON reports whether output should be JSON, from the flag or config.
func wantsJSON(flags *rootFlags, app *bootstrap.App) bool {
	return flags.outputJSON || app.Config.Output.Format == config.FormatJSON
}

// outputAsJSON writes data as indented JSON.
func outputAsJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
