package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// newCheckCmd creates the 'check' subcommand
func newCheckCmd(flags *rootFlags) *cobra.Command {
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "check <suite.yaml>",
		Short: "Evaluate a suite of expectations",
		Long: `Evaluate every case of a YAML suite and report PASS, FAIL or ERROR per case.

The command exits non-zero when any case fails or errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			suite, err := LoadSuite(args[0])
			if err != nil {
				return err
			}

			asJSON := wantsJSON(flags, app)

			var s *spinner.Spinner
			if app.Config.Output.Spinner && !asJSON && !flags.quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = fmt.Sprintf(" Checking %d cases...", len(suite.Cases))
				s.Start()
			}

			report := RunSuite(app.Registry, app.Engine, suite)

			if s != nil {
				s.Stop()
			}

			app.Sugar.Debugw("Suite checked",
				"suite", suite.Name,
				"passed", report.Passed,
				"failed", report.Failed,
				"errored", report.Errored)

			if metricsFile != "" {
				if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}

			if asJSON {
				if err := outputAsJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report, flags.quiet)
			}

			if !report.OK() {
				return fmt.Errorf("%w: %d of %d cases did not pass", ErrSuiteFailed, report.Failed+report.Errored, len(report.Cases))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file (requires metrics.enabled)")

	return cmd
}
