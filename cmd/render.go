package cmd

import (
	"fmt"
	"io"
	"strings"
)

// renderReport displays suite results, one line per case
func renderReport(w io.Writer, report *Report, quiet bool) {
	if !quiet && report.Suite != "" {
		headerColor.Fprintf(w, "Suite: %s\n", report.Suite)
		fmt.Fprintln(w, strings.Repeat("-", 60))
	}

	for _, c := range report.Cases {
		switch c.Status {
		case StatusPass:
			if quiet {
				continue
			}
			successColor.Fprint(w, "PASS ")
		case StatusFail:
			errorColor.Fprint(w, "FAIL ")
		default:
			warningColor.Fprint(w, "ERROR")
		}

		fmt.Fprintf(w, " %s", c.Name)
		if c.Result.Description != "" {
			infoColor.Fprintf(w, " (%s)", c.Result.Description)
		}
		fmt.Fprintln(w)

		switch {
		case c.Error != "":
			printIndented(w, c.Error)
		case c.Status == StatusFail:
			printIndented(w, c.Result.Message)
			if c.Result.Diff != "" {
				printIndented(w, "Diff (-expected +actual):")
				printIndented(w, c.Result.Diff)
			}
		}
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d passed, %d failed, %d errored", report.Passed, report.Failed, report.Errored)
	if report.OK() {
		successColor.Fprintln(w, summary)
	} else {
		errorColor.Fprintln(w, summary)
	}
}

func printIndented(w io.Writer, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "      %s\n", line)
	}
}
