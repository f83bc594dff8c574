// Package main is the entry point for the matchkit CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"matchkit/cmd"
)

// main is the entry point.
func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, cmd.ErrSuiteFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
