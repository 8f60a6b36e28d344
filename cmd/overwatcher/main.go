// Command overwatcher drives the concurrent test-automation engine
// against a serial/telnet-connected embedded device (run) or stands in
// as the bind-and-listen test double for it (fake). See internal/engine
// for the core state machine.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "overwatcher",
	Short:         "overwatcher -- serial/telnet test automation engine",
	Long:          "overwatcher connects to a device console, classifies its output into states, drives it through a declarative test sequence, and reports pass/fail/timeout.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitCodeError carries a specific process exit code out of a Cobra
// RunE without Cobra printing it as a generic failure — the outcome
// codes of §4.7 are meaningful to operators and CI.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func main() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(0)
	}

	var ece *exitCodeError
	if errors.As(err, &ece) {
		os.Exit(ece.code)
	}

	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
