// Package cmd implements the smartpick command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes. Editor integrations rely on these:
//
//	0 = a range was accepted (the result is on stdout)
//	1 = cancelled by the user (the original selection was restored)
//	2 = nothing to do or the picker could not run (keep the selection)
const (
	ExitAccepted  = 0
	ExitCancelled = 1
	ExitFallback  = 2
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// exitWith returns an error that makes Run exit with code. err may be nil
// for a silent exit.
func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "smartpick",
	Short: "pick a syntactic selection range from a list",
	Long: `smartpick - pick a syntactic selection range from a list
  - asks a language server for the ranges enclosing the cursor
  - ↑↓ previews each range as the selection, enter keeps it, esc restores`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run executes the command line in args and returns the process exit code.
// Errors are printed to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	resetFlags(rootCmd)

	err := rootCmd.ExecuteContext(ctx)
	return exitCode(err, stderr)
}

// resetFlags puts every flag of c and its subcommands back to its default.
// The flag values live in package variables, so without this a second Run
// in the same process would inherit the previous command line.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitAccepted
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "%ssmartpick:%s %v\n", colorRed, colorReset, ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "%ssmartpick:%s %v\n", colorRed, colorReset, err)
	return ExitFallback
}
