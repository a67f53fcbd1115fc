// Package main is the entry point for the smartpick CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/runger/smartpick/internal/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is separated from main() to enable testing.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.Run(ctx, args, os.Stdout, os.Stderr)
}
