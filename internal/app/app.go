package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: labeleval <command> [flags]

commands:
  run        classify a dataset and evaluate the predictions
  evaluate   evaluate an existing predictions file against a dataset
  vocab      print the intent vocabulary a run would use
  schedule   repeat run on a cron schedule

Run "labeleval <command> -h" for command flags.
`

// Main is the process entry point. Every fatal condition exits non-zero
// with a message on stderr.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Run dispatches one subcommand.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], stdout, stderr)
	case "evaluate":
		return evaluateCommand(ctx, args[1:], stdout, stderr)
	case "vocab":
		return vocabCommand(ctx, args[1:], stdout, stderr)
	case "schedule":
		return scheduleCommand(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	fmt.Fprint(stderr, usage)
	return fmt.Errorf("unknown command %q", args[0])
}
