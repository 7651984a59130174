// Command fakturctl parses Faktur Pajak documents from the command line,
// watches an inbox directory and issues API tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fakturscan/internal/config"
	"fakturscan/internal/logger"
)

const usage = `Usage: fakturctl <command> [flags]

Commands:
  parse   parse documents and print or export the results
  watch   parse documents dropped into a directory
  token   issue an API bearer token
`

// errFailures signals that some documents failed without aborting the run.
var errFailures = errors.New("some documents failed")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, cfg, zl, os.Args[1], os.Args[2:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "fakturctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cfg *config.Config, zl *zap.Logger, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "parse":
		return runParse(ctx, cfg, zl, args, stdout, stderr)
	case "watch":
		return runWatch(ctx, cfg, zl, args)
	case "token":
		return runToken(cfg, args, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}
