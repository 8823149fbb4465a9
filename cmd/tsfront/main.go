// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tsfront runs the TypeScript front end over a project: it parses
// and binds every file, resolves imports and package.json scopes, and
// prints the diagnostics.
//
// Usage:
//
//	tsfront check                      # files from tsfront.yaml or tsconfig.json in .
//	tsfront check src/a.ts src/b.ts    # explicit root files
//	tsfront check --watch --metrics-addr :9464
//	tsfront scope src/lib              # package scope and implied format
//	tsfront symbols src/a.ts           # symbol tables of one file
//	tsfront cache clear --cache-dir .tsfront-cache
//
// Exit status is 1 when an error diagnostic was reported or the command
// failed.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// errDiagnostics reports that the command ran but found errors. The
// diagnostics themselves were already printed.
var errDiagnostics = errors.New("errors reported")

// Global flag values.
var (
	projectDir  string
	verbose     bool
	traceSpans  bool
	otlpAddress string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLI(os.Stdout, os.Stderr).execute(ctx); err != nil {
		if !errors.Is(err, errDiagnostics) {
			fmt.Fprintf(os.Stderr, "tsfront: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// cli is one invocation of the command tree.
type cli struct {
	root      *cobra.Command
	stdout    io.Writer
	stderr    io.Writer
	telemetry *telemetry
}

// newCLI assembles the command tree writing to stdout and stderr.
func newCLI(stdout, stderr io.Writer) *cli {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "tsfront",
		Short:         "TypeScript front end: parse, bind and resolve a project",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

			t, err := setupTelemetry(cmd.Context(), telemetryConfig{
				stdout:       traceSpans,
				otlpEndpoint: otlpAddress,
				writer:       stderr,
			})
			if err != nil {
				return err
			}
			c.telemetry = t
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&projectDir, "project", "p", ".", "project directory holding tsfront.yaml or tsconfig.json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&traceSpans, "trace", false, "print OpenTelemetry spans and metrics to stderr")
	flags.StringVar(&otlpAddress, "otlp-endpoint", "", "export spans over OTLP/gRPC to this host:port")

	root.AddCommand(
		newCheckCommand(c),
		newScopeCommand(c),
		newSymbolsCommand(c),
		newCacheCommand(c),
	)
	c.root = root
	return c
}

// execute runs the command selected by the process arguments and flushes
// telemetry, whether or not the command failed.
func (c *cli) execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	if c.telemetry != nil {
		if serr := c.telemetry.shutdown(context.WithoutCancel(ctx)); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// run executes args, for tests.
func (c *cli) run(ctx context.Context, args ...string) error {
	c.root.SetArgs(args)
	return c.execute(ctx)
}
