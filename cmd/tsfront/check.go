// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
	"github.com/AleutianAI/tsfront/services/tsc/options"
	"github.com/AleutianAI/tsfront/services/tsc/program"
	"github.com/AleutianAI/tsfront/services/tsc/tspath"
)

// checkFlags hold flag values for the check command.
var checkFlags struct {
	watch       bool
	cacheMode   string
	cacheDir    string
	metricsAddr string
	workers     int
	noFollow    bool
}

func newCheckCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Parse, bind and resolve a project and print its diagnostics",
		Long: `Builds a program from the given files, or from the project's
tsfront.yaml or tsconfig.json when no files are given, and prints every
syntax, binding and resolution diagnostic.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args)
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&checkFlags.watch, "watch", "w", false, "rebuild when sources or package.json files change")
	flags.StringVar(&checkFlags.cacheMode, "cache", "", "package.json cache: memory, badger or none (default from project config)")
	flags.StringVar(&checkFlags.cacheDir, "cache-dir", "", "badger cache directory (default from project config)")
	flags.StringVar(&checkFlags.metricsAddr, "metrics-addr", "", "serve /metrics and /v1/diagnostics on this address in watch mode")
	flags.IntVar(&checkFlags.workers, "workers", 0, "files parsed in parallel (default from project config, then GOMAXPROCS)")
	flags.BoolVar(&checkFlags.noFollow, "no-follow-imports", false, "only compile the root files")
	return cmd
}

// checkSession is everything one check invocation builds programs with.
type checkSession struct {
	cfg       *options.ProjectConfig
	roots     []string
	cache     *cacheHandle
	configErr []*diagnostics.Diagnostic
	logger    *slog.Logger
}

// newCheckSession loads the project configuration and opens the cache.
func (c *cli) newCheckSession(args []string) (*checkSession, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	cfg, err := options.LoadProjectConfig(dir)
	if err != nil {
		return nil, err
	}

	s := &checkSession{cfg: cfg, logger: slog.Default()}
	for _, name := range cfg.UnknownOptions {
		s.configErr = append(s.configErr, diagnostics.NewWithCategory(cfg.Source, 0, 0,
			diagnostics.CategoryWarning, diagnostics.UnknownCompilerOption, name))
	}

	if len(args) > 0 {
		cwd, err := filepath.Abs(".")
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			s.roots = append(s.roots, tspath.GetNormalizedAbsolutePath(filepath.ToSlash(a), filepath.ToSlash(cwd)))
		}
	} else if s.roots, err = cfg.RootFiles(); err != nil {
		return nil, err
	}

	mode, cacheDir := cfg.Cache.Mode, cfg.Cache.Dir
	if checkFlags.cacheMode != "" {
		mode = checkFlags.cacheMode
	}
	if checkFlags.cacheDir != "" {
		cacheDir = checkFlags.cacheDir
	}
	if s.cache, err = openCache(mode, cacheDir, cfg.Dir, false); err != nil {
		return nil, err
	}
	s.logger.Debug("check session ready",
		slog.String("project", cfg.Dir),
		slog.String("config", cfg.Source),
		slog.Int("roots", len(s.roots)),
		slog.String("cache_mode", mode))
	return s, nil
}

func (s *checkSession) close() error { return s.cache.close() }

// build compiles the session's roots.
func (s *checkSession) build(ctx context.Context) (*program.Program, error) {
	workers := s.cfg.Workers
	if checkFlags.workers > 0 {
		workers = checkFlags.workers
	}
	return program.New(ctx, s.roots,
		program.WithCompilerOptions(&s.cfg.CompilerOptions),
		program.WithCache(s.cache.cache),
		program.WithConcurrency(workers),
		program.WithFollowImports(!checkFlags.noFollow),
		program.WithLogger(s.logger))
}

// checkResult is what one build reported.
type checkResult struct {
	program     *program.Program
	diagnostics []*diagnostics.Diagnostic
	hasErrors   bool
	duration    time.Duration
}

// check builds once and prints the diagnostics.
func (c *cli) check(ctx context.Context, s *checkSession) (*checkResult, error) {
	start := time.Now()
	p, err := s.build(ctx)
	if err != nil {
		c.telemetry.recordCheck(ctx, "failed", time.Since(start).Seconds(), nil)
		return nil, err
	}

	diags := diagnostics.SortAndDeduplicate(append(append([]*diagnostics.Diagnostic(nil), s.configErr...), p.Diagnostics()...))
	r := newRenderer(c.stdout, s.cfg.Dir)
	for _, f := range p.SourceFiles() {
		r.addSource(f.FileName, f.Text)
	}
	counts := r.render(diags)

	result := &checkResult{
		program:     p,
		diagnostics: diags,
		hasErrors:   counts[diagnostics.CategoryError.String()] > 0,
		duration:    time.Since(start),
	}
	status := "ok"
	if result.hasErrors {
		status = "errors"
	}
	c.telemetry.recordCheck(ctx, status, result.duration.Seconds(), counts)
	s.logger.Info("check complete",
		slog.String("program_id", p.ID()),
		slog.Int("files", len(p.Files())),
		slog.Int("diagnostics", len(diags)),
		slog.Duration("duration", result.duration))
	return result, nil
}

func (c *cli) runCheck(ctx context.Context, args []string) error {
	s, err := c.newCheckSession(args)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			s.logger.Warn("closing cache failed", slog.String("error", err.Error()))
		}
	}()
	if len(s.roots) == 0 {
		return fmt.Errorf("no input files found in %s", s.cfg.Dir)
	}

	if checkFlags.watch {
		return c.watch(ctx, s)
	}
	result, err := c.check(ctx, s)
	if err != nil {
		return err
	}
	if result.hasErrors {
		return errDiagnostics
	}
	return nil
}
