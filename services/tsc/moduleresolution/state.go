// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package moduleresolution

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/tsfront/services/tsc/options"
)

// State carries one resolution request's collaborators and collects the
// package.json locations it touched.
//
// Thread Safety: Not safe for concurrent use. Create one State per
// request; the Cache inside it may be shared.
type State struct {
	ctx     context.Context
	Host    Host
	Options *options.CompilerOptions
	Cache   Cache
	Logger  *slog.Logger

	// TraceEnabled logs every lookup step at debug level.
	TraceEnabled bool

	// FailedLookupLocations and AffectingLocations are appended to only
	// when RecordLocations was set.
	FailedLookupLocations []string
	AffectingLocations    []string
	recordLocations       bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithStateLogger sets the trace logger. Defaults to slog.Default().
func WithStateLogger(logger *slog.Logger) StateOption {
	return func(s *State) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// RecordLocations turns on collection of failed and affecting lookup
// locations.
func RecordLocations() StateOption {
	return func(s *State) {
		s.recordLocations = true
	}
}

// NewState creates a request state. cache may be nil for no caching;
// compilerOptions may be nil for defaults.
func NewState(ctx context.Context, host Host, compilerOptions *options.CompilerOptions, cache Cache, opts ...StateOption) *State {
	if ctx == nil {
		ctx = context.Background()
	}
	if compilerOptions == nil {
		compilerOptions = &options.CompilerOptions{}
	}
	s := &State{
		ctx:          ctx,
		Host:         host,
		Options:      compilerOptions,
		Cache:        cache,
		Logger:       slog.Default(),
		TraceEnabled: compilerOptions.TraceResolution.IsTrue(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context returns the request context.
func (s *State) Context() context.Context {
	return s.ctx
}

func (s *State) trace(msg string, attrs ...slog.Attr) {
	if !s.TraceEnabled {
		return
	}
	s.Logger.LogAttrs(s.ctx, slog.LevelDebug, msg, attrs...)
}

func (s *State) addFailed(path string) {
	if s.recordLocations {
		s.FailedLookupLocations = append(s.FailedLookupLocations, path)
	}
}

func (s *State) addAffecting(path string) {
	if s.recordLocations {
		s.AffectingLocations = append(s.AffectingLocations, path)
	}
}
