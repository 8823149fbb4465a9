// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package binder

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/tsfront/services/tsc/diagnostics"
)

// =============================================================================
// Prometheus Metrics for Binding
// =============================================================================

var (
	// bindFilesTotal counts bound source files.
	// Labels: module (external, script)
	bindFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "binder",
		Name:      "files_total",
		Help:      "Total source files bound",
	}, []string{"module"})

	// bindDurationSeconds measures wall time spent in a single Bind call.
	bindDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tsfront",
		Subsystem: "binder",
		Name:      "duration_seconds",
		Help:      "Time spent binding a single source file",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	// bindSymbolsTotal counts symbols created by the binder.
	bindSymbolsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "binder",
		Name:      "symbols_total",
		Help:      "Total symbols created while binding",
	})

	// bindDiagnosticsTotal counts binder diagnostics.
	// Labels: code (numeric diagnostic code, e.g. 2300, 7027)
	bindDiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "binder",
		Name:      "diagnostics_total",
		Help:      "Total diagnostics reported while binding, by code",
	}, []string{"code"})
)

func recordBindMetrics(external bool, d time.Duration, symbolCount int, diags []*diagnostics.Diagnostic) {
	module := "script"
	if external {
		module = "external"
	}
	bindFilesTotal.WithLabelValues(module).Inc()
	bindDurationSeconds.Observe(d.Seconds())
	bindSymbolsTotal.Add(float64(symbolCount))
	for _, d := range diags {
		bindDiagnosticsTotal.WithLabelValues(strconv.Itoa(d.Code)).Inc()
	}
}
