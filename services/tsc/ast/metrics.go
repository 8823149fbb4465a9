// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Parsing
// =============================================================================

var (
	// parseFilesTotal counts parse attempts.
	// Labels: language (typescript, tsx), status (ok, syntax_error, rejected, canceled, error)
	parseFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "parser",
		Name:      "files_total",
		Help:      "Total source files parsed by grammar and outcome",
	}, []string{"language", "status"})

	// parseDurationSeconds measures wall time spent in a single Parse call.
	// Labels: language
	parseDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tsfront",
		Subsystem: "parser",
		Name:      "duration_seconds",
		Help:      "Time spent parsing a single source file",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"language"})

	// parseDiagnosticsTotal counts syntax diagnostics produced by the parser.
	// Labels: language
	parseDiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "parser",
		Name:      "diagnostics_total",
		Help:      "Total syntax diagnostics reported while parsing",
	}, []string{"language"})
)

func recordParseMetrics(language, status string, d time.Duration, diags int) {
	parseFilesTotal.WithLabelValues(language, status).Inc()
	parseDurationSeconds.WithLabelValues(language).Observe(d.Seconds())
	if diags > 0 {
		parseDiagnosticsTotal.WithLabelValues(language).Add(float64(diags))
	}
}
