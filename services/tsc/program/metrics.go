// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package program

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Program Construction
// =============================================================================

var (
	// programBuildsTotal counts New calls.
	// Labels: status (ok, canceled, error)
	programBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "program",
		Name:      "builds_total",
		Help:      "Total programs built by outcome",
	}, []string{"status"})

	// programBuildDurationSeconds measures the wall time of New.
	programBuildDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tsfront",
		Subsystem: "program",
		Name:      "build_duration_seconds",
		Help:      "Time spent reading, parsing and binding a program",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})

	// programFilesTotal counts files processed.
	// Labels: origin (root, import), status (ok, missing, rejected)
	programFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "program",
		Name:      "files_total",
		Help:      "Total files processed by how they entered the program and outcome",
	}, []string{"origin", "status"})

	// programUnresolvedImportsTotal counts import specifiers that resolved
	// to nothing.
	programUnresolvedImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "program",
		Name:      "unresolved_imports_total",
		Help:      "Total import specifiers that could not be resolved",
	})
)

func recordBuild(status string, d time.Duration) {
	programBuildsTotal.WithLabelValues(status).Inc()
	programBuildDurationSeconds.Observe(d.Seconds())
}
