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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Module Resolution
// =============================================================================

const (
	lookupHit         = "hit"
	lookupNegativeHit = "negative_hit"
	lookupMiss        = "miss"
	lookupMalformed   = "malformed"
)

var (
	// packageJSONLookupsTotal counts package.json probes.
	// Labels: result (hit, negative_hit, miss, malformed)
	packageJSONLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "moduleresolution",
		Name:      "package_json_lookups_total",
		Help:      "Total package.json lookups by cache result",
	}, []string{"result"})

	// resolutionsTotal counts ResolveModuleName calls.
	// Labels: result (resolved, unresolved)
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "moduleresolution",
		Name:      "resolutions_total",
		Help:      "Total module name resolutions by outcome",
	}, []string{"result"})

	// watcherInvalidationsTotal counts cache entries dropped by the watcher.
	watcherInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tsfront",
		Subsystem: "moduleresolution",
		Name:      "watcher_invalidations_total",
		Help:      "Total package.json cache entries invalidated by file events",
	})
)

func recordLookup(result string) {
	packageJSONLookupsTotal.WithLabelValues(result).Inc()
}

func recordResolution(resolved bool) {
	if resolved {
		resolutionsTotal.WithLabelValues("resolved").Inc()
		return
	}
	resolutionsTotal.WithLabelValues("unresolved").Inc()
}
