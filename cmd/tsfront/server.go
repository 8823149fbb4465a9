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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// diagnosticJSON is the wire form of one diagnostic.
type diagnosticJSON struct {
	File     string `json:"file,omitempty"`
	Start    int    `json:"start"`
	Length   int    `json:"length"`
	Code     int    `json:"code"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// newStatusServer serves the watch session's state:
//
//	GET /healthz           liveness
//	GET /metrics           Prometheus metrics
//	GET /v1/diagnostics    diagnostics of the latest build
func newStatusServer(addr string, t *telemetry, state *watchState) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("tsfront"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(t.metricsHandler()))

	v1 := router.Group("/v1")
	v1.GET("/diagnostics", func(c *gin.Context) {
		latest, builds := state.snapshot()
		if latest == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "first build has not finished"})
			return
		}
		out := make([]diagnosticJSON, 0, len(latest.diagnostics))
		for _, d := range latest.diagnostics {
			out = append(out, diagnosticJSON{
				File:     d.File,
				Start:    d.Start,
				Length:   d.Length,
				Code:     d.Code,
				Category: d.Category.String(),
				Text:     d.Text,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"program_id":  latest.program.ID(),
			"builds":      builds,
			"files":       len(latest.program.Files()),
			"duration_ms": latest.duration.Milliseconds(),
			"diagnostics": out,
		})
	})

	return &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 3 * time.Second}
}
