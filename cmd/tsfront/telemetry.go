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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetryConfig selects the exporters installed for one invocation.
type telemetryConfig struct {
	// stdout prints spans and a final metrics snapshot to writer.
	stdout bool

	// otlpEndpoint, when set, exports spans over OTLP/gRPC instead.
	otlpEndpoint string

	writer io.Writer
}

// telemetry owns the providers installed for one invocation and the
// command-level instruments.
type telemetry struct {
	registry  *prometheus.Registry
	shutdowns []func(context.Context) error

	checks      metric.Int64Counter
	checkTime   metric.Float64Histogram
	diagnostics metric.Int64Counter
}

// setupTelemetry installs the global tracer and meter providers.
//
// Description:
//
//	Metrics always flow to a per-invocation Prometheus registry, served
//	next to the package-level promauto metrics by metricsHandler. Spans
//	are only recorded when an exporter is configured; otherwise the
//	global no-op tracer stays in place.
func setupTelemetry(ctx context.Context, cfg telemetryConfig) (*telemetry, error) {
	res := resource.NewSchemaless(attribute.String("service.name", "tsfront"))
	t := &telemetry{registry: prometheus.NewRegistry()}

	promExporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	readers := []sdkmetric.Option{sdkmetric.WithResource(res), sdkmetric.WithReader(promExporter)}
	if cfg.stdout {
		metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.writer), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
	}
	mp := sdkmetric.NewMeterProvider(readers...)
	otel.SetMeterProvider(mp)
	t.shutdowns = append(t.shutdowns, mp.Shutdown)

	var spanExporter sdktrace.SpanExporter
	switch {
	case cfg.otlpEndpoint != "":
		spanExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.otlpEndpoint),
			otlptracegrpc.WithInsecure())
	case cfg.stdout:
		spanExporter, err = stdouttrace.New(stdouttrace.WithWriter(cfg.writer), stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("span exporter: %w", err)
	}
	if spanExporter != nil {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spanExporter),
			sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
	}

	meter := mp.Meter("tsfront.cli")
	if t.checks, err = meter.Int64Counter("tsfront.cli.checks",
		metric.WithDescription("Program builds run by the CLI")); err != nil {
		return nil, err
	}
	if t.checkTime, err = meter.Float64Histogram("tsfront.cli.check.duration",
		metric.WithDescription("Wall time of one check including rendering"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if t.diagnostics, err = meter.Int64Counter("tsfront.cli.diagnostics",
		metric.WithDescription("Diagnostics printed by the CLI")); err != nil {
		return nil, err
	}
	return t, nil
}

// recordCheck records one completed check.
func (t *telemetry) recordCheck(ctx context.Context, status string, seconds float64, byCategory map[string]int) {
	if t == nil {
		return
	}
	statusAttr := metric.WithAttributes(attribute.String("status", status))
	t.checks.Add(ctx, 1, statusAttr)
	t.checkTime.Record(ctx, seconds, statusAttr)
	for category, n := range byCategory {
		t.diagnostics.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", category)))
	}
}

// metricsHandler serves the promauto metrics of every package together
// with the CLI's own instruments.
func (t *telemetry) metricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{prometheus.DefaultGatherer, t.registry}, promhttp.HandlerOpts{})
}

// shutdown flushes and stops every provider, in reverse install order.
func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
