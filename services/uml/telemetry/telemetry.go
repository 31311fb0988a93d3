// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the process-wide tracing and metrics sinks
// used by the tsuml CLI.
//
// The parse and resolve packages emit spans through the global OTel
// tracer provider and register their Prometheus collectors with the
// default registry. Nothing is exported unless the CLI asks for it.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "tsuml"

// ErrNoMetricsPath is returned by WriteMetrics for an empty path.
var ErrNoMetricsPath = errors.New("metrics output path is empty")

// buildInfo exposes the running version as a constant gauge.
var buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tsuml",
	Name:      "build_info",
	Help:      "Always 1; labelled with the tsuml version.",
}, []string{"version"})

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// SetupTracing installs a global tracer provider that writes spans to w.
//
// Description:
//
//	Spans are pretty-printed as JSON by the stdouttrace exporter. The
//	previous global provider is restored by the returned ShutdownFunc,
//	which also flushes batched spans. Call it before the process exits.
//
// Inputs:
//
//	w - Destination for span JSON. Must not be nil.
//
// Outputs:
//
//	ShutdownFunc - Never nil on success.
//	error - Non-nil if the exporter cannot be created.
//
// Thread Safety: Mutates the global tracer provider. Call once at startup.
func SetupTracing(w io.Writer) (ShutdownFunc, error) {
	if w == nil {
		return nil, errors.New("trace writer must not be nil")
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
		)),
	)
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		defer otel.SetTracerProvider(previous)
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		return nil
	}, nil
}

// RecordBuildInfo sets the build_info gauge for version.
func RecordBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}

// WriteMetrics writes every metric in the default registry to path in
// the Prometheus text format, suitable for the node_exporter textfile
// collector. The file is replaced atomically.
func WriteMetrics(path string) error {
	return WriteMetricsFrom(prometheus.DefaultGatherer, path)
}

// WriteMetricsFrom is WriteMetrics for an explicit gatherer.
func WriteMetricsFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return ErrNoMetricsPath
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
