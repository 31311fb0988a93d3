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
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the OTel tracer name for the ast package.
const tracerName = "tsuml.ast"

var tracer = otel.Tracer(tracerName)

var (
	// parseDuration measures Parse latency.
	//
	// Labels:
	//   - language: "typescript"
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tsuml",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of single-file parses in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"language", "status"},
	)

	// declarationsParsed counts declarations extracted from files.
	declarationsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsuml",
			Subsystem: "ast",
			Name:      "declarations_total",
			Help:      "Total top-level declarations extracted.",
		},
		[]string{"language"},
	)
)

// startParseSpan opens a span for one Parse call.
func startParseSpan(ctx context.Context, language, filePath string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Parser.Parse",
		trace.WithAttributes(
			attribute.String("parse.language", language),
			attribute.String("parse.file", filePath),
			attribute.Int("parse.size_bytes", size),
		),
	)
}

// setParseSpanResult annotates the span with extraction counts.
func setParseSpanResult(span trace.Span, declarations, imports, errs int) {
	span.SetAttributes(
		attribute.Int("parse.declarations", declarations),
		attribute.Int("parse.imports", imports),
		attribute.Int("parse.errors", errs),
	)
}

// recordParseMetrics records one Parse outcome.
func recordParseMetrics(language string, duration time.Duration, declarations int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	parseDuration.WithLabelValues(language, status).Observe(duration.Seconds())
	if success {
		declarationsParsed.WithLabelValues(language).Add(float64(declarations))
	}
}
