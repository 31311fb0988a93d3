// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tsuml.resolve"

var tracer = otel.Tracer(tracerName)

var (
	// filesParsed counts files read and parsed by Build.
	filesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tsuml",
		Subsystem: "resolve",
		Name:      "files_parsed_total",
		Help:      "Total source files read and parsed.",
	})

	// entitiesResolved counts resolved entities.
	//
	// Labels:
	//   - kind: "class", "interface", "enum", "type" or "function"
	entitiesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsuml",
		Subsystem: "resolve",
		Name:      "entities_total",
		Help:      "Total entities resolved, by declaration kind.",
	}, []string{"kind"})

	// importsSkipped counts imports that could not be linked.
	//
	// Labels:
	//   - reason: "unselected", "not_entity", "missing", "cycle"
	importsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tsuml",
		Subsystem: "resolve",
		Name:      "imports_skipped_total",
		Help:      "Imports that were not linked into the store.",
	}, []string{"reason"})

	// buildDuration measures Build latency.
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tsuml",
		Subsystem: "resolve",
		Name:      "build_duration_seconds",
		Help:      "Duration of Build calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// startBuildSpan opens the root span of one Build call.
func startBuildSpan(ctx context.Context, runID string, paths int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.String("build.run_id", runID),
			attribute.Int("build.include_paths", paths),
		),
	)
}

// startPhaseSpan opens a child span for one build phase.
func startPhaseSpan(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder."+phase, trace.WithAttributes(attrs...))
}

// setBuildSpanResult annotates the root span with build statistics.
func setBuildSpanResult(span trace.Span, files, entities, cycles int) {
	span.SetAttributes(
		attribute.Int("build.files", files),
		attribute.Int("build.entities", entities),
		attribute.Int("build.cycles", cycles),
	)
}

func recordBuildMetrics(duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	buildDuration.WithLabelValues(status).Observe(duration.Seconds())
}
