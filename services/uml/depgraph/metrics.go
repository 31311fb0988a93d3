// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for dependency ordering.
var (
	// forcedExtractions counts nodes taken with TakeAnyNode/TakeNode.
	//
	// Labels:
	//   - queue: "file" or "entity"
	forcedExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tsuml",
			Subsystem: "depgraph",
			Name:      "forced_extractions_total",
			Help:      "Total nodes extracted to break a dependency cycle.",
		},
		[]string{"queue"},
	)

	// fileCycles counts file import cycles found by FileQueue.
	fileCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tsuml",
			Subsystem: "depgraph",
			Name:      "file_cycles_total",
			Help:      "Total file import cycles detected.",
		},
	)

	// cycleLength observes the number of files in each detected cycle.
	cycleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tsuml",
			Subsystem: "depgraph",
			Name:      "file_cycle_length",
			Help:      "Number of files taking part in a detected import cycle.",
			Buckets:   []float64{2, 3, 4, 6, 10, 20},
		},
	)
)
