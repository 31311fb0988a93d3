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
	"fmt"
	"log/slog"
	"strings"
)

// CyclePolicy selects what FileQueue does after breaking an import cycle.
type CyclePolicy int

const (
	// CyclePolicyAbort returns a *CycleError alongside the extracted file.
	CyclePolicyAbort CyclePolicy = iota

	// CyclePolicyContinue logs the cycle and keeps draining without error.
	CyclePolicyContinue
)

// String returns the string representation of the CyclePolicy.
func (p CyclePolicy) String() string {
	switch p {
	case CyclePolicyAbort:
		return "abort"
	case CyclePolicyContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// ParseCyclePolicy converts "abort" or "continue" into a CyclePolicy.
// An empty string selects CyclePolicyAbort.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return CyclePolicyAbort, nil
	case "continue":
		return CyclePolicyContinue, nil
	default:
		return CyclePolicyAbort, fmt.Errorf("unknown cycle policy %q (want abort or continue)", s)
	}
}

// FileQueueOption configures a FileQueue.
type FileQueueOption func(*FileQueue)

// WithCyclePolicy sets the behaviour after an import cycle is broken.
func WithCyclePolicy(policy CyclePolicy) FileQueueOption {
	return func(q *FileQueue) {
		q.policy = policy
	}
}

// WithFileQueueLogger sets the logger used for cycle diagnostics.
func WithFileQueueLogger(logger *slog.Logger) FileQueueOption {
	return func(q *FileQueue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// FileQueue yields file paths so that imported files come before importers.
//
// Description:
//
//	Wraps a Forest keyed by absolute file path. When only cycles remain,
//	NextFile walks one concrete cycle, logs it, force-extracts a member and,
//	under CyclePolicyAbort, reports it as a *CycleError.
//
// Thread Safety:
//
//	Not safe for concurrent use.
type FileQueue struct {
	forest *Forest[string]
	policy CyclePolicy
	logger *slog.Logger
	cycles [][]string
}

// NewFileQueue creates an empty queue. The default policy is CyclePolicyAbort.
func NewFileQueue(opts ...FileQueueOption) *FileQueue {
	q := &FileQueue{
		forest: NewForest[string](),
		policy: CyclePolicyAbort,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// AddDependencies registers file and records that it depends on every dep.
//
// Outputs:
//
//	error - *InvalidRelationError when a file lists itself as a dependency.
func (q *FileQueue) AddDependencies(file string, deps ...string) error {
	q.forest.AddNode(file)
	for _, dep := range deps {
		if err := q.forest.AddRelation(file, dep); err != nil {
			return fmt.Errorf("adding dependency of %s: %w", file, err)
		}
	}
	return nil
}

// HasFile reports whether any file remains.
func (q *FileQueue) HasFile() bool {
	return q.forest.HasNodes()
}

// Len returns the number of files not yet returned.
func (q *FileQueue) Len() int {
	return q.forest.Len()
}

// Cycles returns every cycle found so far, in detection order.
func (q *FileQueue) Cycles() [][]string {
	return q.cycles
}

// NextFile returns the next file whose dependencies have all been returned.
//
// Description:
//
//	When no file is ready the remainder holds at least one cycle. The cycle
//	is logged at warn level with its full path, one of its files is
//	force-extracted and returned. Under CyclePolicyAbort the returned error
//	is a *CycleError; callers that want to keep going may ignore it, the
//	queue itself stays consistent.
//
// Outputs:
//
//	string - The file to process next. Set even when a *CycleError is returned.
//	error - ErrEmptyQueue when drained, *CycleError on a cycle under abort.
func (q *FileQueue) NextFile() (string, error) {
	if !q.forest.HasNodes() {
		return "", ErrEmptyQueue
	}
	if q.forest.HasReadyNode() {
		return q.forest.TakeReadyNode()
	}

	cycle := q.findCycle()
	broken := cycle[0]
	if err := q.forest.TakeNode(broken); err != nil {
		return "", err
	}

	q.cycles = append(q.cycles, cycle)
	fileCycles.Inc()
	cycleLength.Observe(float64(len(cycle)))
	forcedExtractions.WithLabelValues("file").Inc()

	q.logger.Warn("file dependency cycle detected",
		slog.String("cycle", strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")),
		slog.Int("length", len(cycle)),
		slog.String("broken_at", broken),
		slog.String("policy", q.policy.String()))

	if q.policy == CyclePolicyContinue {
		return broken, nil
	}
	return broken, &CycleError{Files: cycle, Broken: broken}
}

// findCycle walks first children from the oldest remaining file until a file
// repeats. Only called when no node is ready, so every node has a child and
// the walk is guaranteed to close.
func (q *FileQueue) findCycle() []string {
	keys := q.forest.Keys()
	start := keys[0]

	position := make(map[string]int)
	var path []string
	current := start
	for {
		if at, seen := position[current]; seen {
			return path[at:]
		}
		position[current] = len(path)
		path = append(path, current)

		children := q.forest.Children(current)
		if len(children) == 0 {
			// Unreachable while the forest invariant holds.
			return []string{current}
		}
		current = children[0]
	}
}
