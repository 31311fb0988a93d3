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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for dependency ordering.
var (
	// ErrSelfRelation is returned when a node is asked to depend on itself.
	ErrSelfRelation = errors.New("node cannot depend on itself")

	// ErrEmptyQueue is returned when a node is requested from a drained forest.
	// Callers must check HasNodes (or HasFile/HasSymbols) before taking.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrNoReadyNode is returned by TakeReadyNode when nodes remain but every
	// one of them still has children. Use TakeAnyNode to break the cycle.
	ErrNoReadyNode = errors.New("no ready node")

	// ErrUnknownNode is returned when a forced extraction names a missing key.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDependencyCycle is wrapped by CycleError.
	ErrDependencyCycle = errors.New("dependencies must not be cycled")
)

// InvalidRelationError reports an attempt to add a self-referencing edge.
type InvalidRelationError struct {
	// Key is the printed form of the offending node key.
	Key string
}

// Error implements error.
func (e *InvalidRelationError) Error() string {
	return fmt.Sprintf("invalid relation %q -> %q: %v", e.Key, e.Key, ErrSelfRelation)
}

// Unwrap returns ErrSelfRelation.
func (e *InvalidRelationError) Unwrap() error {
	return ErrSelfRelation
}

// CycleError describes a file import cycle found by FileQueue.
//
// Description:
//
//	Files holds the cycle in walk order; the first file imports the second,
//	the second the third, and the last imports the first again. Broken is
//	the file that was force-extracted so the queue could keep draining.
type CycleError struct {
	Files  []string
	Broken string
}

// Error implements error.
func (e *CycleError) Error() string {
	if len(e.Files) == 0 {
		return ErrDependencyCycle.Error()
	}
	path := append(append([]string{}, e.Files...), e.Files[0])
	return fmt.Sprintf("%v: %s", ErrDependencyCycle, strings.Join(path, " -> "))
}

// Unwrap returns ErrDependencyCycle.
func (e *CycleError) Unwrap() error {
	return ErrDependencyCycle
}
