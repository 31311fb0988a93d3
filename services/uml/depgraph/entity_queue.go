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

// SymbolTable is the per-file view EntityQueue needs from a parsed file.
type SymbolTable interface {
	// RootSymbols returns the exported names, including the default export.
	RootSymbols() []string

	// IsDeclared reports whether name is declared in the file itself.
	// Imported names must report false.
	IsDeclared(name string) bool

	// SymbolReferences returns every type name mentioned by the declaration.
	SymbolReferences(name string) []string
}

// EntityQueue orders the declarations of one file so that a declaration
// comes after every same-file declaration it references.
//
// Description:
//
//	Built once per file. Roots are the exported declarations; the walk
//	follows references into other declarations of the same file and stops
//	at imports, whose files are ordered by FileQueue instead. Mutual
//	references are normal in type declarations, so cycles are broken
//	silently and NextSymbol never reports them.
//
// Thread Safety:
//
//	Not safe for concurrent use.
type EntityQueue struct {
	forest *Forest[string]
}

// NewEntityQueue walks table from its roots and records the dependencies.
func NewEntityQueue(table SymbolTable) *EntityQueue {
	q := &EntityQueue{forest: NewForest[string]()}

	queued := make(map[string]bool)
	var pending []string
	for _, root := range table.RootSymbols() {
		if !table.IsDeclared(root) || queued[root] {
			continue
		}
		queued[root] = true
		pending = append(pending, root)
	}

	for len(pending) > 0 {
		symbol := pending[0]
		pending = pending[1:]
		q.forest.AddNode(symbol)

		for _, ref := range table.SymbolReferences(symbol) {
			if ref == symbol || !table.IsDeclared(ref) {
				continue
			}
			// ref != symbol, so AddRelation cannot fail.
			_ = q.forest.AddRelation(symbol, ref)
			if !queued[ref] {
				queued[ref] = true
				pending = append(pending, ref)
			}
		}
	}

	return q
}

// HasSymbols reports whether any declaration remains.
func (q *EntityQueue) HasSymbols() bool {
	return q.forest.HasNodes()
}

// Len returns the number of declarations not yet returned.
func (q *EntityQueue) Len() int {
	return q.forest.Len()
}

// NextSymbol returns the next declaration name.
//
// Outputs:
//
//	string - A declaration whose same-file dependencies were already
//	         returned, or any remaining one when only cycles are left.
//	error - ErrEmptyQueue once drained.
func (q *EntityQueue) NextSymbol() (string, error) {
	if q.forest.HasReadyNode() {
		return q.forest.TakeReadyNode()
	}
	symbol, err := q.forest.TakeAnyNode()
	if err != nil {
		return "", err
	}
	forcedExtractions.WithLabelValues("entity").Inc()
	return symbol, nil
}
