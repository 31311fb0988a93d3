// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph orders files and declarations so that every dependency is
// handled before the things that depend on it.
//
// The central type is Forest, a parent/child tracker that yields nodes with no
// outstanding children first (Kahn's algorithm, using the live child count as
// the in-degree) and can forcibly extract a node when only cycles remain.
// FileQueue and EntityQueue specialise it for import graphs and for the
// declarations of a single file.
package depgraph

import (
	"fmt"
	"strings"
)

// forestNode is the arena record for one key. Edges are arena indices.
type forestNode[K comparable] struct {
	key      K
	parents  []int
	children []int
	removed  bool

	// ready mirrors membership of the ready set. The ready stack may still
	// hold stale entries for nodes whose flag has since been cleared.
	ready bool
}

// Forest tracks parent -> child dependencies over comparable keys.
//
// Description:
//
//	A relation parent -> child means the parent cannot be taken before the
//	child. Nodes without live children are "ready". TakeReadyNode removes a
//	ready node and releases its parents; TakeAnyNode force-removes the oldest
//	remaining node when everything left sits on a cycle.
//
//	Nodes live in an insertion-ordered arena with a key -> index map, so
//	iteration and forced extraction are deterministic.
//
// Invariants:
//
//	A node is in the ready set iff it has zero live children and has not
//	been extracted. Every parent -> child edge has its child -> parent mirror.
//
// Thread Safety:
//
//	Not safe for concurrent use. A Forest is owned by a single queue.
type Forest[K comparable] struct {
	nodes      []forestNode[K]
	index      map[K]int
	readyStack []int
	readyCount int
	live       int

	// cursor is the lowest arena index that may still be live.
	cursor int
}

// NewForest creates an empty forest.
func NewForest[K comparable]() *Forest[K] {
	return &Forest[K]{
		index: make(map[K]int),
	}
}

// AddNode registers k if it is not known yet. New nodes start ready.
func (f *Forest[K]) AddNode(k K) {
	f.ensure(k)
}

// AddRelation records that parent depends on child.
//
// Description:
//
//	Both nodes are created when missing. A duplicate edge is ignored. The
//	parent leaves the ready set when it gains its first live child.
//
// Outputs:
//
//	error - *InvalidRelationError (wrapping ErrSelfRelation) when
//	        parent == child. The forest is left unchanged in that case.
func (f *Forest[K]) AddRelation(parent, child K) error {
	if parent == child {
		return &InvalidRelationError{Key: fmt.Sprint(parent)}
	}

	p := f.ensure(parent)
	c := f.ensure(child)

	for _, existing := range f.nodes[p].children {
		if existing == c {
			return nil
		}
	}

	f.nodes[p].children = append(f.nodes[p].children, c)
	f.nodes[c].parents = append(f.nodes[c].parents, p)

	if f.nodes[p].ready {
		f.nodes[p].ready = false
		f.readyCount--
	}
	return nil
}

// HasNodes reports whether any node is still waiting to be taken.
func (f *Forest[K]) HasNodes() bool {
	return f.live > 0
}

// HasReadyNode reports whether TakeReadyNode would succeed.
func (f *Forest[K]) HasReadyNode() bool {
	return f.readyCount > 0
}

// Len returns the number of nodes not yet taken.
func (f *Forest[K]) Len() int {
	return f.live
}

// TakeReadyNode removes and returns a node that has no live children.
//
// Description:
//
//	Every parent of the returned node loses one child; parents reaching zero
//	children become ready. The most recently readied node is returned first.
//
// Outputs:
//
//	K - The extracted key.
//	error - ErrEmptyQueue when the forest is drained, ErrNoReadyNode when
//	        nodes remain but all of them still have children.
func (f *Forest[K]) TakeReadyNode() (K, error) {
	var zero K
	if f.live == 0 {
		return zero, ErrEmptyQueue
	}

	for len(f.readyStack) > 0 {
		last := len(f.readyStack) - 1
		idx := f.readyStack[last]
		f.readyStack = f.readyStack[:last]

		n := &f.nodes[idx]
		if n.removed || !n.ready {
			continue
		}
		f.extract(idx)
		return n.key, nil
	}

	return zero, ErrNoReadyNode
}

// TakeAnyNode force-extracts the oldest remaining node.
//
// Description:
//
//	Used to break cycles once HasReadyNode is false. The node is detached
//	from its parents and children as if it had been resolved, so the
//	remaining count strictly decreases on every call.
//
// Outputs:
//
//	K - The extracted key.
//	error - ErrEmptyQueue when the forest is drained.
func (f *Forest[K]) TakeAnyNode() (K, error) {
	var zero K
	for ; f.cursor < len(f.nodes); f.cursor++ {
		if !f.nodes[f.cursor].removed {
			idx := f.cursor
			f.extract(idx)
			return f.nodes[idx].key, nil
		}
	}
	return zero, ErrEmptyQueue
}

// TakeNode force-extracts the given key, whatever its state.
//
// Outputs:
//
//	error - ErrUnknownNode when k was never added or was already taken.
func (f *Forest[K]) TakeNode(k K) error {
	idx, ok := f.index[k]
	if !ok || f.nodes[idx].removed {
		return fmt.Errorf("%w: %v", ErrUnknownNode, k)
	}
	f.extract(idx)
	return nil
}

// Children returns the live children of k in insertion order.
func (f *Forest[K]) Children(k K) []K {
	idx, ok := f.index[k]
	if !ok || f.nodes[idx].removed {
		return nil
	}
	out := make([]K, 0, len(f.nodes[idx].children))
	for _, c := range f.nodes[idx].children {
		out = append(out, f.nodes[c].key)
	}
	return out
}

// Keys returns the keys not yet taken, in insertion order.
func (f *Forest[K]) Keys() []K {
	out := make([]K, 0, f.live)
	for i := f.cursor; i < len(f.nodes); i++ {
		if !f.nodes[i].removed {
			out = append(out, f.nodes[i].key)
		}
	}
	return out
}

// String renders the remaining nodes and their children, one per line.
func (f *Forest[K]) String() string {
	var sb strings.Builder
	for _, k := range f.Keys() {
		fmt.Fprintf(&sb, "%v ->", k)
		for _, c := range f.Children(k) {
			fmt.Fprintf(&sb, " %v", c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f *Forest[K]) ensure(k K) int {
	if idx, ok := f.index[k]; ok && !f.nodes[idx].removed {
		return idx
	}

	// A taken key that is added again gets a fresh record.
	idx := len(f.nodes)
	f.nodes = append(f.nodes, forestNode[K]{key: k, ready: true})
	f.index[k] = idx
	f.readyStack = append(f.readyStack, idx)
	f.readyCount++
	f.live++
	return idx
}

// extract removes idx from the structure and releases its parents.
func (f *Forest[K]) extract(idx int) {
	n := &f.nodes[idx]

	for _, p := range n.parents {
		parent := &f.nodes[p]
		parent.children = removeIndex(parent.children, idx)
		if len(parent.children) == 0 && !parent.removed && !parent.ready {
			parent.ready = true
			f.readyCount++
			f.readyStack = append(f.readyStack, p)
		}
	}
	for _, c := range n.children {
		child := &f.nodes[c]
		child.parents = removeIndex(child.parents, idx)
	}

	if n.ready {
		n.ready = false
		f.readyCount--
	}
	n.parents = nil
	n.children = nil
	n.removed = true
	f.live--
}

func removeIndex(list []int, target int) []int {
	for i, v := range list {
		if v == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
