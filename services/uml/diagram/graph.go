// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diagram lays out resolved entities as a graph of UML class nodes,
// note nodes and typed edges, optionally grouped by source directory, and
// writes that graph as yEd GraphML, Mermaid or JSON.
package diagram

// EdgeKind is the UML relation an edge draws.
type EdgeKind int

const (
	// EdgeUsage is a dependency: the source mentions the target.
	EdgeUsage EdgeKind = iota

	// EdgeInheritance is a generalization: the source extends the target.
	EdgeInheritance

	// EdgeImplementation is a realization: the source implements the target.
	EdgeImplementation
)

// String returns the string representation of the EdgeKind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeInheritance:
		return "inheritance"
	case EdgeImplementation:
		return "implementation"
	default:
		return "usage"
	}
}

// Node is a drawable box: *ClassNode or *NoteNode.
type Node interface {
	// Label returns the title text.
	Label() string

	// Size returns the width and height in pixels.
	Size() (width, height float64)

	isNode()
}

// ClassNode is a UML class box for a class, interface or enum.
type ClassNode struct {
	Name       string
	Stereotype string
	Attributes []string
	Methods    []string
	Width      float64
	Height     float64
}

func (n *ClassNode) Label() string            { return n.Name }
func (n *ClassNode) Size() (float64, float64) { return n.Width, n.Height }
func (n *ClassNode) isNode()                  {}

// NoteNode is a single-line note for a type alias or function.
type NoteNode struct {
	Text       string
	Stereotype string
	Width      float64
	Height     float64
}

func (n *NoteNode) Label() string            { return n.Text }
func (n *NoteNode) Size() (float64, float64) { return n.Width, n.Height }
func (n *NoteNode) isNode()                  {}

// Edge connects two nodes of the same Graph tree.
type Edge struct {
	Source Node
	Target Node
	Kind   EdgeKind
}

// Group is a directory-level sub-graph.
type Group struct {
	// Name is the directory name, possibly several compacted levels.
	Name string

	// Path is the slash-separated directory path.
	Path string

	Graph *Graph
}

// Graph is a laid-out diagram.
//
// Nodes, notes and groups are kept in insertion order. Edges are only held
// by the root graph; they may connect nodes inside any group.
type Graph struct {
	// FontFamily is the label font. Only set on the root graph.
	FontFamily string

	Nodes  []*ClassNode
	Notes  []*NoteNode
	Groups []*Group
	Edges  []*Edge
}

// NodeCount returns the number of class and note nodes, including those
// inside groups.
func (g *Graph) NodeCount() int {
	n := len(g.Nodes) + len(g.Notes)
	for _, grp := range g.Groups {
		n += grp.Graph.NodeCount()
	}
	return n
}

// Walk calls fn for g and every nested group graph, depth first.
func (g *Graph) Walk(fn func(path string, g *Graph)) {
	g.walk("", fn)
}

func (g *Graph) walk(path string, fn func(string, *Graph)) {
	fn(path, g)
	for _, grp := range g.Groups {
		grp.Graph.walk(grp.Path, fn)
	}
}
