// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diagram

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// GraphSchemaVersion is the version of the JSON serialization schema.
// Increment when the format changes in a breaking way.
const GraphSchemaVersion = "1.0"

// SerializableGraph is the JSON representation of a Graph.
//
// Description:
//
//	Nodes and groups are flattened into lists that reference their parent
//	group by id. Ids follow document order, so output is deterministic for
//	a given Graph and suitable for diffing.
//
// Thread Safety: SerializableGraph is a value type with no internal state.
type SerializableGraph struct {
	// SchemaVersion identifies the serialization format version.
	SchemaVersion string `json:"schema_version"`

	Groups []SerializableGroup `json:"groups"`
	Nodes  []SerializableNode  `json:"nodes"`
	Edges  []SerializableEdge  `json:"edges"`
}

// SerializableGroup is one directory group.
type SerializableGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Parent string `json:"parent,omitempty"`
}

// SerializableNode is a class node or a note.
type SerializableNode struct {
	ID string `json:"id"`

	// Kind is "class" or "note".
	Kind       string   `json:"kind"`
	Label      string   `json:"label"`
	Stereotype string   `json:"stereotype,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
	Methods    []string `json:"methods,omitempty"`
	Group      string   `json:"group,omitempty"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
}

// SerializableEdge is one relation.
type SerializableEdge struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`

	// Type is "usage", "inheritance" or "implementation".
	Type string `json:"type"`
}

// ToSerializable converts g to its JSON representation.
//
// Outputs:
//
//	*SerializableGraph - Never nil. A nil graph yields empty lists.
//	error - Non-nil if an edge references a node outside g.
func (g *Graph) ToSerializable() (*SerializableGraph, error) {
	sg := &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		Groups:        []SerializableGroup{},
		Nodes:         []SerializableNode{},
		Edges:         []SerializableEdge{},
	}
	if g == nil {
		return sg, nil
	}

	ids := make(map[Node]string)
	var groups, nodes int

	var walk func(parent string, level *Graph)
	walk = func(parent string, level *Graph) {
		for _, n := range level.Nodes {
			id := "n" + strconv.Itoa(nodes)
			nodes++
			ids[n] = id
			sg.Nodes = append(sg.Nodes, SerializableNode{
				ID:         id,
				Kind:       "class",
				Label:      n.Name,
				Stereotype: n.Stereotype,
				Attributes: n.Attributes,
				Methods:    n.Methods,
				Group:      parent,
				Width:      n.Width,
				Height:     n.Height,
			})
		}
		for _, n := range level.Notes {
			id := "n" + strconv.Itoa(nodes)
			nodes++
			ids[n] = id
			sg.Nodes = append(sg.Nodes, SerializableNode{
				ID:         id,
				Kind:       "note",
				Label:      n.Text,
				Stereotype: n.Stereotype,
				Group:      parent,
				Width:      n.Width,
				Height:     n.Height,
			})
		}
		for _, grp := range level.Groups {
			id := "g" + strconv.Itoa(groups)
			groups++
			sg.Groups = append(sg.Groups, SerializableGroup{ID: id, Name: grp.Name, Path: grp.Path, Parent: parent})
			walk(id, grp.Graph)
		}
	}
	walk("", g)

	for _, e := range g.Edges {
		from, okF := ids[e.Source]
		to, okT := ids[e.Target]
		if !okF || !okT {
			return nil, fmt.Errorf("edge %s references a node outside the graph", e.Kind)
		}
		sg.Edges = append(sg.Edges, SerializableEdge{FromID: from, ToID: to, Type: e.Kind.String()})
	}
	return sg, nil
}

// WriteJSON writes g as indented JSON.
func WriteJSON(w io.Writer, g *Graph) error {
	if g == nil {
		return ErrNilGraph
	}
	sg, err := g.ToSerializable()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sg); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
