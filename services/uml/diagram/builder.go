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
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/model"
)

var (
	// ErrUnsupportedEntity is returned for entity types the builder cannot draw.
	ErrUnsupportedEntity = errors.New("unsupported entity")

	// ErrNilGraph is returned by the writers for a nil graph.
	ErrNilGraph = errors.New("graph must not be nil")
)

// Settings controls what the builder draws.
type Settings struct {
	// HidePrivateMembers omits private class members. Interface members
	// are always shown.
	// Default: true
	HidePrivateMembers bool

	// ClassNamesOnly draws class boxes without members.
	ClassNamesOnly bool

	// FontFamily is the label font written to GraphML.
	// Default: "FreeMono"
	FontFamily string
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		HidePrivateMembers: true,
		FontFamily:         "FreeMono",
	}
}

// Builder turns resolved entities into a Graph.
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build call works on its own
//	node table.
type Builder struct {
	settings Settings
}

// NewBuilder creates a Builder. An empty FontFamily falls back to the
// default font.
func NewBuilder(settings Settings) *Builder {
	if settings.FontFamily == "" {
		settings.FontFamily = DefaultSettings().FontFamily
	}
	return &Builder{settings: settings}
}

// Settings returns the effective settings.
func (b *Builder) Settings() Settings {
	return b.settings
}

// buildState maps entities to the nodes drawn for them.
type buildState struct {
	nodes map[model.Entity]Node
	order []model.Entity
}

// Build draws entities into a flat graph.
//
// Description:
//
//	Classes, interfaces and enums become class nodes; type aliases and
//	functions become notes. Edges are drawn for usages, extensions and
//	implementations whose target is also part of entities.
//
// Outputs:
//
//	*Graph - Never nil on success.
//	error - ErrUnsupportedEntity for nil or unknown entities.
func (b *Builder) Build(entities []model.Entity) (*Graph, error) {
	state := &buildState{nodes: make(map[model.Entity]Node, len(entities))}
	g := &Graph{FontFamily: b.settings.FontFamily}
	for _, e := range lo.Uniq(entities) {
		if err := b.addEntity(state, g, e); err != nil {
			return nil, err
		}
	}
	g.Edges = b.edges(state)
	return g, nil
}

// BuildGrouped draws a folder tree. Entities of the root folder are drawn
// at the top level and every subfolder becomes a group; edges are drawn on
// the root graph.
func (b *Builder) BuildGrouped(folder *model.Folder) (*Graph, error) {
	if folder == nil {
		return &Graph{FontFamily: b.settings.FontFamily}, nil
	}
	state := &buildState{nodes: make(map[model.Entity]Node)}
	g, err := b.buildFolder(state, folder)
	if err != nil {
		return nil, err
	}
	g.FontFamily = b.settings.FontFamily
	g.Edges = b.edges(state)
	return g, nil
}

func (b *Builder) buildFolder(state *buildState, folder *model.Folder) (*Graph, error) {
	g := &Graph{}
	for _, e := range folder.Entities {
		if _, seen := state.nodes[e]; seen {
			continue
		}
		if err := b.addEntity(state, g, e); err != nil {
			return nil, err
		}
	}
	for _, sub := range folder.Folders {
		inner, err := b.buildFolder(state, sub)
		if err != nil {
			return nil, err
		}
		g.Groups = append(g.Groups, &Group{Name: sub.Name, Path: sub.Path, Graph: inner})
	}
	return g, nil
}

func (b *Builder) addEntity(state *buildState, g *Graph, e model.Entity) error {
	var node Node

	switch ent := e.(type) {
	case *model.Class:
		n := b.classNode(ent.Name(), ent.Stereotype(), b.properties(ent.Attributes, true), b.properties(ent.Methods, true))
		g.Nodes = append(g.Nodes, n)
		node = n
	case *model.Interface:
		n := b.classNode(ent.Name(), ent.Stereotype(), b.properties(ent.Attributes, false), b.properties(ent.Methods, false))
		g.Nodes = append(g.Nodes, n)
		node = n
	case *model.Enum:
		values := append([]string(nil), ent.Values...)
		if b.settings.ClassNamesOnly {
			values = nil
		}
		n := b.classNode(ent.Name(), ent.Stereotype(), values, nil)
		g.Nodes = append(g.Nodes, n)
		node = n
	case *model.TypeAlias:
		n := newNote(ent.Signature(), ent.Stereotype())
		g.Notes = append(g.Notes, n)
		node = n
	case *model.Function:
		n := newNote(ent.Signature(), ent.Stereotype())
		g.Notes = append(g.Notes, n)
		node = n
	case nil:
		return fmt.Errorf("%w: nil entity", ErrUnsupportedEntity)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedEntity, e)
	}

	state.nodes[e] = node
	state.order = append(state.order, e)
	return nil
}

func (b *Builder) classNode(name, stereotype string, attributes, methods []string) *ClassNode {
	n := &ClassNode{
		Name:       name,
		Stereotype: stereotype,
		Attributes: attributes,
		Methods:    methods,
	}
	n.Width, n.Height = classSize(name, stereotype, append(append([]string{}, attributes...), methods...))
	return n
}

func newNote(text, stereotype string) *NoteNode {
	n := &NoteNode{Text: text, Stereotype: stereotype}
	n.Width, n.Height = noteSize(text)
	return n
}

// properties renders member labels, dropping private members of classes
// when HidePrivateMembers is set.
func (b *Builder) properties(props []model.Property, class bool) []string {
	if b.settings.ClassNamesOnly {
		return nil
	}
	out := make([]string, 0, len(props))
	for _, p := range props {
		if class && b.settings.HidePrivateMembers && p.Visibility == ast.VisibilityPrivate {
			continue
		}
		out = append(out, p.Label())
	}
	return out
}

// edges draws every relation between two drawn entities, in entity order.
func (b *Builder) edges(state *buildState) []*Edge {
	var out []*Edge
	add := func(source Node, targets []model.Entity, kind EdgeKind) {
		for _, t := range targets {
			if target, ok := state.nodes[t]; ok {
				out = append(out, &Edge{Source: source, Target: target, Kind: kind})
			}
		}
	}
	for _, e := range state.order {
		source := state.nodes[e]
		add(source, e.Usages(), EdgeUsage)
		add(source, e.Extensions(), EdgeInheritance)
		add(source, e.Implementations(), EdgeImplementation)
	}
	return out
}
