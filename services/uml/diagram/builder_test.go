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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/model"
)

// fixture is a small resolved model:
//
//	Entity (interface) <|.. User (class) --|> Base (abstract class)
//	User ..> Role (enum), User ..> UserID (type), find (function) ..> User
type fixture struct {
	entity *model.Interface
	base   *model.Class
	user   *model.Class
	role   *model.Enum
	id     *model.TypeAlias
	find   *model.Function
}

func newFixture() *fixture {
	f := &fixture{
		entity: model.NewInterface("Entity", nil),
		base:   model.NewClass("Base", nil, true),
		user:   model.NewClass("User", nil, false),
		role:   model.NewEnum("Role", []string{"Admin", "Guest"}),
		id:     model.NewTypeAlias("UserID", nil, "string"),
		find:   model.NewFunction("find", nil, []model.Parameter{{Name: "id", Type: "UserID"}}, "User"),
	}
	f.entity.Attributes = []model.Property{{Name: "id", Type: "UserID"}}
	f.user.Attributes = []model.Property{
		{Name: "name", Type: "string"},
		{Name: "secret", Visibility: ast.VisibilityPrivate, Type: "string"},
		{Name: "role", Visibility: ast.VisibilityProtected, Type: "Role"},
	}
	f.user.Methods = []model.Property{
		{Name: "rename", Parameters: []model.Parameter{{Name: "to", Type: "string"}}, Type: "void", IsMethod: true},
	}

	f.entity.AddUsage(f.id)
	f.user.AddExtension(f.base)
	f.user.AddImplementation(f.entity)
	f.user.AddUsage(f.role)
	f.user.AddUsage(f.id)
	f.find.AddUsage(f.id)
	f.find.AddUsage(f.user)
	return f
}

func (f *fixture) all() []model.Entity {
	return []model.Entity{f.entity, f.base, f.user, f.role, f.id, f.find}
}

func classByName(t *testing.T, g *Graph, name string) *ClassNode {
	t.Helper()
	for _, n := range g.Nodes {
		if n.Name == name {
			return n
		}
	}
	require.Failf(t, "class node not found", "%q", name)
	return nil
}

func TestBuild_NodesAndNotes(t *testing.T) {
	f := newFixture()
	g, err := NewBuilder(DefaultSettings()).Build(f.all())
	require.NoError(t, err)

	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Notes, 2)
	assert.Equal(t, "UserID = string", g.Notes[0].Text)
	assert.Equal(t, "type", g.Notes[0].Stereotype)
	assert.Equal(t, "find = function(id: UserID): User", g.Notes[1].Text)

	role := classByName(t, g, "Role")
	assert.Equal(t, "enum", role.Stereotype)
	assert.Equal(t, []string{"Admin", "Guest"}, role.Attributes)

	assert.Equal(t, "abstract class", classByName(t, g, "Base").Stereotype)
	assert.Equal(t, "FreeMono", g.FontFamily)
}

func TestBuild_HidesPrivateMembersByDefault(t *testing.T) {
	f := newFixture()

	g, err := NewBuilder(DefaultSettings()).Build(f.all())
	require.NoError(t, err)
	user := classByName(t, g, "User")
	assert.Equal(t, []string{"+ name: string", "# role: Role"}, user.Attributes)
	assert.Equal(t, []string{"+ rename(to: string): void"}, user.Methods)

	settings := DefaultSettings()
	settings.HidePrivateMembers = false
	g, err = NewBuilder(settings).Build(f.all())
	require.NoError(t, err)
	user = classByName(t, g, "User")
	assert.Equal(t, []string{"+ name: string", "- secret: string", "# role: Role"}, user.Attributes)
}

func TestBuild_InterfaceMembersAlwaysShown(t *testing.T) {
	iface := model.NewInterface("Secretive", nil)
	iface.Attributes = []model.Property{{Name: "hidden", Visibility: ast.VisibilityPrivate, Type: "string"}}

	g, err := NewBuilder(DefaultSettings()).Build([]model.Entity{iface})
	require.NoError(t, err)
	assert.Equal(t, []string{"- hidden: string"}, g.Nodes[0].Attributes)
}

func TestBuild_ClassNamesOnly(t *testing.T) {
	f := newFixture()
	settings := DefaultSettings()
	settings.ClassNamesOnly = true

	g, err := NewBuilder(settings).Build(f.all())
	require.NoError(t, err)
	for _, n := range g.Nodes {
		assert.Empty(t, n.Attributes, n.Name)
		assert.Empty(t, n.Methods, n.Name)
	}
	assert.Len(t, g.Edges, 7, "edges are kept")
}

func TestBuild_Edges(t *testing.T) {
	f := newFixture()
	g, err := NewBuilder(DefaultSettings()).Build(f.all())
	require.NoError(t, err)

	type rel struct {
		from, to string
		kind     EdgeKind
	}
	var got []rel
	for _, e := range g.Edges {
		got = append(got, rel{e.Source.Label(), e.Target.Label(), e.Kind})
	}

	assert.ElementsMatch(t, []rel{
		{"Entity", "UserID = string", EdgeUsage},
		{"User", "Role", EdgeUsage},
		{"User", "UserID = string", EdgeUsage},
		{"User", "Base", EdgeInheritance},
		{"User", "Entity", EdgeImplementation},
		{"find = function(id: UserID): User", "UserID = string", EdgeUsage},
		{"find = function(id: UserID): User", "User", EdgeUsage},
	}, got)
}

func TestBuild_EdgesOnlyBetweenDrawnEntities(t *testing.T) {
	f := newFixture()
	g, err := NewBuilder(DefaultSettings()).Build([]model.Entity{f.user, f.base})
	require.NoError(t, err)

	require.Len(t, g.Edges, 1)
	assert.Equal(t, EdgeInheritance, g.Edges[0].Kind)
}

func TestBuild_DuplicateEntitiesDrawnOnce(t *testing.T) {
	f := newFixture()
	g, err := NewBuilder(DefaultSettings()).Build([]model.Entity{f.role, f.role})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
}

func TestBuild_NilEntity(t *testing.T) {
	_, err := NewBuilder(DefaultSettings()).Build([]model.Entity{nil})
	assert.True(t, errors.Is(err, ErrUnsupportedEntity))
}

func TestBuildGrouped(t *testing.T) {
	f := newFixture()
	root := &model.Folder{
		Name:     "src",
		Path:     "/src",
		Entities: []model.Entity{f.find},
		Folders: []*model.Folder{
			{Name: "models", Path: "/src/models", Entities: []model.Entity{f.entity, f.base, f.user}},
			{Name: "shared/types", Path: "/src/shared/types", Entities: []model.Entity{f.role, f.id}},
		},
	}

	g, err := NewBuilder(DefaultSettings()).BuildGrouped(root)
	require.NoError(t, err)

	require.Len(t, g.Notes, 1)
	require.Len(t, g.Groups, 2)
	assert.Equal(t, "models", g.Groups[0].Name)
	assert.Len(t, g.Groups[0].Graph.Nodes, 3)
	assert.Equal(t, "shared/types", g.Groups[1].Name)
	assert.Len(t, g.Groups[1].Graph.Nodes, 1)
	assert.Len(t, g.Groups[1].Graph.Notes, 1)

	assert.Equal(t, 6, g.NodeCount())
	assert.Len(t, g.Edges, 7, "edges cross group boundaries on the root graph")
	for _, grp := range g.Groups {
		assert.Empty(t, grp.Graph.Edges)
	}
}

func TestBuildGrouped_NilFolder(t *testing.T) {
	g, err := NewBuilder(Settings{}).BuildGrouped(nil)
	require.NoError(t, err)
	assert.Zero(t, g.NodeCount())
	assert.Equal(t, "FreeMono", g.FontFamily)
}

func TestGeometry(t *testing.T) {
	t.Run("class with stereotype", func(t *testing.T) {
		w, h := classSize("User", "interface", []string{"+ id: string", "+ ok: bool"})
		assert.InDelta(t, 46+2*14+20, h, 0.001)
		// (len("interface")+4)*7.5+20 beats the member and title widths.
		assert.InDelta(t, 117.5, w, 0.001)
	})

	t.Run("long member", func(t *testing.T) {
		line := "+ veryLongMemberName: Map<string, User>"
		w, h := classSize("A", "", []string{line})
		assert.InDelta(t, 46+14, h, 0.001)
		assert.InDelta(t, 20+float64(len(line))*7.3, w, 0.001)
	})

	t.Run("minimum width", func(t *testing.T) {
		w, _ := classSize("A", "", nil)
		assert.InDelta(t, 50, w, 0.001)
	})

	t.Run("note", func(t *testing.T) {
		w, h := noteSize("T = string")
		assert.InDelta(t, 10*7.25+40, w, 0.001)
		assert.InDelta(t, 28, h, 0.001)
	})
}
