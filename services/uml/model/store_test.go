// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	s := NewStore()
	foo := NewClass("Foo", nil, false)

	s.Put("/src/f1.ts", "Foo", foo)
	s.PutLink("/src/f2.ts", "Bar", foo)

	got, ok := s.Get("/src/f1.ts", "Foo")
	require.True(t, ok)
	assert.Same(t, foo, got)

	got, ok = s.Get("/src/f2.ts", "Bar")
	require.True(t, ok)
	assert.Same(t, foo, got)

	_, ok = s.Get("/src/f2.ts", "Foo")
	assert.False(t, ok)
	_, ok = s.Get("/src/missing.ts", "Foo")
	assert.False(t, ok)

	assert.True(t, s.Has("/src/f1.ts", "Foo"))
	assert.False(t, s.IsLink("/src/f1.ts", "Foo"))
	assert.True(t, s.IsLink("/src/f2.ts", "Bar"))
}

func TestStore_DeduplicatesAcrossLinks(t *testing.T) {
	s := NewStore()
	foo := NewClass("Foo", nil, false)
	baz := NewClass("Baz", nil, false)

	s.Put("/src/f1.ts", "Foo", foo)
	s.PutLink("/src/f2.ts", "Bar", foo)
	s.PutLink("/src/f3.ts", "Foo", foo)
	s.Put("/src/f2.ts", "Baz", baz)

	assert.Equal(t, []Entity{foo, baz}, s.AllEntities())
	assert.Equal(t, []Entity{foo, baz}, s.NonLinkEntities())
	assert.Equal(t, []string{"/src/f1.ts", "/src/f2.ts", "/src/f3.ts"}, s.Files())
	assert.Equal(t, []string{"Bar", "Baz"}, s.Names("/src/f2.ts"))
}

func TestStore_NonLinkOmitsLinkOnlyEntities(t *testing.T) {
	s := NewStore()
	external := NewInterface("External", nil)
	s.PutLink("/src/a.ts", "External", external)

	assert.Len(t, s.AllEntities(), 1)
	assert.Empty(t, s.NonLinkEntities())
}

func TestStore_RePutKeepsPosition(t *testing.T) {
	s := NewStore()
	a1 := NewClass("A", nil, false)
	a2 := NewClass("A", nil, false)
	b := NewClass("B", nil, false)

	s.Put("/f.ts", "A", a1)
	s.Put("/f.ts", "B", b)
	s.Put("/f.ts", "A", a2)

	assert.Equal(t, []Entity{a2, b}, s.NonLinkEntities())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := NewEnum("E", nil)
			s.Put("/f.ts", string(rune('a'+i)), e)
			_, _ = s.Get("/f.ts", "a")
			_ = s.AllEntities()
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Names("/f.ts"), 16)
}

func TestStore_EntitiesInFolders(t *testing.T) {
	s := NewStore()
	x := NewClass("X", nil, false)
	y := NewClass("Y", nil, false)
	z := NewClass("Z", nil, false)

	s.Put("/proj/src/a/b/X.ts", "X", x)
	s.Put("/proj/src/a/b/Y.ts", "Y", y)
	s.PutLink("/proj/src/c/Z.ts", "X", x)
	s.Put("/proj/src/c/Z.ts", "Z", z)

	root := s.EntitiesInFolders()

	assert.Equal(t, "proj/src", root.Name)
	require.Len(t, root.Folders, 2)
	assert.Empty(t, root.Entities)

	ab := root.Folders[0]
	assert.Equal(t, "a/b", ab.Name)
	assert.Equal(t, "/proj/src/a/b", ab.Path)
	assert.Equal(t, []Entity{x, y}, ab.Entities)

	c := root.Folders[1]
	assert.Equal(t, "c", c.Name)
	assert.Equal(t, []Entity{z}, c.Entities)
}
