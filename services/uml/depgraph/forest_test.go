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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain takes every node, breaking cycles, and returns the extraction order.
func drain[K comparable](t *testing.T, f *Forest[K]) []K {
	t.Helper()
	var order []K
	for f.HasNodes() {
		before := f.Len()
		var (
			k   K
			err error
		)
		if f.HasReadyNode() {
			k, err = f.TakeReadyNode()
		} else {
			k, err = f.TakeAnyNode()
		}
		require.NoError(t, err)
		require.Equal(t, before-1, f.Len(), "extraction must shrink the forest")
		order = append(order, k)
	}
	return order
}

func positions[K comparable](order []K) map[K]int {
	pos := make(map[K]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	return pos
}

func TestForest_AddNodeIsIdempotent(t *testing.T) {
	f := NewForest[string]()
	f.AddNode("a")
	f.AddNode("a")

	assert.Equal(t, 1, f.Len())
	assert.True(t, f.HasReadyNode())

	k, err := f.TakeReadyNode()
	require.NoError(t, err)
	assert.Equal(t, "a", k)
	assert.False(t, f.HasNodes())
}

func TestForest_SelfRelation(t *testing.T) {
	for _, key := range []string{"a", "", "some/file.ts"} {
		t.Run(key, func(t *testing.T) {
			f := NewForest[string]()
			err := f.AddRelation(key, key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSelfRelation))

			var relErr *InvalidRelationError
			require.True(t, errors.As(err, &relErr))
			assert.Equal(t, key, relErr.Key)
			assert.False(t, f.HasNodes(), "failed relation must not create nodes")
		})
	}

	t.Run("int keys", func(t *testing.T) {
		f := NewForest[int]()
		assert.ErrorIs(t, f.AddRelation(7, 7), ErrSelfRelation)
	})
}

func TestForest_AddRelationCreatesNodes(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("parent", "child"))

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"parent", "child"}, f.Keys())
	assert.Equal(t, []string{"child"}, f.Children("parent"))

	k, err := f.TakeReadyNode()
	require.NoError(t, err)
	assert.Equal(t, "child", k)
}

func TestForest_DuplicateRelationIgnored(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("a", "b"))
	require.NoError(t, f.AddRelation("a", "b"))

	assert.Len(t, f.Children("a"), 1)
	assert.Equal(t, []string{"b", "a"}, drain(t, f))
}

func TestForest_ChainOrder(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("A", "B"))
	require.NoError(t, f.AddRelation("B", "C"))

	assert.Equal(t, []string{"C", "B", "A"}, drain(t, f))
}

func TestForest_AcyclicOrderRespectsEdges(t *testing.T) {
	edges := [][2]int{
		{1, 2}, {1, 3}, {2, 4}, {3, 4}, {4, 5}, {6, 5}, {7, 1}, {7, 6}, {8, 8 + 1},
	}

	f := NewForest[int]()
	for _, e := range edges {
		require.NoError(t, f.AddRelation(e[0], e[1]))
	}
	f.AddNode(10)

	order := drain(t, f)
	require.Len(t, order, 10)

	pos := positions(order)
	for _, e := range edges {
		assert.Less(t, pos[e[1]], pos[e[0]], "child %d must come before parent %d", e[1], e[0])
	}
}

func TestForest_TakeReadyNodeErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := NewForest[string]()
		_, err := f.TakeReadyNode()
		assert.ErrorIs(t, err, ErrEmptyQueue)

		_, err = f.TakeAnyNode()
		assert.ErrorIs(t, err, ErrEmptyQueue)
	})

	t.Run("only cycles remain", func(t *testing.T) {
		f := NewForest[string]()
		require.NoError(t, f.AddRelation("a", "b"))
		require.NoError(t, f.AddRelation("b", "a"))

		assert.True(t, f.HasNodes())
		assert.False(t, f.HasReadyNode())
		_, err := f.TakeReadyNode()
		assert.ErrorIs(t, err, ErrNoReadyNode)
	})
}

func TestForest_CycleIsBroken(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("a", "b"))
	require.NoError(t, f.AddRelation("b", "c"))
	require.NoError(t, f.AddRelation("c", "a"))
	require.NoError(t, f.AddRelation("d", "a"))

	assert.False(t, f.HasReadyNode())

	k, err := f.TakeAnyNode()
	require.NoError(t, err)
	assert.Equal(t, "a", k, "forced extraction picks the oldest node")

	// Releasing a frees c, then b. d waited on a only and is also free.
	assert.True(t, f.HasReadyNode())
	rest := drain(t, f)
	assert.ElementsMatch(t, []string{"b", "c", "d"}, rest)

	pos := positions(rest)
	assert.Less(t, pos["c"], pos["b"])
}

func TestForest_TerminatesWithinNodeCount(t *testing.T) {
	f := NewForest[int]()
	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, f.AddRelation(i, (i+1)%n))
		require.NoError(t, f.AddRelation(i, (i+7)%n))
	}

	steps := 0
	for f.HasNodes() {
		steps++
		require.LessOrEqual(t, steps, n)
		if f.HasReadyNode() {
			_, err := f.TakeReadyNode()
			require.NoError(t, err)
			continue
		}
		_, err := f.TakeAnyNode()
		require.NoError(t, err)
	}
	assert.Equal(t, n, steps)
}

func TestForest_TakeNode(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("x", "y"))
	require.NoError(t, f.AddRelation("y", "x"))

	require.NoError(t, f.TakeNode("y"))
	assert.Equal(t, []string{"x"}, f.Keys())
	assert.True(t, f.HasReadyNode())

	assert.ErrorIs(t, f.TakeNode("y"), ErrUnknownNode)
	assert.ErrorIs(t, f.TakeNode("missing"), ErrUnknownNode)
}

func TestForest_ReaddAfterTake(t *testing.T) {
	f := NewForest[string]()
	f.AddNode("a")
	_, err := f.TakeReadyNode()
	require.NoError(t, err)

	f.AddNode("a")
	assert.Equal(t, 1, f.Len())
	k, err := f.TakeReadyNode()
	require.NoError(t, err)
	assert.Equal(t, "a", k)
}

func TestForest_String(t *testing.T) {
	f := NewForest[string]()
	require.NoError(t, f.AddRelation("a", "b"))
	assert.Equal(t, "a -> b\nb ->\n", f.String())
}
