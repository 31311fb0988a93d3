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
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileQueue_ImportsComeFirst(t *testing.T) {
	q := NewFileQueue()
	require.NoError(t, q.AddDependencies("/p/main.ts", "/p/service.ts", "/p/model.ts"))
	require.NoError(t, q.AddDependencies("/p/service.ts", "/p/model.ts"))
	require.NoError(t, q.AddDependencies("/p/model.ts"))

	var order []string
	for q.HasFile() {
		f, err := q.NextFile()
		require.NoError(t, err)
		order = append(order, f)
	}

	assert.Equal(t, []string{"/p/model.ts", "/p/service.ts", "/p/main.ts"}, order)
	assert.Empty(t, q.Cycles())

	_, err := q.NextFile()
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestFileQueue_SelfImport(t *testing.T) {
	q := NewFileQueue()
	err := q.AddDependencies("/p/a.ts", "/p/a.ts")
	assert.ErrorIs(t, err, ErrSelfRelation)
}

func TestFileQueue_CycleAbort(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	q := NewFileQueue(WithFileQueueLogger(logger))
	require.NoError(t, q.AddDependencies("/p/a.ts", "/p/b.ts"))
	require.NoError(t, q.AddDependencies("/p/b.ts", "/p/c.ts"))
	require.NoError(t, q.AddDependencies("/p/c.ts", "/p/a.ts"))
	require.NoError(t, q.AddDependencies("/p/main.ts", "/p/a.ts"))

	file, err := q.NextFile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"/p/a.ts", "/p/b.ts", "/p/c.ts"}, cycleErr.Files)
	assert.Equal(t, "/p/a.ts", cycleErr.Broken)
	assert.Equal(t, "/p/a.ts", file)
	assert.Contains(t, err.Error(), "dependencies must not be cycled")
	assert.Contains(t, err.Error(), "/p/a.ts -> /p/b.ts -> /p/c.ts -> /p/a.ts")

	assert.Contains(t, logs.String(), "file dependency cycle detected")
	assert.Contains(t, logs.String(), "/p/c.ts")

	// The queue stays usable after the cycle was reported.
	var rest []string
	for q.HasFile() {
		f, err := q.NextFile()
		require.NoError(t, err)
		rest = append(rest, f)
	}
	assert.ElementsMatch(t, []string{"/p/b.ts", "/p/c.ts", "/p/main.ts"}, rest)
	assert.Len(t, q.Cycles(), 1)
}

func TestFileQueue_CycleContinue(t *testing.T) {
	q := NewFileQueue(
		WithCyclePolicy(CyclePolicyContinue),
		WithFileQueueLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	require.NoError(t, q.AddDependencies("/p/x.ts", "/p/y.ts"))
	require.NoError(t, q.AddDependencies("/p/y.ts", "/p/x.ts"))

	var order []string
	for q.HasFile() {
		f, err := q.NextFile()
		require.NoError(t, err)
		order = append(order, f)
	}
	assert.Equal(t, []string{"/p/x.ts", "/p/y.ts"}, order)
	require.Len(t, q.Cycles(), 1)
	assert.Equal(t, []string{"/p/x.ts", "/p/y.ts"}, q.Cycles()[0])
}

func TestFileQueue_CycleBehindReadyPrefix(t *testing.T) {
	q := NewFileQueue(WithFileQueueLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	// leaf is ready; entry -> loop1 <-> loop2 -> leaf.
	require.NoError(t, q.AddDependencies("/p/entry.ts", "/p/loop1.ts"))
	require.NoError(t, q.AddDependencies("/p/loop1.ts", "/p/loop2.ts"))
	require.NoError(t, q.AddDependencies("/p/loop2.ts", "/p/loop1.ts", "/p/leaf.ts"))

	first, err := q.NextFile()
	require.NoError(t, err)
	assert.Equal(t, "/p/leaf.ts", first)

	_, err = q.NextFile()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.ElementsMatch(t, []string{"/p/loop1.ts", "/p/loop2.ts"}, cycleErr.Files)
	assert.NotContains(t, cycleErr.Files, "/p/entry.ts", "the walk must report only the cycle members")
}

func TestParseCyclePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CyclePolicy
		wantErr bool
	}{
		{"", CyclePolicyAbort, false},
		{"abort", CyclePolicyAbort, false},
		{"Continue", CyclePolicyContinue, false},
		{"ignore", CyclePolicyAbort, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCyclePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}
}
