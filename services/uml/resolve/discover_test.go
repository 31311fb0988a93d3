// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasTable_LongestPrefixWins(t *testing.T) {
	table, err := newAliasTable(map[string]string{
		"@app":     "/repo/src",
		"@app/lib": "/repo/vendor/lib",
	})
	require.NoError(t, err)

	got, ok := table.expand("@app/lib/x")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/repo/vendor/lib/x"), got)

	got, ok = table.expand("@app/core/y")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/repo/src/core/y"), got)

	got, ok = table.expand("@app")
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/repo/src"), got)

	_, ok = table.expand("@application/x")
	assert.False(t, ok, "prefix must end at a path boundary")

	_, ok = table.expand("lodash")
	assert.False(t, ok)
}

func TestResolveSpecifier(t *testing.T) {
	table, err := newAliasTable(map[string]string{"@src": "/p/src"})
	require.NoError(t, err)

	selected := map[string]bool{
		"/p/src/a.ts":              true,
		"/p/src/b.tsx":             true,
		"/p/src/types.d.ts":        true,
		"/p/src/models/index.ts":   true,
		"/p/src/esm.mts":           true,
		"/p/src/nested/deep/c.ts":  true,
		"/p/src/nested/deep/c.tsx": true,
	}
	from := "/p/src/nested/deep/c.ts"

	tests := []struct {
		name string
		from string
		spec string
		want string
	}{
		{name: "relative no extension", from: "/p/src/x.ts", spec: "./a", want: "/p/src/a.ts"},
		{name: "parent directory", from: from, spec: "../../a", want: "/p/src/a.ts"},
		{name: "tsx", from: "/p/src/x.ts", spec: "./b", want: "/p/src/b.tsx"},
		{name: "declaration file", from: "/p/src/x.ts", spec: "./types", want: "/p/src/types.d.ts"},
		{name: "compiled js name", from: "/p/src/x.ts", spec: "./a.js", want: "/p/src/a.ts"},
		{name: "compiled mjs name", from: "/p/src/x.ts", spec: "./esm.mjs", want: "/p/src/esm.mts"},
		{name: "directory index", from: "/p/src/x.ts", spec: "./models", want: "/p/src/models/index.ts"},
		{name: "alias", from: "/p/other.ts", spec: "@src/a", want: "/p/src/a.ts"},
		{name: "ts preferred over tsx", from: "/p/src/x.ts", spec: "./nested/deep/c", want: "/p/src/nested/deep/c.ts"},
		{name: "absolute", from: "/q/x.ts", spec: "/p/src/a", want: "/p/src/a.ts"},
		{name: "bare package", from: "/p/src/x.ts", spec: "rxjs"},
		{name: "not selected", from: "/p/src/x.ts", spec: "./missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolveSpecifier(filepath.FromSlash(tt.from), tt.spec, table, slashKeys(selected))
			if tt.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestDiscover_SkipsHiddenAndVendorDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":                `export class A {}`,
		"src/b.tsx":               `export class B {}`,
		"src/readme.md":           `# docs`,
		"src/node_modules/dep.ts": `export class Dep {}`,
		".git/hooks/x.ts":         `export class X {}`,
	})

	b := NewBuilder(WithLogger(quietLogger()))
	table, err := newAliasTable(nil)
	require.NoError(t, err)

	files, err := b.discover([]string{root, filepath.Join(root, "src", "a.ts")}, table, b.options.Extensions)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "a.ts"),
		filepath.Join(root, "src", "b.tsx"),
	}, files, "results are unique and in walk order")
}

func TestDiscover_KeepsIncludeOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts":     `export class A {}`,
		"z.ts":     `export class Z {}`,
		"lib/m.ts": `export class M {}`,
	})

	b := NewBuilder(WithLogger(quietLogger()))
	table, err := newAliasTable(nil)
	require.NoError(t, err)

	files, err := b.discover([]string{
		filepath.Join(root, "z.ts"),
		filepath.Join(root, "lib"),
		filepath.Join(root, "a.ts"),
		filepath.Join(root, "z.ts"),
	}, table, b.options.Extensions)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "z.ts"),
		filepath.Join(root, "lib", "m.ts"),
		filepath.Join(root, "a.ts"),
	}, files)
}

func TestBuilder_ExpandPaths(t *testing.T) {
	b := NewBuilder(
		WithLogger(quietLogger()),
		WithAliases(map[string]string{"@src": "/repo/src"}),
	)

	got, err := b.ExpandPaths([]string{"@src", "@src/models", "lib", "/abs/x.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.FromSlash("/repo/src"),
		filepath.FromSlash("/repo/src/models"),
		"lib",
		"/abs/x.ts",
	}, got)
}

func TestDiscover_MissingPath(t *testing.T) {
	b := NewBuilder(WithLogger(quietLogger()))
	table, err := newAliasTable(nil)
	require.NoError(t, err)

	_, err = b.discover([]string{filepath.Join(t.TempDir(), "nope")}, table, b.options.Extensions)
	require.Error(t, err)
}

func TestResolutionError(t *testing.T) {
	err := &ResolutionError{File: "/p/a.ts", Import: "./b", Name: "Foo", Err: ErrSymbolNotFound}

	assert.Equal(t, `/p/a.ts: import "Foo" from "./b": exported symbol not found`, err.Error())
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
	assert.False(t, errors.Is(err, ErrDefaultExportNotFound))
}

func slashKeys(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[filepath.FromSlash(k)] = v
	}
	return out
}
