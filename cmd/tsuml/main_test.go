// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tsuml/services/uml/depgraph"
	"github.com/AleutianAI/tsuml/services/uml/diagram"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// execute runs the CLI without reading any config or .env from the
// working directory.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--env-file", ""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

var project = map[string]string{
	"src/models/user.ts": `
import { Role } from "@src/shared/role";
export interface Entity { id: string }
export class User implements Entity {
  id: string;
  private secret: string;
  role: Role;
}
`,
	"src/shared/role.ts": `export enum Role { Admin, Guest }`,
}

func TestRender_GraphML(t *testing.T) {
	root := writeTree(t, project)
	out := filepath.Join(root, "out", "diagram.graphml")

	stdout, _, err := execute(t, "render",
		"--include", filepath.Join(root, "src"),
		"--alias", "@src="+filepath.Join(root, "src"),
		"--out", out)
	require.NoError(t, err)
	assert.Equal(t, "Output successfully saved into \""+out+"\"\n", stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "<graphml")
	assert.Contains(t, doc, ">User</y:NodeLabel>")
	assert.Contains(t, doc, "Role")
	assert.NotContains(t, doc, "secret", "private members are hidden by default")
}

func TestRender_WithPrivate(t *testing.T) {
	root := writeTree(t, project)
	out := filepath.Join(root, "diagram.mmd")

	_, _, err := execute(t, "render", filepath.Join(root, "src"),
		"-a", "@src="+filepath.Join(root, "src"),
		"-o", out, "--with-private")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "classDiagram"))
	assert.Contains(t, string(data), "- secret: string")
}

func TestRender_ConfigFileAndFlagsWin(t *testing.T) {
	root := writeTree(t, project)
	cfgPath := filepath.Join(root, "tsuml.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
include: [src]
aliases:
  "@src": ./src
out: from-config.graphml
with_private: true
`), 0o644))
	out := filepath.Join(root, "from-flags.json")

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"render", "--config", cfgPath, "--env-file", "", "--out", out, "--with-private=false"})
	require.NoError(t, cmd.Execute())

	assert.NoFileExists(t, filepath.Join(root, "from-config.graphml"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var sg diagram.SerializableGraph
	require.NoError(t, json.Unmarshal(data, &sg))
	assert.NotEmpty(t, sg.Nodes)
	assert.NotContains(t, string(data), "secret")
}

func TestRender_ConfigAliasInclude(t *testing.T) {
	root := writeTree(t, project)
	cfgPath := filepath.Join(root, "tsuml.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
include: ["@src/models"]
aliases:
  "@src": ./src
out: diagram.json
`), 0o644))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"render", "--config", cfgPath, "--env-file", "", "--out", filepath.Join(root, "diagram.json")})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(root, "diagram.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "User")
}

func TestRender_WatchAliasInclude(t *testing.T) {
	root := writeTree(t, project)
	out := filepath.Join(root, "diagram.json")

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"render", "@src",
		"--alias", "@src=" + filepath.Join(root, "src"),
		"--out", out, "--watch",
		"--config", filepath.Join(root, "none.yaml"), "--env-file", ""})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(out)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "the watcher starts on the expanded alias directory")
	case <-time.After(5 * time.Second):
		t.Fatal("render --watch did not stop after cancel")
	}
}

func TestRender_CycleAbortsByDefault(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": `import { B } from "./b"; export class A { b: B; }`,
		"b.ts": `import { A } from "./a"; export class B { a: A; }`,
	})
	out := filepath.Join(root, "d.graphml")

	_, stderr, err := execute(t, "render", "--include", root, "--out", out)
	require.ErrorIs(t, err, depgraph.ErrDependencyCycle)
	assert.Contains(t, stderr, "Error: ordering files: dependencies must not be cycled")
	assert.NoFileExists(t, out)

	stdout, _, err := execute(t, "render", "--include", root, "--out", out, "--allow-cycles")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Output successfully saved into")
	assert.FileExists(t, out)
}

func TestRender_MissingInputs(t *testing.T) {
	_, stderr, err := execute(t, "render", "--out", "x.graphml")
	assert.ErrorIs(t, err, errNoInclude)
	assert.Contains(t, stderr, "Error:")

	_, _, err = execute(t, "render", "--include", t.TempDir())
	assert.ErrorIs(t, err, errNoOut)

	_, _, err = execute(t, "render", "--include", t.TempDir(), "--out", "x.png")
	assert.ErrorIs(t, err, diagram.ErrUnknownFormat)

	_, _, err = execute(t, "render", "--include", t.TempDir(), "--out", "x.mmd", "--alias", "src=./src")
	assert.Error(t, err)
}

func TestOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": `import { B } from "./b"; export class A extends B {}`,
		"b.ts": `import { C } from "./c"; export class B { c: C; }`,
		"c.ts": `export class C {}`,
	})

	stdout, _, err := execute(t, "order", root)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "c.ts"))
	assert.True(t, strings.HasSuffix(lines[1], "b.ts"))
	assert.True(t, strings.HasSuffix(lines[2], "a.ts"))
}

func TestOrder_ListsCycles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": `import { B } from "./b"; export class A { b: B; }`,
		"b.ts": `import { A } from "./a"; export class B { a: A; }`,
	})

	stdout, _, err := execute(t, "order", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "cycle: ")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "tsuml dev ("))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "auto")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`, "non-terminal output is JSON")

	buf.Reset()
	logger, err = newLogger(&buf, "", "text")
	require.NoError(t, err)
	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	_, err = newLogger(&buf, "loud", "auto")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSourceWatcher_Relevant(t *testing.T) {
	s := &sourceWatcher{extensions: []string{".ts", ".tsx"}}
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "/p/a.ts", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/p/a.tsx", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/p/a.ts", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "/p/a.ts", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/p/readme.md", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.relevant(tt.ev), tt.ev.String())
	}
}

func TestSourceWatcher_Run(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.ts":              "export class A {}",
		"node_modules/x/x.ts":   "export class X {}",
		".git/objects/readme":   "",
		"src/nested/deep/b.tsx": "export class B {}",
	})

	w, err := newSourceWatcher([]string{dir}, []string{".ts", ".tsx"}, quietLogger())
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, 4, w.Len(), "root, src, src/nested, src/nested/deep")
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.ts"), []byte("export class A2 {}"), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestSourceWatcher_FileInclude(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.ts": "export class A {}"})
	w, err := newSourceWatcher([]string{filepath.Join(dir, "a.ts"), dir}, []string{".ts"}, quietLogger())
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, 1, w.Len(), "a file include watches its directory once")

	_, err = newSourceWatcher([]string{filepath.Join(dir, "missing")}, []string{".ts"}, quietLogger())
	assert.Error(t, err)
}
