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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

// skippedDirs are never descended into during discovery.
var skippedDirs = map[string]bool{
	"node_modules": true,
}

// SkipDir reports whether discovery ignores the directory called name:
// node_modules and hidden directories.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}

// aliasTable resolves "@name/rest" specifiers. Longer prefixes win.
type aliasTable struct {
	prefixes []string
	targets  map[string]string
}

func newAliasTable(aliases map[string]string) (*aliasTable, error) {
	t := &aliasTable{targets: make(map[string]string, len(aliases))}
	for prefix, dir := range aliases {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving alias %s: %w", prefix, err)
		}
		prefix = strings.TrimSuffix(prefix, "/")
		t.targets[prefix] = abs
		t.prefixes = append(t.prefixes, prefix)
	}
	sort.Slice(t.prefixes, func(i, j int) bool {
		if len(t.prefixes[i]) != len(t.prefixes[j]) {
			return len(t.prefixes[i]) > len(t.prefixes[j])
		}
		return t.prefixes[i] < t.prefixes[j]
	})
	return t, nil
}

// expand rewrites an alias-prefixed path to an absolute path.
func (t *aliasTable) expand(spec string) (string, bool) {
	for _, prefix := range t.prefixes {
		if spec == prefix {
			return t.targets[prefix], true
		}
		if strings.HasPrefix(spec, prefix+"/") {
			return filepath.Join(t.targets[prefix], filepath.FromSlash(spec[len(prefix)+1:])), true
		}
	}
	return "", false
}

// discover expands the include paths into the de-duplicated list of
// selected source files. Include roots keep their given order and files
// under a directory follow WalkDir order.
func (b *Builder) discover(paths []string, aliases *aliasTable, extensions []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		if expanded, ok := aliases.expand(p); ok {
			p = expanded
		}
		root, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("include path: %w", err)
		}

		if !info.IsDir() {
			if hasExtension(root, extensions) && !b.excluded(root, filepath.Dir(root)) {
				files = append(files, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || !hasExtension(path, extensions) {
				return nil
			}
			if b.excluded(path, root) {
				b.options.Logger.Debug("file excluded", slog.String("file", path))
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	return lo.Uniq(files), nil
}

// excluded matches path against the exclude patterns, both as an absolute
// slash path and relative to the include root.
func (b *Builder) excluded(path, root string) bool {
	if len(b.options.Exclude) == 0 {
		return false
	}
	abs := filepath.ToSlash(path)
	rel := abs
	if r, err := filepath.Rel(root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	for _, pattern := range b.options.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, abs); ok {
			return true
		}
	}
	return false
}

func hasExtension(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// resolveSpecifier maps an import specifier of fromFile to a selected file.
//
// Description:
//
//	Relative and absolute specifiers resolve against fromFile's directory,
//	alias-prefixed ones against the alias directory. Bare package names
//	return false. The candidate is probed as written, with each probe
//	extension, with a .js/.mjs/.cjs suffix swapped for its TypeScript
//	counterpart, and finally as a directory index file.
func resolveSpecifier(fromFile, spec string, aliases *aliasTable, selected map[string]bool) (string, bool) {
	var base string
	switch {
	case strings.HasPrefix(spec, "."):
		base = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(spec))
	case filepath.IsAbs(spec):
		base = filepath.Clean(spec)
	default:
		expanded, ok := aliases.expand(spec)
		if !ok {
			return "", false
		}
		base = expanded
	}

	for _, candidate := range candidates(base) {
		if selected[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func candidates(base string) []string {
	out := []string{base}
	for _, ext := range probeExtensions {
		out = append(out, base+ext)
	}
	for _, swap := range [][2]string{{".mjs", ".mts"}, {".cjs", ".cts"}, {".jsx", ".tsx"}, {".js", ".ts"}} {
		if strings.HasSuffix(base, swap[0]) {
			out = append(out, strings.TrimSuffix(base, swap[0])+swap[1])
			break
		}
	}
	for _, ext := range probeExtensions {
		out = append(out, filepath.Join(base, "index"+ext))
	}
	return out
}
