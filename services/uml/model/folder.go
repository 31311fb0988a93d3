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
	"path/filepath"
	"strings"
)

// Folder is one directory level of grouped entities.
type Folder struct {
	// Name is the directory name; compacted levels are joined with "/".
	Name string

	// Path is the slash-separated directory path, "/" for the root.
	Path string

	Entities []Entity
	Folders  []*Folder
}

// NewFolder builds the directory tree for files and compacts it.
//
// Description:
//
//	Each file's entities are placed in the folder of its directory. A
//	folder holding exactly one subfolder and no entities is then merged
//	with that subfolder, repeatedly, so src/a/b with nothing in src/a
//	becomes a single "a/b" level. Folders appear in first-seen order.
//
// Inputs:
//   - files: File paths in the order their entities should appear.
//   - entities: Entities per file path.
//
// Outputs:
//   - *Folder: The root, never nil.
func NewFolder(files []string, entities map[string][]Entity) *Folder {
	root := &Folder{Path: "/"}

	for _, file := range files {
		dir := filepath.ToSlash(filepath.Dir(file))
		current := root
		currentPath := ""
		for _, part := range strings.Split(dir, "/") {
			if strings.TrimSpace(part) == "" || part == "." {
				continue
			}
			currentPath += "/" + part
			current = current.child(part, currentPath)
		}
		current.Entities = append(current.Entities, entities[file]...)
	}

	root.compact()
	return root
}

func (f *Folder) child(name, path string) *Folder {
	for _, sub := range f.Folders {
		if sub.Name == name {
			return sub
		}
	}
	sub := &Folder{Name: name, Path: path}
	f.Folders = append(f.Folders, sub)
	return sub
}

func (f *Folder) compact() {
	for len(f.Folders) == 1 && len(f.Entities) == 0 {
		only := f.Folders[0]
		if f.Name == "" {
			f.Name = only.Name
		} else {
			f.Name = f.Name + "/" + only.Name
		}
		f.Path = only.Path
		f.Entities = only.Entities
		f.Folders = only.Folders
	}
	for _, sub := range f.Folders {
		sub.compact()
	}
}

// Walk calls fn for f and every descendant, parents first.
func (f *Folder) Walk(fn func(*Folder)) {
	fn(f)
	for _, sub := range f.Folders {
		sub.Walk(fn)
	}
}

// AllEntities returns the entities of f and every descendant.
func (f *Folder) AllEntities() []Entity {
	var out []Entity
	f.Walk(func(sub *Folder) {
		out = append(out, sub.Entities...)
	})
	return out
}
