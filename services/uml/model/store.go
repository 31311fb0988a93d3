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

	"github.com/samber/lo"
)

type storeEntry struct {
	entity Entity
	link   bool
}

type fileEntries struct {
	names  []string
	byName map[string]storeEntry
}

// Store maps (file, name) to resolved entities.
//
// Description:
//
//	A canonical entry is the entity declared in that file. A link entry is
//	an imported (or re-exported) entity registered under the name the file
//	uses for it, so lookups from the importing file's perspective succeed.
//	Several keys may point at the same entity; listing operations
//	deduplicate by identity.
//
//	Files are listed in first-insertion order and names within a file in
//	insertion order. Re-putting a name replaces the entry in place.
//
// Thread Safety:
//
//	Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []string
	files map[string]*fileEntries
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string]*fileEntries)}
}

// Put registers a canonical entity declared in file under name.
func (s *Store) Put(file, name string, e Entity) {
	s.put(file, name, e, false)
}

// PutLink registers an entity declared elsewhere, visible in file as name.
func (s *Store) PutLink(file, name string, e Entity) {
	s.put(file, name, e, true)
}

func (s *Store) put(file, name string, e Entity, link bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[file]
	if !ok {
		f = &fileEntries{byName: make(map[string]storeEntry)}
		s.files[file] = f
		s.order = append(s.order, file)
	}
	if _, exists := f.byName[name]; !exists {
		f.names = append(f.names, name)
	}
	f.byName[name] = storeEntry{entity: e, link: link}
}

// Get returns the entity visible in file as name.
func (s *Store) Get(file, name string) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[file]
	if !ok {
		return nil, false
	}
	entry, ok := f.byName[name]
	if !ok {
		return nil, false
	}
	return entry.entity, true
}

// Has reports whether file has an entry named name.
func (s *Store) Has(file, name string) bool {
	_, ok := s.Get(file, name)
	return ok
}

// IsLink reports whether the entry (file, name) exists and is a link.
func (s *Store) IsLink(file, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.files[file]; ok {
		return f.byName[name].link
	}
	return false
}

// Names returns the entry names of file in insertion order.
func (s *Store) Names(file string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.files[file]; ok {
		return append([]string(nil), f.names...)
	}
	return nil
}

// Files returns every file with at least one entry, in insertion order.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// AllEntities returns every entity, canonical or linked, without repeats.
func (s *Store) AllEntities() []Entity {
	return s.collect(func(storeEntry) bool { return true })
}

// NonLinkEntities returns every canonical entity without repeats.
func (s *Store) NonLinkEntities() []Entity {
	return s.collect(func(e storeEntry) bool { return !e.link })
}

func (s *Store) collect(keep func(storeEntry) bool) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entity
	for _, file := range s.order {
		f := s.files[file]
		for _, name := range f.names {
			if entry := f.byName[name]; keep(entry) {
				out = append(out, entry.entity)
			}
		}
	}
	return lo.Uniq(out)
}

// EntitiesInFolders groups the canonical entities by the directory of the
// file that declares them. See NewFolder for the compaction rule.
func (s *Store) EntitiesInFolders() *Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]string, 0, len(s.order))
	byFile := make(map[string][]Entity, len(s.order))
	for _, file := range s.order {
		f := s.files[file]
		var entities []Entity
		for _, name := range f.names {
			if entry := f.byName[name]; !entry.link {
				entities = append(entities, entry.entity)
			}
		}
		if len(entities) == 0 {
			continue
		}
		files = append(files, file)
		byFile[file] = lo.Uniq(entities)
	}
	return NewFolder(files, byFile)
}
