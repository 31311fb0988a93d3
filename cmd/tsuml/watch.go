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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/AleutianAI/tsuml/services/uml/resolve"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// sourceWatcher re-runs a callback when a source file under the watched
// directories changes.
//
// Description:
//
//	fsnotify watches are not recursive, so every directory below the
//	included paths is added up front and new directories are added as
//	they appear. Directories skipped by discovery are skipped here too.
//
// Thread Safety: Run must not be called concurrently.
type sourceWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	debounce   time.Duration
	dirs       map[string]bool
	logger     *slog.Logger
}

func newSourceWatcher(paths []string, extensions []string, logger *slog.Logger) (*sourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	s := &sourceWatcher{
		watcher:    w,
		extensions: extensions,
		debounce:   watchDebounce,
		dirs:       make(map[string]bool),
		logger:     logger,
	}
	for _, p := range paths {
		if err := s.addTree(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	return s, nil
}

// addTree watches path, or its directory when path is a file, and every
// directory below it.
func (s *sourceWatcher) addTree(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	if !info.IsDir() {
		return s.addDir(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && resolve.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return s.addDir(p)
	})
}

func (s *sourceWatcher) addDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if s.dirs[abs] {
		return nil
	}
	if err := s.watcher.Add(abs); err != nil {
		return fmt.Errorf("watching %s: %w", abs, err)
	}
	s.dirs[abs] = true
	return nil
}

// Len returns the number of watched directories.
func (s *sourceWatcher) Len() int {
	return len(s.dirs)
}

// Close stops the underlying watcher.
func (s *sourceWatcher) Close() error {
	return s.watcher.Close()
}

// Run calls fn once per burst of source changes until ctx is done.
// It returns nil on cancellation.
func (s *sourceWatcher) Run(ctx context.Context, fn func(context.Context)) error {
	timer := time.NewTimer(s.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !resolve.SkipDir(info.Name()) {
					if err := s.addTree(ev.Name); err != nil {
						s.logger.Warn("cannot watch new directory", slog.String("dir", ev.Name), slog.String("error", err.Error()))
					}
				}
			}
			if !s.relevant(ev) {
				continue
			}
			s.logger.Debug("source changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(s.debounce)

		case <-timer.C:
			fn(ctx)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}

// relevant reports whether ev touches a source file.
func (s *sourceWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return lo.SomeBy(s.extensions, func(ext string) bool {
		return strings.HasSuffix(ev.Name, ext)
	})
}
