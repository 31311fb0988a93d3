// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve turns a set of TypeScript files into the cross-referenced
// object model held by a model.Store.
//
// Files are ordered so that every file is resolved after the files it
// imports, and the declarations inside a file are ordered so that each one
// is resolved after the same-file declarations it references. Both orders
// come from depgraph; the resolver itself only links imports and wires
// entities in that order.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/depgraph"
	"github.com/AleutianAI/tsuml/services/uml/model"
)

// Result is the outcome of one Build call.
type Result struct {
	// RunID identifies the build in logs and spans.
	RunID string

	// Store holds every resolved entity and link.
	Store *model.Store

	// Order is the sequence in which files were resolved.
	Order []string

	// Files is the number of files parsed.
	Files int

	// Cycles lists the file import cycles that were broken.
	Cycles [][]string

	// Parsed maps each file to its parse result.
	Parsed map[string]*ast.ParsedFile
}

// Entities returns the canonical entities without repeats.
func (r *Result) Entities() []model.Entity {
	return r.Store.NonLinkEntities()
}

// Folder returns the canonical entities grouped by directory.
func (r *Result) Folder() *model.Folder {
	return r.Store.EntitiesInFolders()
}

// Builder resolves TypeScript files into a model.Store.
//
// The builder is stateless and can be reused across multiple builds.
// Each Build() call creates a new store.
//
// Thread Safety:
//
//	Builder is safe for concurrent use. Each Build() call operates
//	independently with its own internal state.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a new Builder with the given options.
//
// Example:
//
//	builder := NewBuilder(
//	    WithAliases(map[string]string{"@src": "./src"}),
//	    WithCyclePolicy(depgraph.CyclePolicyContinue),
//	)
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.WorkerCount <= 0 {
		options.WorkerCount = runtime.NumCPU()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Parser == nil {
		options.Parser = ast.NewTypeScriptParser(ast.WithParserLogger(options.Logger))
	}
	if len(options.Extensions) == 0 {
		options.Extensions = options.Parser.Extensions()
	}

	return &Builder{options: options}
}

// Extensions returns the file extensions selected during discovery.
func (b *Builder) Extensions() []string {
	return b.options.Extensions
}

// ExpandPaths rewrites alias-prefixed include paths to the directories
// they name. Other paths are returned unchanged.
func (b *Builder) ExpandPaths(paths []string) ([]string, error) {
	aliases, err := newAliasTable(b.options.Aliases)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		if expanded, ok := aliases.expand(p); ok {
			p = expanded
		}
		out[i] = p
	}
	return out, nil
}

// buildState holds mutable state during a single build operation.
type buildState struct {
	runID    string
	logger   *slog.Logger
	aliases  *aliasTable
	store    *model.Store
	files    map[string]*ast.ParsedFile
	selected map[string]bool

	// targets maps file -> import index -> resolved file ("" when skipped).
	targets map[string][]string

	// resolved marks files whose entities are already in the store.
	resolved map[string]bool

	// declared maps a canonical entity to its declared (undecorated) name.
	declared map[model.Entity]string

	// starExports maps file -> names it re-exports through export *.
	starExports map[string][]string

	entityCount int
}

// Build discovers, parses and resolves the files under paths.
//
// Description:
//
//	Runs four phases: discovery, parallel read and parse, file ordering
//	and per-file resolution. Only reading and parsing run concurrently.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between files.
//	paths - Files or directories; "@alias/..." prefixes are expanded.
//
// Outputs:
//
//	*Result - The populated store and build statistics.
//	error - Non-nil on read failures, unresolvable imports in strict mode,
//	        file import cycles under depgraph.CyclePolicyAbort (a
//	        *depgraph.CycleError) and context cancellation.
func (b *Builder) Build(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := startBuildSpan(ctx, runID, len(paths))
	defer span.End()

	fail := func(err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordBuildMetrics(time.Since(start), false)
		return nil, err
	}

	aliases, err := newAliasTable(b.options.Aliases)
	if err != nil {
		return fail(err)
	}

	state := &buildState{
		runID:    runID,
		logger:   b.options.Logger.With(slog.String("run_id", runID)),
		aliases:  aliases,
		store:    model.NewStore(),
		files:    make(map[string]*ast.ParsedFile),
		selected: make(map[string]bool),
		targets:  make(map[string][]string),
		resolved: make(map[string]bool),
		declared: make(map[model.Entity]string),

		starExports: make(map[string][]string),
	}

	files, err := b.discover(paths, aliases, b.options.Extensions)
	if err != nil {
		return fail(err)
	}
	if len(files) == 0 {
		return fail(fmt.Errorf("%w under %v", ErrNoInput, paths))
	}

	parsed, err := b.readAndParse(ctx, files)
	if err != nil {
		return fail(err)
	}
	for i, file := range files {
		state.files[file] = parsed[i]
		state.selected[file] = true
	}

	queue, err := b.orderFiles(ctx, state, files)
	if err != nil {
		return fail(err)
	}

	result := &Result{
		RunID:  runID,
		Store:  state.store,
		Files:  len(files),
		Parsed: state.files,
	}

	if err := b.resolveFiles(ctx, state, queue, result); err != nil {
		return fail(err)
	}
	result.Cycles = queue.Cycles()

	setBuildSpanResult(span, result.Files, state.entityCount, len(result.Cycles))
	recordBuildMetrics(time.Since(start), true)
	state.logger.Info("build complete",
		slog.Int("files", result.Files),
		slog.Int("entities", state.entityCount),
		slog.Int("cycles", len(result.Cycles)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// readAndParse reads and parses files concurrently, bounded by WorkerCount.
// The returned slice is index-aligned with files.
func (b *Builder) readAndParse(ctx context.Context, files []string) ([]*ast.ParsedFile, error) {
	ctx, span := startPhaseSpan(ctx, "ReadAndParse", attribute.Int("files", len(files)))
	defer span.End()

	out := make([]*ast.ParsedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.options.WorkerCount)

	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			pf, err := b.options.Parser.Parse(gctx, content, file)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", file, err)
			}
			for _, msg := range pf.Errors {
				b.options.Logger.Warn("parse problem",
					slog.String("file", file),
					slog.String("error", msg))
			}
			filesParsed.Inc()
			out[i] = pf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// orderFiles resolves every import specifier and loads the file queue.
func (b *Builder) orderFiles(ctx context.Context, state *buildState, files []string) (*depgraph.FileQueue, error) {
	_, span := startPhaseSpan(ctx, "OrderFiles")
	defer span.End()

	queue := depgraph.NewFileQueue(
		depgraph.WithCyclePolicy(b.options.CyclePolicy),
		depgraph.WithFileQueueLogger(state.logger),
	)

	for _, file := range files {
		pf := state.files[file]
		targets := make([]string, len(pf.Imports))
		var deps []string
		for i, imp := range pf.Imports {
			target, ok := resolveSpecifier(file, imp.Specifier, state.aliases, state.selected)
			if !ok {
				state.logger.Debug("import target not selected",
					slog.String("file", file),
					slog.String("import", imp.Specifier))
				importsSkipped.WithLabelValues("unselected").Inc()
				continue
			}
			targets[i] = target
			if target == file {
				state.logger.Debug("file imports itself", slog.String("file", file))
				continue
			}
			deps = append(deps, target)
		}
		state.targets[file] = targets

		if err := queue.AddDependencies(file, deps...); err != nil {
			return nil, err
		}
	}
	return queue, nil
}

// resolveFiles drains the file queue, linking imports and resolving the
// declarations of each file in dependency order.
func (b *Builder) resolveFiles(ctx context.Context, state *buildState, queue *depgraph.FileQueue, result *Result) error {
	ctx, span := startPhaseSpan(ctx, "ResolveFiles")
	defer span.End()

	for queue.HasFile() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("build canceled: %w", err)
		}

		file, err := queue.NextFile()
		if err != nil {
			return fmt.Errorf("ordering files: %w", err)
		}
		result.Order = append(result.Order, file)

		replacements, err := b.linkImports(state, file)
		if err != nil {
			return err
		}

		if err := b.resolveEntities(state, file, replacements); err != nil {
			return err
		}
		state.resolved[file] = true
	}
	return nil
}

// resolveEntities drains the entity queue of one file, then wires the
// edges of every entity it created.
func (b *Builder) resolveEntities(state *buildState, file string, replacements ast.Replacements) error {
	pf := state.files[file]
	queue := depgraph.NewEntityQueue(pf)

	var pending []func()
	for queue.HasSymbols() {
		symbol, err := queue.NextSymbol()
		if err != nil {
			return err
		}
		decl, ok := pf.Declaration(symbol)
		if !ok {
			return fmt.Errorf("%s: %w: %s", file, ErrUnknownEntity, symbol)
		}
		pending = append(pending, b.resolveDeclaration(state, file, decl, replacements))
	}

	for _, wire := range pending {
		wire()
	}
	return nil
}
