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
	"log/slog"
	"runtime"

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/depgraph"
)

// probeExtensions are tried, in order, when an import specifier has no
// extension or names a compiled .js file.
var probeExtensions = []string{".ts", ".tsx", ".d.ts", ".mts", ".cts"}

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// Aliases maps an import prefix such as "@src" to a directory.
	Aliases map[string]string

	// Strict makes unresolvable imports fatal. When false they are logged
	// and skipped.
	// Default: true
	Strict bool

	// CyclePolicy decides whether a file import cycle aborts the build.
	// Default: depgraph.CyclePolicyAbort
	CyclePolicy depgraph.CyclePolicy

	// WorkerCount bounds parallel file reads and parses.
	// Default: runtime.NumCPU()
	WorkerCount int

	// Extensions are the file extensions selected during discovery.
	// Default: the parser's extensions.
	Extensions []string

	// Exclude holds doublestar patterns; matching files are skipped.
	Exclude []string

	// CanonicalAliases renders imported aliases under their declared name
	// (import { Foo as Bar } renders Bar as Foo). When false the local
	// name is kept.
	// Default: true
	CanonicalAliases bool

	// Parser turns file content into a ParsedFile.
	// Default: ast.NewTypeScriptParser()
	Parser ast.Parser

	// Logger receives diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultBuilderOptions returns sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Aliases:          map[string]string{},
		Strict:           true,
		CyclePolicy:      depgraph.CyclePolicyAbort,
		WorkerCount:      runtime.NumCPU(),
		CanonicalAliases: true,
	}
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithAliases sets the import alias table. Keys are prefixes such as "@src".
func WithAliases(aliases map[string]string) BuilderOption {
	return func(o *BuilderOptions) {
		for k, v := range aliases {
			o.Aliases[k] = v
		}
	}
}

// WithStrict sets whether unresolvable imports abort the build.
func WithStrict(strict bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.Strict = strict
	}
}

// WithCyclePolicy sets the file cycle policy.
func WithCyclePolicy(policy depgraph.CyclePolicy) BuilderOption {
	return func(o *BuilderOptions) {
		o.CyclePolicy = policy
	}
}

// WithWorkerCount sets the number of parallel readers.
func WithWorkerCount(n int) BuilderOption {
	return func(o *BuilderOptions) {
		o.WorkerCount = n
	}
}

// WithExtensions overrides the selected file extensions.
func WithExtensions(exts ...string) BuilderOption {
	return func(o *BuilderOptions) {
		o.Extensions = exts
	}
}

// WithExclude adds doublestar exclude patterns, e.g. "**/*.spec.ts".
func WithExclude(patterns ...string) BuilderOption {
	return func(o *BuilderOptions) {
		o.Exclude = append(o.Exclude, patterns...)
	}
}

// WithCanonicalAliases sets whether import aliases render as the declared name.
func WithCanonicalAliases(canonical bool) BuilderOption {
	return func(o *BuilderOptions) {
		o.CanonicalAliases = canonical
	}
}

// WithParser replaces the source parser.
func WithParser(p ast.Parser) BuilderOption {
	return func(o *BuilderOptions) {
		o.Parser = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}
