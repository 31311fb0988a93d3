// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast turns TypeScript source into ParsedFile records: imports,
// exports and top-level declarations with fully parsed type expressions.
//
// Parsing uses tree-sitter and never type-checks. Every type expression keeps
// the symbolic names it mentions so later stages can order declarations and
// wire references without a compiler.
package ast

import (
	"context"
	"fmt"
)

// ImportName is one binding of a named import: { Original as Local }.
type ImportName struct {
	Original string `json:"original"`
	Local    string `json:"local"`
}

// Import is an import declaration or a re-export with a module source.
type Import struct {
	// Specifier is the module text as written, e.g. "./model" or "@src/x".
	Specifier string `json:"specifier"`

	// Default is the local name of a default import, or "".
	Default string `json:"default,omitempty"`

	// Namespace is the local name of `* as ns`, or "".
	Namespace string `json:"namespace,omitempty"`

	// Names are the named bindings in source order.
	Names []ImportName `json:"names,omitempty"`

	// TypeOnly marks `import type { ... }`.
	TypeOnly bool `json:"type_only,omitempty"`

	// ReExport marks `export { A as B } from '...'`. Local names in Names
	// are the exported names of this file.
	ReExport bool `json:"re_export,omitempty"`

	// ReExportAll marks `export * from '...'`.
	ReExportAll bool `json:"re_export_all,omitempty"`

	// Line is the 1-based source line.
	Line int `json:"line"`
}

// ParsedFile is the per-file symbol table produced by a Parser.
//
// Description:
//
//	Declarations are kept in source order. Exports lists the names this file
//	makes visible, including re-exported ones; ExportAliases maps an
//	exported name to the local declaration it renames (export { A as B }).
//
// Thread Safety:
//
//	Safe for concurrent reads once returned by Parse.
type ParsedFile struct {
	Path          string            `json:"path"`
	Hash          string            `json:"hash"`
	Imports       []Import          `json:"imports"`
	Exports       []string          `json:"exports"`
	ExportAliases map[string]string `json:"export_aliases,omitempty"`
	DefaultExport string            `json:"default_export,omitempty"`
	Errors        []string          `json:"errors,omitempty"`

	declarations map[string]Declaration
	order        []string
}

// NewParsedFile creates an empty record for path.
func NewParsedFile(path string) *ParsedFile {
	return &ParsedFile{
		Path:          path,
		Imports:       make([]Import, 0),
		Exports:       make([]string, 0),
		ExportAliases: make(map[string]string),
		declarations:  make(map[string]Declaration),
	}
}

// AddDeclaration records d. A later declaration with the same name replaces
// the earlier one but keeps its position (interface merging is not modelled).
func (f *ParsedFile) AddDeclaration(d Declaration) {
	name := d.DeclName()
	if _, exists := f.declarations[name]; !exists {
		f.order = append(f.order, name)
	}
	f.declarations[name] = d
}

// AddExport records an exported name once.
func (f *ParsedFile) AddExport(name string) {
	for _, e := range f.Exports {
		if e == name {
			return
		}
	}
	f.Exports = append(f.Exports, name)
}

// Declaration returns the declaration named name.
func (f *ParsedFile) Declaration(name string) (Declaration, bool) {
	d, ok := f.declarations[name]
	return d, ok
}

// Declarations returns all declarations in source order.
func (f *ParsedFile) Declarations() []Declaration {
	out := make([]Declaration, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.declarations[name])
	}
	return out
}

// LocalName resolves an exported name to the local declaration name.
func (f *ParsedFile) LocalName(exported string) string {
	if local, ok := f.ExportAliases[exported]; ok {
		return local
	}
	return exported
}

// RootSymbols returns the local names of exported declarations, followed by
// the default export.
func (f *ParsedFile) RootSymbols() []string {
	out := make([]string, 0, len(f.Exports)+1)
	for _, e := range f.Exports {
		out = append(out, f.LocalName(e))
	}
	if f.DefaultExport != "" {
		out = append(out, f.DefaultExport)
	}
	return out
}

// IsDeclared reports whether name is declared in this file.
func (f *ParsedFile) IsDeclared(name string) bool {
	_, ok := f.declarations[name]
	return ok
}

// SymbolReferences returns every name the declaration depends on, including
// names used in method and function bodies.
func (f *ParsedFile) SymbolReferences(name string) []string {
	d, ok := f.declarations[name]
	if !ok {
		return nil
	}
	if fn, ok := d.(*FunctionDecl); ok {
		return fn.SignatureAndBodyNames()
	}
	return d.References()
}

// ImportSpecifiers returns the module specifiers of every import and
// re-export, in source order.
func (f *ParsedFile) ImportSpecifiers() []string {
	out := make([]string, 0, len(f.Imports))
	for _, imp := range f.Imports {
		out = append(out, imp.Specifier)
	}
	return out
}

// Validate checks internal consistency of the record.
func (f *ParsedFile) Validate() error {
	if f.Path == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidContent)
	}
	for _, imp := range f.Imports {
		if imp.Specifier == "" {
			return fmt.Errorf("%w: import without module specifier at line %d", ErrInvalidContent, imp.Line)
		}
	}
	return nil
}

// Parser turns one source file into a ParsedFile.
type Parser interface {
	// Parse parses content read from filePath.
	Parse(ctx context.Context, content []byte, filePath string) (*ParsedFile, error)

	// Language returns the language name, e.g. "typescript".
	Language() string

	// Extensions returns the file extensions the parser accepts.
	Extensions() []string
}
