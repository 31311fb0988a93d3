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

	"github.com/samber/lo"

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/model"
)

// linkImports registers the imports of file as link entries and returns the
// replacements that render local import names as declared names.
//
// Description:
//
//	Default imports link the target's default export; a target without a
//	default export is tolerated. Named imports and re-exports link the
//	original name under the local name. export * links every name the
//	target exports. Namespace imports bind no names and are skipped, as
//	does a file importing itself.
//
//	A name the target does not export at all is a *ResolutionError, as is
//	an exported declaration with no entity behind it. Exported names that
//	are not entities (constants, variables) are skipped.
//
// Outputs:
//
//	ast.Replacements - Empty when CanonicalAliases is off.
//	error - *ResolutionError in strict mode.
func (b *Builder) linkImports(state *buildState, file string) (ast.Replacements, error) {
	pf := state.files[file]
	targets := state.targets[file]
	var replacements ast.Replacements

	for i, imp := range pf.Imports {
		target := targets[i]
		if target == "" || target == file {
			continue
		}
		if !state.resolved[target] {
			// Only reachable when a cycle was broken at this file.
			state.logger.Warn("import target not yet resolved",
				slog.String("file", file),
				slog.String("import", imp.Specifier))
			importsSkipped.WithLabelValues("cycle").Inc()
			continue
		}

		if imp.ReExportAll {
			b.linkAll(state, file, target)
			continue
		}

		if imp.Default != "" {
			rep, err := b.linkDefault(state, file, target, imp, imp.Default)
			if err != nil {
				return nil, err
			}
			replacements = append(replacements, rep...)
		}

		for _, name := range imp.Names {
			var rep ast.Replacements
			var err error
			if name.Original == "default" {
				rep, err = b.linkDefault(state, file, target, imp, name.Local)
			} else {
				rep, err = b.linkNamed(state, file, target, imp, name)
			}
			if err != nil {
				return nil, err
			}
			replacements = append(replacements, rep...)
		}
	}

	return replacements, nil
}

// linkDefault links the default export of target as local.
func (b *Builder) linkDefault(state *buildState, file, target string, imp ast.Import, local string) (ast.Replacements, error) {
	tf := state.files[target]
	if tf.DefaultExport == "" {
		state.logger.Debug("default import without default export",
			slog.String("file", file),
			slog.String("import", imp.Specifier))
		return nil, nil
	}

	entity, ok := state.store.Get(target, tf.DefaultExport)
	if !ok {
		if !tf.IsDeclared(tf.DefaultExport) {
			importsSkipped.WithLabelValues("not_entity").Inc()
			return nil, nil
		}
		return nil, b.unresolved(state, &ResolutionError{
			File: file, Import: imp.Specifier, Name: "default", Err: ErrDefaultExportNotFound,
		})
	}

	state.store.PutLink(file, local, entity)
	return b.replacement(state, local, entity), nil
}

// linkNamed links one { Original as Local } binding.
func (b *Builder) linkNamed(state *buildState, file, target string, imp ast.Import, name ast.ImportName) (ast.Replacements, error) {
	tf := state.files[target]

	entity, ok := state.store.Get(target, name.Original)
	if !ok {
		// export { Local as Original }
		entity, ok = state.store.Get(target, tf.LocalName(name.Original))
	}
	if !ok {
		exported := lo.Contains(tf.Exports, name.Original)
		switch {
		case exported && !tf.IsDeclared(tf.LocalName(name.Original)):
			// A constant, or a re-export of something outside the selection.
			importsSkipped.WithLabelValues("not_entity").Inc()
			return nil, nil
		case !exported && reExportsUnknown(state, target):
			// May come through export * from a file outside the selection.
			importsSkipped.WithLabelValues("missing").Inc()
			return nil, nil
		}
		return nil, b.unresolved(state, &ResolutionError{
			File: file, Import: imp.Specifier, Name: name.Original, Err: ErrSymbolNotFound,
		})
	}

	state.store.PutLink(file, name.Local, entity)
	if imp.ReExport {
		return nil, nil
	}
	return b.replacement(state, name.Local, entity), nil
}

// linkAll makes the exports of target visible in file under the same
// names, including names target itself re-exports through export *.
// Existing entries of file are kept.
func (b *Builder) linkAll(state *buildState, file, target string) {
	tf := state.files[target]
	candidates := append(append([]string(nil), tf.Exports...), state.starExports[target]...)

	for _, name := range candidates {
		if name == "default" || state.store.Has(file, name) {
			continue
		}
		entity, ok := state.store.Get(target, name)
		if !ok {
			entity, ok = state.store.Get(target, tf.LocalName(name))
		}
		if !ok {
			continue
		}
		state.store.PutLink(file, name, entity)
		state.starExports[file] = append(state.starExports[file], name)
	}
}

// replacement returns local -> declared name when they differ and aliases
// render canonically.
func (b *Builder) replacement(state *buildState, local string, entity model.Entity) ast.Replacements {
	if !b.options.CanonicalAliases {
		return nil
	}
	declared, ok := state.declared[entity]
	if !ok || declared == local {
		return nil
	}
	return ast.Replacements{{From: local, To: declared}}
}

// unresolved returns err in strict mode and logs it otherwise.
func (b *Builder) unresolved(state *buildState, err *ResolutionError) error {
	if b.options.Strict {
		return err
	}
	state.logger.Warn("unresolved import",
		slog.String("file", err.File),
		slog.String("import", err.Import),
		slog.String("name", err.Name),
		slog.String("error", err.Err.Error()))
	importsSkipped.WithLabelValues("missing").Inc()
	return nil
}

// reExportsUnknown reports whether file has an export * whose names are
// not known: the target is outside the selection or was not yet resolved.
func reExportsUnknown(state *buildState, file string) bool {
	targets := state.targets[file]
	for i, imp := range state.files[file].Imports {
		if imp.ReExportAll && (targets[i] == "" || !state.resolved[targets[i]]) {
			return true
		}
	}
	return false
}
