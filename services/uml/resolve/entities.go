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

	"github.com/AleutianAI/tsuml/services/uml/ast"
	"github.com/AleutianAI/tsuml/services/uml/model"
)

// resolveDeclaration creates the entity for decl and stores it under its
// declared name. The returned function wires the entity's edges; callers
// run it once every declaration of the file is in the store, so that
// mutually referencing declarations see each other.
//
// Names still missing at wiring time (library types, unselected files) are
// skipped.
func (b *Builder) resolveDeclaration(state *buildState, file string, decl ast.Declaration, rep ast.Replacements) func() {
	var (
		entity model.Entity
		wire   func()
	)

	switch d := decl.(type) {
	case *ast.ClassDecl:
		cls := model.NewClass(d.Name, renderTypeParameters(d.TypeParameters, rep), d.Abstract)
		local := rep.Without(ast.TypeParameterNames(d.TypeParameters))
		cls.Attributes, cls.Methods = members(d.Members, local, true)
		wire = func() {
			b.wireUsages(state, file, &cls.Base, d.UsageNames())
			for _, name := range d.ExtensionNames() {
				if e, ok := state.store.Get(file, name); ok {
					cls.AddExtension(e)
				}
			}
			for _, name := range d.ImplementationNames() {
				if e, ok := state.store.Get(file, name); ok {
					cls.AddImplementation(e)
				}
			}
		}
		entity = cls
	case *ast.InterfaceDecl:
		iface := model.NewInterface(d.Name, renderTypeParameters(d.TypeParameters, rep))
		local := rep.Without(ast.TypeParameterNames(d.TypeParameters))
		iface.Attributes, iface.Methods = members(d.Members, local, false)
		wire = func() {
			b.wireUsages(state, file, &iface.Base, d.UsageNames())
			for _, name := range d.ExtensionNames() {
				if e, ok := state.store.Get(file, name); ok {
					iface.AddExtension(e)
				}
			}
		}
		entity = iface
	case *ast.EnumDecl:
		entity = model.NewEnum(d.Name, append([]string(nil), d.Values...))
		wire = func() {}
	case *ast.TypeAliasDecl:
		local := rep.Without(ast.TypeParameterNames(d.TypeParameters))
		alias := model.NewTypeAlias(d.Name, renderTypeParameters(d.TypeParameters, rep), ast.RenderType(d.Value, local))
		wire = func() { b.wireUsages(state, file, &alias.Base, d.References()) }
		entity = alias
	case *ast.FunctionDecl:
		local := rep.Without(ast.TypeParameterNames(d.TypeParameters))
		ret := "any"
		if d.Return != nil {
			ret = d.Return.Render(local, false)
		}
		fn := model.NewFunction(d.Name, renderTypeParameters(d.TypeParameters, rep), parameters(d.Params, local), ret)
		wire = func() { b.wireUsages(state, file, &fn.Base, d.References()) }
		entity = fn
	default:
		state.logger.Warn("unsupported declaration",
			slog.String("file", file),
			slog.String("name", decl.DeclName()))
		return func() {}
	}

	b.put(state, file, decl.DeclName(), entity)
	state.entityCount++
	entitiesResolved.WithLabelValues(decl.DeclKind().String()).Inc()
	state.logger.Debug("entity resolved",
		slog.String("file", file),
		slog.String("name", entity.Name()),
		slog.String("kind", decl.DeclKind().String()))
	return wire
}

func (b *Builder) put(state *buildState, file, name string, e model.Entity) {
	state.store.Put(file, name, e)
	state.declared[e] = name
}

// wireUsages adds a usage edge for every name visible in file.
func (b *Builder) wireUsages(state *buildState, file string, base *model.Base, names []string) {
	for _, name := range names {
		if e, ok := state.store.Get(file, name); ok {
			base.AddUsage(e)
		}
	}
}

// members splits class or interface members into attributes and methods.
//
// Attributes are properties and index signatures in source order. Methods
// are the constructor first, then getters, setters and ordinary methods.
// Interface construct signatures become a method named "new".
func members(list []ast.Member, rep ast.Replacements, class bool) ([]model.Property, []model.Property) {
	var (
		attributes []model.Property
		ctors      []model.Property
		getters    []model.Property
		setters    []model.Property
		methods    []model.Property
	)

	for _, m := range list {
		local := rep.Without(ast.TypeParameterNames(m.TypeParameters))
		typ := ast.RenderType(m.Type, local)

		switch m.Kind {
		case ast.MemberProperty:
			attributes = append(attributes, model.Property{
				Name:       model.MemberName(m, m.Name),
				Visibility: m.Visibility,
				Type:       typ,
			})
		case ast.MemberIndex:
			attributes = append(attributes, model.Property{
				Name:       model.MemberName(m, "["+ast.RenderParameters(m.Params, local)+"]"),
				Visibility: m.Visibility,
				Type:       typ,
			})
		case ast.MemberConstructor:
			name := "constructor"
			if !class {
				name = "new"
			}
			ctors = append(ctors, model.Property{
				Name:       name,
				Visibility: m.Visibility,
				Type:       typ,
				Parameters: parameters(m.Params, local),
				IsMethod:   true,
			})
		case ast.MemberGetter:
			getters = append(getters, model.Property{
				Name:       model.MemberName(m, m.Name),
				Visibility: m.Visibility,
				Type:       typ,
				Parameters: parameters(m.Params, local),
				IsMethod:   true,
			})
		case ast.MemberSetter:
			setters = append(setters, model.Property{
				Name:       model.MemberName(m, m.Name),
				Visibility: m.Visibility,
				Type:       typ,
				Parameters: parameters(m.Params, local),
				IsMethod:   true,
			})
		case ast.MemberMethod:
			name := m.Name
			if len(m.TypeParameters) > 0 {
				name += "<" + ast.RenderTypeParameters(m.TypeParameters, local) + ">"
			}
			methods = append(methods, model.Property{
				Name:       model.MemberName(m, name),
				Visibility: m.Visibility,
				Type:       typ,
				Parameters: parameters(m.Params, local),
				IsMethod:   true,
			})
		}
	}

	out := append(ctors, getters...)
	out = append(out, setters...)
	return attributes, append(out, methods...)
}

func parameters(params []ast.Parameter, rep ast.Replacements) []model.Parameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]model.Parameter, len(params))
	for i, p := range params {
		name := p.Name
		if p.Rest {
			name = "..." + name
		}
		if p.Optional {
			name += "?"
		}
		out[i] = model.Parameter{Name: name, Type: ast.RenderType(p.Type, rep)}
	}
	return out
}

func renderTypeParameters(params []ast.TypeParameter, rep ast.Replacements) []string {
	if len(params) == 0 {
		return nil
	}
	local := rep.Without(ast.TypeParameterNames(params))
	out := make([]string, len(params))
	for i, tp := range params {
		out[i] = tp.Render(local)
	}
	return out
}
