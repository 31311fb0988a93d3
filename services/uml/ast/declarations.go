// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"strings"
)

// DeclarationKind identifies the variant of a Declaration.
type DeclarationKind int

const (
	// KindClass is a class or abstract class declaration.
	KindClass DeclarationKind = iota + 1

	// KindInterface is an interface declaration.
	KindInterface

	// KindEnum is an enum or const enum declaration.
	KindEnum

	// KindTypeAlias is a type alias declaration.
	KindTypeAlias

	// KindFunction is a function declaration or a const bound to an arrow function.
	KindFunction
)

// String returns the string representation of the DeclarationKind.
func (k DeclarationKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindTypeAlias:
		return "type"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Visibility is a member accessibility modifier.
type Visibility int

const (
	// VisibilityPublic is the default when no modifier is written.
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

// String returns the string representation of the Visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}

// ParseVisibility maps an accessibility modifier keyword to a Visibility.
// Unknown text, including "", yields VisibilityPublic.
func ParseVisibility(s string) Visibility {
	switch s {
	case "protected":
		return VisibilityProtected
	case "private":
		return VisibilityPrivate
	default:
		return VisibilityPublic
	}
}

// MemberKind identifies what a class, interface or object member is.
type MemberKind int

const (
	MemberProperty MemberKind = iota
	MemberMethod
	MemberConstructor
	MemberGetter
	MemberSetter
	MemberIndex
)

// Parameter is a function, method or constructor parameter.
type Parameter struct {
	Name     string
	Type     Type
	Optional bool
	Rest     bool
}

// Label prints the parameter as name: type, with ? and ... decorations.
func (p Parameter) Label(r Replacements) string {
	name := p.Name
	if p.Rest {
		name = "..." + name
	}
	if p.Optional {
		name += "?"
	}
	if p.Type == nil {
		return name
	}
	return name + ": " + p.Type.Render(r, false)
}

// RenderParameters joins parameter labels with ", ".
func RenderParameters(params []Parameter, r Replacements) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Label(r)
	}
	return strings.Join(parts, ", ")
}

// Member is a property, method, accessor, constructor or index signature.
type Member struct {
	Name       string
	Kind       MemberKind
	Visibility Visibility
	Static     bool
	Abstract   bool
	Readonly   bool
	Optional   bool

	// TypeParameters are the method's own generic parameters.
	TypeParameters []TypeParameter

	// Params holds method, setter and constructor parameters. For an index
	// signature it holds the single key parameter.
	Params []Parameter

	// Type is the property type or the method/getter return type. Nil when
	// the source has no annotation.
	Type Type

	// BodyReferences lists type and class names used inside a method body.
	BodyReferences []string
}

// Signature prints the member the way it appears inside an object type.
func (m Member) Signature(r Replacements) string {
	local := r.Without(TypeParameterNames(m.TypeParameters))
	typ := "any"
	if m.Type != nil {
		typ = m.Type.Render(local, false)
	}

	switch m.Kind {
	case MemberIndex:
		return "[" + RenderParameters(m.Params, local) + "]: " + typ
	case MemberMethod, MemberConstructor:
		name := m.Name
		if m.Kind == MemberConstructor {
			name = "new "
		}
		if m.Optional {
			name += "?"
		}
		tps := ""
		if len(m.TypeParameters) > 0 {
			tps = "<" + RenderTypeParameters(m.TypeParameters, local) + ">"
		}
		return name + tps + "(" + RenderParameters(m.Params, local) + "): " + typ
	default:
		name := m.Name
		if m.Readonly {
			name = "readonly " + name
		}
		if m.Optional {
			name += "?"
		}
		return name + ": " + typ
	}
}

// ReferenceNames returns every type name the member mentions, excluding the
// member's own type parameters.
func (m Member) ReferenceNames() []string {
	var out []string
	for _, tp := range m.TypeParameters {
		out = append(out, tp.ReferenceNames()...)
	}
	for _, p := range m.Params {
		if p.Type != nil {
			out = append(out, p.Type.ReferenceNames()...)
		}
	}
	if m.Type != nil {
		out = append(out, m.Type.ReferenceNames()...)
	}
	out = append(out, m.BodyReferences...)
	return withoutNames(out, TypeParameterNames(m.TypeParameters))
}

// Declaration is a top-level entity declared in a file.
//
// The set of implementations is closed: *ClassDecl, *InterfaceDecl,
// *EnumDecl, *TypeAliasDecl and *FunctionDecl.
type Declaration interface {
	// DeclName returns the declared name.
	DeclName() string

	// DeclKind returns the variant.
	DeclKind() DeclarationKind

	// References returns every type name the declaration mentions, without
	// duplicates and without its own type parameters.
	References() []string

	sealed()
}

// ClassDecl is a class or abstract class.
type ClassDecl struct {
	Name           string
	Line           int
	Abstract       bool
	TypeParameters []TypeParameter
	Extends        []Type
	Implements     []Type
	Members        []Member
}

func (d *ClassDecl) DeclName() string          { return d.Name }
func (d *ClassDecl) DeclKind() DeclarationKind { return KindClass }
func (d *ClassDecl) sealed()                   {}

func (d *ClassDecl) References() []string {
	out := heritageNames(d.Extends)
	out = append(out, heritageNames(d.Implements)...)
	out = append(out, d.UsageNames()...)
	return uniqueNames(withoutNames(out, TypeParameterNames(d.TypeParameters)))
}

// UsageNames returns names used by members, type parameter constraints and
// heritage type arguments. Heritage heads are reported by ExtensionNames
// and ImplementationNames instead.
func (d *ClassDecl) UsageNames() []string {
	return usageNames(d.TypeParameters, d.Members, d.Extends, d.Implements)
}

// ExtensionNames returns the names of extended classes.
func (d *ClassDecl) ExtensionNames() []string {
	return uniqueNames(heritageHeads(d.Extends))
}

// ImplementationNames returns the names of implemented interfaces.
func (d *ClassDecl) ImplementationNames() []string {
	return uniqueNames(heritageHeads(d.Implements))
}

// InterfaceDecl is an interface.
type InterfaceDecl struct {
	Name           string
	Line           int
	TypeParameters []TypeParameter
	Extends        []Type
	Members        []Member
}

func (d *InterfaceDecl) DeclName() string          { return d.Name }
func (d *InterfaceDecl) DeclKind() DeclarationKind { return KindInterface }
func (d *InterfaceDecl) sealed()                   {}

func (d *InterfaceDecl) References() []string {
	out := heritageNames(d.Extends)
	out = append(out, d.UsageNames()...)
	return uniqueNames(withoutNames(out, TypeParameterNames(d.TypeParameters)))
}

// UsageNames returns names used by members and heritage type arguments.
func (d *InterfaceDecl) UsageNames() []string {
	return usageNames(d.TypeParameters, d.Members, d.Extends, nil)
}

// ExtensionNames returns the names of extended interfaces.
func (d *InterfaceDecl) ExtensionNames() []string {
	return uniqueNames(heritageHeads(d.Extends))
}

// EnumDecl is an enum.
type EnumDecl struct {
	Name   string
	Line   int
	Const  bool
	Values []string
}

func (d *EnumDecl) DeclName() string          { return d.Name }
func (d *EnumDecl) DeclKind() DeclarationKind { return KindEnum }
func (d *EnumDecl) References() []string      { return nil }
func (d *EnumDecl) sealed()                   {}

// TypeAliasDecl is a type alias.
type TypeAliasDecl struct {
	Name           string
	Line           int
	TypeParameters []TypeParameter
	Value          Type
}

func (d *TypeAliasDecl) DeclName() string          { return d.Name }
func (d *TypeAliasDecl) DeclKind() DeclarationKind { return KindTypeAlias }
func (d *TypeAliasDecl) sealed()                   {}

func (d *TypeAliasDecl) References() []string {
	var out []string
	for _, tp := range d.TypeParameters {
		out = append(out, tp.ReferenceNames()...)
	}
	if d.Value != nil {
		out = append(out, d.Value.ReferenceNames()...)
	}
	return uniqueNames(withoutNames(out, TypeParameterNames(d.TypeParameters)))
}

// FunctionDecl is a function declaration or a const arrow function.
type FunctionDecl struct {
	Name           string
	Line           int
	Async          bool
	TypeParameters []TypeParameter
	Params         []Parameter
	Return         Type
	BodyReferences []string
}

func (d *FunctionDecl) DeclName() string          { return d.Name }
func (d *FunctionDecl) DeclKind() DeclarationKind { return KindFunction }
func (d *FunctionDecl) sealed()                   {}

// References covers the signature only; body references feed usages through
// SignatureAndBodyNames.
func (d *FunctionDecl) References() []string {
	var out []string
	for _, tp := range d.TypeParameters {
		out = append(out, tp.ReferenceNames()...)
	}
	for _, p := range d.Params {
		if p.Type != nil {
			out = append(out, p.Type.ReferenceNames()...)
		}
	}
	if d.Return != nil {
		out = append(out, d.Return.ReferenceNames()...)
	}
	return uniqueNames(withoutNames(out, TypeParameterNames(d.TypeParameters)))
}

// SignatureAndBodyNames returns References plus names used in the body.
func (d *FunctionDecl) SignatureAndBodyNames() []string {
	out := append(d.References(), d.BodyReferences...)
	return uniqueNames(withoutNames(out, TypeParameterNames(d.TypeParameters)))
}

func usageNames(tps []TypeParameter, members []Member, extends, implements []Type) []string {
	var out []string
	for _, tp := range tps {
		out = append(out, tp.ReferenceNames()...)
	}
	for _, h := range append(append([]Type{}, extends...), implements...) {
		if ref, ok := h.(*ReferenceType); ok {
			for _, a := range ref.Args {
				out = append(out, a.ReferenceNames()...)
			}
		}
	}
	for _, m := range members {
		out = append(out, m.ReferenceNames()...)
	}
	return uniqueNames(withoutNames(out, TypeParameterNames(tps)))
}

func heritageHeads(types []Type) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.Render(nil, true))
	}
	return out
}

func heritageNames(types []Type) []string {
	return collectNames(types)
}
