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

	"github.com/samber/lo"
)

// Replacement renders occurrences of the local name From as To.
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Replacements is an ordered list of name substitutions. The first match wins.
type Replacements []Replacement

// Lookup returns the replacement for name, or name itself.
func (r Replacements) Lookup(name string) string {
	for _, rep := range r {
		if rep.From == name {
			return rep.To
		}
	}
	return name
}

// Without returns the replacements whose From is not in names.
//
// Description:
//
//	Used when entering a scope with its own type parameters: a class
//	declaring <T> must not have T rewritten by an import alias named T.
//	The receiver is never modified.
func (r Replacements) Without(names []string) Replacements {
	if len(names) == 0 || len(r) == 0 {
		return r
	}
	shadowed := make(map[string]bool, len(names))
	for _, n := range names {
		shadowed[n] = true
	}
	out := make(Replacements, 0, len(r))
	for _, rep := range r {
		if !shadowed[rep.From] {
			out = append(out, rep)
		}
	}
	return out
}

// Type is a parsed TypeScript type expression.
//
// The set of implementations is closed: KeywordType, LiteralType,
// ReferenceType, ArrayType, TupleType, CompositeType, FunctionType,
// ObjectType, ParenthesizedType, ConditionalType, OperatorType,
// PredicateType, IndexedAccessType and RawType.
type Type interface {
	// Render prints the type, applying replacements to reference names.
	// With hideTypeArgs set, generic arguments are omitted (Foo<T> -> Foo).
	Render(r Replacements, hideTypeArgs bool) string

	// ReferenceNames returns the names of every referenced type, in
	// source order, possibly with duplicates.
	ReferenceNames() []string

	isType()
}

// RenderType renders t, or returns "" when t is nil.
func RenderType(t Type, r Replacements) string {
	if t == nil {
		return ""
	}
	return t.Render(r, false)
}

// KeywordType is a predefined type such as string, number or void.
type KeywordType struct {
	Name string
}

func (t *KeywordType) Render(Replacements, bool) string { return t.Name }
func (t *KeywordType) ReferenceNames() []string         { return nil }
func (t *KeywordType) isType()                          {}

// LiteralType is a literal used as a type: 'a', 42, true, null, `x${y}`.
type LiteralType struct {
	Text string
}

func (t *LiteralType) Render(Replacements, bool) string { return t.Text }
func (t *LiteralType) ReferenceNames() []string         { return nil }
func (t *LiteralType) isType()                          {}

// ReferenceType names another type, possibly generic: Map<K, V>, ns.Foo.
type ReferenceType struct {
	Name string
	Args []Type
}

func (t *ReferenceType) Render(r Replacements, hideTypeArgs bool) string {
	name := r.Lookup(t.Name)
	if hideTypeArgs || len(t.Args) == 0 {
		return name
	}
	return name + "<" + renderList(t.Args, r, hideTypeArgs, ", ") + ">"
}

func (t *ReferenceType) ReferenceNames() []string {
	out := []string{t.Name}
	for _, a := range t.Args {
		out = append(out, a.ReferenceNames()...)
	}
	return out
}

func (t *ReferenceType) isType() {}

// ArrayType is Elem[].
type ArrayType struct {
	Elem Type
}

func (t *ArrayType) Render(r Replacements, hide bool) string {
	return t.Elem.Render(r, hide) + "[]"
}
func (t *ArrayType) ReferenceNames() []string { return t.Elem.ReferenceNames() }
func (t *ArrayType) isType()                  {}

// TupleType is [A, B, ...C].
type TupleType struct {
	Elems []Type
}

func (t *TupleType) Render(r Replacements, hide bool) string {
	return "[" + renderList(t.Elems, r, hide, ", ") + "]"
}
func (t *TupleType) ReferenceNames() []string { return collectNames(t.Elems) }
func (t *TupleType) isType()                  {}

// CompositeType is a union (A | B) or an intersection (A & B).
type CompositeType struct {
	// Operator is "|" or "&".
	Operator string
	Members  []Type
}

func (t *CompositeType) Render(r Replacements, hide bool) string {
	return renderList(t.Members, r, hide, " "+t.Operator+" ")
}
func (t *CompositeType) ReferenceNames() []string { return collectNames(t.Members) }
func (t *CompositeType) isType()                  {}

// FunctionType is <T>(a: A) => R, or new (a: A) => R when Constructor is set.
type FunctionType struct {
	TypeParameters []TypeParameter
	Params         []Parameter
	Return         Type
	Constructor    bool
}

// Render applies only the replacements not shadowed by the function's own
// type parameters.
func (t *FunctionType) Render(r Replacements, hide bool) string {
	local := r.Without(TypeParameterNames(t.TypeParameters))

	var sb strings.Builder
	if t.Constructor {
		sb.WriteString("new ")
	}
	if len(t.TypeParameters) > 0 && !hide {
		sb.WriteString("<" + RenderTypeParameters(t.TypeParameters, local) + ">")
	}
	sb.WriteString("(" + RenderParameters(t.Params, local) + ") => ")
	if t.Return != nil {
		sb.WriteString(t.Return.Render(local, hide))
	} else {
		sb.WriteString("void")
	}
	return sb.String()
}

func (t *FunctionType) ReferenceNames() []string {
	var out []string
	for _, tp := range t.TypeParameters {
		out = append(out, tp.ReferenceNames()...)
	}
	for _, p := range t.Params {
		if p.Type != nil {
			out = append(out, p.Type.ReferenceNames()...)
		}
	}
	if t.Return != nil {
		out = append(out, t.Return.ReferenceNames()...)
	}
	return withoutNames(out, TypeParameterNames(t.TypeParameters))
}

func (t *FunctionType) isType() {}

// ObjectType is an inline object literal type { a: A; b(): B }.
type ObjectType struct {
	Members []Member
}

func (t *ObjectType) Render(r Replacements, hide bool) string {
	if len(t.Members) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		parts = append(parts, m.Signature(r))
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func (t *ObjectType) ReferenceNames() []string {
	var out []string
	for _, m := range t.Members {
		out = append(out, m.ReferenceNames()...)
	}
	return out
}

func (t *ObjectType) isType() {}

// ParenthesizedType is (Inner).
type ParenthesizedType struct {
	Inner Type
}

func (t *ParenthesizedType) Render(r Replacements, hide bool) string {
	return "(" + t.Inner.Render(r, hide) + ")"
}
func (t *ParenthesizedType) ReferenceNames() []string { return t.Inner.ReferenceNames() }
func (t *ParenthesizedType) isType()                  {}

// ConditionalType is Check extends Extends ? True : False.
type ConditionalType struct {
	Check, Extends, True, False Type
}

func (t *ConditionalType) Render(r Replacements, hide bool) string {
	return t.Check.Render(r, hide) + " extends " + t.Extends.Render(r, hide) +
		" ? " + t.True.Render(r, hide) + " : " + t.False.Render(r, hide)
}

func (t *ConditionalType) ReferenceNames() []string {
	return collectNames([]Type{t.Check, t.Extends, t.True, t.False})
}

func (t *ConditionalType) isType() {}

// OperatorType is a prefixed type: keyof T, typeof x, readonly T[],
// unique symbol, infer U.
type OperatorType struct {
	Operator string
	Operand  Type
}

func (t *OperatorType) Render(r Replacements, hide bool) string {
	return t.Operator + " " + t.Operand.Render(r, hide)
}

// ReferenceNames omits the variable introduced by infer.
func (t *OperatorType) ReferenceNames() []string {
	if t.Operator == "infer" {
		return nil
	}
	return t.Operand.ReferenceNames()
}

func (t *OperatorType) isType() {}

// PredicateType is a type guard: x is T, or asserts x is T.
type PredicateType struct {
	Asserts bool
	Param   string
	Type    Type
}

func (t *PredicateType) Render(r Replacements, hide bool) string {
	prefix := ""
	if t.Asserts {
		prefix = "asserts "
	}
	if t.Type == nil {
		return prefix + t.Param
	}
	return prefix + t.Param + " is " + t.Type.Render(r, hide)
}

func (t *PredicateType) ReferenceNames() []string {
	if t.Type == nil {
		return nil
	}
	return t.Type.ReferenceNames()
}

func (t *PredicateType) isType() {}

// IndexedAccessType is Object[Index].
type IndexedAccessType struct {
	Object, Index Type
}

func (t *IndexedAccessType) Render(r Replacements, hide bool) string {
	return t.Object.Render(r, hide) + "[" + t.Index.Render(r, hide) + "]"
}
func (t *IndexedAccessType) ReferenceNames() []string {
	return collectNames([]Type{t.Object, t.Index})
}
func (t *IndexedAccessType) isType() {}

// RawType keeps source text for constructs without a dedicated variant,
// such as mapped types. Replacements are not applied to the text.
type RawType struct {
	Text string

	// Names are the type identifiers found inside the construct.
	Names []string
}

func (t *RawType) Render(Replacements, bool) string { return t.Text }
func (t *RawType) ReferenceNames() []string         { return t.Names }
func (t *RawType) isType()                          {}

// TypeParameter is a generic parameter: T extends Constraint = Default.
type TypeParameter struct {
	Name       string
	Constraint Type
	Default    Type
}

// Render prints the parameter with its constraint and default.
func (tp TypeParameter) Render(r Replacements) string {
	out := tp.Name
	if tp.Constraint != nil {
		out += " extends " + tp.Constraint.Render(r, false)
	}
	if tp.Default != nil {
		out += " = " + tp.Default.Render(r, false)
	}
	return out
}

// ReferenceNames returns the names used in the constraint and default.
func (tp TypeParameter) ReferenceNames() []string {
	var out []string
	if tp.Constraint != nil {
		out = append(out, tp.Constraint.ReferenceNames()...)
	}
	if tp.Default != nil {
		out = append(out, tp.Default.ReferenceNames()...)
	}
	return out
}

// TypeParameterNames returns the declared names of params.
func TypeParameterNames(params []TypeParameter) []string {
	if len(params) == 0 {
		return nil
	}
	out := make([]string, len(params))
	for i, tp := range params {
		out[i] = tp.Name
	}
	return out
}

// RenderTypeParameters joins rendered params with ", ".
func RenderTypeParameters(params []TypeParameter, r Replacements) string {
	parts := make([]string, len(params))
	for i, tp := range params {
		parts[i] = tp.Render(r)
	}
	return strings.Join(parts, ", ")
}

func renderList(types []Type, r Replacements, hide bool, sep string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.Render(r, hide)
	}
	return strings.Join(parts, sep)
}

func collectNames(types []Type) []string {
	var out []string
	for _, t := range types {
		if t != nil {
			out = append(out, t.ReferenceNames()...)
		}
	}
	return out
}

// withoutNames drops every occurrence of a shadowed name.
func withoutNames(names, shadowed []string) []string {
	if len(shadowed) == 0 {
		return names
	}
	skip := make(map[string]bool, len(shadowed))
	for _, s := range shadowed {
		skip[s] = true
	}
	out := names[:0:0]
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}

// uniqueNames returns names in first-seen order without duplicates or blanks.
func uniqueNames(names []string) []string {
	return lo.Uniq(lo.Compact(names))
}
