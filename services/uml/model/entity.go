// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model holds the resolved, cross-referenced object model: classes,
// interfaces, enums, type aliases and functions wired to each other by
// usage, extension and implementation edges, plus the Store that indexes
// them per file.
package model

import (
	"strings"

	"github.com/samber/lo"
)

// Stereotypes shown above a node name.
const (
	StereotypeClass         = ""
	StereotypeAbstractClass = "abstract class"
	StereotypeInterface     = "interface"
	StereotypeEnum          = "enum"
	StereotypeTypeAlias     = "type"
	StereotypeFunction      = "function"
)

// Entity is a resolved declaration.
//
// The set of implementations is closed: *Class, *Interface, *Enum,
// *TypeAlias and *Function.
type Entity interface {
	// Name is the display name. Classes and interfaces include their type
	// parameter list, e.g. "Repo<T>".
	Name() string

	// Stereotype is one of the Stereotype* constants.
	Stereotype() string

	// Usages returns referenced entities that are neither extended nor
	// implemented by this entity.
	Usages() []Entity

	// Extensions returns extended entities in declaration order.
	Extensions() []Entity

	// Implementations returns implemented entities in declaration order.
	Implementations() []Entity

	base() *Base
}

// Base carries the name, stereotype and outgoing edges shared by every
// entity. Edges never point back at the owning entity and never repeat.
type Base struct {
	name       string
	stereotype string
	owner      Entity

	usages          []Entity
	extensions      []Entity
	implementations []Entity
}

func (b *Base) init(owner Entity, name, stereotype string) {
	b.owner = owner
	b.name = name
	b.stereotype = stereotype
}

func (b *Base) Name() string       { return b.name }
func (b *Base) Stereotype() string { return b.stereotype }
func (b *Base) base() *Base        { return b }

// AddUsage records a usage edge. Self references and repeats are ignored.
func (b *Base) AddUsage(e Entity) {
	b.usages = b.appendEdge(b.usages, e)
}

// AddExtension records an extension edge. Self references and repeats are
// ignored.
func (b *Base) AddExtension(e Entity) {
	b.extensions = b.appendEdge(b.extensions, e)
}

// AddImplementation records an implementation edge. Self references and
// repeats are ignored.
func (b *Base) AddImplementation(e Entity) {
	b.implementations = b.appendEdge(b.implementations, e)
}

func (b *Base) appendEdge(edges []Entity, e Entity) []Entity {
	if e == nil || e == b.owner || lo.Contains(edges, e) {
		return edges
	}
	return append(edges, e)
}

func (b *Base) Usages() []Entity {
	return lo.Filter(b.usages, func(u Entity, _ int) bool {
		return !lo.Contains(b.extensions, u) && !lo.Contains(b.implementations, u)
	})
}

func (b *Base) Extensions() []Entity      { return b.extensions }
func (b *Base) Implementations() []Entity { return b.implementations }

// Class is a resolved class or abstract class.
type Class struct {
	Base

	Abstract       bool
	TypeParameters []string
	Attributes     []Property
	Methods        []Property
}

// NewClass creates a class named name with its type parameter list
// appended to the display name.
func NewClass(name string, typeParameters []string, abstract bool) *Class {
	c := &Class{Abstract: abstract, TypeParameters: typeParameters}
	stereotype := StereotypeClass
	if abstract {
		stereotype = StereotypeAbstractClass
	}
	c.init(c, displayName(name, typeParameters), stereotype)
	return c
}

// Interface is a resolved interface.
type Interface struct {
	Base

	TypeParameters []string
	Attributes     []Property
	Methods        []Property
}

// NewInterface creates an interface.
func NewInterface(name string, typeParameters []string) *Interface {
	i := &Interface{TypeParameters: typeParameters}
	i.init(i, displayName(name, typeParameters), StereotypeInterface)
	return i
}

// Enum is a resolved enum with its member names.
type Enum struct {
	Base

	Values []string
}

// NewEnum creates an enum.
func NewEnum(name string, values []string) *Enum {
	e := &Enum{Values: values}
	e.init(e, name, StereotypeEnum)
	return e
}

// TypeAlias is a resolved type alias; Value is the rendered right-hand side.
type TypeAlias struct {
	Base

	TypeParameters []string
	Value          string
}

// NewTypeAlias creates a type alias.
func NewTypeAlias(name string, typeParameters []string, value string) *TypeAlias {
	t := &TypeAlias{TypeParameters: typeParameters, Value: value}
	t.init(t, name, StereotypeTypeAlias)
	return t
}

// Function is a resolved function.
type Function struct {
	Base

	TypeParameters []string
	Parameters     []Parameter
	ReturnType     string
}

// NewFunction creates a function.
func NewFunction(name string, typeParameters []string, params []Parameter, returnType string) *Function {
	f := &Function{TypeParameters: typeParameters, Parameters: params, ReturnType: returnType}
	f.init(f, name, StereotypeFunction)
	return f
}

// Signature prints "name = function(a: A)<T>: R".
func (f *Function) Signature() string {
	tps := ""
	if len(f.TypeParameters) > 0 {
		tps = "<" + strings.Join(f.TypeParameters, ", ") + ">"
	}
	return f.Name() + " = function(" + joinParameters(f.Parameters) + ")" + tps + ": " + f.ReturnType
}

// Signature prints "name = value".
func (t *TypeAlias) Signature() string {
	name := t.Name()
	if len(t.TypeParameters) > 0 {
		name += "<" + strings.Join(t.TypeParameters, ", ") + ">"
	}
	return name + " = " + t.Value
}

func displayName(name string, typeParameters []string) string {
	if len(typeParameters) == 0 {
		return name
	}
	return name + "<" + strings.Join(typeParameters, ", ") + ">"
}
