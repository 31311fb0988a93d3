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
	"strings"

	"github.com/AleutianAI/tsuml/services/uml/ast"
)

// Parameter is a rendered parameter: Name may carry "..." and "?".
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// String prints "name: type", or just the name when the type is unknown.
func (p Parameter) String() string {
	if p.Type == "" {
		return p.Name
	}
	return p.Name + ": " + p.Type
}

// Property is a rendered attribute or method of a class or interface.
//
// Name already carries modifier decorations ("static ", "readonly ",
// "abstract ", "getter ", "setter " prefixes and a "?" suffix). Parameters
// is nil for attributes.
type Property struct {
	Name       string         `json:"name"`
	Visibility ast.Visibility `json:"visibility"`
	Type       string         `json:"type,omitempty"`
	Parameters []Parameter    `json:"parameters,omitempty"`
	IsMethod   bool           `json:"is_method,omitempty"`
}

// VisibilitySymbol returns the UML marker: + public, # protected, - private.
func VisibilitySymbol(v ast.Visibility) string {
	switch v {
	case ast.VisibilityPrivate:
		return "-"
	case ast.VisibilityProtected:
		return "#"
	default:
		return "+"
	}
}

// Label prints the property the way it appears in a class box:
// "+ name: type" or "- name(a: A): type".
func (p Property) Label() string {
	var sb strings.Builder
	sb.WriteString(VisibilitySymbol(p.Visibility))
	sb.WriteString(" ")
	sb.WriteString(p.Name)
	if p.IsMethod {
		sb.WriteString("(" + joinParameters(p.Parameters) + ")")
	}
	if p.Type != "" {
		sb.WriteString(": " + p.Type)
	}
	return sb.String()
}

// MemberName decorates name with the modifiers of m, in the order static,
// readonly, abstract, accessor kind, then the optional marker.
func MemberName(m ast.Member, name string) string {
	switch m.Kind {
	case ast.MemberGetter:
		name = "getter " + name
	case ast.MemberSetter:
		name = "setter " + name
	}
	if m.Abstract {
		name = "abstract " + name
	}
	if m.Readonly {
		name = "readonly " + name
	}
	if m.Static {
		name = "static " + name
	}
	if m.Optional {
		name += "?"
	}
	return name
}

func joinParameters(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
