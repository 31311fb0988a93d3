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

	sitter "github.com/smacker/go-tree-sitter"
)

// tsReader converts tree-sitter nodes of one file into the ast model.
type tsReader struct {
	content []byte
}

func (r *tsReader) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(r.content[n.StartByte():n.EndByte()])
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// annotationType unwraps type_annotation and the predicate/asserts
// annotations used as return types.
func (r *tsReader) annotationType(n *sitter.Node) Type {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "type_annotation", "type_predicate_annotation", "asserts_annotation",
		"omitting_type_annotation", "opting_type_annotation", "adding_type_annotation":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil
		}
		return r.parseType(kids[0])
	default:
		return r.parseType(n)
	}
}

// parseType converts a type node. Unknown constructs become RawType.
func (r *tsReader) parseType(n *sitter.Node) Type {
	if n == nil {
		return nil
	}
	kids := namedChildren(n)

	switch n.Type() {
	case "predefined_type", "this_type", "this", "undefined", "null", "existential_type":
		return &KeywordType{Name: r.text(n)}

	case "type_identifier", "nested_type_identifier", "identifier", "nested_identifier",
		"member_expression", "property_identifier":
		return &ReferenceType{Name: r.text(n)}

	case "generic_type":
		ref := &ReferenceType{}
		for _, c := range kids {
			switch c.Type() {
			case "type_arguments":
				ref.Args = r.parseTypeList(c)
			default:
				if ref.Name == "" {
					ref.Name = r.text(c)
				}
			}
		}
		return ref

	case "array_type":
		if len(kids) == 0 {
			return r.raw(n)
		}
		return &ArrayType{Elem: r.parseType(kids[0])}

	case "tuple_type":
		return &TupleType{Elems: r.parseTypeList(n)}

	case "union_type", "intersection_type":
		op := "|"
		if n.Type() == "intersection_type" {
			op = "&"
		}
		return &CompositeType{Operator: op, Members: r.flatten(n, n.Type())}

	case "function_type", "constructor_type":
		fn := &FunctionType{Constructor: n.Type() == "constructor_type"}
		for _, c := range kids {
			switch c.Type() {
			case "type_parameters":
				fn.TypeParameters = r.parseTypeParameters(c)
			case "formal_parameters":
				fn.Params, _ = r.parseParameters(c)
			default:
				fn.Return = r.parseType(c)
			}
		}
		return fn

	case "object_type":
		members, ok := r.parseObjectMembers(n)
		if !ok {
			return r.raw(n)
		}
		return &ObjectType{Members: members}

	case "parenthesized_type":
		if len(kids) == 0 {
			return r.raw(n)
		}
		return &ParenthesizedType{Inner: r.parseType(kids[0])}

	case "conditional_type":
		if len(kids) < 4 {
			return r.raw(n)
		}
		return &ConditionalType{
			Check:   r.parseType(kids[0]),
			Extends: r.parseType(kids[1]),
			True:    r.parseType(kids[2]),
			False:   r.parseType(kids[3]),
		}

	case "type_query", "index_type_query", "readonly_type", "infer_type":
		if len(kids) == 0 {
			return r.raw(n)
		}
		op := map[string]string{
			"type_query":       "typeof",
			"index_type_query": "keyof",
			"readonly_type":    "readonly",
			"infer_type":       "infer",
		}[n.Type()]
		return &OperatorType{Operator: op, Operand: r.parseType(kids[0])}

	case "lookup_type":
		if len(kids) < 2 {
			return r.raw(n)
		}
		return &IndexedAccessType{Object: r.parseType(kids[0]), Index: r.parseType(kids[1])}

	case "type_predicate":
		pred := &PredicateType{}
		if len(kids) > 0 {
			pred.Param = r.text(kids[0])
		}
		if len(kids) > 1 {
			pred.Type = r.parseType(kids[1])
		}
		return pred

	case "asserts":
		pred := &PredicateType{Asserts: true}
		if len(kids) > 0 {
			if inner, ok := r.parseType(kids[0]).(*PredicateType); ok {
				pred.Param, pred.Type = inner.Param, inner.Type
			} else {
				pred.Param = r.text(kids[0])
			}
		}
		return pred

	case "literal_type", "template_literal_type", "string", "number", "true", "false", "template_type":
		return &LiteralType{Text: r.text(n)}

	default:
		return r.raw(n)
	}
}

// parseTypeList parses every named child of n as a type.
func (r *tsReader) parseTypeList(n *sitter.Node) []Type {
	kids := namedChildren(n)
	out := make([]Type, 0, len(kids))
	for _, c := range kids {
		out = append(out, r.parseType(c))
	}
	return out
}

// flatten collapses left-nested unions (A | B | C) into one member list.
func (r *tsReader) flatten(n *sitter.Node, kind string) []Type {
	var out []Type
	for _, c := range namedChildren(n) {
		if c.Type() == kind {
			out = append(out, r.flatten(c, kind)...)
			continue
		}
		out = append(out, r.parseType(c))
	}
	return out
}

// raw keeps the source text and the type identifiers found inside it.
func (r *tsReader) raw(n *sitter.Node) Type {
	return &RawType{Text: strings.Join(strings.Fields(r.text(n)), " "), Names: r.typeIdentifiers(n)}
}

func (r *tsReader) typeIdentifiers(n *sitter.Node) []string {
	var out []string
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type() == "type_identifier" {
			out = append(out, r.text(cur))
			continue
		}
		kids := namedChildren(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// parseTypeParameters reads <T extends C = D, ...>.
func (r *tsReader) parseTypeParameters(n *sitter.Node) []TypeParameter {
	var out []TypeParameter
	for _, c := range namedChildren(n) {
		if c.Type() != "type_parameter" {
			continue
		}
		var tp TypeParameter
		for _, part := range namedChildren(c) {
			switch part.Type() {
			case "type_identifier":
				tp.Name = r.text(part)
			case "constraint":
				if inner := namedChildren(part); len(inner) > 0 {
					tp.Constraint = r.parseType(inner[0])
				}
			case "default_type":
				if inner := namedChildren(part); len(inner) > 0 {
					tp.Default = r.parseType(inner[0])
				}
			}
		}
		if tp.Name != "" {
			out = append(out, tp)
		}
	}
	return out
}

// parseParameters reads formal_parameters. Constructor parameters carrying
// an accessibility modifier or readonly are also returned as properties.
func (r *tsReader) parseParameters(n *sitter.Node) ([]Parameter, []Member) {
	var params []Parameter
	var props []Member

	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "required_parameter", "optional_parameter":
		default:
			continue
		}

		p := Parameter{Optional: c.Type() == "optional_parameter"}
		var prop *Member
		for i := 0; i < int(c.ChildCount()); i++ {
			part := c.Child(i)
			switch part.Type() {
			case "accessibility_modifier":
				if prop == nil {
					prop = &Member{Kind: MemberProperty}
				}
				prop.Visibility = ParseVisibility(r.text(part))
			case "readonly":
				if prop == nil {
					prop = &Member{Kind: MemberProperty}
				}
				prop.Readonly = true
			case "identifier", "this", "object_pattern", "array_pattern":
				if p.Name == "" {
					p.Name = r.text(part)
				}
			case "rest_pattern":
				p.Rest = true
				if inner := namedChildren(part); len(inner) > 0 {
					p.Name = r.text(inner[0])
				}
			case "type_annotation":
				p.Type = r.annotationType(part)
			}
		}

		params = append(params, p)
		if prop != nil {
			prop.Name = p.Name
			prop.Type = p.Type
			prop.Optional = p.Optional
			props = append(props, *prop)
		}
	}
	return params, props
}

// parseObjectMembers reads the members of an object_type, interface_body or
// class_body-like node. It reports false for mapped types.
func (r *tsReader) parseObjectMembers(n *sitter.Node) ([]Member, bool) {
	var out []Member
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "property_signature", "public_field_definition":
			out = append(out, r.parseProperty(c))
		case "method_signature", "abstract_method_signature", "method_definition":
			m, props := r.parseMethod(c)
			out = append(out, props...)
			out = append(out, m)
		case "call_signature", "construct_signature":
			m, _ := r.parseMethod(c)
			if c.Type() == "construct_signature" {
				m.Kind = MemberConstructor
			}
			out = append(out, m)
		case "index_signature":
			m, ok := r.parseIndexSignature(c)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
	}
	return out, true
}

// memberName extracts the name of a property or method node.
func (r *tsReader) memberName(n *sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return r.text(name)
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "property_identifier", "private_property_identifier", "computed_property_name", "string", "number":
			return r.text(c)
		}
	}
	return ""
}

func (r *tsReader) parseProperty(n *sitter.Node) Member {
	m := Member{Kind: MemberProperty, Name: r.memberName(n)}
	if strings.HasPrefix(m.Name, "#") {
		m.Visibility = VisibilityPrivate
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "accessibility_modifier":
			m.Visibility = ParseVisibility(r.text(c))
		case "static":
			m.Static = true
		case "abstract":
			m.Abstract = true
		case "readonly":
			m.Readonly = true
		case "?":
			m.Optional = true
		case "type_annotation":
			m.Type = r.annotationType(c)
		}
	}

	if value := n.ChildByFieldName("value"); value != nil {
		m.BodyReferences = r.bodyReferences(value)
	}
	return m
}

func (r *tsReader) parseMethod(n *sitter.Node) (Member, []Member) {
	m := Member{Kind: MemberMethod, Name: r.memberName(n)}
	if strings.HasPrefix(m.Name, "#") {
		m.Visibility = VisibilityPrivate
	}
	var props []Member

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "accessibility_modifier":
			m.Visibility = ParseVisibility(r.text(c))
		case "static":
			m.Static = true
		case "abstract":
			m.Abstract = true
		case "readonly":
			m.Readonly = true
		case "get":
			m.Kind = MemberGetter
		case "set":
			m.Kind = MemberSetter
		case "?":
			m.Optional = true
		case "type_parameters":
			m.TypeParameters = r.parseTypeParameters(c)
		case "formal_parameters":
			m.Params, props = r.parseParameters(c)
		case "type_annotation", "type_predicate_annotation", "asserts_annotation":
			m.Type = r.annotationType(c)
		case "statement_block":
			m.BodyReferences = r.bodyReferences(c)
		}
	}

	if m.Kind == MemberMethod && m.Name == "constructor" {
		m.Kind = MemberConstructor
	}
	if m.Kind != MemberConstructor {
		props = nil
	}
	for i := range props {
		props[i].BodyReferences = nil
	}
	return m, props
}

func (r *tsReader) parseIndexSignature(n *sitter.Node) (Member, bool) {
	m := Member{Kind: MemberIndex}
	var key Parameter
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "mapped_type_clause":
			return Member{}, false
		case "readonly":
			m.Readonly = true
		case "identifier":
			key.Name = r.text(c)
		case "type_annotation", "omitting_type_annotation", "opting_type_annotation", "adding_type_annotation":
			m.Type = r.annotationType(c)
		default:
			if c.IsNamed() && key.Name != "" && key.Type == nil && c.Type() != "comment" {
				key.Type = r.parseType(c)
			}
		}
	}
	m.Name = "[" + key.Label(nil) + "]"
	m.Params = []Parameter{key}
	return m, true
}

// bodyReferences collects the names a block mentions: type identifiers,
// constructed classes, static member receivers, called functions and
// instanceof targets. Nothing is resolved here; unknown names are filtered
// out later against the symbol store.
func (r *tsReader) bodyReferences(n *sitter.Node) []string {
	var out []string
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch cur.Type() {
		case "type_identifier":
			out = append(out, r.text(cur))
		case "new_expression":
			if c := cur.ChildByFieldName("constructor"); c != nil && c.Type() == "identifier" {
				out = append(out, r.text(c))
			}
		case "member_expression":
			if o := cur.ChildByFieldName("object"); o != nil && o.Type() == "identifier" {
				out = append(out, r.text(o))
			}
		case "call_expression":
			if f := cur.ChildByFieldName("function"); f != nil && f.Type() == "identifier" {
				out = append(out, r.text(f))
			}
		case "binary_expression":
			if op := cur.ChildByFieldName("operator"); op != nil && op.Type() == "instanceof" {
				if right := cur.ChildByFieldName("right"); right != nil && right.Type() == "identifier" {
					out = append(out, r.text(right))
				}
			}
		}

		kids := namedChildren(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return uniqueNames(out)
}
