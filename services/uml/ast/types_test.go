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
	"testing"

	"github.com/stretchr/testify/assert"
)

func ref(name string, args ...Type) *ReferenceType {
	return &ReferenceType{Name: name, Args: args}
}

func kw(name string) *KeywordType {
	return &KeywordType{Name: name}
}

func TestReplacements_Lookup(t *testing.T) {
	r := Replacements{{From: "Bar", To: "Foo"}, {From: "Bar", To: "Ignored"}}

	assert.Equal(t, "Foo", r.Lookup("Bar"))
	assert.Equal(t, "Baz", r.Lookup("Baz"))
	assert.Equal(t, "Baz", Replacements(nil).Lookup("Baz"))
}

func TestReplacements_Without(t *testing.T) {
	r := Replacements{{From: "T", To: "Imported"}, {From: "Bar", To: "Foo"}}

	local := r.Without([]string{"T"})

	assert.Equal(t, Replacements{{From: "Bar", To: "Foo"}}, local)
	assert.Len(t, r, 2, "receiver must not change")
}

func TestType_Render(t *testing.T) {
	r := Replacements{{From: "Bar", To: "Foo"}}

	tests := []struct {
		name string
		typ  Type
		hide bool
		want string
	}{
		{"keyword", kw("string"), false, "string"},
		{"reference replaced", ref("Bar"), false, "Foo"},
		{"generic", ref("Map", kw("string"), ref("Bar")), false, "Map<string, Foo>"},
		{"generic hidden args", ref("Map", kw("string"), ref("Bar")), true, "Map"},
		{"array", &ArrayType{Elem: ref("Bar")}, false, "Foo[]"},
		{"tuple", &TupleType{Elems: []Type{kw("number"), ref("Bar")}}, false, "[number, Foo]"},
		{"union", &CompositeType{Operator: "|", Members: []Type{ref("Bar"), kw("null")}}, false, "Foo | null"},
		{"intersection", &CompositeType{Operator: "&", Members: []Type{ref("A"), ref("B")}}, false, "A & B"},
		{"parenthesized", &ArrayType{Elem: &ParenthesizedType{Inner: &CompositeType{Operator: "|", Members: []Type{ref("A"), ref("B")}}}}, false, "(A | B)[]"},
		{"keyof", &OperatorType{Operator: "keyof", Operand: ref("Bar")}, false, "keyof Foo"},
		{"indexed", &IndexedAccessType{Object: ref("Bar"), Index: &LiteralType{Text: "'id'"}}, false, "Foo['id']"},
		{"predicate", &PredicateType{Param: "x", Type: ref("Bar")}, false, "x is Foo"},
		{"asserts", &PredicateType{Asserts: true, Param: "x"}, false, "asserts x"},
		{"raw untouched", &RawType{Text: "{ [K in keyof Bar]: K }", Names: []string{"Bar"}}, false, "{ [K in keyof Bar]: K }"},
		{"empty object", &ObjectType{}, false, "{}"},
		{
			"object",
			&ObjectType{Members: []Member{
				{Name: "a", Kind: MemberProperty, Type: ref("Bar"), Optional: true},
				{Name: "go", Kind: MemberMethod, Type: kw("void")},
			}},
			false,
			"{ a?: Foo; go(): void }",
		},
		{
			"conditional",
			&ConditionalType{Check: ref("T"), Extends: ref("Bar"), True: kw("string"), False: kw("never")},
			false,
			"T extends Foo ? string : never",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Render(r, tt.hide))
		})
	}
}

func TestFunctionType_TypeParametersShadowReplacements(t *testing.T) {
	fn := &FunctionType{
		TypeParameters: []TypeParameter{{Name: "Bar"}},
		Params:         []Parameter{{Name: "x", Type: ref("Bar")}},
		Return:         ref("Baz"),
	}
	r := Replacements{{From: "Bar", To: "Foo"}, {From: "Baz", To: "Qux"}}

	assert.Equal(t, "<Bar>(x: Bar) => Qux", fn.Render(r, false))
	assert.Equal(t, []string{"Baz"}, fn.ReferenceNames())
}

func TestFunctionType_ConstructorAndVoid(t *testing.T) {
	fn := &FunctionType{Constructor: true, Params: []Parameter{{Name: "args", Rest: true, Type: &ArrayType{Elem: kw("any")}}}}

	assert.Equal(t, "new (...args: any[]) => void", fn.Render(nil, false))
}

func TestReferenceNames(t *testing.T) {
	typ := &CompositeType{Operator: "|", Members: []Type{
		ref("Promise", ref("User")),
		&ArrayType{Elem: ref("Group")},
		&OperatorType{Operator: "infer", Operand: ref("U")},
	}}

	assert.Equal(t, []string{"Promise", "User", "Group"}, typ.ReferenceNames())
}

func TestTypeParameter_Render(t *testing.T) {
	tp := TypeParameter{Name: "T", Constraint: ref("Bar"), Default: ref("Baz")}

	assert.Equal(t, "T extends Foo = Baz", tp.Render(Replacements{{From: "Bar", To: "Foo"}}))
	assert.Equal(t, []string{"Bar", "Baz"}, tp.ReferenceNames())
	assert.Equal(t, "T, U", RenderTypeParameters([]TypeParameter{{Name: "T"}, {Name: "U"}}, nil))
}

func TestParameter_Label(t *testing.T) {
	assert.Equal(t, "x", Parameter{Name: "x"}.Label(nil))
	assert.Equal(t, "x?: number", Parameter{Name: "x", Optional: true, Type: kw("number")}.Label(nil))
	assert.Equal(t, "...rest: Foo[]", Parameter{Name: "rest", Rest: true, Type: &ArrayType{Elem: ref("Foo")}}.Label(nil))
}

func TestClassDecl_NameGroups(t *testing.T) {
	d := &ClassDecl{
		Name:           "Repo",
		TypeParameters: []TypeParameter{{Name: "T", Constraint: ref("Entity")}},
		Extends:        []Type{ref("Base", ref("Model"))},
		Implements:     []Type{ref("Store", ref("T")), ref("Closer")},
		Members: []Member{
			{Name: "items", Kind: MemberProperty, Type: &ArrayType{Elem: ref("T")}},
			{Name: "find", Kind: MemberMethod, Params: []Parameter{{Name: "q", Type: ref("Query")}}, Type: ref("Result"), BodyReferences: []string{"Cache"}},
		},
	}

	assert.Equal(t, []string{"Base"}, d.ExtensionNames())
	assert.Equal(t, []string{"Store", "Closer"}, d.ImplementationNames())
	assert.Equal(t, []string{"Entity", "Model", "Query", "Result", "Cache"}, d.UsageNames())
	assert.ElementsMatch(t,
		[]string{"Base", "Model", "Store", "Closer", "Entity", "Query", "Result", "Cache"},
		d.References())
}

func TestInterfaceDecl_NameGroups(t *testing.T) {
	d := &InterfaceDecl{
		Name:    "Admin",
		Extends: []Type{ref("User"), ref("Auditable", ref("Log"))},
		Members: []Member{{Name: "roles", Kind: MemberProperty, Type: &ArrayType{Elem: ref("Role")}}},
	}

	assert.Equal(t, []string{"User", "Auditable"}, d.ExtensionNames())
	assert.Equal(t, []string{"Log", "Role"}, d.UsageNames())
}

func TestFunctionDecl_References(t *testing.T) {
	d := &FunctionDecl{
		Name:           "load",
		TypeParameters: []TypeParameter{{Name: "T"}},
		Params:         []Parameter{{Name: "id", Type: ref("Id")}, {Name: "into", Type: ref("T")}},
		Return:         ref("Promise", ref("T")),
		BodyReferences: []string{"Loader", "Id"},
	}

	assert.Equal(t, []string{"Id", "Promise"}, d.References())
	assert.Equal(t, []string{"Id", "Promise", "Loader"}, d.SignatureAndBodyNames())
}

func TestMember_Signature(t *testing.T) {
	m := Member{
		Name:           "map",
		Kind:           MemberMethod,
		TypeParameters: []TypeParameter{{Name: "U"}},
		Params:         []Parameter{{Name: "fn", Type: &FunctionType{Params: []Parameter{{Name: "v", Type: ref("Bar")}}, Return: ref("U")}}},
		Type:           ref("List", ref("U")),
	}
	r := Replacements{{From: "Bar", To: "Foo"}, {From: "U", To: "Nope"}}

	assert.Equal(t, "map<U>(fn: (v: Foo) => U): List<U>", m.Signature(r))

	index := Member{Name: "[key: string]", Kind: MemberIndex, Params: []Parameter{{Name: "key", Type: kw("string")}}, Type: ref("Bar")}
	assert.Equal(t, "[key: string]: Foo", index.Signature(r))
}
