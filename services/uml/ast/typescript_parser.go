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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.opentelemetry.io/otel/codes"
)

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	parser := NewTypeScriptParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithParserLogger sets the logger used for parse warnings.
func WithParserLogger(logger *slog.Logger) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// TypeScriptParser implements Parser for TypeScript and TSX source.
//
// Description:
//
//	TypeScriptParser uses tree-sitter to read imports, exports and the
//	top-level class, interface, enum, type alias and function declarations
//	of a file. Each Parse call creates its own tree-sitter parser.
//
// Thread Safety:
//
//	TypeScriptParser instances are safe for concurrent use. Multiple goroutines
//	may call Parse simultaneously on the same TypeScriptParser instance.
//
// Example:
//
//	parser := NewTypeScriptParser()
//	file, err := parser.Parse(ctx, []byte("export class Foo { bar: Bar; }"), "/src/foo.ts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range file.Declarations() {
//	    fmt.Printf("%s %s\n", d.DeclKind(), d.DeclName())
//	}
type TypeScriptParser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewTypeScriptParser creates a new TypeScriptParser with the given options.
//
// Inputs:
//   - opts: Optional configuration functions (WithMaxFileSize, WithParserLogger)
//
// Outputs:
//   - *TypeScriptParser: Configured parser instance, never nil
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse extracts the symbol table of one TypeScript file.
//
// Description:
//
//	The parser is error-tolerant: a file with syntax errors yields whatever
//	declarations tree-sitter could recover, with a note in Errors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//     Tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Absolute path of the file. Selects the TSX grammar for .tsx.
//
// Outputs:
//   - *ParsedFile: Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrFileTooLarge: Content exceeds maxFileSize
//   - ErrInvalidContent: Content is not valid UTF-8
//   - Context errors: Context was canceled or timed out
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParsedFile, error) {
	ctx, span := startParseSpan(ctx, "typescript", filePath, len(content))
	defer span.End()

	start := time.Now()
	fail := func(err error) (*ParsedFile, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("parse canceled before start: %w", err))
	}

	if int64(len(content)) > p.maxFileSize {
		return fail(fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize))
	}

	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return fail(fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent))
	}

	hash := sha256.Sum256(content)

	// New tree-sitter parser per call for thread safety.
	parser := sitter.NewParser()
	defer parser.Close()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fail(fmt.Errorf("tree-sitter parse failed: %w", err))
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("parse canceled after tree-sitter: %w", err))
	}

	file := NewParsedFile(filePath)
	file.Hash = hex.EncodeToString(hash[:])

	root := tree.RootNode()
	if root == nil {
		file.Errors = append(file.Errors, "tree-sitter returned nil root node")
		return file, nil
	}
	if root.HasError() {
		file.Errors = append(file.Errors, "source contains syntax errors")
	}

	r := &tsReader{content: content}
	p.walkStatements(root, r, file)

	if err := file.Validate(); err != nil {
		return fail(fmt.Errorf("result validation failed: %w", err))
	}

	declCount := len(file.order)
	setParseSpanResult(span, declCount, len(file.Imports), len(file.Errors))
	recordParseMetrics("typescript", time.Since(start), declCount, true)

	return file, nil
}

// Language returns "typescript".
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// walkStatements handles the statements of a program or ambient block.
func (p *TypeScriptParser) walkStatements(parent *sitter.Node, r *tsReader, file *ParsedFile) {
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			p.processImport(child, r, file)
		case "export_statement":
			p.processExport(child, r, file)
		case "ambient_declaration":
			// declare class Foo {} and friends
			p.walkStatements(child, r, file)
		default:
			p.processDeclaration(child, r, file)
		}
	}
}

// processDeclaration records a declaration node and returns the names it
// binds. Plain variables are returned but not recorded.
func (p *TypeScriptParser) processDeclaration(n *sitter.Node, r *tsReader, file *ParsedFile) []string {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration", "class":
		if d := p.processClass(n, r); d != nil {
			file.AddDeclaration(d)
			return []string{d.Name}
		}
	case "interface_declaration":
		if d := p.processInterface(n, r); d != nil {
			file.AddDeclaration(d)
			return []string{d.Name}
		}
	case "enum_declaration":
		if d := p.processEnum(n, r); d != nil {
			file.AddDeclaration(d)
			return []string{d.Name}
		}
	case "type_alias_declaration":
		if d := p.processTypeAlias(n, r); d != nil {
			file.AddDeclaration(d)
			return []string{d.Name}
		}
	case "function_declaration", "function_signature", "generator_function_declaration":
		if d := p.processFunction(n, r); d != nil {
			file.AddDeclaration(d)
			return []string{d.Name}
		}
	case "lexical_declaration", "variable_declaration":
		return p.processVariables(n, r, file)
	}
	return nil
}

// processImport handles ES module import statements.
func (p *TypeScriptParser) processImport(n *sitter.Node, r *tsReader, file *ParsedFile) {
	imp := Import{Line: int(n.StartPoint().Row) + 1}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "type":
			imp.TypeOnly = true
		case "import_clause":
			p.processImportClause(child, r, &imp)
		case "string":
			imp.Specifier = p.extractStringContent(child, r)
		}
	}

	if imp.Specifier == "" {
		return
	}
	file.Imports = append(file.Imports, imp)
}

// processImportClause extracts default, namespace and named bindings.
func (p *TypeScriptParser) processImportClause(n *sitter.Node, r *tsReader, imp *Import) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "identifier":
			// import Foo from './foo'
			imp.Default = r.text(child)
		case "namespace_import":
			// import * as ns from './foo'
			for _, gc := range namedChildren(child) {
				if gc.Type() == "identifier" {
					imp.Namespace = r.text(gc)
				}
			}
		case "named_imports":
			for _, gc := range namedChildren(child) {
				if gc.Type() == "import_specifier" {
					if name, ok := p.extractSpecifier(gc, r); ok {
						imp.Names = append(imp.Names, name)
					}
				}
			}
		}
	}
}

// extractSpecifier reads { name as alias } from an import or export specifier.
func (p *TypeScriptParser) extractSpecifier(n *sitter.Node, r *tsReader) (ImportName, bool) {
	var name, alias string
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = r.text(nameNode)
		alias = r.text(n.ChildByFieldName("alias"))
	} else {
		for _, c := range namedChildren(n) {
			if c.Type() != "identifier" && c.Type() != "string" {
				continue
			}
			if name == "" {
				name = r.text(c)
			} else {
				alias = r.text(c)
			}
		}
	}
	name = strings.Trim(name, `"'`)
	if name == "" {
		return ImportName{}, false
	}
	if alias == "" {
		alias = name
	}
	return ImportName{Original: name, Local: alias}, true
}

// processExport handles every form of export statement.
func (p *TypeScriptParser) processExport(n *sitter.Node, r *tsReader, file *ParsedFile) {
	var (
		isDefault bool
		typeOnly  bool
		star      bool
		nsExport  bool
		source    string
		clause    *sitter.Node
	)

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "default":
			isDefault = true
		case "type":
			typeOnly = true
		case "*":
			star = true
		case "namespace_export":
			nsExport = true
		case "export_clause":
			clause = child
		case "string":
			source = p.extractStringContent(child, r)
		case "identifier":
			// export default Foo;
			if isDefault {
				file.DefaultExport = r.text(child)
			}
		case "decorator", "comment":
		default:
			if !child.IsNamed() {
				continue
			}
			names := p.processDeclaration(child, r, file)
			if isDefault {
				if len(names) > 0 {
					file.DefaultExport = names[0]
				}
				continue
			}
			for _, name := range names {
				file.AddExport(name)
			}
		}
	}

	line := int(n.StartPoint().Row) + 1

	if clause != nil {
		var names []ImportName
		for _, spec := range namedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			if name, ok := p.extractSpecifier(spec, r); ok {
				names = append(names, name)
			}
		}

		if source != "" {
			// export { A as B } from './a'
			file.Imports = append(file.Imports, Import{
				Specifier: source,
				Names:     names,
				TypeOnly:  typeOnly,
				ReExport:  true,
				Line:      line,
			})
			for _, name := range names {
				if name.Local == "default" {
					file.DefaultExport = name.Local
					continue
				}
				file.AddExport(name.Local)
			}
			return
		}

		// export { A, B as C }
		for _, name := range names {
			if name.Local == "default" {
				file.DefaultExport = name.Original
				continue
			}
			file.AddExport(name.Local)
			if name.Local != name.Original {
				file.ExportAliases[name.Local] = name.Original
			}
		}
		return
	}

	if star && source != "" && !nsExport {
		// export * from './a'
		file.Imports = append(file.Imports, Import{
			Specifier:   source,
			TypeOnly:    typeOnly,
			ReExportAll: true,
			Line:        line,
		})
	}
}

// processClass extracts a class or abstract class declaration.
func (p *TypeScriptParser) processClass(n *sitter.Node, r *tsReader) *ClassDecl {
	d := &ClassDecl{Line: int(n.StartPoint().Row) + 1}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "abstract":
			d.Abstract = true
		case "type_identifier", "identifier":
			if d.Name == "" {
				d.Name = r.text(child)
			}
		case "type_parameters":
			d.TypeParameters = r.parseTypeParameters(child)
		case "class_heritage":
			d.Extends, d.Implements = p.extractClassHeritage(child, r)
		case "class_body":
			d.Members, _ = r.parseObjectMembers(child)
		}
	}

	if d.Name == "" {
		return nil
	}
	return d
}

// extractClassHeritage reads extends and implements clauses.
func (p *TypeScriptParser) extractClassHeritage(n *sitter.Node, r *tsReader) (extends, implements []Type) {
	for _, clause := range namedChildren(n) {
		switch clause.Type() {
		case "extends_clause":
			var last *ReferenceType
			for _, c := range namedChildren(clause) {
				switch c.Type() {
				case "identifier", "member_expression", "nested_identifier", "type_identifier":
					last = &ReferenceType{Name: r.text(c)}
					extends = append(extends, last)
				case "type_arguments":
					if last != nil {
						last.Args = r.parseTypeList(c)
					}
				case "generic_type":
					extends = append(extends, r.parseType(c))
					last = nil
				default:
					// extends mixin(Base)
					extends = append(extends, r.raw(c))
					last = nil
				}
			}
		case "implements_clause":
			for _, c := range namedChildren(clause) {
				implements = append(implements, r.parseType(c))
			}
		}
	}
	return extends, implements
}

// processInterface extracts an interface declaration.
func (p *TypeScriptParser) processInterface(n *sitter.Node, r *tsReader) *InterfaceDecl {
	d := &InterfaceDecl{Line: int(n.StartPoint().Row) + 1}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "type_identifier":
			d.Name = r.text(child)
		case "type_parameters":
			d.TypeParameters = r.parseTypeParameters(child)
		case "extends_type_clause":
			d.Extends = r.parseTypeList(child)
		case "interface_body", "object_type":
			members, ok := r.parseObjectMembers(child)
			if ok {
				d.Members = members
			}
		}
	}

	if d.Name == "" {
		return nil
	}
	return d
}

// processEnum extracts an enum declaration and its member names.
func (p *TypeScriptParser) processEnum(n *sitter.Node, r *tsReader) *EnumDecl {
	d := &EnumDecl{Line: int(n.StartPoint().Row) + 1}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "const":
			d.Const = true
		case "identifier":
			d.Name = r.text(child)
		case "enum_body":
			for _, m := range namedChildren(child) {
				switch m.Type() {
				case "property_identifier", "string":
					d.Values = append(d.Values, strings.Trim(r.text(m), `"'`))
				case "enum_assignment":
					if kids := namedChildren(m); len(kids) > 0 {
						d.Values = append(d.Values, strings.Trim(r.text(kids[0]), `"'`))
					}
				}
			}
		}
	}

	if d.Name == "" {
		return nil
	}
	return d
}

// processTypeAlias extracts type Name<T> = value.
func (p *TypeScriptParser) processTypeAlias(n *sitter.Node, r *tsReader) *TypeAliasDecl {
	d := &TypeAliasDecl{Line: int(n.StartPoint().Row) + 1}

	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = r.text(name)
	}
	if tps := n.ChildByFieldName("type_parameters"); tps != nil {
		d.TypeParameters = r.parseTypeParameters(tps)
	}
	if value := n.ChildByFieldName("value"); value != nil {
		d.Value = r.parseType(value)
	}

	if d.Name == "" || d.Value == nil {
		return nil
	}
	return d
}

// processFunction extracts a function declaration or overload signature.
func (p *TypeScriptParser) processFunction(n *sitter.Node, r *tsReader) *FunctionDecl {
	d := &FunctionDecl{Line: int(n.StartPoint().Row) + 1}
	p.fillFunction(n, r, d)
	if d.Name == "" {
		return nil
	}
	return d
}

// fillFunction reads the signature and body of a function-like node.
func (p *TypeScriptParser) fillFunction(n *sitter.Node, r *tsReader, d *FunctionDecl) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "async":
			d.Async = true
		case "identifier":
			if d.Name == "" {
				d.Name = r.text(child)
			} else if n.Type() == "arrow_function" && len(d.Params) == 0 {
				// x => ... arrow function with a bare parameter
				d.Params = []Parameter{{Name: r.text(child)}}
			}
		case "type_parameters":
			d.TypeParameters = r.parseTypeParameters(child)
		case "formal_parameters":
			d.Params, _ = r.parseParameters(child)
		case "type_annotation", "type_predicate_annotation", "asserts_annotation":
			d.Return = r.annotationType(child)
		case "statement_block":
			d.BodyReferences = r.bodyReferences(child)
		}
	}
}

// processVariables records const f = (...) => ... bindings as functions and
// returns every bound name.
func (p *TypeScriptParser) processVariables(n *sitter.Node, r *tsReader, file *ParsedFile) []string {
	var names []string
	for _, decl := range namedChildren(n) {
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := r.text(nameNode)
		names = append(names, name)

		value := decl.ChildByFieldName("value")
		if value == nil {
			continue
		}
		switch value.Type() {
		case "arrow_function", "function", "function_expression":
			fn := &FunctionDecl{Name: name, Line: int(decl.StartPoint().Row) + 1}
			p.fillFunction(value, r, fn)
			fn.Name = name
			if body := value.ChildByFieldName("body"); body != nil && body.Type() != "statement_block" {
				fn.BodyReferences = r.bodyReferences(body)
			}
			file.AddDeclaration(fn)
		}
	}
	return names
}

// extractStringContent extracts the content from a string node.
func (p *TypeScriptParser) extractStringContent(n *sitter.Node, r *tsReader) string {
	for _, c := range namedChildren(n) {
		if c.Type() == "string_fragment" {
			return r.text(c)
		}
	}
	// Fallback: strip quotes from raw content
	return strings.Trim(r.text(n), "\"'`")
}
