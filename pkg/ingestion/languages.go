// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// =============================================================================
// RUST
// =============================================================================

// RustGrammar extracts Rust items declared at file scope.
func RustGrammar() Grammar {
	return Grammar{
		Name:       "rust",
		Extensions: []string{"rs"},
		Language:   rust.GetLanguage,
		RootType:   "source_file",
		Probe:      "fn probe() {}\n",
		Declarations: []DeclarationRule{
			{NodeType: "function_item", Kind: KindFunction},
			{NodeType: "function_signature_item", Kind: KindFunction},
			{NodeType: "struct_item", Kind: KindType},
			{NodeType: "enum_item", Kind: KindType},
			{NodeType: "union_item", Kind: KindType},
			{NodeType: "trait_item", Kind: KindType},
			{NodeType: "type_item", Kind: KindType},
			{NodeType: "mod_item", Kind: KindModule},
			{NodeType: "const_item", Kind: KindConstant},
			{NodeType: "static_item", Kind: KindConstant},
		},
	}
}

// =============================================================================
// GO
// =============================================================================

// GoGrammar extracts Go functions, methods, types and constants.
func GoGrammar() Grammar {
	return Grammar{
		Name:       "go",
		Extensions: []string{"go"},
		Language:   golang.GetLanguage,
		RootType:   "source_file",
		Probe:      "package probe\n",
		Declarations: []DeclarationRule{
			{NodeType: "function_declaration", Kind: KindFunction},
			{NodeType: "method_declaration", Kind: KindFunction},
			{NodeType: "type_declaration", Kind: KindType, SpecTypes: []string{"type_spec", "type_alias"}},
			{NodeType: "const_declaration", Kind: KindConstant, SpecTypes: []string{"const_spec"}},
		},
	}
}

// =============================================================================
// PYTHON
// =============================================================================

// PythonGrammar extracts module-level functions and classes.
func PythonGrammar() Grammar {
	return Grammar{
		Name:       "python",
		Extensions: []string{"py"},
		Language:   python.GetLanguage,
		RootType:   "module",
		Probe:      "def probe():\n    pass\n",
		Declarations: []DeclarationRule{
			{NodeType: "function_definition", Kind: KindFunction},
			{NodeType: "class_definition", Kind: KindType},
		},
		Wrappers: map[string]string{
			"decorated_definition": "definition",
		},
	}
}

// =============================================================================
// JAVASCRIPT / TYPESCRIPT
// =============================================================================

var jsDeclarations = []DeclarationRule{
	{NodeType: "function_declaration", Kind: KindFunction},
	{NodeType: "generator_function_declaration", Kind: KindFunction},
	{NodeType: "class_declaration", Kind: KindType},
}

var tsDeclarations = append(append([]DeclarationRule(nil), jsDeclarations...),
	DeclarationRule{NodeType: "function_signature", Kind: KindFunction},
	DeclarationRule{NodeType: "abstract_class_declaration", Kind: KindType},
	DeclarationRule{NodeType: "interface_declaration", Kind: KindType},
	DeclarationRule{NodeType: "type_alias_declaration", Kind: KindType},
	DeclarationRule{NodeType: "enum_declaration", Kind: KindType},
	DeclarationRule{NodeType: "internal_module", Kind: KindModule},
	DeclarationRule{NodeType: "module", Kind: KindModule},
)

var esWrappers = map[string]string{
	"export_statement": "declaration",
}

// tsWrappers adds the nodes a top-level namespace or ambient declaration
// sits in.
var tsWrappers = map[string]string{
	"export_statement":     "declaration",
	"expression_statement": "",
	"ambient_declaration":  "",
}

// JavaScriptGrammar extracts top-level JavaScript functions and classes.
func JavaScriptGrammar() Grammar {
	return Grammar{
		Name:         "javascript",
		Extensions:   []string{"js", "jsx", "mjs", "cjs"},
		Language:     javascript.GetLanguage,
		RootType:     "program",
		Probe:        "function probe() {}\n",
		Declarations: jsDeclarations,
		Wrappers:     esWrappers,
	}
}

// TypeScriptGrammar extracts TypeScript declarations, including
// interfaces, type aliases, enums and namespaces.
func TypeScriptGrammar() Grammar {
	return Grammar{
		Name:         "typescript",
		Extensions:   []string{"ts", "mts", "cts"},
		Language:     typescript.GetLanguage,
		RootType:     "program",
		Probe:        "function probe(): void {}\n",
		Declarations: tsDeclarations,
		Wrappers:     tsWrappers,
	}
}

// TSXGrammar is TypeScriptGrammar for .tsx files.
func TSXGrammar() Grammar {
	g := TypeScriptGrammar()
	g.Name = "tsx"
	g.Extensions = []string{"tsx"}
	g.Language = tsx.GetLanguage
	return g
}

// BuiltinGrammars returns every grammar shipped with the package.
func BuiltinGrammars() []Grammar {
	return []Grammar{
		RustGrammar(),
		GoGrammar(),
		PythonGrammar(),
		JavaScriptGrammar(),
		TypeScriptGrammar(),
		TSXGrammar(),
	}
}
