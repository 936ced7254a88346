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
	"context"
	"sync"
	"testing"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/coderag/internal/testing"
)

func newBackend(t *testing.T, g Grammar) *TreeSitterBackend {
	t.Helper()
	b, err := NewTreeSitterBackend(g, 2, nil)
	require.NoError(t, err, "grammar %s should initialize", g.Name)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func extract(t *testing.T, b Backend, path, content string) *Extraction {
	t.Helper()
	ex, err := b.Extract(context.Background(), SourceFile{Path: path, Content: content})
	require.NoError(t, err)
	return ex
}

type nameKind struct {
	Name string
	Kind EntityKind
}

func namesAndKinds(es []CodeEntity) []nameKind {
	out := make([]nameKind, len(es))
	for i, e := range es {
		out[i] = nameKind{e.Name, e.Kind}
	}
	return out
}

func TestRustBackend_TopLevelFunctions(t *testing.T) {
	b := newBackend(t, RustGrammar())

	ex := extract(t, b, "src/lib.rs", testutil.RustAdd)

	require.Len(t, ex.Entities, 1)
	e := ex.Entities[0]
	assert.Equal(t, "add", e.Name)
	assert.Equal(t, KindFunction, e.Kind)
	assert.Empty(t, e.Details)
	assert.Equal(t, "rust", e.Language)
	assert.Equal(t, "src/lib.rs", e.Path)
	assert.Equal(t, 1, e.StartLine)
	assert.Equal(t, 3, e.EndLine)
	assert.EqualValues(t, 0, e.StartByte)
	assert.EqualValues(t, len(testutil.RustAdd)-1, e.EndByte)
	assert.Equal(t, GenerateEntityID("src/lib.rs", KindFunction, "add", e.StartByte, e.EndByte), e.ID)
}

func TestRustBackend_DeclarationKinds(t *testing.T) {
	b := newBackend(t, RustGrammar())
	src := `use std::fmt;

const LIMIT: usize = 10;
static GREETING: &str = "hi";

pub struct Point { x: i32, y: i32 }
enum Shape { Circle, Square }
trait Area { fn area(&self) -> f64; }
type Id = u64;
mod inner { fn hidden() {} }

impl Point {
    fn method(&self) {}
}

fn run() {
    fn nested() {}
}
`
	ex := extract(t, b, "lib.rs", src)

	assert.Equal(t, []nameKind{
		{"LIMIT", KindConstant},
		{"GREETING", KindConstant},
		{"Point", KindType},
		{"Shape", KindType},
		{"Area", KindType},
		{"Id", KindType},
		{"inner", KindModule},
		{"run", KindFunction},
	}, namesAndKinds(ex.Entities), "only top-level declarations, in source order")
	assert.Zero(t, ex.SkippedDeclarations)
}

func TestRustBackend_SyntaxErrorFailsFile(t *testing.T) {
	b := newBackend(t, RustGrammar())

	ex, err := b.Extract(context.Background(), SourceFile{
		Path:    "src/broken.rs",
		Content: "fn ok() {}\n" + testutil.RustBroken,
	})

	assert.Nil(t, ex, "a malformed file contributes no entities")
	var ee *ExtractError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "src/broken.rs", ee.Path)
	assert.Equal(t, ReasonParseError, ee.Reason)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Positive(t, ee.Line)
	assert.Contains(t, err.Error(), "src/broken.rs")
}

func TestRustBackend_EmptyFile(t *testing.T) {
	b := newBackend(t, RustGrammar())

	ex := extract(t, b, "empty.rs", "")

	assert.Empty(t, ex.Entities)
}

func TestBackend_CancelledContext(t *testing.T) {
	b := newBackend(t, RustGrammar())
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := b.Extract(ctx, SourceFile{Path: "slow.rs", Content: testutil.RustHello})

	var ee *ExtractError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ReasonTimeout, ee.Reason)

	// The parser pool is still usable afterwards.
	ex := extract(t, b, "ok.rs", testutil.RustHello)
	assert.Len(t, ex.Entities, 1)
}

func TestBackend_UnnamedDeclarationIsSkipped(t *testing.T) {
	g := RustGrammar()
	// Point the rule at a field function_item never has.
	g.Declarations = []DeclarationRule{{NodeType: "function_item", Kind: KindFunction, NameField: "label"}}
	b := newBackend(t, g)

	ex := extract(t, b, "a.rs", "fn a() {}\nfn b() {}\n")

	assert.Empty(t, ex.Entities)
	assert.Equal(t, 2, ex.SkippedDeclarations)
}

func TestBackend_ConcurrentExtract(t *testing.T) {
	b := newBackend(t, RustGrammar())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ex, err := b.Extract(context.Background(), SourceFile{Path: "x.rs", Content: testutil.RustHello})
			if err == nil && len(ex.Entities) != 1 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestNewTreeSitterBackend_GrammarInitFailure(t *testing.T) {
	tests := []struct {
		name    string
		grammar Grammar
	}{
		{
			name:    "no loader",
			grammar: Grammar{Name: "none"},
		},
		{
			name:    "nil language",
			grammar: Grammar{Name: "nil", Language: func() *sitter.Language { return nil }},
		},
		{
			name:    "wrong root type",
			grammar: Grammar{Name: "mismatch", Language: rust.GetLanguage, RootType: "program", Probe: "fn a() {}"},
		},
		{
			name:    "probe does not parse",
			grammar: Grammar{Name: "broken", Language: rust.GetLanguage, RootType: "source_file", Probe: "fn a( {"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTreeSitterBackend(tt.grammar, 1, nil)
			var gi *GrammarInitError
			require.ErrorAs(t, err, &gi)
			assert.Equal(t, tt.grammar.Name, gi.Language)
		})
	}
}

func TestGoBackend(t *testing.T) {
	b := newBackend(t, GoGrammar())
	src := `package sample

import "fmt"

const (
	A = 1
	B = 2
)

type (
	Server struct{}
	Handler interface{ Serve() }
)

type Alias = Server

func (s *Server) Start() error { return nil }

func main() {
	fmt.Println(A, B)
}
`
	ex := extract(t, b, "main.go", src)

	assert.Equal(t, []nameKind{
		{"A", KindConstant},
		{"B", KindConstant},
		{"Server", KindType},
		{"Handler", KindType},
		{"Alias", KindType},
		{"Start", KindFunction},
		{"main", KindFunction},
	}, namesAndKinds(ex.Entities))
}

func TestPythonBackend(t *testing.T) {
	b := newBackend(t, PythonGrammar())
	src := `import os

class Service:
    def method(self):
        pass

@decorator
def decorated():
    pass

def plain():
    def inner():
        pass
`
	ex := extract(t, b, "svc.py", src)

	assert.Equal(t, []nameKind{
		{"Service", KindType},
		{"decorated", KindFunction},
		{"plain", KindFunction},
	}, namesAndKinds(ex.Entities))
}

func TestJavaScriptBackend(t *testing.T) {
	b := newBackend(t, JavaScriptGrammar())
	src := `import x from "x";

export function exported() {}
function* gen() {}
class Widget {
  render() {}
}
const arrow = () => {};
`
	ex := extract(t, b, "app.js", src)

	assert.Equal(t, []nameKind{
		{"exported", KindFunction},
		{"gen", KindFunction},
		{"Widget", KindType},
	}, namesAndKinds(ex.Entities))
}

func TestTypeScriptBackend(t *testing.T) {
	b := newBackend(t, TypeScriptGrammar())
	src := `export interface User { id: string }
export type ID = string;
enum Color { Red, Green }
abstract class Base {}
export function load(id: ID): User { return { id }; }
`
	ex := extract(t, b, "user.ts", src)

	assert.Equal(t, []nameKind{
		{"User", KindType},
		{"ID", KindType},
		{"Color", KindType},
		{"Base", KindType},
		{"load", KindFunction},
	}, namesAndKinds(ex.Entities))
}

func TestTypeScriptBackend_Namespaces(t *testing.T) {
	b := newBackend(t, TypeScriptGrammar())
	src := `namespace Foo {
  export const x = 1;
}
module Bar {}
declare module "baz" {}
export namespace Q {}
declare function ambient(): void;
doSomething();
`
	ex := extract(t, b, "ns.ts", src)

	assert.Equal(t, []nameKind{
		{"Foo", KindModule},
		{"Bar", KindModule},
		{"baz", KindModule},
		{"Q", KindModule},
		{"ambient", KindFunction},
	}, namesAndKinds(ex.Entities))
	assert.Zero(t, ex.SkippedDeclarations)
}

func TestTSXBackend(t *testing.T) {
	b := newBackend(t, TSXGrammar())
	src := `export function App(): JSX.Element {
  return <div>hello</div>;
}
`
	ex := extract(t, b, "App.tsx", src)

	assert.Equal(t, []nameKind{{"App", KindFunction}}, namesAndKinds(ex.Entities))
	assert.Equal(t, "tsx", ex.Entities[0].Language)
}
