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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Backend extracts entities for one language.
//
// Implementations must be safe for concurrent use by the pipeline workers.
type Backend interface {
	// Language is a short lowercase name such as "rust".
	Language() string

	// Extensions lists the file extensions (without dot) this backend claims.
	Extensions() []string

	// Extract parses one file and returns its top-level entities. A returned
	// error is a per-file failure; the file contributes no entities.
	Extract(ctx context.Context, src SourceFile) (*Extraction, error)

	Close() error
}

// Extraction is the successful result of extracting one file.
type Extraction struct {
	Entities []CodeEntity

	// SkippedDeclarations counts recognized declarations that had no name.
	SkippedDeclarations int
}

// DeclarationRule maps a syntax node type to an entity kind.
type DeclarationRule struct {
	NodeType string
	Kind     EntityKind

	// NameField is the field holding the declaration name. Defaults to "name".
	NameField string

	// SpecTypes, when set, marks NodeType as a grouping node (Go's
	// "type ( ... )"): each child of one of these types is a separate
	// declaration and the name is read from the child.
	SpecTypes []string
}

func (r DeclarationRule) nameField() string {
	if r.NameField == "" {
		return "name"
	}
	return r.NameField
}

// Grammar describes a Tree-sitter language and its top-level declarations.
type Grammar struct {
	Name       string
	Extensions []string
	Language   func() *sitter.Language

	// RootType is the node type every parse of this grammar starts with.
	RootType string

	// Probe is a small valid snippet parsed once at construction to verify
	// the grammar actually loads.
	Probe string

	Declarations []DeclarationRule

	// Wrappers map a node type to the field holding the declaration it
	// wraps, e.g. export_statement -> declaration. An empty field means the
	// first named child.
	Wrappers map[string]string
}

// TreeSitterBackend extracts top-level declarations with a Tree-sitter
// grammar.
//
// sitter.Parser is not safe for concurrent use, so the backend keeps a fixed
// pool of parsers created at construction. Each Extract call checks one out
// for the duration of the parse.
type TreeSitterBackend struct {
	grammar Grammar
	rules   map[string]DeclarationRule
	parsers chan *sitter.Parser
	logger  *slog.Logger

	closeOnce sync.Once
	all       []*sitter.Parser
}

// NewTreeSitterBackend loads the grammar and creates poolSize parsers.
// Any failure is returned as *GrammarInitError.
func NewTreeSitterBackend(g Grammar, poolSize int, logger *slog.Logger) (*TreeSitterBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	if g.Language == nil {
		return nil, &GrammarInitError{Language: g.Name, Err: errors.New("no language loader")}
	}
	lang := g.Language()
	if lang == nil {
		return nil, &GrammarInitError{Language: g.Name, Err: errors.New("language loader returned nil")}
	}

	b := &TreeSitterBackend{
		grammar: g,
		rules:   make(map[string]DeclarationRule, len(g.Declarations)),
		parsers: make(chan *sitter.Parser, poolSize),
		logger:  logger.With("language", g.Name),
	}
	for _, r := range g.Declarations {
		b.rules[r.NodeType] = r
	}

	for i := 0; i < poolSize; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		b.all = append(b.all, p)
		b.parsers <- p
	}

	if err := b.probe(); err != nil {
		_ = b.Close()
		return nil, &GrammarInitError{Language: g.Name, Err: err}
	}
	return b, nil
}

// probe parses the grammar's probe snippet and checks the root node type.
func (b *TreeSitterBackend) probe() error {
	p := <-b.parsers
	defer func() { b.parsers <- p }()

	tree, err := p.ParseCtx(context.Background(), nil, []byte(b.grammar.Probe))
	if err != nil {
		return fmt.Errorf("probe parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return errors.New("probe parse produced no tree")
	}
	if b.grammar.RootType != "" && root.Type() != b.grammar.RootType {
		return fmt.Errorf("probe root is %q, want %q", root.Type(), b.grammar.RootType)
	}
	if root.HasError() {
		return errors.New("probe snippet does not parse cleanly")
	}
	return nil
}

func (b *TreeSitterBackend) Language() string { return b.grammar.Name }

// PoolSize is the number of files the backend can parse at once.
func (b *TreeSitterBackend) PoolSize() int { return cap(b.parsers) }

func (b *TreeSitterBackend) Extensions() []string {
	return append([]string(nil), b.grammar.Extensions...)
}

// Close releases every parser. It must not be called while Extract runs.
func (b *TreeSitterBackend) Close() error {
	b.closeOnce.Do(func() {
		for _, p := range b.all {
			p.Close()
		}
	})
	return nil
}

// Extract parses src and maps its top-level declarations to entities.
// Content with syntax errors yields an *ExtractError with reason
// parse_error; a ctx deadline yields reason timeout.
func (b *TreeSitterBackend) Extract(ctx context.Context, src SourceFile) (*Extraction, error) {
	if ctx.Err() != nil {
		return nil, b.ctxError(ctx, src.Path)
	}

	var p *sitter.Parser
	select {
	case p = <-b.parsers:
	case <-ctx.Done():
		return nil, b.ctxError(ctx, src.Path)
	}
	defer func() { b.parsers <- p }()

	content := []byte(src.Content)
	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		// A cancelled parse leaves state behind that the next parse would
		// resume from.
		p.Reset()
		if ctx.Err() != nil {
			return nil, b.ctxError(ctx, src.Path)
		}
		if err == nil {
			err = errors.New("parser returned no tree")
		}
		return nil, &ExtractError{Path: src.Path, Reason: ReasonParseError, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		ee := &ExtractError{Path: src.Path, Reason: ReasonParseError, Err: ErrSyntax}
		if n := firstErrorNode(root); n != nil {
			pt := n.StartPoint()
			ee.Line = int(pt.Row) + 1
			ee.Column = int(pt.Column) + 1
		}
		return nil, ee
	}

	ex := &Extraction{}
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		b.collect(root.NamedChild(i), src, content, ex)
	}
	return ex, nil
}

func (b *TreeSitterBackend) ctxError(ctx context.Context, path string) error {
	reason := ReasonTimeout
	if errors.Is(ctx.Err(), context.Canceled) {
		reason = ReasonParseError
	}
	return &ExtractError{Path: path, Reason: reason, Err: ctx.Err()}
}

// collect appends the entities declared by one top-level node.
func (b *TreeSitterBackend) collect(node *sitter.Node, src SourceFile, content []byte, ex *Extraction) {
	if node == nil {
		return
	}
	if field, ok := b.grammar.Wrappers[node.Type()]; ok {
		if field == "" {
			b.collect(node.NamedChild(0), src, content, ex)
		} else {
			b.collect(node.ChildByFieldName(field), src, content, ex)
		}
		return
	}

	rule, ok := b.rules[node.Type()]
	if !ok {
		return
	}
	if len(rule.SpecTypes) == 0 {
		b.emit(node, rule, src, content, ex)
		return
	}
	for _, spec := range specNodes(node, rule.SpecTypes) {
		b.emit(spec, rule, src, content, ex)
	}
}

func (b *TreeSitterBackend) emit(node *sitter.Node, rule DeclarationRule, src SourceFile, content []byte, ex *Extraction) {
	nameNode := node.ChildByFieldName(rule.nameField())
	var name string
	if nameNode != nil {
		name = strings.TrimSpace(nameNode.Content(content))
		if nameNode.Type() == "string" {
			// declare module "pkg"
			name = strings.Trim(name, `"'`)
		}
	}
	if name == "" {
		ex.SkippedDeclarations++
		b.logger.Debug("extract.skip.unnamed_declaration",
			"path", src.Path,
			"node", node.Type(),
			"line", node.StartPoint().Row+1,
		)
		return
	}

	start, end := node.StartByte(), node.EndByte()
	ex.Entities = append(ex.Entities, CodeEntity{
		ID:        GenerateEntityID(src.Path, rule.Kind, name, start, end),
		Name:      name,
		Kind:      rule.Kind,
		Language:  b.grammar.Name,
		Path:      src.Path,
		StartByte: start,
		EndByte:   end,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	})
}

// specNodes returns the children of a grouping declaration whose type is in
// specTypes, looking through one level of "*_list" wrappers.
func specNodes(node *sitter.Node, specTypes []string) []*sitter.Node {
	var out []*sitter.Node
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		switch {
		case containsString(specTypes, child.Type()):
			out = append(out, child)
		case strings.HasSuffix(child.Type(), "_list"):
			out = append(out, specNodes(child, specTypes)...)
		}
	}
	return out
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if n := firstErrorNode(node.Child(i)); n != nil {
			return n
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
