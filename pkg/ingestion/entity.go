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

// EntityKind classifies an extracted declaration.
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindType     EntityKind = "type"
	KindModule   EntityKind = "module"
	KindConstant EntityKind = "constant"
)

// SourceFile is a file admitted by the walker, read as UTF-8 text.
type SourceFile struct {
	// Path is relative to the repository root, with forward slashes.
	Path    string
	Content string
}

// CodeEntity describes one top-level declaration found in one file.
type CodeEntity struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Kind    EntityKind `json:"kind"`
	Details string     `json:"details"`

	// Provenance
	Language  string `json:"language"`
	Path      string `json:"path"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine int    `json:"start_line"` // 1-based
	EndLine   int    `json:"end_line"`   // 1-based
}

// DiagnosticReason says why a file contributed no entities.
type DiagnosticReason string

const (
	ReasonTooLarge    DiagnosticReason = "too_large"
	ReasonInvalidUTF8 DiagnosticReason = "invalid_utf8"
	ReasonReadError   DiagnosticReason = "read_error"
	ReasonParseError  DiagnosticReason = "parse_error"
	ReasonTimeout     DiagnosticReason = "timeout"
)

// Diagnostic records a file that was skipped or failed.
type Diagnostic struct {
	Path    string           `json:"path"`
	Reason  DiagnosticReason `json:"reason"`
	Message string           `json:"message"`
}

// Corpus is the ordered output of one pipeline run.
//
// Entities appear in file traversal order, then declaration order within a
// file. Duplicate names across files are kept.
type Corpus struct {
	Entities    []CodeEntity `json:"entities"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// DiagnosticSummary condenses diagnostics for end-of-run reporting.
type DiagnosticSummary struct {
	Total    int                      `json:"total"`
	ByReason map[DiagnosticReason]int `json:"by_reason"`
	Examples []Diagnostic             `json:"examples,omitempty"`
}

// Summary counts diagnostics per reason and keeps the first maxExamples
// entries as examples.
func (c *Corpus) Summary(maxExamples int) DiagnosticSummary {
	s := DiagnosticSummary{
		Total:    len(c.Diagnostics),
		ByReason: make(map[DiagnosticReason]int),
	}
	for _, d := range c.Diagnostics {
		s.ByReason[d.Reason]++
	}
	if maxExamples > len(c.Diagnostics) {
		maxExamples = len(c.Diagnostics)
	}
	if maxExamples > 0 {
		s.Examples = append([]Diagnostic(nil), c.Diagnostics[:maxExamples]...)
	}
	return s
}
