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

import "sort"

// FileResult is what a worker reports for one file.
type FileResult struct {
	Index int
	Path  string

	// Language is empty when no backend claimed the file.
	Language   string
	Extraction *Extraction
	Err        error
}

// Aggregator assembles per-file results into a Corpus.
//
// Results may arrive in any order; Corpus restores traversal order using
// FileResult.Index. An Aggregator is not safe for concurrent use.
type Aggregator struct {
	results     []FileResult
	diagnostics []IndexedDiagnostic
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records one file's outcome. Results with neither an extraction nor an
// error (unrouted files) contribute nothing.
func (a *Aggregator) Add(r FileResult) {
	if r.Err != nil {
		a.diagnostics = append(a.diagnostics, IndexedDiagnostic{
			Index:      r.Index,
			Diagnostic: diagnosticFor(r.Path, r.Err),
		})
		return
	}
	if r.Extraction != nil {
		a.results = append(a.results, r)
	}
}

// AddDiagnostic records a file that was rejected before extraction.
func (a *Aggregator) AddDiagnostic(d IndexedDiagnostic) {
	a.diagnostics = append(a.diagnostics, d)
}

// Corpus returns entities and diagnostics in traversal order. Entities are
// never deduplicated.
func (a *Aggregator) Corpus() *Corpus {
	sort.SliceStable(a.results, func(i, j int) bool { return a.results[i].Index < a.results[j].Index })
	sort.SliceStable(a.diagnostics, func(i, j int) bool { return a.diagnostics[i].Index < a.diagnostics[j].Index })

	c := &Corpus{
		Entities:    make([]CodeEntity, 0),
		Diagnostics: make([]Diagnostic, 0, len(a.diagnostics)),
	}
	for _, r := range a.results {
		c.Entities = append(c.Entities, r.Extraction.Entities...)
	}
	for _, d := range a.diagnostics {
		c.Diagnostics = append(c.Diagnostics, d.Diagnostic)
	}
	return c
}
