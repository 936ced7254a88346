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

// Package ingestion walks a source repository and extracts a flat,
// language-agnostic catalog of top-level code entities.
//
// # Pipeline Overview
//
// A run moves every file through four stages:
//
//  1. Walk: enumerate the tree, pruning excluded directories and globs,
//     keeping files whose extension is configured and whose size fits
//  2. Route: pick the backend registered for the file extension
//  3. Extract: parse with Tree-sitter and map top-level declarations
//     to CodeEntity records
//  4. Aggregate: restore traversal order and collect diagnostics
//
// Files are processed by a bounded worker pool. One bad file never aborts a
// run: it yields a Diagnostic and zero entities, while its siblings are
// extracted normally.
//
// # Supported Languages
//
// Built-in backends (see languages.go):
//   - Rust (.rs)
//   - Go (.go)
//   - Python (.py)
//   - JavaScript (.js, .jsx, .mjs, .cjs)
//   - TypeScript (.ts, .mts, .cts)
//   - TSX (.tsx)
//
// Which of them run is still decided by ParserConfig.Extensions. The
// default configuration only admits "rs".
//
// # Quick Start
//
//	registry, err := ingestion.NewDefaultRegistry(ingestion.RegistryOptions{Logger: logger})
//	if err != nil {
//	    return err // grammar failed to initialize
//	}
//	defer registry.Close()
//
//	pipeline, err := ingestion.NewPipeline(ingestion.DefaultParserConfig(), registry, logger)
//	if err != nil {
//	    return err
//	}
//
//	result, err := pipeline.Run(ctx, "/path/to/repo")
//	if err != nil {
//	    return err
//	}
//	for _, e := range result.Corpus.Entities {
//	    fmt.Println(e.Kind, e.Name, e.Path)
//	}
//
// # Error Handling
//
// Startup problems are fatal and returned from the constructors:
// GrammarInitError, ErrDuplicateExtension and ConfigError. Everything that
// can go wrong with a single file is recorded in Corpus.Diagnostics. A
// declaration without a name is skipped and counted in
// Result.SkippedDeclarations.
package ingestion
