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
	"errors"
	"fmt"
)

var (
	// ErrDuplicateExtension is returned when two backends claim one extension.
	ErrDuplicateExtension = errors.New("extension already claimed by another backend")

	// ErrInvalidUTF8 is returned by ReadSourceFile for non UTF-8 content.
	ErrInvalidUTF8 = errors.New("file is not valid UTF-8")

	// ErrFileTooLarge is returned by ReadSourceFile when a file grew past the
	// limit between walking and reading.
	ErrFileTooLarge = errors.New("file exceeds max file size")

	// ErrSyntax marks content the grammar could not parse cleanly.
	ErrSyntax = errors.New("syntax error")

	// ErrRootNotDir is returned when the repository root is not a directory.
	ErrRootNotDir = errors.New("repository root is not a directory")
)

// ConfigError reports an invalid ParserConfig field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parser config: %s: %s", e.Field, e.Message)
}

// GrammarInitError reports a backend whose grammar could not be loaded.
// It is a deployment defect and aborts startup.
type GrammarInitError struct {
	Language string
	Err      error
}

func (e *GrammarInitError) Error() string {
	return fmt.Sprintf("initialize %s grammar: %v", e.Language, e.Err)
}

func (e *GrammarInitError) Unwrap() error { return e.Err }

// ExtractError is a recoverable, per-file extraction failure.
type ExtractError struct {
	Path   string
	Reason DiagnosticReason
	Line   int // 1-based position of the first error node, 0 if unknown
	Column int
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// diagnosticFor maps a per-file error onto a Diagnostic.
func diagnosticFor(path string, err error) Diagnostic {
	reason := ReasonReadError
	var ee *ExtractError
	switch {
	case errors.As(err, &ee):
		reason = ee.Reason
	case errors.Is(err, ErrInvalidUTF8):
		reason = ReasonInvalidUTF8
	case errors.Is(err, ErrFileTooLarge):
		reason = ReasonTooLarge
	}
	return Diagnostic{Path: path, Reason: reason, Message: err.Error()}
}
