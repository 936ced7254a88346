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
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// DefaultMaxFileSize is the default per-file size limit (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

// DefaultFileTimeout bounds a single file's extraction.
const DefaultFileTimeout = 30 * time.Second

// ParserConfig controls which files are ingested and how.
type ParserConfig struct {
	// MaxFileSize is the largest file, in bytes, that will be read.
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`

	// Extensions lists admitted file extensions without the leading dot.
	// Matching is case-sensitive.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// ExcludeDirs prunes every directory with one of these names.
	ExcludeDirs []string `yaml:"exclude_dirs" json:"exclude_dirs"`

	// ExcludeGlobs are matched against root-relative slash paths.
	// "*" stays within one path segment, "**" crosses segments.
	ExcludeGlobs []string `yaml:"exclude_globs,omitempty" json:"exclude_globs,omitempty"`

	FollowSymlinks bool `yaml:"follow_symlinks" json:"follow_symlinks"`

	// Workers is the extraction pool size. Zero means runtime.NumCPU().
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// FileTimeout bounds the extraction of one file. Zero disables it.
	FileTimeout time.Duration `yaml:"file_timeout,omitempty" json:"file_timeout,omitempty"`
}

// DefaultParserConfig returns the configuration used when none is given.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		MaxFileSize:    DefaultMaxFileSize,
		Extensions:     []string{"rs"},
		ExcludeDirs:    []string{"target", ".git"},
		FollowSymlinks: true,
		FileTimeout:    DefaultFileTimeout,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c ParserConfig) Validate() error {
	if c.MaxFileSize <= 0 {
		return &ConfigError{Field: "max_file_size", Message: "must be positive"}
	}
	if len(c.Extensions) == 0 {
		return &ConfigError{Field: "extensions", Message: "must not be empty"}
	}
	for _, ext := range c.Extensions {
		if normalizeExtension(ext) == "" {
			return &ConfigError{Field: "extensions", Message: "contains an empty extension"}
		}
	}
	for _, dir := range c.ExcludeDirs {
		if dir == "" || strings.ContainsRune(dir, '/') {
			return &ConfigError{Field: "exclude_dirs", Message: fmt.Sprintf("entries must be plain directory names, got %q", dir)}
		}
	}
	for _, pattern := range c.ExcludeGlobs {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return &ConfigError{Field: "exclude_globs", Message: fmt.Sprintf("bad pattern %q: %v", pattern, err)}
		}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Message: "must not be negative"}
	}
	if c.FileTimeout < 0 {
		return &ConfigError{Field: "file_timeout", Message: "must not be negative"}
	}
	return nil
}

// normalizeExtension strips a leading dot so ".rs" and "rs" are equivalent.
func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.TrimSpace(ext), ".")
}
