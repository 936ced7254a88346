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
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

// Skip reasons reported in WalkStats.SkipReasons and Result.SkipReasons.
const (
	SkipExcludedDir  = "excluded_dir"
	SkipExcludedGlob = "excluded_glob"
	SkipExtension    = "extension"
	SkipTooLarge     = "too_large"
	SkipSymlinkCycle = "symlink_cycle"
	SkipDuplicate    = "duplicate_file"
	SkipSymlink      = "symlink"
	SkipIrregular    = "irregular"
	SkipUnreadable   = "unreadable"
	SkipUnsupported  = "unsupported_language"
)

// FileCandidate is a file that passed every walk filter.
type FileCandidate struct {
	// Index is the position of the file in traversal order.
	Index     int
	Path      string // relative, slash separated
	FullPath  string
	Size      int64
	Extension string
}

// IndexedDiagnostic is a diagnostic tagged with its traversal index.
type IndexedDiagnostic struct {
	Index      int
	Diagnostic Diagnostic
}

// WalkStats summarizes one traversal.
type WalkStats struct {
	Directories int
	Candidates  int
	SkipReasons map[string]int
	// Diagnostics holds files that matched the filters but were not
	// handed to visit (oversized files).
	Diagnostics []IndexedDiagnostic
}

// Walker enumerates the ingestible files of a repository.
type Walker struct {
	cfg          ParserConfig
	logger       *slog.Logger
	extensions   map[string]struct{}
	excludeDirs  map[string]struct{}
	excludeGlobs []glob.Glob
}

// NewWalker validates cfg and compiles its exclude globs.
func NewWalker(cfg ParserConfig, logger *slog.Logger) (*Walker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &Walker{
		cfg:         cfg,
		logger:      logger,
		extensions:  make(map[string]struct{}, len(cfg.Extensions)),
		excludeDirs: make(map[string]struct{}, len(cfg.ExcludeDirs)),
	}
	for _, ext := range cfg.Extensions {
		w.extensions[normalizeExtension(ext)] = struct{}{}
	}
	for _, dir := range cfg.ExcludeDirs {
		w.excludeDirs[dir] = struct{}{}
	}
	for _, pattern := range cfg.ExcludeGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, &ConfigError{Field: "exclude_globs", Message: err.Error()}
		}
		w.excludeGlobs = append(w.excludeGlobs, g)
	}
	return w, nil
}

type walkState struct {
	root    string
	visit   func(FileCandidate) error
	stats   *WalkStats
	visited map[string]struct{} // canonical directory paths
	files   map[string]struct{} // canonical file paths
	next    int
}

func (s *walkState) skip(reason string) { s.stats.SkipReasons[reason]++ }

// Walk traverses root depth-first in lexical order and calls visit for every
// admitted file. Excluded directories are never descended into, and a
// directory or file reached twice through symlinks is only taken once, at
// the first path in traversal order.
//
// A non-nil error from visit or a cancelled ctx stops the walk and is
// returned. Unreadable subdirectories are logged and skipped.
func (w *Walker) Walk(ctx context.Context, root string, visit func(FileCandidate) error) (*WalkStats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, absRoot)
	}

	st := &walkState{
		root:    absRoot,
		visit:   visit,
		stats:   &WalkStats{SkipReasons: make(map[string]int)},
		visited: make(map[string]struct{}),
		files:   make(map[string]struct{}),
	}

	w.logger.Debug("walk.start", "root", absRoot)
	if err := w.walkDir(ctx, st, absRoot, ""); err != nil {
		return st.stats, err
	}
	w.logger.Debug("walk.complete",
		"root", absRoot,
		"directories", st.stats.Directories,
		"candidates", st.stats.Candidates,
		"skip_reasons", st.stats.SkipReasons,
	)
	return st.stats, nil
}

func (w *Walker) walkDir(ctx context.Context, st *walkState, dir, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if rel == "" {
			return fmt.Errorf("resolve root: %w", err)
		}
		w.logger.Warn("walk.dir.error", "path", rel, "err", err)
		st.skip(SkipUnreadable)
		return nil
	}
	if _, seen := st.visited[canonical]; seen {
		w.logger.Warn("walk.skip.symlink_cycle", "path", rel, "target", canonical)
		st.skip(SkipSymlinkCycle)
		return nil
	}
	st.visited[canonical] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return fmt.Errorf("read root: %w", err)
		}
		// Log but continue on permission errors
		w.logger.Warn("walk.dir.error", "path", rel, "err", err)
		st.skip(SkipUnreadable)
		return nil
	}
	st.stats.Directories++

	for _, entry := range entries {
		name := entry.Name()
		fullPath := filepath.Join(dir, name)
		relPath := path.Join(rel, name)

		isDir := entry.IsDir()
		var info fs.FileInfo
		if entry.Type()&fs.ModeSymlink != 0 {
			if !w.cfg.FollowSymlinks {
				st.skip(SkipSymlink)
				continue
			}
			info, err = os.Stat(fullPath)
			if err != nil {
				w.logger.Debug("walk.skip.broken_symlink", "path", relPath, "err", err)
				st.skip(SkipUnreadable)
				continue
			}
			isDir = info.IsDir()
		}

		if isDir {
			if _, excluded := w.excludeDirs[name]; excluded {
				st.skip(SkipExcludedDir)
				continue
			}
			if w.excludedByGlob(relPath) {
				st.skip(SkipExcludedGlob)
				continue
			}
			if err := w.walkDir(ctx, st, fullPath, relPath); err != nil {
				return err
			}
			continue
		}

		ext := fileExtension(name)
		if _, ok := w.extensions[ext]; !ok {
			st.skip(SkipExtension)
			continue
		}
		if w.excludedByGlob(relPath) {
			st.skip(SkipExcludedGlob)
			continue
		}

		if info == nil {
			info, err = entry.Info()
			if err != nil {
				w.logger.Warn("walk.file.error", "path", relPath, "err", err)
				st.skip(SkipUnreadable)
				continue
			}
		}
		if !info.Mode().IsRegular() {
			st.skip(SkipIrregular)
			continue
		}
		if w.cfg.FollowSymlinks {
			canonical, err := filepath.EvalSymlinks(fullPath)
			if err != nil {
				w.logger.Warn("walk.file.error", "path", relPath, "err", err)
				st.skip(SkipUnreadable)
				continue
			}
			if _, seen := st.files[canonical]; seen {
				w.logger.Debug("walk.skip.duplicate_file", "path", relPath, "target", canonical)
				st.skip(SkipDuplicate)
				continue
			}
			st.files[canonical] = struct{}{}
		}

		index := st.next
		st.next++

		if info.Size() > w.cfg.MaxFileSize {
			w.logger.Warn("walk.skip.too_large",
				"path", relPath,
				"size", info.Size(),
				"limit", w.cfg.MaxFileSize,
			)
			st.skip(SkipTooLarge)
			st.stats.Diagnostics = append(st.stats.Diagnostics, IndexedDiagnostic{
				Index: index,
				Diagnostic: Diagnostic{
					Path:    relPath,
					Reason:  ReasonTooLarge,
					Message: fmt.Sprintf("%d bytes exceeds limit of %d", info.Size(), w.cfg.MaxFileSize),
				},
			})
			continue
		}

		st.stats.Candidates++
		if err := st.visit(FileCandidate{
			Index:     index,
			Path:      relPath,
			FullPath:  fullPath,
			Size:      info.Size(),
			Extension: ext,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) excludedByGlob(relPath string) bool {
	for _, g := range w.excludeGlobs {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// fileExtension returns the extension of name without the dot, or "" when
// there is none. Dotfiles such as ".gitignore" have no extension.
func fileExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	return ext[1:]
}

// ReadSourceFile reads a candidate as UTF-8 text, reading at most maxSize
// bytes.
func ReadSourceFile(c FileCandidate, maxSize int64) (SourceFile, error) {
	f, err := os.Open(c.FullPath)
	if err != nil {
		return SourceFile{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return SourceFile{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(content)) > maxSize {
		return SourceFile{}, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		return SourceFile{}, ErrInvalidUTF8
	}
	return SourceFile{Path: c.Path, Content: string(content)}, nil
}
