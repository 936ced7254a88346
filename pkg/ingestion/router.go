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
	"log/slog"
	"path"
	"runtime"
	"sort"
	"sync"
)

// Registry routes files to backends by extension.
//
// Register must complete before Route is called concurrently.
type Registry struct {
	mu       sync.RWMutex
	backends []Backend
	byExt    map[string]Backend
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Backend)}
}

// Register adds b. It fails with ErrDuplicateExtension if any of b's
// extensions is already claimed, in which case nothing is registered.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exts := b.Extensions()
	for _, ext := range exts {
		ext = normalizeExtension(ext)
		if owner, ok := r.byExt[ext]; ok {
			return fmt.Errorf("register %s for %q: %w (owner: %s)", b.Language(), ext, ErrDuplicateExtension, owner.Language())
		}
	}
	for _, ext := range exts {
		r.byExt[normalizeExtension(ext)] = b
	}
	r.backends = append(r.backends, b)
	return nil
}

// Route returns the backend claiming the extension of filePath.
func (r *Registry) Route(filePath string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := fileExtension(path.Base(filePath))
	if ext == "" {
		return nil, false
	}
	b, ok := r.byExt[ext]
	return b, ok
}

// Claims reports whether some backend handles ext.
func (r *Registry) Claims(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExt[normalizeExtension(ext)]
	return ok
}

// pooledBackend is implemented by backends that parse at most PoolSize
// files at once.
type pooledBackend interface {
	PoolSize() int
}

// Concurrency returns the smallest PoolSize among registered backends, or
// 0 when no backend bounds its concurrency.
func (r *Registry) Concurrency() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := 0
	for _, b := range r.backends {
		pb, ok := b.(pooledBackend)
		if !ok {
			continue
		}
		if n := pb.PoolSize(); n > 0 && (limit == 0 || n < limit) {
			limit = n
		}
	}
	return limit
}

// LanguageInfo describes a registered backend.
type LanguageInfo struct {
	Language   string   `json:"language"`
	Extensions []string `json:"extensions"`
}

// Languages lists registered backends in registration order.
func (r *Registry) Languages() []LanguageInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LanguageInfo, 0, len(r.backends))
	for _, b := range r.backends {
		exts := b.Extensions()
		sort.Strings(exts)
		out = append(out, LanguageInfo{Language: b.Language(), Extensions: exts})
	}
	return out
}

// Close closes every registered backend and returns the last error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			lastErr = err
		}
	}
	r.backends = nil
	r.byExt = make(map[string]Backend)
	return lastErr
}

// RegistryOptions configures NewDefaultRegistry.
type RegistryOptions struct {
	// PoolSize is the number of parsers per backend. It should match the
	// pipeline worker count. Zero means runtime.NumCPU().
	PoolSize int

	// Languages restricts the built-in grammars by name. Empty means all.
	Languages []string

	Logger *slog.Logger
}

// NewDefaultRegistry builds a registry with the built-in grammars.
// A grammar that fails to initialize aborts construction.
func NewDefaultRegistry(opts RegistryOptions) (*Registry, error) {
	return NewRegistryFromGrammars(BuiltinGrammars(), opts)
}

// NewRegistryFromGrammars builds a registry from grammars, honoring
// opts.Languages.
func NewRegistryFromGrammars(grammars []Grammar, opts RegistryOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	r := NewRegistry()
	for _, g := range grammars {
		if len(opts.Languages) > 0 && !containsString(opts.Languages, g.Name) {
			continue
		}
		b, err := NewTreeSitterBackend(g, poolSize, logger)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		if err := r.Register(b); err != nil {
			_ = b.Close()
			_ = r.Close()
			return nil, err
		}
		logger.Debug("registry.backend.registered", "language", g.Name, "extensions", g.Extensions, "parsers", poolSize)
	}
	return r, nil
}
