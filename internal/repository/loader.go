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

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	// validGitURLPattern matches ssh style git URLs
	// (git@github.com:user/repo.git, ssh://git@host/repo).
	validGitURLPattern = regexp.MustCompile(`^(git@|ssh://)[\w.\-@:/%~]+$`)

	// dangerousCharsPattern matches shell metacharacters that never belong in a remote.
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// ErrInvalidURL is wrapped by every URL validation failure.
var ErrInvalidURL = errors.New("invalid git URL")

// SourceKind tells a remote from a local directory.
type SourceKind string

const (
	SourceGitURL    SourceKind = "git_url"
	SourceLocalPath SourceKind = "local_path"
)

// Source is what the user asked to index.
type Source struct {
	Kind  SourceKind
	Value string
}

// ParseSource classifies s by prefix: http(s)://, git@, ssh:// and file://
// are remotes, anything else is a local path.
func ParseSource(s string) Source {
	for _, prefix := range []string{"https://", "http://", "git@", "ssh://", "file://"} {
		if strings.HasPrefix(s, prefix) {
			return Source{Kind: SourceGitURL, Value: s}
		}
	}
	return Source{Kind: SourceLocalPath, Value: s}
}

// AcquireOptions controls how a remote is cloned.
type AcquireOptions struct {
	Branch string
	Depth  int

	// Dest is the clone target. Empty clones into a temporary directory
	// that Close removes.
	Dest string
}

// Loader turns a Source into a directory on disk.
type Loader struct {
	cloner     Cloner
	logger     *slog.Logger
	tempDirs   []string
	tempDirsMu sync.Mutex
}

// NewLoader creates a Loader. A nil cloner uses GitCloner.
func NewLoader(cloner Cloner, logger *slog.Logger) *Loader {
	if cloner == nil {
		cloner = GitCloner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cloner: cloner, logger: logger}
}

// Acquire returns the absolute root directory for src, cloning if needed.
func (l *Loader) Acquire(ctx context.Context, src Source, opts AcquireOptions) (string, error) {
	switch src.Kind {
	case SourceLocalPath:
		return l.localRoot(src.Value)
	case SourceGitURL:
		return l.clone(ctx, src.Value, opts)
	default:
		return "", fmt.Errorf("unsupported repo source type: %s", src.Kind)
	}
}

// Close removes temporary clone directories.
func (l *Loader) Close() error {
	l.tempDirsMu.Lock()
	defer l.tempDirsMu.Unlock()

	var lastErr error
	for _, dir := range l.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			l.logger.Warn("repo.cleanup.error", "dir", dir, "err", err)
			lastErr = err
		}
	}
	l.tempDirs = nil
	return lastErr
}

// TempDirs lists clone directories that Close will remove.
func (l *Loader) TempDirs() []string {
	l.tempDirsMu.Lock()
	defer l.tempDirsMu.Unlock()
	return append([]string(nil), l.tempDirs...)
}

// Keep forgets the temporary directories so Close leaves them on disk.
func (l *Loader) Keep() {
	l.tempDirsMu.Lock()
	l.tempDirs = nil
	l.tempDirsMu.Unlock()
}

func (l *Loader) localRoot(p string) (string, error) {
	root, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve local path: %w", err)
	}
	if err := validateLocalPath(root); err != nil {
		return "", fmt.Errorf("invalid local path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("stat local path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("local path is not a directory: %s", root)
	}
	return root, nil
}

func (l *Loader) clone(ctx context.Context, gitURL string, opts AcquireOptions) (string, error) {
	if err := validateGitURL(gitURL); err != nil {
		return "", err
	}

	dest := opts.Dest
	temp := dest == ""
	// created is set when this call owns dest and must remove it on failure.
	created := temp
	if temp {
		dir, err := os.MkdirTemp("", "coderag-clone-*")
		if err != nil {
			return "", fmt.Errorf("create temp dir: %w", err)
		}
		dest = dir
	} else {
		abs, err := filepath.Abs(dest)
		if err != nil {
			return "", fmt.Errorf("resolve clone path: %w", err)
		}
		dest = abs
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			created = true
		}
	}

	logURL := sanitizeURL(gitURL)
	l.logger.Info("repo.clone.start", "url", logURL, "dest", dest, "branch", opts.Branch)

	err := l.cloner.Clone(ctx, CloneOptions{
		URL:    gitURL,
		Dest:   dest,
		Branch: opts.Branch,
		Depth:  opts.Depth,
	})
	if err != nil {
		if created {
			if rmErr := os.RemoveAll(dest); rmErr != nil {
				l.logger.Warn("repo.cleanup.error", "dir", dest, "err", rmErr)
			}
		}
		return "", fmt.Errorf("clone %s: %w", logURL, err)
	}

	l.logger.Info("repo.clone.success", "url", logURL, "dest", dest)

	if temp {
		l.tempDirsMu.Lock()
		l.tempDirs = append(l.tempDirs, dest)
		l.tempDirsMu.Unlock()
	}
	return dest, nil
}

// validateGitURL rejects URLs with shell metacharacters, embedded
// passwords or an unsupported scheme.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("%w: contains dangerous characters", ErrInvalidURL)
	}

	switch {
	case strings.HasPrefix(gitURL, "http://"), strings.HasPrefix(gitURL, "https://"):
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%w: missing host", ErrInvalidURL)
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("%w: embedded password", ErrInvalidURL)
			}
		}
		return nil
	case strings.HasPrefix(gitURL, "git@"), strings.HasPrefix(gitURL, "ssh://"):
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("%w: malformed SSH URL", ErrInvalidURL)
		}
		return nil
	case strings.HasPrefix(gitURL, "file://"):
		return nil
	default:
		return fmt.Errorf("%w: scheme must be https://, git@, ssh:// or file://", ErrInvalidURL)
	}
}

// sanitizeURL drops query parameters and user info before logging.
func sanitizeURL(gitURL string) string {
	parsed, err := url.Parse(gitURL)
	if err != nil || parsed.Scheme == "" {
		return gitURL
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}

// sensitiveDirs are never indexed.
var sensitiveDirs = []string{"/etc", "/sys", "/proc", "/dev", "/boot"}

func validateLocalPath(absPath string) error {
	if absPath == "" || absPath == "/" {
		return fmt.Errorf("path is empty or root directory, which is not allowed")
	}
	for _, sensitive := range sensitiveDirs {
		if absPath == sensitive || strings.HasPrefix(absPath, sensitive+"/") {
			return fmt.Errorf("path is in sensitive system directory: %s", absPath)
		}
	}
	return nil
}
