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

package testing

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// RustHello and RustAdd are the two-file fixture used across packages.
const (
	RustHello = "fn hello() {\n    println!(\"hello\");\n}\n"
	RustAdd   = "pub fn add(a: i32, b: i32) -> i32 {\n    a + b\n}\n"

	// RustBroken has an unterminated block.
	RustBroken = "fn broken() {\n    let x = 1;\n"
)

// WriteTree creates files under root. Keys are slash separated relative
// paths; parent directories are created as needed.
//
// Example:
//
//	root := t.TempDir()
//	testing.WriteTree(t, root, map[string]string{
//	    "src/main.rs": testing.RustHello,
//	})
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte(files[p]), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

// NewTree creates a temporary directory populated with files and returns
// its path. The directory is removed when the test finishes.
func NewTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, files)
	return root
}

// RustRepo returns a tree with src/main.rs (hello) and src/lib.rs (add).
func RustRepo(t *testing.T) string {
	t.Helper()
	return NewTree(t, map[string]string{
		"src/main.rs": RustHello,
		"src/lib.rs":  RustAdd,
	})
}

// Symlink creates a symbolic link at root/link pointing to target,
// skipping the test where symlinks are unavailable.
func Symlink(t *testing.T, root, target, link string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(link))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", link, err)
	}
	if err := os.Symlink(target, full); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
}

// LargeFile writes a file of size bytes filled with a valid comment line.
func LargeFile(t *testing.T, root, rel string, size int) {
	t.Helper()
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, "//")
	WriteTree(t, root, map[string]string{rel: string(buf)})
}
