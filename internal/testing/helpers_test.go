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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteTree verifies nested files and directories are created.
func TestWriteTree(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"a/b/c.rs": "fn c() {}",
		"top.txt":  "x",
	})

	data, err := os.ReadFile(filepath.Join(root, "a", "b", "c.rs"))
	require.NoError(t, err)
	assert.Equal(t, "fn c() {}", string(data))

	_, err = os.Stat(filepath.Join(root, "top.txt"))
	assert.NoError(t, err)
}

// TestRustRepo verifies the canonical fixture layout.
func TestRustRepo(t *testing.T) {
	root := RustRepo(t)

	main, err := os.ReadFile(filepath.Join(root, "src", "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, RustHello, string(main))

	lib, err := os.ReadFile(filepath.Join(root, "src", "lib.rs"))
	require.NoError(t, err)
	assert.Equal(t, RustAdd, string(lib))
}

// TestLargeFile verifies the requested size is honored.
func TestLargeFile(t *testing.T) {
	root := t.TempDir()
	LargeFile(t, root, "big.rs", 4096)

	info, err := os.Stat(filepath.Join(root, "big.rs"))
	require.NoError(t, err)
	assert.EqualValues(t, 4096, info.Size())
}
