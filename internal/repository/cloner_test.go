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
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/kraklabs/coderag/internal/testing"
)

// initRepo commits a small Rust tree into a fresh repository.
func initRepo(t *testing.T) string {
	t.Helper()
	dir := testutil.RustRepo(t)

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddGlob("src"))
	_, err = wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "coderag", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestGitCloner_LocalRepository(t *testing.T) {
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available for local transport")
	}
	src := initRepo(t)
	dest := filepath.Join(t.TempDir(), "clone")

	err := GitCloner{}.Clone(context.Background(), CloneOptions{URL: src, Dest: dest})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dest, "src", "lib.rs"))
	require.NoError(t, err)
	assert.Equal(t, testutil.RustAdd, string(data))
}

func TestGitCloner_MissingRemote(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "clone")

	err := GitCloner{}.Clone(context.Background(), CloneOptions{URL: filepath.Join(t.TempDir(), "nope"), Dest: dest})

	assert.Error(t, err)
}
