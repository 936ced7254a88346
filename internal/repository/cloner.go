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
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CloneOptions describes one clone.
type CloneOptions struct {
	URL  string
	Dest string

	// Branch limits the clone to one branch. Empty means the remote HEAD.
	Branch string

	// Depth truncates history; zero clones everything.
	Depth int

	// Progress receives the remote's sideband output when non-nil.
	Progress io.Writer
}

// Cloner clones a remote repository into a local directory.
type Cloner interface {
	Clone(ctx context.Context, opts CloneOptions) error
}

// GitCloner clones in-process with go-git; no git binary is required for
// network remotes.
type GitCloner struct{}

// Clone implements Cloner.
func (GitCloner) Clone(ctx context.Context, opts CloneOptions) error {
	co := &gogit.CloneOptions{
		URL:      opts.URL,
		Depth:    opts.Depth,
		Progress: opts.Progress,
		Tags:     gogit.NoTags,
	}
	if opts.Branch != "" {
		co.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		co.SingleBranch = true
	}

	if _, err := gogit.PlainCloneContext(ctx, opts.Dest, false, co); err != nil {
		return fmt.Errorf("git clone: %w", err)
	}
	return nil
}
