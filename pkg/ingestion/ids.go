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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// GenerateEntityID returns a deterministic ID for a declaration.
// Strategy: hash(path + kind + name + byte range).
// The byte range keeps same-named declarations in one file distinct, so
// re-running over an unchanged tree always yields the same IDs.
func GenerateEntityID(filePath string, kind EntityKind, name string, startByte, endByte uint32) string {
	idStr := fmt.Sprintf("%s|%s|%s|%d|%d", normalizePath(filePath), kind, name, startByte, endByte)
	hash := sha256.Sum256([]byte(idStr))
	return fmt.Sprintf("%s:%s", kind, hex.EncodeToString(hash[:16]))
}

// normalizePath normalizes a file path for consistent ID generation:
// leading "./" and "/" are removed and separators become forward slashes.
func normalizePath(p string) string {
	if len(p) >= 2 && p[0:2] == "./" {
		p = p[2:]
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	return p
}
