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

// Package testing provides fixture helpers for coderag tests.
//
// Repository fixtures are plain directory trees under t.TempDir():
//
//	func TestMyFeature(t *testing.T) {
//	    root := testutil.NewTree(t, map[string]string{
//	        "src/main.rs": testutil.RustHello,
//	        "target/gen.rs": "fn generated() {}",
//	    })
//	    // walk or ingest root...
//	}
//
// RustRepo builds the canonical two-file fixture (src/main.rs defining
// hello, src/lib.rs defining add) used by ingestion and CLI tests.
package testing
