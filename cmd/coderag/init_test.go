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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/coderag/internal/config"
	"github.com/kraklabs/coderag/internal/errors"
	"github.com/kraklabs/coderag/internal/ui"
	"github.com/kraklabs/coderag/pkg/ingestion"
)

func TestRunInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "coderag.yaml")

	require.NoError(t, runInit([]string{"--path", path}, GlobalFlags{Quiet: true}))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestRunInit_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coderag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	err := runInit([]string{"--path", path}, GlobalFlags{Quiet: true})
	assert.Equal(t, errors.ExitInput, errors.ExitCode(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "logging:\n  level: debug\n", string(data), "existing file is untouched")

	require.NoError(t, runInit([]string{"--path", path, "--force"}, GlobalFlags{Quiet: true}))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestRunInit_RejectsExtraArguments(t *testing.T) {
	err := runInit([]string{"extra"}, GlobalFlags{Quiet: true})
	assert.Equal(t, errors.ExitInput, errors.ExitCode(err))
}

func TestPrintLanguages(t *testing.T) {
	ui.InitColors(true)
	var buf bytes.Buffer

	printLanguages(ui.NewPrinter(&buf, false), []ingestion.LanguageInfo{
		{Language: "rust", Extensions: []string{"rs"}},
		{Language: "typescript", Extensions: []string{"mts", "ts"}},
	})

	assert.Equal(t, "Supported Languages\n===================\n"+
		"  rust       .rs\n"+
		"  typescript .mts .ts\n", buf.String())
}

func TestRunLanguages(t *testing.T) {
	assert.NoError(t, runLanguages(nil, GlobalFlags{Quiet: true}))
	assert.Equal(t, errors.ExitInput, errors.ExitCode(runLanguages([]string{"--bogus"}, GlobalFlags{})))
}
