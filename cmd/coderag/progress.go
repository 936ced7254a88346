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
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/coderag/pkg/ingestion"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled indicates whether spinners should be shown.
	// Disabled when --json, -q flags are used, or when stderr is not a TTY.
	Enabled bool

	// Writer is where progress output goes (always os.Stderr).
	Writer io.Writer

	// NoColor disables colored output in spinners.
	NoColor bool
}

// NewProgressConfig creates a progress configuration based on global flags and TTY detection.
//
// Progress is disabled when:
//   - --json flag is set (quiet is auto-set)
//   - -q/--quiet flag is set
//   - stderr is not a TTY (piped output, CI environments, etc.)
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())

	return ProgressConfig{
		Enabled: enabled,
		Writer:  os.Stderr,
		NoColor: globals.NoColor,
	}
}

// NewSpinner creates an indeterminate progress spinner. The walk streams
// files into the pipeline, so the total is never known up front.
// Returns nil if progress is disabled.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// phaseDescription maps a run phase to spinner text.
func phaseDescription(phase string) string {
	switch phase {
	case "cloning":
		return "Cloning repository"
	case "extracting":
		return "Extracting entities"
	case "writing":
		return "Writing corpus"
	default:
		return phase
	}
}

// fileProgress drives a spinner from pipeline progress callbacks.
// A zero-value or disabled fileProgress does nothing.
type fileProgress struct {
	bar    *progressbar.ProgressBar
	files  int
	failed int
}

func newFileProgress(cfg ProgressConfig) *fileProgress {
	return &fileProgress{bar: NewSpinner(cfg, phaseDescription("extracting"))}
}

// Observe records one processed file. It is passed to ingestion.WithProgress.
func (p *fileProgress) Observe(r ingestion.FileResult) {
	p.files++
	if r.Err != nil {
		p.failed++
	}
	if p.bar == nil {
		return
	}
	if p.failed > 0 {
		p.bar.Describe(fmt.Sprintf("%s (%d failed)", phaseDescription("extracting"), p.failed))
	}
	_ = p.bar.Add(1)
}

// Finish clears the spinner.
func (p *fileProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// runPhase shows a spinner for phase while fn runs.
func runPhase(cfg ProgressConfig, phase string, fn func() error) error {
	spinner := NewSpinner(cfg, phaseDescription(phase))
	err := fn()
	if spinner != nil {
		_ = spinner.Finish()
	}
	return err
}
