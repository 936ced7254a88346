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

// Package ui provides user interface utilities for the coderag CLI.
//
// Output helpers respect the --no-color flag and the NO_COLOR environment
// variable; colors are disabled when stdout is not a TTY. A Printer in quiet
// mode drops everything except errors.
//
// Color usage guidelines:
//   - Red: Errors, failed files
//   - Yellow: Warnings, diagnostics
//   - Green: Success, completions
//   - Cyan: Info, counts
//   - Bold: Headers, labels
//   - Dim: Paths and other secondary details
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
// Call it right after flag parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor || os.Getenv("NO_COLOR") != ""
}

// Printer writes human-readable CLI output.
type Printer struct {
	w     io.Writer
	quiet bool
}

// NewPrinter returns a Printer writing to w. In quiet mode only errors are
// written.
func NewPrinter(w io.Writer, quiet bool) *Printer {
	return &Printer{w: w, quiet: quiet}
}

// Stdout is the default printer used by the package-level helpers.
var Stdout = NewPrinter(os.Stdout, false)

func (p *Printer) line(c *color.Color, prefix, msg string) {
	_, _ = c.Fprintln(p.w, prefix+msg)
}

// Success prints a green message with a checkmark prefix.
//
// Example output: "✓ Indexed 42 files"
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	p.line(Green, "✓ ", msg)
}

// Successf is the formatted form of Success.
func (p *Printer) Successf(format string, args ...any) {
	p.Success(fmt.Sprintf(format, args...))
}

// Warning prints a yellow message with a warning symbol prefix.
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	p.line(Yellow, "⚠ ", msg)
}

// Warningf is the formatted form of Warning.
func (p *Printer) Warningf(format string, args ...any) {
	p.Warning(fmt.Sprintf(format, args...))
}

// Error prints a red message with an X prefix. Quiet mode keeps errors.
func (p *Printer) Error(msg string) {
	p.line(Red, "✗ ", msg)
}

// Errorf is the formatted form of Error.
func (p *Printer) Errorf(format string, args ...any) {
	p.Error(fmt.Sprintf(format, args...))
}

// Info prints a cyan message with an info symbol prefix.
func (p *Printer) Info(msg string) {
	if p.quiet {
		return
	}
	p.line(Cyan, "ℹ ", msg)
}

// Infof is the formatted form of Info.
func (p *Printer) Infof(format string, args ...any) {
	p.Info(fmt.Sprintf(format, args...))
}

// Header prints a bold header with an underline separator.
//
// Example output:
//
//	Ingestion Summary
//	=================
func (p *Printer) Header(text string) {
	if p.quiet {
		return
	}
	_, _ = Bold.Fprintln(p.w, text)
	_, _ = fmt.Fprintln(p.w, strings.Repeat("=", len([]rune(text))))
}

// Row prints an indented "label value" line with the label padded to width.
func (p *Printer) Row(label string, width int, value any) {
	if p.quiet {
		return
	}
	_, _ = fmt.Fprintf(p.w, "  %s %v\n", Label(fmt.Sprintf("%-*s", width, label)), value)
}

// Counts prints one row per key of m, sorted by key. Nothing is printed for
// an empty map.
func (p *Printer) Counts(title string, m map[string]int) {
	if p.quiet || len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	_, _ = Bold.Fprintln(p.w, title)
	for _, k := range keys {
		p.Row(k, width, CountText(m[k]))
	}
}

// Success prints to Stdout.
func Success(msg string) { Stdout.Success(msg) }

// Warning prints to Stdout.
func Warning(msg string) { Stdout.Warning(msg) }

// Error prints to Stdout.
func Error(msg string) { Stdout.Error(msg) }

// Info prints to Stdout.
func Info(msg string) { Stdout.Info(msg) }

// Label returns a bold-formatted label string for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for paths and other details.
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value for statistics display.
func CountText(count int) string {
	return Cyan.Sprint(count)
}
