// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kraklabs/coderag/pkg/ingestion"
)

// Format selects the on-disk corpus encoding.
type Format string

const (
	// FormatJSON writes the whole corpus as one indented JSON document.
	FormatJSON Format = "json"
	// FormatJSONL writes one record per line, entities first.
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatJSONL:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected json or jsonl)", s)
	}
}

// Record is one line of a JSON Lines corpus.
type Record struct {
	Type       string                `json:"type"`
	Entity     *ingestion.CodeEntity `json:"entity,omitempty"`
	Diagnostic *ingestion.Diagnostic `json:"diagnostic,omitempty"`
}

// WriteCorpus encodes c to w in the given format.
func WriteCorpus(w io.Writer, c *ingestion.Corpus, f Format) error {
	switch f {
	case FormatJSON:
		return JSONTo(w, c)
	case FormatJSONL:
		bw := bufio.NewWriter(w)
		for i := range c.Entities {
			if err := JSONCompactTo(bw, Record{Type: "entity", Entity: &c.Entities[i]}); err != nil {
				return err
			}
		}
		for i := range c.Diagnostics {
			if err := JSONCompactTo(bw, Record{Type: "diagnostic", Diagnostic: &c.Diagnostics[i]}); err != nil {
				return err
			}
		}
		return bw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteFileAtomic writes path through a temp file in the same directory and
// renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
