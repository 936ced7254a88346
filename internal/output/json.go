// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output provides utilities for consistent CLI output formatting.
//
// This package handles JSON encoding for machine-readable output and writes
// extracted corpora to disk. It complements the ui package (for
// human-readable output) and errors package (for error handling).
//
// # Usage
//
// For --json summaries:
//
//	if err := output.JSON(result); err != nil {
//	    errors.FatalError(err, true)
//	}
//
// For corpus files, written atomically:
//
//	err := output.WriteFileAtomic("corpus.jsonl", 0o644, func(w io.Writer) error {
//	    return output.WriteCorpus(w, result.Corpus, output.FormatJSONL)
//	})
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSON writes data as pretty-printed JSON to stdout.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as pretty-printed JSON to the specified writer.
//
// The output is formatted with 2-space indentation for readability.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// JSONCompactTo writes data as a single line of JSON to w.
func JSONCompactTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}
