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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// diagnosticExamples is how many diagnostics the end-of-run summary logs.
const diagnosticExamples = 5

// Pipeline runs Walker -> Registry -> Backend -> Aggregator over a tree.
type Pipeline struct {
	cfg      ParserConfig
	logger   *slog.Logger
	walker   *Walker
	registry *Registry
	progress func(FileResult)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProgress registers fn to be called once per processed file, from the
// goroutine that called Run.
func WithProgress(fn func(FileResult)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// Result summarizes an ingestion run.
type Result struct {
	// RunID is the unique identifier for this run (UUID).
	RunID string `json:"run_id"`

	// Root is the absolute repository root that was walked.
	Root string `json:"root"`

	// Corpus holds the entities and diagnostics.
	Corpus *Corpus `json:"corpus"`

	// FilesWalked is the number of files that passed every walk filter,
	// including oversized ones.
	FilesWalked int `json:"files_walked"`

	// FilesExtracted is the number of files parsed without error.
	FilesExtracted int `json:"files_extracted"`

	// FilesFailed is the number of files recorded as diagnostics.
	FilesFailed int `json:"files_failed"`

	// FilesUnsupported counts admitted files no backend claimed.
	FilesUnsupported int `json:"files_unsupported"`

	// SkippedDeclarations counts declarations dropped for lack of a name.
	SkippedDeclarations int `json:"skipped_declarations"`

	// SkipReasons maps skip reasons to counts (e.g., "excluded_dir": 3).
	SkipReasons map[string]int `json:"skip_reasons"`

	// EntitiesByKind and EntitiesByLanguage break down the corpus.
	EntitiesByKind     map[EntityKind]int `json:"entities_by_kind"`
	EntitiesByLanguage map[string]int     `json:"entities_by_language"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration_ns"`
}

// NewPipeline validates cfg and prepares a pipeline over registry.
// The registry stays owned by the caller.
//
// Workers is capped at registry.Concurrency(). A worker past the parser
// pool size would wait for a parser inside its per-file timeout and be
// reported as timed out.
func NewPipeline(cfg ParserConfig, registry *Registry, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		return nil, errors.New("ingestion: nil registry")
	}
	walker, err := NewWalker(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if limit := registry.Concurrency(); limit > 0 && cfg.Workers > limit {
		logger.Warn("pipeline.workers.capped", "workers", cfg.Workers, "parser_pool", limit)
		cfg.Workers = limit
	}

	for _, ext := range cfg.Extensions {
		if !registry.Claims(ext) {
			logger.Warn("pipeline.extension.unclaimed", "extension", ext)
		}
	}

	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		walker:   walker,
		registry: registry,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run ingests the tree at root.
//
// Per-file problems never fail the run; they end up in
// Result.Corpus.Diagnostics. Run returns an error only when the root cannot
// be walked or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	p.logger.Info("ingest.run.start", "run_id", runID, "root", absRoot, "workers", p.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan FileCandidate, p.cfg.Workers*2)
	results := make(chan FileResult, p.cfg.Workers*2)

	var walkStats *WalkStats
	g.Go(func() error {
		defer close(jobs)
		stats, err := p.walker.Walk(gctx, absRoot, func(c FileCandidate) error {
			select {
			case jobs <- c:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		walkStats = stats
		if err != nil {
			return fmt.Errorf("walk repository: %w", err)
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for c := range jobs {
				if gctx.Err() != nil {
					continue
				}
				r := p.processFile(gctx, c)
				select {
				case results <- r:
				case <-gctx.Done():
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	agg := NewAggregator()
	res := &Result{
		RunID:              runID,
		Root:               absRoot,
		EntitiesByKind:     make(map[EntityKind]int),
		EntitiesByLanguage: make(map[string]int),
	}
	for r := range results {
		switch {
		case r.Err != nil:
			res.FilesFailed++
		case r.Extraction != nil:
			res.FilesExtracted++
			res.SkippedDeclarations += r.Extraction.SkippedDeclarations
		default:
			res.FilesUnsupported++
		}
		agg.Add(r)
		if p.progress != nil {
			p.progress(r)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, d := range walkStats.Diagnostics {
		agg.AddDiagnostic(d)
		recordFailure(d.Diagnostic.Reason)
	}
	recordWalk(walkStats)

	res.Corpus = agg.Corpus()
	res.FilesWalked = walkStats.Candidates + len(walkStats.Diagnostics)
	res.FilesFailed += len(walkStats.Diagnostics)
	res.SkipReasons = walkStats.SkipReasons
	if res.FilesUnsupported > 0 {
		res.SkipReasons[SkipUnsupported] += res.FilesUnsupported
	}
	for _, e := range res.Corpus.Entities {
		res.EntitiesByKind[e.Kind]++
		res.EntitiesByLanguage[e.Language]++
	}
	res.Duration = time.Since(startTime)
	recordRun(res.Duration)

	if len(res.Corpus.Diagnostics) > 0 {
		summary := res.Corpus.Summary(diagnosticExamples)
		examples := make([]string, 0, len(summary.Examples))
		for _, d := range summary.Examples {
			examples = append(examples, d.Path+": "+d.Message)
		}
		p.logger.Warn("ingest.diagnostics.summary",
			"run_id", runID,
			"total", summary.Total,
			"by_reason", summary.ByReason,
			"examples", examples,
		)
	}

	p.logger.Info("ingest.run.complete",
		"run_id", runID,
		"files_walked", res.FilesWalked,
		"files_extracted", res.FilesExtracted,
		"files_failed", res.FilesFailed,
		"entities", len(res.Corpus.Entities),
		"skipped_declarations", res.SkippedDeclarations,
		"skip_reasons", res.SkipReasons,
		"total_duration_ms", res.Duration.Milliseconds(),
	)

	return res, nil
}

// processFile runs route, read and extract for one candidate.
func (p *Pipeline) processFile(ctx context.Context, c FileCandidate) FileResult {
	result := FileResult{Index: c.Index, Path: c.Path}

	backend, ok := p.registry.Route(c.Path)
	if !ok {
		p.logger.Debug("ingest.file.unsupported", "path", c.Path, "extension", c.Extension)
		recordUnsupported()
		return result
	}
	result.Language = backend.Language()

	src, err := ReadSourceFile(c, p.cfg.MaxFileSize)
	if err != nil {
		return p.fail(result, err)
	}

	fctx := ctx
	if p.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, p.cfg.FileTimeout)
		defer cancel()
	}

	start := time.Now()
	ex, err := backend.Extract(fctx, src)
	if err != nil {
		return p.fail(result, err)
	}
	recordExtraction(result.Language, ex, time.Since(start))

	result.Extraction = ex
	return result
}

func (p *Pipeline) fail(result FileResult, err error) FileResult {
	d := diagnosticFor(result.Path, err)
	p.logger.Warn("ingest.file.failed", "path", result.Path, "reason", d.Reason, "err", err)
	recordFailure(d.Reason)
	result.Err = err
	return result
}
