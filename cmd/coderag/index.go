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
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kraklabs/coderag/internal/errors"
	"github.com/kraklabs/coderag/internal/output"
	"github.com/kraklabs/coderag/internal/repository"
	"github.com/kraklabs/coderag/internal/ui"
	"github.com/kraklabs/coderag/pkg/ingestion"
)

// diagnosticsShown caps the diagnostics listed in the human summary.
const diagnosticsShown = 5

// indexFlags holds parsed flags for the index command.
type indexFlags struct {
	branch       string
	depth        int
	cloneTo      string
	keepClone    bool
	repoConfig   string
	workers      int
	timeout      time.Duration
	maxFileSize  int64
	exts         []string
	excludeDirs  []string
	excludeGlobs []string
	noSymlinks   bool
	outputPath   string
	format       string
	metricsAddr  string

	// changed reports whether a flag was set on the command line.
	changed func(name string) bool
}

func parseIndexFlags(args []string) (indexFlags, []string, error) {
	fs := pflag.NewFlagSet("index", pflag.ContinueOnError)
	var f indexFlags
	fs.StringVar(&f.branch, "branch", "", "Branch to clone (default: the remote's default branch)")
	fs.IntVar(&f.depth, "depth", 1, "Clone depth (0 for full history)")
	fs.StringVar(&f.cloneTo, "clone-to", "", "Clone into this directory instead of a temporary one")
	fs.BoolVar(&f.keepClone, "keep-clone", false, "Keep the temporary clone after indexing")
	fs.StringVar(&f.repoConfig, "repo-config", "", "TOML file with a [repository] table, used when no source is given")
	fs.IntVar(&f.workers, "workers", 0, "Extraction workers (default: number of CPUs)")
	fs.DurationVar(&f.timeout, "timeout", ingestion.DefaultFileTimeout, "Per-file extraction timeout (0 disables)")
	fs.Int64Var(&f.maxFileSize, "max-file-size", ingestion.DefaultMaxFileSize, "Largest file to read, in bytes")
	fs.StringSliceVar(&f.exts, "ext", nil, "File extension to ingest (repeatable, replaces config)")
	fs.StringSliceVar(&f.excludeDirs, "exclude-dir", nil, "Directory name to prune (repeatable, replaces config)")
	fs.StringSliceVar(&f.excludeGlobs, "exclude", nil, "Glob of paths to skip (repeatable, added to config)")
	fs.BoolVar(&f.noSymlinks, "no-follow-symlinks", false, "Do not follow symbolic links")
	fs.StringVarP(&f.outputPath, "output", "o", "", "Write the corpus to this file")
	fs.StringVar(&f.format, "format", string(output.FormatJSON), "Corpus format: json or jsonl")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coderag index [options] [<repo-url-or-path>]

Walks a repository and extracts top-level functions, types, modules and
constants. A URL is cloned with go-git first. Without an argument the
source comes from --repo-config or REPO_URL/LOCAL_PATH (a .env file is
read if present).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  coderag index .
  coderag index https://github.com/example/repo.git --branch main
  coderag index ./repo --ext rs --ext go --exclude-dir vendor
  coderag index ./repo -o corpus.jsonl --format jsonl
`)
	}

	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	f.changed = fs.Changed
	return f, fs.Args(), nil
}

// applyTo overlays explicitly set flags on the configured parser options.
func (f indexFlags) applyTo(p *ingestion.ParserConfig) {
	if f.changed("workers") {
		p.Workers = f.workers
	}
	if f.changed("timeout") {
		p.FileTimeout = f.timeout
	}
	if f.changed("max-file-size") {
		p.MaxFileSize = f.maxFileSize
	}
	if f.changed("ext") {
		p.Extensions = f.exts
	}
	if f.changed("exclude-dir") {
		p.ExcludeDirs = f.excludeDirs
	}
	if len(f.excludeGlobs) > 0 {
		p.ExcludeGlobs = append(p.ExcludeGlobs, f.excludeGlobs...)
	}
	if f.noSymlinks {
		p.FollowSymlinks = false
	}
}

// resolveSource picks the positional argument, or falls back to the
// repository config file and environment.
func resolveSource(positional []string, f *indexFlags) (repository.Source, error) {
	switch len(positional) {
	case 1:
		return repository.ParseSource(positional[0]), nil
	case 0:
		rc, err := repository.LoadRepoConfig(f.repoConfig)
		if err != nil {
			return repository.Source{}, errors.NewInputError(
				"No repository to index",
				err.Error(),
				"Pass a URL or path: coderag index <repo-url-or-path>",
			)
		}
		if f.cloneTo == "" {
			f.cloneTo = rc.LocalPath
		}
		if f.branch == "" {
			f.branch = rc.Branch
		}
		return repository.ParseSource(rc.RepoURL), nil
	default:
		return repository.Source{}, errors.NewInputError(
			"Too many arguments",
			fmt.Sprintf("expected one repository, got %d", len(positional)),
			"Index one repository per run",
		)
	}
}

// runIndex executes the 'index' command.
func runIndex(args []string, globals GlobalFlags) error {
	f, positional, err := parseIndexFlags(args)
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.NewInputError("Invalid index arguments", err.Error(), "Run 'coderag index --help' for usage")
	}

	format, err := output.ParseFormat(f.format)
	if err != nil {
		return errors.NewInputError("Invalid --format", err.Error(), "Use --format json or --format jsonl")
	}

	src, err := resolveSource(positional, &f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(globals)
	if err != nil {
		return err
	}
	f.applyTo(&cfg.Parser)
	if err := validateConfig(cfg); err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	if f.metricsAddr != "" {
		srv := startMetricsServer(f.metricsAddr, logger)
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(os.Stdout, globals.Quiet)
	progressCfg := NewProgressConfig(globals)

	loader := repository.NewLoader(nil, logger)
	defer func() {
		if f.keepClone {
			for _, dir := range loader.TempDirs() {
				printer.Infof("Clone kept at %s", dir)
			}
			loader.Keep()
		}
		_ = loader.Close()
	}()

	var root string
	acquire := func() error {
		var err error
		root, err = loader.Acquire(ctx, src, repository.AcquireOptions{Branch: f.branch, Depth: f.depth, Dest: f.cloneTo})
		return err
	}
	if src.Kind == repository.SourceGitURL {
		printer.Infof("Cloning %s", src.Value)
		err = runPhase(progressCfg, "cloning", acquire)
	} else {
		err = acquire()
	}
	if err != nil {
		return acquireError(src, err)
	}

	registry, err := ingestion.NewDefaultRegistry(ingestion.RegistryOptions{PoolSize: cfg.Parser.Workers, Logger: logger})
	if err != nil {
		return errors.NewGrammarError(
			"Cannot initialize language backends",
			err.Error(),
			"This build's grammars are broken; reinstall coderag or report a bug",
			err,
		)
	}
	defer registry.Close()

	tracker := newFileProgress(progressCfg)
	pipeline, err := ingestion.NewPipeline(cfg.Parser, registry, logger, ingestion.WithProgress(tracker.Observe))
	if err != nil {
		return errors.NewConfigError("Invalid parser configuration", err.Error(), "Check the parser section of your config", err)
	}

	res, err := pipeline.Run(ctx, root)
	tracker.Finish()
	if err != nil {
		return runError(err)
	}

	if f.outputPath != "" {
		err := runPhase(progressCfg, "writing", func() error {
			return output.WriteFileAtomic(f.outputPath, 0o644, func(w io.Writer) error {
				return output.WriteCorpus(w, res.Corpus, format)
			})
		})
		if err != nil {
			return writeError(f.outputPath, err)
		}
	}

	if globals.JSON {
		return output.JSON(newIndexSummary(res, f.outputPath))
	}
	printResult(printer, res, f.outputPath)
	return nil
}

func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
	return srv
}

func acquireError(src repository.Source, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrInvalidURL):
		return errors.NewInputError("Invalid repository URL", err.Error(), "Use https://, git@, ssh:// or file:// URLs without embedded passwords")
	case stderrors.Is(err, os.ErrNotExist):
		return errors.NewNotFoundError("Repository not found", err.Error(), "Check the path and try again")
	case src.Kind == repository.SourceGitURL:
		return errors.NewNetworkError("Cannot clone repository", err.Error(), "Check the URL, branch and your network connection", err)
	default:
		return errors.NewInputError("Cannot use repository path", err.Error(), "Pass a readable directory outside system paths")
	}
}

func runError(err error) error {
	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.NewInternalError("Indexing interrupted", "The run was cancelled before it finished", "Run the command again", err)
	case stderrors.Is(err, os.ErrNotExist), stderrors.Is(err, ingestion.ErrRootNotDir):
		return errors.NewNotFoundError("Repository root not found", err.Error(), "Check the path and try again")
	default:
		return errors.NewInternalError("Indexing failed", err.Error(), "Re-run with --log-level debug for details", err)
	}
}

func writeError(path string, err error) error {
	if stderrors.Is(err, os.ErrPermission) {
		return errors.NewPermissionError("Cannot write corpus", err.Error(), fmt.Sprintf("Choose a writable location for %s", path), err)
	}
	return errors.NewInternalError("Cannot write corpus", err.Error(), "Check free disk space and the output path", err)
}

// indexSummary is the --json output of the index command.
type indexSummary struct {
	RunID               string                       `json:"run_id"`
	Root                string                       `json:"root"`
	FilesWalked         int                          `json:"files_walked"`
	FilesExtracted      int                          `json:"files_extracted"`
	FilesFailed         int                          `json:"files_failed"`
	FilesUnsupported    int                          `json:"files_unsupported"`
	SkippedDeclarations int                          `json:"skipped_declarations"`
	Entities            int                          `json:"entities"`
	EntitiesByKind      map[ingestion.EntityKind]int `json:"entities_by_kind"`
	EntitiesByLanguage  map[string]int               `json:"entities_by_language"`
	SkipReasons         map[string]int               `json:"skip_reasons"`
	Diagnostics         ingestion.DiagnosticSummary  `json:"diagnostics"`
	DurationMS          int64                        `json:"duration_ms"`
	Output              string                       `json:"output,omitempty"`
}

func newIndexSummary(res *ingestion.Result, outputPath string) indexSummary {
	return indexSummary{
		RunID:               res.RunID,
		Root:                res.Root,
		FilesWalked:         res.FilesWalked,
		FilesExtracted:      res.FilesExtracted,
		FilesFailed:         res.FilesFailed,
		FilesUnsupported:    res.FilesUnsupported,
		SkippedDeclarations: res.SkippedDeclarations,
		Entities:            len(res.Corpus.Entities),
		EntitiesByKind:      res.EntitiesByKind,
		EntitiesByLanguage:  res.EntitiesByLanguage,
		SkipReasons:         res.SkipReasons,
		Diagnostics:         res.Corpus.Summary(diagnosticsShown),
		DurationMS:          res.Duration.Milliseconds(),
		Output:              outputPath,
	}
}

// printResult prints the human-readable run summary.
func printResult(p *ui.Printer, res *ingestion.Result, outputPath string) {
	const width = 12
	p.Header("Ingestion Summary")
	p.Row("Run ID", width, ui.DimText(res.RunID))
	p.Row("Root", width, ui.DimText(res.Root))
	p.Row("Files", width, ui.CountText(res.FilesWalked))
	p.Row("Extracted", width, ui.CountText(res.FilesExtracted))
	p.Row("Failed", width, ui.CountText(res.FilesFailed))
	p.Row("Entities", width, ui.CountText(len(res.Corpus.Entities)))
	p.Row("Duration", width, res.Duration.Round(time.Millisecond))

	kinds := make(map[string]int, len(res.EntitiesByKind))
	for k, n := range res.EntitiesByKind {
		kinds[string(k)] = n
	}
	p.Counts("Entities by kind:", kinds)
	p.Counts("Entities by language:", res.EntitiesByLanguage)
	p.Counts("Skipped files:", res.SkipReasons)

	if len(res.Corpus.Diagnostics) > 0 {
		s := res.Corpus.Summary(diagnosticsShown)
		p.Warningf("%d file(s) could not be ingested", s.Total)
		for _, d := range s.Examples {
			p.Warningf("  %s [%s] %s", d.Path, d.Reason, d.Message)
		}
		if s.Total > len(s.Examples) {
			p.Warningf("  ... and %d more", s.Total-len(s.Examples))
		}
	}

	if outputPath != "" {
		p.Successf("Corpus written to %s", outputPath)
	} else {
		p.Success("Ingestion complete")
	}
}
