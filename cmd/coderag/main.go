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

// Package main implements the coderag CLI, which walks a repository and
// extracts top-level code entities for downstream indexing.
//
// Usage:
//
//	coderag init                        Create coderag.yaml
//	coderag index <url-or-path>         Extract entities from a repository
//	coderag languages                   List supported languages
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/coderag/internal/config"
	"github.com/kraklabs/coderag/internal/errors"
	"github.com/kraklabs/coderag/internal/logging"
	"github.com/kraklabs/coderag/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	JSON        bool
	NoColor     bool
	Quiet       bool
	ShowVersion bool
}

const usageText = `coderag - repository ingestion and entity extraction

Usage:
  coderag [global options] <command> [options]

Commands:
  init        Create a default coderag.yaml
  index       Extract entities from a repository URL or local path
  languages   List supported languages and file extensions

Global Options:
`

const usageFooter = `
Examples:
  coderag init
  coderag index .
  coderag index https://github.com/example/repo.git --branch main
  coderag index ./repo --ext rs --ext go --output corpus.jsonl --format jsonl
  coderag --json languages

For command help: coderag <command> --help
`

// newGlobalFlagSet declares the global flags. Parsing stops at the first
// positional argument so command flags reach the command.
func newGlobalFlagSet(g *GlobalFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("coderag", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&g.ConfigPath, "config", "", "Path to config file (default: search coderag.yaml, config.yaml, ...)")
	fs.StringVar(&g.LogLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	fs.StringVar(&g.LogFormat, "log-format", "", "Log format: text or json (overrides config)")
	fs.BoolVar(&g.JSON, "json", false, "Machine-readable JSON output (implies -q)")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVarP(&g.Quiet, "quiet", "q", false, "Suppress progress and informational output")
	fs.BoolVar(&g.ShowVersion, "version", false, "Show version and exit")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		fs.PrintDefaults()
		fmt.Fprint(os.Stderr, usageFooter)
	}
	return fs
}

// parseGlobals parses args and returns the command line left for the command.
func parseGlobals(args []string) (GlobalFlags, []string, error) {
	var g GlobalFlags
	fs := newGlobalFlagSet(&g)
	if err := fs.Parse(args); err != nil {
		return g, nil, err
	}
	if g.JSON {
		g.Quiet = true
	}
	return g, fs.Args(), nil
}

func main() {
	globals, rest, err := parseGlobals(os.Args[1:])
	if stderrors.Is(err, pflag.ErrHelp) {
		os.Exit(errors.ExitSuccess)
	}
	if err != nil {
		errors.FatalError(errors.NewInputError("Invalid arguments", err.Error(), "Run 'coderag --help' for usage"), false)
	}
	ui.InitColors(globals.NoColor)

	if globals.ShowVersion {
		fmt.Printf("coderag version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(errors.ExitSuccess)
	}

	if len(rest) == 0 {
		newGlobalFlagSet(&GlobalFlags{}).Usage()
		os.Exit(errors.ExitInput)
	}

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "init":
		err = runInit(cmdArgs, globals)
	case "index":
		err = runIndex(cmdArgs, globals)
	case "languages":
		err = runLanguages(cmdArgs, globals)
	default:
		err = errors.NewInputError(
			fmt.Sprintf("Unknown command: %s", command),
			"",
			"Run 'coderag --help' to list commands",
		)
	}
	if stderrors.Is(err, pflag.ErrHelp) {
		os.Exit(errors.ExitSuccess)
	}
	errors.FatalError(err, globals.JSON)
}

// loadConfig loads --config or the first default config file, then applies
// the global logging overrides. The result is not validated.
func loadConfig(globals GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals.ConfigPath != "" {
		cfg, err = config.Load(globals.ConfigPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot load coderag configuration",
			err.Error(),
			"Fix the file or regenerate it with: coderag init --force",
			err,
		)
	}

	if globals.LogLevel != "" {
		cfg.Logging.Level = globals.LogLevel
	}
	if globals.LogFormat != "" {
		cfg.Logging.Format = globals.LogFormat
	}
	return cfg, nil
}

// validateConfig turns a validation failure into a UserError.
func validateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.NewConfigError(
			"Invalid coderag configuration",
			err.Error(),
			"Check the setting named above in your config file or flags",
			err,
		)
	}
	return nil
}

// newLogger builds the process logger on w and installs it as the default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(w, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, errors.NewConfigError("Invalid logging configuration", err.Error(), "Use --log-level info and --log-format text", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}
