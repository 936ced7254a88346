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
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/coderag/internal/config"
	"github.com/kraklabs/coderag/internal/errors"
	"github.com/kraklabs/coderag/internal/output"
	"github.com/kraklabs/coderag/internal/ui"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force bool
	path  string
}

func parseInitFlags(args []string) (initFlags, error) {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite an existing config file")
	fs.StringVar(&f.path, "path", config.DefaultFileName, "Where to write the config file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: coderag init [options]

Writes a config file with every setting at its default value.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() > 0 {
		return f, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return f, nil
}

// runInit executes the 'init' command.
func runInit(args []string, globals GlobalFlags) error {
	f, err := parseInitFlags(args)
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.NewInputError("Invalid init arguments", err.Error(), "Run 'coderag init --help' for usage")
	}

	if err := writeDefaultConfig(f.path, f.force); err != nil {
		return err
	}

	if globals.JSON {
		return output.JSON(map[string]string{"config": f.path})
	}
	printNextSteps(ui.NewPrinter(os.Stdout, globals.Quiet), f.path)
	return nil
}

// writeDefaultConfig writes config.Default() to path, refusing to replace
// an existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.NewInputError(
			"Config file already exists",
			path,
			"Use --force to overwrite it",
		)
	}

	err := output.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return config.Default().WriteYAML(w)
	})
	if err == nil {
		return nil
	}
	if stderrors.Is(err, os.ErrPermission) {
		return errors.NewPermissionError("Cannot write config file", err.Error(), "Choose a writable location with --path", err)
	}
	return errors.NewInternalError("Cannot write config file", err.Error(), "Check the path and free disk space", err)
}

func printNextSteps(p *ui.Printer, path string) {
	p.Successf("Created %s", path)
	p.Info("Next steps:")
	p.Info("  1. Adjust parser.extensions and parser.exclude_dirs for your repository")
	p.Info("  2. Run: coderag index <repo-url-or-path>")
}
