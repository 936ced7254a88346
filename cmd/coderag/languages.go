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
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kraklabs/coderag/internal/errors"
	"github.com/kraklabs/coderag/internal/output"
	"github.com/kraklabs/coderag/internal/ui"
	"github.com/kraklabs/coderag/pkg/ingestion"
)

// runLanguages executes the 'languages' command.
func runLanguages(args []string, globals GlobalFlags) error {
	fs := pflag.NewFlagSet("languages", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.NewInputError("Invalid languages arguments", err.Error(), "Run 'coderag languages --help' for usage")
	}

	registry, err := ingestion.NewDefaultRegistry(ingestion.RegistryOptions{PoolSize: 1})
	if err != nil {
		return errors.NewGrammarError(
			"Cannot initialize language backends",
			err.Error(),
			"This build's grammars are broken; reinstall coderag or report a bug",
			err,
		)
	}
	defer registry.Close()

	langs := registry.Languages()
	if globals.JSON {
		return output.JSON(langs)
	}
	printLanguages(ui.NewPrinter(os.Stdout, false), langs)
	return nil
}

func printLanguages(p *ui.Printer, langs []ingestion.LanguageInfo) {
	width := 0
	for _, l := range langs {
		if len(l.Language) > width {
			width = len(l.Language)
		}
	}
	p.Header("Supported Languages")
	for _, l := range langs {
		p.Row(l.Language, width, "."+strings.Join(l.Extensions, " ."))
	}
}
