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
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseGlobals(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     GlobalFlags
		wantRest []string
	}{
		{
			name:     "stops at the command",
			args:     []string{"--log-level", "debug", "index", "--workers", "2", "."},
			want:     GlobalFlags{LogLevel: "debug"},
			wantRest: []string{"index", "--workers", "2", "."},
		},
		{
			name:     "json implies quiet",
			args:     []string{"--json", "languages"},
			want:     GlobalFlags{JSON: true, Quiet: true},
			wantRest: []string{"languages"},
		},
		{
			name:     "short quiet and config",
			args:     []string{"-q", "--config", "c.yaml", "init"},
			want:     GlobalFlags{Quiet: true, ConfigPath: "c.yaml"},
			wantRest: []string{"init"},
		},
		{
			name:     "no command",
			args:     []string{"--no-color"},
			want:     GlobalFlags{NoColor: true},
			wantRest: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := parseGlobals(tt.args)
			if err != nil {
				t.Fatalf("parseGlobals() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseGlobals() = %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(rest, tt.wantRest) {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestParseGlobals_Errors(t *testing.T) {
	if _, _, err := parseGlobals([]string{"--bogus"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
	if _, _, err := parseGlobals([]string{"--help"}); !stderrors.Is(err, pflag.ErrHelp) {
		t.Errorf("--help error = %v, want pflag.ErrHelp", err)
	}
}
