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

// Package repository acquires the source tree coderag ingests: a local
// directory used in place, or a git remote cloned with go-git.
package repository

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables consulted when no config file is given.
const (
	EnvRepoURL   = "REPO_URL"
	EnvLocalPath = "LOCAL_PATH"
	EnvBranch    = "REPO_BRANCH"
)

// ErrMissingRepoConfig is returned when neither a file nor the environment
// names the repository.
var ErrMissingRepoConfig = errors.New("repository config missing")

// RepoConfig names a remote repository and where to clone it.
type RepoConfig struct {
	RepoURL   string `toml:"repo_url"`
	LocalPath string `toml:"local_path"`
	Branch    string `toml:"branch"`
}

type repoFile struct {
	Repository RepoConfig `toml:"repository"`
}

// LoadRepoConfig reads the [repository] table from the TOML file at path.
// When path is empty or unreadable it falls back to REPO_URL, LOCAL_PATH and
// REPO_BRANCH, after loading a .env file from the working directory if one
// exists. Variables already set in the environment win over .env.
func LoadRepoConfig(path string) (*RepoConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var f repoFile
			if _, err := toml.Decode(string(data), &f); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			if f.Repository.RepoURL == "" || f.Repository.LocalPath == "" {
				return nil, fmt.Errorf("%s: [repository] needs repo_url and local_path: %w", path, ErrMissingRepoConfig)
			}
			return &f.Repository, nil
		}
	}

	cfg := &RepoConfig{
		RepoURL:   os.Getenv(EnvRepoURL),
		LocalPath: os.Getenv(EnvLocalPath),
		Branch:    os.Getenv(EnvBranch),
	}
	if cfg.RepoURL == "" {
		return nil, fmt.Errorf("%s not set: %w", EnvRepoURL, ErrMissingRepoConfig)
	}
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("%s not set: %w", EnvLocalPath, ErrMissingRepoConfig)
	}
	return cfg, nil
}
