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

// Package config loads the coderag configuration file.
//
// The file is YAML; JSON documents are accepted too since JSON is valid
// YAML. Unknown keys are rejected so typos surface at startup. Keys that are
// absent keep their Default() values.
//
// Example coderag.yaml:
//
//	logging:
//	  level: info
//	  format: text
//	parser:
//	  max_file_size: 1048576
//	  extensions: [rs, go]
//	  exclude_dirs: [target, .git, node_modules]
//	  file_timeout: 30s
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/coderag/internal/logging"
	"github.com/kraklabs/coderag/pkg/ingestion"
)

// DefaultFileName is the name written by "coderag init".
const DefaultFileName = "coderag.yaml"

// SearchPaths are tried in order by LoadDefault.
var SearchPaths = []string{
	DefaultFileName,
	"config.yaml",
	"config.json",
	"config/config.yaml",
	"config/config.json",
	"/etc/coderag/config.yaml",
}

// Config is the complete coderag configuration.
type Config struct {
	Logging    LoggingConfig          `yaml:"logging" json:"logging"`
	Parser     ingestion.ParserConfig `yaml:"parser" json:"parser"`
	Storage    StorageConfig          `yaml:"storage" json:"storage"`
	Embeddings EmbeddingsConfig       `yaml:"embeddings" json:"embeddings"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// StorageConfig locates the graph and vector stores that consume the corpus.
// coderag only validates these; it does not connect to them.
type StorageConfig struct {
	GraphURL         string `yaml:"graph_url" json:"graph_url"`
	GraphUser        string `yaml:"graph_user" json:"graph_user"`
	GraphPassword    string `yaml:"graph_password" json:"graph_password"`
	VectorURL        string `yaml:"vector_url" json:"vector_url"`
	VectorCollection string `yaml:"vector_collection" json:"vector_collection"`
}

// EmbeddingsConfig describes the downstream embedding model and chunking.
type EmbeddingsConfig struct {
	ModelPath    string `yaml:"model_path" json:"model_path"`
	Dimension    int    `yaml:"dimension" json:"dimension"`
	MaxChunkSize int    `yaml:"max_chunk_size" json:"max_chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap" json:"chunk_overlap"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Parser:  ingestion.DefaultParserConfig(),
		Storage: StorageConfig{
			GraphURL:         "ws://localhost:8000",
			GraphUser:        "root",
			GraphPassword:    "root",
			VectorURL:        "http://localhost:6333",
			VectorCollection: "code-rag",
		},
		Embeddings: EmbeddingsConfig{
			ModelPath:    "models/codebert",
			Dimension:    768,
			MaxChunkSize: 512,
			ChunkOverlap: 128,
		},
	}
}

// ValidationError reports an invalid configuration key.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
}

// Load reads and decodes the file at path on top of Default().
// It does not validate; call Validate once flags have been applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML or JSON from r on top of Default().
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the first file in SearchPaths that exists, or returns
// Default() and an empty path when none does.
func LoadDefault() (*Config, string, error) {
	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ValidationError{Field: "logging.level", Message: err.Error()}
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return &ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if err := c.Parser.Validate(); err != nil {
		return fmt.Errorf("parser: %w", err)
	}
	if c.Storage.GraphURL == "" {
		return &ValidationError{Field: "storage.graph_url", Message: "must not be empty"}
	}
	if c.Storage.VectorURL == "" {
		return &ValidationError{Field: "storage.vector_url", Message: "must not be empty"}
	}
	if c.Embeddings.Dimension <= 0 {
		return &ValidationError{Field: "embeddings.dimension", Message: "must be greater than 0"}
	}
	if c.Embeddings.MaxChunkSize <= 0 {
		return &ValidationError{Field: "embeddings.max_chunk_size", Message: "must be greater than 0"}
	}
	if c.Embeddings.ChunkOverlap < 0 || c.Embeddings.ChunkOverlap >= c.Embeddings.MaxChunkSize {
		return &ValidationError{Field: "embeddings.chunk_overlap", Message: "must be in [0, max_chunk_size)"}
	}
	return nil
}

// WriteYAML encodes c as YAML to w.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
