// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the engine's store configuration.
package config

import (
	"github.com/crossplane/crossplane-runtime/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBasePath is store.basepath's default.
	DefaultBasePath = "/tmp/data/"

	// DefaultBatchSize is the stat-store write-buffer target size.
	DefaultBatchSize = 1000

	errReadConfig  = "cannot read configuration file"
	errParseConfig = "cannot parse configuration file"
)

// Config is the engine's own configuration document. Network
// definitions (acronym, rule sets, the DETAILED_DIAGNOSE property)
// live in the snapshot catalog, which is out of scope here.
type Config struct {
	Store Store `yaml:"store"`
	Log   Log   `yaml:"log"`
}

// Store configures the blob store and stat store.
type Store struct {
	// BasePath is the root directory for the blob store and the
	// per-snapshot layout.
	BasePath string `yaml:"basepath"`

	// BatchSize overrides the stat-store write-buffer batch size.
	BatchSize int `yaml:"batchSize"`
}

// Log configures the worker's logger.
type Log struct {
	Level int `yaml:"level"`
}

// Source abstracts where the configuration document comes from.
type Source interface {
	GetConfig() (*Config, error)
}

// FileSource reads a YAML configuration document off an afero
// filesystem, so tests can substitute afero.NewMemMapFs().
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource constructs a FileSource reading path on fs.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// GetConfig implements Source.
func (s *FileSource) GetConfig() (*Config, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, errors.Wrap(err, errReadConfig)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrap(err, errParseConfig)
	}
	return c, nil
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Store: Store{
			BasePath:  DefaultBasePath,
			BatchSize: DefaultBatchSize,
		},
	}
}

// Extract reads and validates configuration from src, falling back to
// defaults for zero-valued fields.
func Extract(src Source) (*Config, error) {
	c, err := src.GetConfig()
	if err != nil {
		return nil, err
	}
	if c.Store.BasePath == "" {
		c.Store.BasePath = DefaultBasePath
	}
	if c.Store.BatchSize <= 0 {
		c.Store.BatchSize = DefaultBatchSize
	}
	return c, nil
}
