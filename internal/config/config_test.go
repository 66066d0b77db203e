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

package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte("store:\n  basepath: /data/\n"), 0o600))

	c, err := Extract(NewFileSource(fs, "/config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/data/", c.Store.BasePath)
	assert.Equal(t, DefaultBatchSize, c.Store.BatchSize)
}

func TestExtractMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Extract(NewFileSource(fs, "/missing.yaml"))
	assert.Error(t, err)
}

func TestExtractOverridesBatchSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte("store:\n  basepath: /data/\n  batchSize: 250\n"), 0o600))

	c, err := Extract(NewFileSource(fs, "/config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 250, c.Store.BatchSize)
}
