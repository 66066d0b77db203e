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

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()

	regexCfg, err := json.Marshal(map[string]any{
		"ruleId":     1,
		"mandatory":  true,
		"quantifier": "ONE_OR_MORE",
		"field":      "dc.title",
		"pattern":    "^.+$",
	})
	require.NoError(t, err)

	doc := fixtureDocument{
		Metadata: lareferencia.SnapshotMetadata{
			SnapshotID: 1,
			Network: lareferencia.NetworkInfo{
				Acronym:   "demo",
				Validator: []lareferencia.RuleDef{{RuleID: 1, Kind: "RegexField", Config: regexCfg}},
			},
			RuleDefinitions: map[uint64]lareferencia.RuleDef{
				1: {RuleID: 1, Kind: "RegexField"},
			},
		},
		Records: []fixtureRecord{
			{
				Identifier: "oai:1",
				Datestamp:  "2026-01-01T00:00:00Z",
				XML:        `<metadata><element name="dc"><field name="title">hello</field></element></metadata>`,
			},
		},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func TestValidateCmdRunProcessesFixture(t *testing.T) {
	dir := t.TempDir()
	fixturePath := writeFixture(t, dir)

	cmd := validateCmd{
		Network:  "demo",
		Snapshot: fixturePath,
		BasePath: filepath.Join(dir, "store"),
	}

	require.NoError(t, cmd.Run(context.Background()))
}

func TestValidateCmdRunMissingFixtureFails(t *testing.T) {
	cmd := validateCmd{
		Network:  "demo",
		Snapshot: filepath.Join(t.TempDir(), "missing.json"),
		BasePath: t.TempDir(),
	}
	require.Error(t, cmd.Run(context.Background()))
}
