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

package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

type fixtureRule struct {
	RuleID  uint64
	Field   string `json:"field" lr:"title=Field,order=1"`
	Pattern string `json:"pattern" lr:"title=Pattern,order=2"`
}

func (r *fixtureRule) Name() string                      { return "Fixture" }
func (r *fixtureRule) Help() string                       { return "A fixture rule." }
func (r *fixtureRule) DescribeSchema() []FieldDescriptor  { return DescribeFields(r) }

func newFixtureRegistry() *Registry[*fixtureRule] {
	reg := NewRegistry[*fixtureRule]()
	reg.Register("Fixture", func(def lareferencia.RuleDef) (*fixtureRule, error) {
		var r fixtureRule
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.RuleID = def.RuleID
		return &r, nil
	})
	return reg
}

func TestDecodeAllPreservesOrder(t *testing.T) {
	reg := newFixtureRegistry()
	defs := []lareferencia.RuleDef{
		{RuleID: 1, Kind: "Fixture", Config: json.RawMessage(`{"field":"dc.title"}`)},
		{RuleID: 2, Kind: "fixture", Config: json.RawMessage(`{"field":"dc.creator"}`)},
	}

	out, err := reg.DecodeAll(defs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "dc.title", out[0].Field)
	assert.Equal(t, "dc.creator", out[1].Field)
}

func TestDecodeUnknownKindFails(t *testing.T) {
	reg := newFixtureRegistry()
	_, err := reg.Decode(lareferencia.RuleDef{RuleID: 1, Kind: "Bogus"})
	assert.Error(t, err)
}

func TestDescribeAllCollectsRegisteredKinds(t *testing.T) {
	reg := newFixtureRegistry()
	doc := NewSchemaDocument(reg.DescribeAll())

	assert.Equal(t, SchemaVersion, doc.Version)
	require.Contains(t, doc.Kinds, NormalizeKind("Fixture"))
	fields := doc.Kinds[NormalizeKind("Fixture")]
	require.Len(t, fields, 2)
	assert.Equal(t, "Field", fields[0].Title)
}
