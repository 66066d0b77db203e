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

package transformer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const sampleXML = `<metadata>
  <element name="dc">
    <element name="title"><field>Original Title</field></element>
    <element name="subject">
      <field>keyword-one</field>
      <field>keyword-one</field>
      <field>keyword-two</field>
    </element>
  </element>
</metadata>`

func newSampleMetadata(t *testing.T) *metadatatree.OAIRecordMetadata {
	t.Helper()
	m, err := metadatatree.New("oai:record:1", time.Now(), "origin", "set", "schema", sampleXML)
	require.NoError(t, err)
	return m
}

func decodeRule(t *testing.T, kind string, cfg map[string]any) Rule {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	r, err := Registry.Decode(lareferencia.RuleDef{RuleID: 1, Kind: kind, Config: raw})
	require.NoError(t, err)
	return r
}

func TestTransformerRunsInOrderAndAggregatesChanged(t *testing.T) {
	metadata := newSampleMetadata(t)
	record := &lareferencia.HarvestedRecord{Identifier: "oai:record:1"}

	xf, err := New([]lareferencia.RuleDef{
		{RuleID: 1, Kind: kindFieldAdd, Config: mustJSON(t, map[string]any{
			"ruleId": 1, "runorder": 1, "targetFieldName": "dc.subject.none", "value": "X",
		})},
		{RuleID: 2, Kind: kindRemoveDuplicateOccrs, Config: mustJSON(t, map[string]any{
			"ruleId": 2, "runorder": 2, "fieldName": "dc.subject.none",
		})},
	}, logr.Discard())
	require.NoError(t, err)

	changed, err := xf.Transform(context.Background(), record, metadata)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"X"}, metadata.FieldOccurrences("dc.subject.none"))
}

func TestTransformerWrapsRuleErrorAsTransformError(t *testing.T) {
	metadata := newSampleMetadata(t)
	record := &lareferencia.HarvestedRecord{Identifier: "oai:record:1"}

	// The Transformer is built directly around explodingRule, whose
	// Transform always fails, to exercise the abort-and-wrap path.
	xf := &Transformer{rules: []Rule{&explodingRule{id: 9}}, log: logr.Discard()}

	_, err := xf.Transform(context.Background(), record, metadata)
	require.Error(t, err)
	var te *lrerrors.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, uint64(9), te.RuleID)
	assert.Equal(t, "oai:record:1", te.RecordID)
}

type explodingRule struct{ id uint64 }

func (r *explodingRule) RuleID() uint64  { return r.id }
func (r *explodingRule) RunOrder() int32 { return 0 }
func (r *explodingRule) Kind() string    { return "Exploding" }
func (r *explodingRule) Transform(context.Context, *lareferencia.HarvestedRecord, *metadatatree.OAIRecordMetadata) (bool, error) {
	return false, explodingCause
}

var explodingCause = &lrerrors.IoError{Op: "test", Cause: context.Canceled}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestRemoveAllButFirstOccr(t *testing.T) {
	metadata := newSampleMetadata(t)
	r := decodeRule(t, kindRemoveAllButFirstOccr, map[string]any{
		"ruleId": 1, "runorder": 1, "fieldName": "dc.subject",
	})
	changed, err := r.Transform(context.Background(), &lareferencia.HarvestedRecord{}, metadata)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"keyword-one"}, metadata.FieldOccurrences("dc.subject"))
}

func TestIdentifierRegexMutatesRecordNotTree(t *testing.T) {
	metadata := newSampleMetadata(t)
	r := decodeRule(t, kindIdentifierRegex, map[string]any{
		"ruleId": 1, "runorder": 1, "regexSearch": "^oai:record:", "regexReplace": "oai:renamed:",
	})
	record := &lareferencia.HarvestedRecord{Identifier: "oai:record:1"}
	changed, err := r.Transform(context.Background(), record, metadata)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "oai:renamed:1", record.Identifier)
	assert.Equal(t, "oai:record:1", metadata.Identifier())
}
