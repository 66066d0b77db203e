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

package validator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const expressionSampleXML = `<metadata>
  <element name="dc">
    <element name="type"><field>article</field></element>
    <element name="identifier"><field>10.1234/abc</field></element>
  </element>
</metadata>`

func newExpressionRule(t *testing.T, expression string, qty rules.Quantifier) Rule {
	t.Helper()
	r, err := Registry.Decode(lareferencia.RuleDef{
		RuleID: 1,
		Kind:   kindFieldExpression,
		Config: mustRawMessage(t, map[string]any{
			"ruleId":     1,
			"mandatory":  true,
			"quantifier": qty,
			"expression": expression,
		}),
	})
	require.NoError(t, err)
	return r
}

func mustRawMessage(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestFieldExpressionEvaluate(t *testing.T) {
	metadata, err := metadatatree.New("oai:1", time.Now(), "origin", "set", "schema", expressionSampleXML)
	require.NoError(t, err)

	r := newExpressionRule(t, `dc.type=='article' AND dc.identifier=%'^10\.'`, rules.OneOrMore)
	result := r.Evaluate(metadata)
	assert.True(t, result.Valid)

	r = newExpressionRule(t, `dc.type=='book'`, rules.OneOrMore)
	result = r.Evaluate(metadata)
	assert.False(t, result.Valid)
}
