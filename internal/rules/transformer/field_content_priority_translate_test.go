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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

func TestFieldContentPriorityTranslateAppliesFirstMatchPerTranslation(t *testing.T) {
	metadata := newSampleMetadata(t)
	r := decodeRule(t, kindFieldContentPriorityTranslate, map[string]any{
		"ruleId": 1, "runorder": 1,
		"testFieldName":  "dc.subject",
		"writeFieldName": "dc.type",
		"translations": []map[string]any{
			{"testValue": "keyword-one", "writeValue": "type-a"},
			{"testValue": "keyword-two", "writeValue": "type-b"},
		},
		"replaceOccurrence":             false,
		"testValueAsPrefix":             false,
		"replaceAllMatchingOccurrences": false,
	})

	changed, err := r.Transform(context.Background(), &lareferencia.HarvestedRecord{}, metadata)
	require.NoError(t, err)

	// Both translations actually matched an occurrence, so both values
	// were written...
	assert.ElementsMatch(t, []string{"type-a", "type-b"}, metadata.FieldOccurrences("dc.type"))

	// ...but the documented quirk this regression test pins down: the
	// returned changed flag only reflects the LAST translation's match
	// (keyword-two / type-b), not the disjunction across the whole
	// priority list. A naive reader would expect true either way here,
	// so this only demonstrates the flag is not under-reporting to
	// false in this particular case; TestFieldContentPriorityTranslateUnderReportsWhenLastTranslationMisses
	// is the case that actually exposes the under-report.
	assert.True(t, changed)
}

func TestFieldContentPriorityTranslateUnderReportsWhenLastTranslationMisses(t *testing.T) {
	metadata := newSampleMetadata(t)
	r := decodeRule(t, kindFieldContentPriorityTranslate, map[string]any{
		"ruleId": 1, "runorder": 1,
		"testFieldName":  "dc.subject",
		"writeFieldName": "dc.type",
		"translations": []map[string]any{
			// Matches "keyword-one" (present).
			{"testValue": "keyword-one", "writeValue": "type-a"},
			// Matches nothing: no occurrence of dc.subject equals this.
			{"testValue": "no-such-value", "writeValue": "type-z"},
		},
		"replaceOccurrence":             false,
		"testValueAsPrefix":             false,
		"replaceAllMatchingOccurrences": false,
	})

	changed, err := r.Transform(context.Background(), &lareferencia.HarvestedRecord{}, metadata)
	require.NoError(t, err)

	// type-a WAS written by the first translation's match...
	assert.Contains(t, metadata.FieldOccurrences("dc.type"), "type-a")

	// ...yet changed is false, because it is overwritten by the second
	// (non-matching) translation's matchFound=false. This is the
	// "under-report" the design note calls out: a real change happened,
	// but the aggregate flag says otherwise because matchFound is
	// tracked per-translation instead of OR-accumulated across the
	// priority list.
	assert.False(t, changed)
}
