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
	"strings"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindFieldContentPriorityTranslate = "FieldContentPriorityTranslate"

func init() {
	Registry.Register(kindFieldContentPriorityTranslate, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldContentPriorityTranslate
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// PriorityTranslation is one entry of FieldContentPriorityTranslate's
// priority-ordered translation list.
type PriorityTranslation struct {
	TestValue  string `json:"testValue"`
	WriteValue string `json:"writeValue"`
}

// FieldContentPriorityTranslate scans TestFieldName's occurrences
// against each of Translations in priority order, writing that
// translation's WriteValue under WriteFieldName on its first matching
// occurrence. Every translation that matches writes its value; a
// match does not stop the later translations from being tried.
type FieldContentPriorityTranslate struct {
	Base
	TestFieldName                 string                 `json:"testFieldName" lr:"title=Test field,order=2"`
	WriteFieldName                string                 `json:"writeFieldName" lr:"title=Write field,order=3"`
	Translations                  []PriorityTranslation  `json:"translations" lr:"title=Translations,uiType=list,order=4"`
	ReplaceOccurrence             bool                   `json:"replaceOccurrence" lr:"title=Remove matched source occurrence,uiType=checkbox,order=5"`
	TestValueAsPrefix             bool                   `json:"testValueAsPrefix" lr:"title=Treat test value as prefix,uiType=checkbox,order=6"`
	ReplaceAllMatchingOccurrences bool                   `json:"replaceAllMatchingOccurrences" lr:"title=Replace every matching occurrence,uiType=checkbox,order=7"`
}

// Kind implements Rule.
func (r *FieldContentPriorityTranslate) Kind() string { return kindFieldContentPriorityTranslate }

// Name implements Describable.
func (r *FieldContentPriorityTranslate) Name() string { return "Priority-translate field content" }

// Help implements Describable.
func (r *FieldContentPriorityTranslate) Help() string {
	return "Writes the value of every matching entry of a priority-ordered translation list."
}

// DescribeSchema implements Describable.
func (r *FieldContentPriorityTranslate) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
//
// The returned changed flag mirrors a quirk of the original
// implementation this rule is modeled on: matchFound is tracked per
// translation, not accumulated across the whole priority list, so the
// flag reflects only the last translation evaluated. When an earlier
// translation matched and wrote a value but the last one matched
// nothing, this under-reports "any match occurred"; see the
// package-level regression test for the documented case this preserves.
func (r *FieldContentPriorityTranslate) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	matchFound := false

	for _, translation := range r.Translations {
		matchFound = false
		for _, n := range metadata.FieldNodes(r.TestFieldName) {
			if !r.testMatches(n.Value(), translation.TestValue) {
				continue
			}
			matchFound = true

			if !containsValue(metadata.FieldOccurrences(r.WriteFieldName), translation.WriteValue) {
				metadata.AddFieldOccurrence(r.WriteFieldName, translation.WriteValue)
			}
			if r.ReplaceOccurrence {
				metadata.RemoveNode(n)
			}
			if !r.ReplaceAllMatchingOccurrences {
				break
			}
		}
	}

	return matchFound, nil
}

func (r *FieldContentPriorityTranslate) testMatches(value, testValue string) bool {
	if r.TestValueAsPrefix {
		return strings.HasPrefix(value, testValue)
	}
	return value == testValue
}

func containsValue(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
