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

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindControlledValueField = "ControlledValueField"

func init() {
	Registry.Register(kindControlledValueField, func(def lareferencia.RuleDef) (Rule, error) {
		var r ControlledValueField
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		r.index = make(map[string]struct{}, len(r.Values))
		for _, v := range r.Values {
			r.index[v] = struct{}{}
		}
		return &r, nil
	})
}

// ControlledValueField validates that every occurrence of Field is a
// member of Values.
type ControlledValueField struct {
	Base
	Field  string   `json:"field" lr:"title=Field,order=4"`
	Values []string `json:"values" lr:"title=Allowed values,uiType=list,order=5"`

	index map[string]struct{}
}

// Kind implements Rule.
func (r *ControlledValueField) Kind() string { return kindControlledValueField }

// Name implements Describable.
func (r *ControlledValueField) Name() string { return "Controlled value field validator" }

// Help implements Describable.
func (r *ControlledValueField) Help() string {
	return "Validates that every occurrence of a field belongs to a fixed vocabulary."
}

// DescribeSchema implements Describable.
func (r *ControlledValueField) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Evaluate implements Rule.
func (r *ControlledValueField) Evaluate(metadata *metadatatree.OAIRecordMetadata) rules.ValidatorRuleResult {
	occurrences := metadata.FieldOccurrences(r.Field)
	valid, results := rules.EvaluateOccurrences(occurrences, r.Qty, r.member)
	return rules.ValidatorRuleResult{RuleID: r.ID, Valid: valid, Results: results}
}

func (r *ControlledValueField) member(value string) (bool, string) {
	_, ok := r.index[value]
	return ok, rules.Truncate(value)
}
