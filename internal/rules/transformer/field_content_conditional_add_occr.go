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

	"github.com/go-logr/logr"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/internal/rules/expr"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindFieldContentConditionalAddOccr = "FieldContentConditionalAddOccr"

func init() {
	Registry.Register(kindFieldContentConditionalAddOccr, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldContentConditionalAddOccr
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		node, err := expr.Parse(r.ConditionalExpression)
		if err != nil {
			return nil, err
		}
		r.parsed = node
		return &r, nil
	})
}

// FieldContentConditionalAddOccr adds ValueToAdd under FieldName when
// ConditionalExpression holds, using the same grammar as field-
// expression validators.
type FieldContentConditionalAddOccr struct {
	Base
	ConditionalExpression       string          `json:"conditionalExpression" lr:"title=Condition,uiType=textarea,order=2"`
	FieldName                   string          `json:"fieldName" lr:"title=Field,order=3"`
	ValueToAdd                  string          `json:"valueToAdd" lr:"title=Value to add,order=4"`
	Quantifier                  rules.Quantifier `json:"quantifier" lr:"title=Quantifier,uiType=select,order=5"`
	DeduplicateAfterAdd         bool            `json:"deduplicateAfterAdd" lr:"title=Deduplicate after add,uiType=checkbox,order=6"`

	parsed expr.Node
}

// Kind implements Rule.
func (r *FieldContentConditionalAddOccr) Kind() string { return kindFieldContentConditionalAddOccr }

// Name implements Describable.
func (r *FieldContentConditionalAddOccr) Name() string { return "Conditionally add field occurrence" }

// Help implements Describable.
func (r *FieldContentConditionalAddOccr) Help() string {
	return "Adds a field occurrence when a boolean expression over the record's fields holds."
}

// DescribeSchema implements Describable.
func (r *FieldContentConditionalAddOccr) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *FieldContentConditionalAddOccr) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	if !expr.Eval(r.parsed, r.Quantifier, metadata.FieldOccurrences, logr.Discard()) {
		return false, nil
	}

	metadata.AddFieldOccurrence(r.FieldName, r.ValueToAdd)
	changed := true

	if r.DeduplicateAfterAdd {
		seen := make(map[string]struct{})
		for _, n := range metadata.FieldNodes(r.FieldName) {
			if _, ok := seen[n.Value()]; ok {
				metadata.RemoveNode(n)
				continue
			}
			seen[n.Value()] = struct{}{}
		}
	}

	return changed, nil
}
