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

	"github.com/go-logr/logr"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/internal/rules/expr"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindFieldExpression = "FieldExpression"

func init() {
	Registry.Register(kindFieldExpression, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldExpression
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		node, err := expr.Parse(r.Expression)
		if err != nil {
			return nil, err
		}
		r.parsed = node
		return &r, nil
	})
}

// FieldExpression validates a boolean combination of field atoms:
// `<field>(==|=%)'literal'` terms joined by AND/OR/NOT and parentheses.
// Each atom is evaluated per-occurrence of its own field and collapsed
// by the rule's own quantifier; the combinators then fold those
// booleans together.
type FieldExpression struct {
	Base
	Expression string `json:"expression" lr:"title=Expression,desc=Boolean expression over field atoms,uiType=textarea,order=4"`

	parsed expr.Node
}

// Kind implements Rule.
func (r *FieldExpression) Kind() string { return kindFieldExpression }

// Name implements Describable.
func (r *FieldExpression) Name() string { return "Field expression validator" }

// Help implements Describable.
func (r *FieldExpression) Help() string {
	return "Validates a boolean expression of field-equality and field-regex atoms."
}

// DescribeSchema implements Describable.
func (r *FieldExpression) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Evaluate implements Rule. A FieldExpression either holds for the
// record or it does not: there is no per-occurrence received value to
// surface, so Results carries a single synthetic entry describing the
// expression's overall verdict.
func (r *FieldExpression) Evaluate(metadata *metadatatree.OAIRecordMetadata) rules.ValidatorRuleResult {
	valid := expr.Eval(r.parsed, r.Qty, metadata.FieldOccurrences, logr.Discard())
	return rules.ValidatorRuleResult{
		RuleID: r.ID,
		Valid:  valid,
		Results: []rules.ContentValidatorResult{{
			Valid:         valid,
			ReceivedValue: rules.Truncate(r.Expression),
		}},
	}
}
