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
	"regexp"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// kindRegexField is RegexField's JSON discriminator.
const kindRegexField = "RegexField"

func init() {
	Registry.Register(kindRegexField, func(def lareferencia.RuleDef) (Rule, error) {
		var r RegexField
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		compiled, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		r.compiled = compiled
		return &r, nil
	})
}

// RegexField validates every occurrence of Field against Pattern: the
// pattern is pre-compiled, null content is invalid and long values are
// truncated before being recorded as the received value.
type RegexField struct {
	Base
	Field   string `json:"field" lr:"title=Field,order=4"`
	Pattern string `json:"pattern" lr:"title=Pattern,desc=Regular expression searched for in each occurrence (unanchored unless the pattern uses ^ and $),order=5"`

	compiled *regexp.Regexp
}

// Kind implements Rule.
func (r *RegexField) Kind() string { return kindRegexField }

// Name implements Describable.
func (r *RegexField) Name() string { return "Regex field validator" }

// Help implements Describable.
func (r *RegexField) Help() string {
	return "Validates that every occurrence of a field matches a regular expression."
}

// DescribeSchema implements Describable.
func (r *RegexField) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Evaluate implements Rule.
func (r *RegexField) Evaluate(metadata *metadatatree.OAIRecordMetadata) rules.ValidatorRuleResult {
	occurrences := metadata.FieldOccurrences(r.Field)
	valid, results := rules.EvaluateOccurrences(occurrences, r.Qty, r.matches)
	return rules.ValidatorRuleResult{RuleID: r.ID, Valid: valid, Results: results}
}

func (r *RegexField) matches(value string) (bool, string) {
	received := rules.Truncate(value)
	if value == "" {
		return false, received
	}
	return r.compiled.MatchString(value), received
}
