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
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindLargeControlledValueField = "LargeControlledValueField"

func init() {
	Registry.Register(kindLargeControlledValueField, func(def lareferencia.RuleDef) (Rule, error) {
		var r LargeControlledValueField
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID

		values, err := r.loadValues()
		if err != nil {
			return nil, err
		}
		r.index = make(map[string]struct{}, len(values))
		for _, v := range values {
			r.index[v] = struct{}{}
		}
		return &r, nil
	})
}

// LargeControlledValueField is ControlledValueField for vocabularies
// too large to inline in the rule's JSON: values come from a CSV
// string (one per line) or an external UTF-8 file.
type LargeControlledValueField struct {
	Base
	Field      string `json:"field" lr:"title=Field,order=4"`
	ValuesCSV  string `json:"valuesCSV" lr:"title=Inline values (one per line),uiType=textarea,order=5"`
	ValuesFile string `json:"valuesFile" lr:"title=External values file,uiType=file,order=6"`

	index map[string]struct{}
}

// Kind implements Rule.
func (r *LargeControlledValueField) Kind() string { return kindLargeControlledValueField }

// Name implements Describable.
func (r *LargeControlledValueField) Name() string {
	return "Large controlled value field validator"
}

// Help implements Describable.
func (r *LargeControlledValueField) Help() string {
	return "Validates membership in a vocabulary too large to embed inline, loaded from CSV or an external file."
}

// DescribeSchema implements Describable.
func (r *LargeControlledValueField) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Evaluate implements Rule.
func (r *LargeControlledValueField) Evaluate(metadata *metadatatree.OAIRecordMetadata) rules.ValidatorRuleResult {
	occurrences := metadata.FieldOccurrences(r.Field)
	valid, results := rules.EvaluateOccurrences(occurrences, r.Qty, r.member)
	return rules.ValidatorRuleResult{RuleID: r.ID, Valid: valid, Results: results}
}

func (r *LargeControlledValueField) member(value string) (bool, string) {
	_, ok := r.index[value]
	return ok, rules.Truncate(value)
}

func (r *LargeControlledValueField) loadValues() ([]string, error) {
	if r.ValuesCSV != "" {
		return splitLines(r.ValuesCSV), nil
	}
	if r.ValuesFile == "" {
		return nil, nil
	}
	f, err := os.Open(r.ValuesFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			values = append(values, line)
		}
	}
	return values, scanner.Err()
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
