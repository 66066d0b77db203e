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
	"regexp"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindFieldContentNormalize = "FieldContentNormalize"

func init() {
	Registry.Register(kindFieldContentNormalize, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldContentNormalize
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		if r.ValidationPattern != "" {
			compiled, err := regexp.Compile(r.ValidationPattern)
			if err != nil {
				return nil, err
			}
			r.pattern = compiled
		}
		return &r, nil
	})
}

// FieldContentNormalize optionally drops invalid occurrences and/or
// de-duplicates occurrences of FieldName.
type FieldContentNormalize struct {
	Base
	FieldName                   string `json:"fieldName" lr:"title=Field,order=2"`
	ValidationPattern           string `json:"validationPattern" lr:"title=Validation pattern,order=3"`
	RemoveInvalidOccurrences    bool   `json:"removeInvalidOccurrences" lr:"title=Remove invalid occurrences,uiType=checkbox,order=4"`
	RemoveDuplicatedOccurrences bool   `json:"removeDuplicatedOccurrences" lr:"title=Remove duplicated occurrences,uiType=checkbox,order=5"`

	pattern *regexp.Regexp
}

// Kind implements Rule.
func (r *FieldContentNormalize) Kind() string { return kindFieldContentNormalize }

// Name implements Describable.
func (r *FieldContentNormalize) Name() string { return "Normalize field content" }

// Help implements Describable.
func (r *FieldContentNormalize) Help() string {
	return "Removes invalid and/or duplicated occurrences of a field."
}

// DescribeSchema implements Describable.
func (r *FieldContentNormalize) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *FieldContentNormalize) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false

	if r.RemoveInvalidOccurrences && r.pattern != nil {
		for _, n := range metadata.FieldNodes(r.FieldName) {
			if !r.pattern.MatchString(n.Value()) {
				metadata.RemoveNode(n)
				changed = true
			}
		}
	}

	if r.RemoveDuplicatedOccurrences {
		seen := make(map[string]struct{})
		for _, n := range metadata.FieldNodes(r.FieldName) {
			if _, ok := seen[n.Value()]; ok {
				metadata.RemoveNode(n)
				changed = true
				continue
			}
			seen[n.Value()] = struct{}{}
		}
	}

	return changed, nil
}
