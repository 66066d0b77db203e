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

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindReduceHeavyRecords = "ReduceHeavyRecords"

func init() {
	Registry.Register(kindReduceHeavyRecords, func(def lareferencia.RuleDef) (Rule, error) {
		var r ReduceHeavyRecords
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// ReduceHeavyRecords removes every occurrence of each field listed in
// FieldsToRemove.
type ReduceHeavyRecords struct {
	Base
	FieldsToRemove []string `json:"fieldsToRemove" lr:"title=Fields to remove,uiType=list,order=2"`
}

// Kind implements Rule.
func (r *ReduceHeavyRecords) Kind() string { return kindReduceHeavyRecords }

// Name implements Describable.
func (r *ReduceHeavyRecords) Name() string { return "Reduce heavy records" }

// Help implements Describable.
func (r *ReduceHeavyRecords) Help() string {
	return "Removes every occurrence of a configured set of fields."
}

// DescribeSchema implements Describable.
func (r *ReduceHeavyRecords) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Transform implements Rule.
func (r *ReduceHeavyRecords) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false
	for _, field := range r.FieldsToRemove {
		if len(metadata.FieldOccurrences(field)) == 0 {
			continue
		}
		metadata.RemoveFieldOccurrence(field)
		changed = true
	}
	return changed, nil
}
