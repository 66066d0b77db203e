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

const kindFieldAdd = "FieldAdd"

func init() {
	Registry.Register(kindFieldAdd, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldAdd
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// FieldAdd unconditionally appends Value to TargetFieldName and always
// reports changed=true.
type FieldAdd struct {
	Base
	TargetFieldName string `json:"targetFieldName" lr:"title=Target field,order=2"`
	Value           string `json:"value" lr:"title=Value,order=3"`
}

// Kind implements Rule.
func (r *FieldAdd) Kind() string { return kindFieldAdd }

// Name implements Describable.
func (r *FieldAdd) Name() string { return "Add field occurrence" }

// Help implements Describable.
func (r *FieldAdd) Help() string { return "Appends a fixed value as a new occurrence of a field." }

// DescribeSchema implements Describable.
func (r *FieldAdd) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Transform implements Rule.
func (r *FieldAdd) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	metadata.AddFieldOccurrence(r.TargetFieldName, r.Value)
	return true, nil
}
