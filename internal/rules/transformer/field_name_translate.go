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

const kindFieldNameTranslate = "FieldNameTranslate"

func init() {
	Registry.Register(kindFieldNameTranslate, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldNameTranslate
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// FieldNameTranslate moves every occurrence of Source to Target: for
// each occurrence it appends the value under Target and removes the
// source node.
type FieldNameTranslate struct {
	Base
	Source string `json:"source" lr:"title=Source field,order=2"`
	Target string `json:"target" lr:"title=Target field,order=3"`
}

// Kind implements Rule.
func (r *FieldNameTranslate) Kind() string { return kindFieldNameTranslate }

// Name implements Describable.
func (r *FieldNameTranslate) Name() string { return "Translate field name" }

// Help implements Describable.
func (r *FieldNameTranslate) Help() string {
	return "Moves every occurrence of one field to another field name."
}

// DescribeSchema implements Describable.
func (r *FieldNameTranslate) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Transform implements Rule.
func (r *FieldNameTranslate) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	return translateField(metadata, r.Source, r.Target), nil
}
