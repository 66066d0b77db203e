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

const kindRemoveAllButFirstOccr = "RemoveAllButFirstOccr"

func init() {
	Registry.Register(kindRemoveAllButFirstOccr, func(def lareferencia.RuleDef) (Rule, error) {
		var r RemoveAllButFirstOccr
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// RemoveAllButFirstOccr keeps only the first occurrence of FieldName.
type RemoveAllButFirstOccr struct {
	Base
	FieldName string `json:"fieldName" lr:"title=Field,order=2"`
}

// Kind implements Rule.
func (r *RemoveAllButFirstOccr) Kind() string { return kindRemoveAllButFirstOccr }

// Name implements Describable.
func (r *RemoveAllButFirstOccr) Name() string { return "Keep only first occurrence" }

// Help implements Describable.
func (r *RemoveAllButFirstOccr) Help() string { return "Keeps only the first occurrence of a field." }

// DescribeSchema implements Describable.
func (r *RemoveAllButFirstOccr) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *RemoveAllButFirstOccr) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	nodes := metadata.FieldNodes(r.FieldName)
	if len(nodes) <= 1 {
		return false, nil
	}
	for _, n := range nodes[1:] {
		metadata.RemoveNode(n)
	}
	return true, nil
}
