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

const kindRemoveDuplicateOccrs = "RemoveDuplicateOccrs"

func init() {
	Registry.Register(kindRemoveDuplicateOccrs, func(def lareferencia.RuleDef) (Rule, error) {
		var r RemoveDuplicateOccrs
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// RemoveDuplicateOccrs removes subsequent equal occurrences of
// FieldName, keeping the first.
type RemoveDuplicateOccrs struct {
	Base
	FieldName string `json:"fieldName" lr:"title=Field,order=2"`
}

// Kind implements Rule.
func (r *RemoveDuplicateOccrs) Kind() string { return kindRemoveDuplicateOccrs }

// Name implements Describable.
func (r *RemoveDuplicateOccrs) Name() string { return "Remove duplicate occurrences" }

// Help implements Describable.
func (r *RemoveDuplicateOccrs) Help() string {
	return "Removes subsequent equal occurrences of a field, keeping the first."
}

// DescribeSchema implements Describable.
func (r *RemoveDuplicateOccrs) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *RemoveDuplicateOccrs) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false
	seen := make(map[string]struct{})
	for _, n := range metadata.FieldNodes(r.FieldName) {
		if _, ok := seen[n.Value()]; ok {
			metadata.RemoveNode(n)
			changed = true
			continue
		}
		seen[n.Value()] = struct{}{}
	}
	return changed, nil
}
