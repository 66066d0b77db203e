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

const kindRemoveBlacklistOccrs = "RemoveBlacklistOccrs"

func init() {
	Registry.Register(kindRemoveBlacklistOccrs, func(def lareferencia.RuleDef) (Rule, error) {
		var r RemoveBlacklistOccrs
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		r.index = make(map[string]struct{}, len(r.Blacklist))
		for _, v := range r.Blacklist {
			r.index[v] = struct{}{}
		}
		return &r, nil
	})
}

// RemoveBlacklistOccrs drops occurrences of FieldName whose value
// appears in Blacklist.
type RemoveBlacklistOccrs struct {
	Base
	FieldName string   `json:"fieldName" lr:"title=Field,order=2"`
	Blacklist []string `json:"blacklist" lr:"title=Blacklisted values,uiType=list,order=3"`

	index map[string]struct{}
}

// Kind implements Rule.
func (r *RemoveBlacklistOccrs) Kind() string { return kindRemoveBlacklistOccrs }

// Name implements Describable.
func (r *RemoveBlacklistOccrs) Name() string { return "Remove blacklisted occurrences" }

// Help implements Describable.
func (r *RemoveBlacklistOccrs) Help() string {
	return "Drops occurrences of a field whose value is in a configured blacklist."
}

// DescribeSchema implements Describable.
func (r *RemoveBlacklistOccrs) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *RemoveBlacklistOccrs) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false
	for _, n := range metadata.FieldNodes(r.FieldName) {
		if _, blacklisted := r.index[n.Value()]; blacklisted {
			metadata.RemoveNode(n)
			changed = true
		}
	}
	return changed, nil
}
