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
	"strings"
	"unicode"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const kindFieldContentRemoveWhitespaces = "FieldContentRemoveWhitespaces"

func init() {
	Registry.Register(kindFieldContentRemoveWhitespaces, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldContentRemoveWhitespaces
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// FieldContentRemoveWhitespaces strips whitespace from every occurrence
// of FieldName.
type FieldContentRemoveWhitespaces struct {
	Base
	FieldName string `json:"fieldName" lr:"title=Field,order=2"`
}

// Kind implements Rule.
func (r *FieldContentRemoveWhitespaces) Kind() string { return kindFieldContentRemoveWhitespaces }

// Name implements Describable.
func (r *FieldContentRemoveWhitespaces) Name() string { return "Remove whitespace from field content" }

// Help implements Describable.
func (r *FieldContentRemoveWhitespaces) Help() string {
	return "Removes every whitespace character from each occurrence of a field."
}

// DescribeSchema implements Describable.
func (r *FieldContentRemoveWhitespaces) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *FieldContentRemoveWhitespaces) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false
	for _, n := range metadata.FieldNodes(r.FieldName) {
		before := n.Value()
		after := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, before)
		if len(after) != len(before) {
			n.SetValue(after)
			changed = true
		}
	}
	return changed, nil
}
