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

const kindFieldNameBulkTranslate = "FieldNameBulkTranslate"

func init() {
	Registry.Register(kindFieldNameBulkTranslate, func(def lareferencia.RuleDef) (Rule, error) {
		var r FieldNameBulkTranslate
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		return &r, nil
	})
}

// TranslationPair is one {search, replace} entry of a bulk translation.
type TranslationPair struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// FieldNameBulkTranslate applies FieldNameTranslate sequentially across
// Translations.
type FieldNameBulkTranslate struct {
	Base
	Translations []TranslationPair `json:"translations" lr:"title=Translations,uiType=list,order=2"`
}

// Kind implements Rule.
func (r *FieldNameBulkTranslate) Kind() string { return kindFieldNameBulkTranslate }

// Name implements Describable.
func (r *FieldNameBulkTranslate) Name() string { return "Bulk translate field names" }

// Help implements Describable.
func (r *FieldNameBulkTranslate) Help() string {
	return "Applies an ordered list of field-name translations."
}

// DescribeSchema implements Describable.
func (r *FieldNameBulkTranslate) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *FieldNameBulkTranslate) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changed := false
	for _, pair := range r.Translations {
		if translateField(metadata, pair.Search, pair.Replace) {
			changed = true
		}
	}
	return changed, nil
}
