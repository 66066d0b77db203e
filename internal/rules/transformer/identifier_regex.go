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

const kindIdentifierRegex = "IdentifierRegex"

func init() {
	Registry.Register(kindIdentifierRegex, func(def lareferencia.RuleDef) (Rule, error) {
		var r IdentifierRegex
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		compiled, err := regexp.Compile(r.RegexSearch)
		if err != nil {
			return nil, err
		}
		r.compiled = compiled
		return &r, nil
	})
}

// IdentifierRegex applies replaceAll(RegexSearch, RegexReplace) to the
// record's own identifier. It mutates the record, not the metadata
// tree.
type IdentifierRegex struct {
	Base
	RegexSearch  string `json:"regexSearch" lr:"title=Search pattern,order=2"`
	RegexReplace string `json:"regexReplace" lr:"title=Replacement,order=3"`

	compiled *regexp.Regexp
}

// Kind implements Rule.
func (r *IdentifierRegex) Kind() string { return kindIdentifierRegex }

// Name implements Describable.
func (r *IdentifierRegex) Name() string { return "Rewrite identifier" }

// Help implements Describable.
func (r *IdentifierRegex) Help() string {
	return "Applies a regular expression replacement to the record's identifier."
}

// DescribeSchema implements Describable.
func (r *IdentifierRegex) DescribeSchema() []rules.FieldDescriptor { return rules.DescribeFields(r) }

// Transform implements Rule.
func (r *IdentifierRegex) Transform(_ context.Context, record *lareferencia.HarvestedRecord, _ *metadatatree.OAIRecordMetadata) (bool, error) {
	rewritten := r.compiled.ReplaceAllString(record.Identifier, r.RegexReplace)
	if rewritten == record.Identifier {
		return false, nil
	}
	record.Identifier = rewritten
	return true, nil
}
