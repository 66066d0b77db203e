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

const kindRemoveDuplicateVocabularyOccrs = "RemoveDuplicateVocabularyOccrs"

func init() {
	Registry.Register(kindRemoveDuplicateVocabularyOccrs, func(def lareferencia.RuleDef) (Rule, error) {
		var r RemoveDuplicateVocabularyOccrs
		if err := json.Unmarshal(def.Config, &r); err != nil {
			return nil, err
		}
		r.ID = def.RuleID
		r.index = make(map[string]int, len(r.Vocabulary))
		for i, v := range r.Vocabulary {
			if _, ok := r.index[v]; !ok {
				r.index[v] = i
			}
		}
		return &r, nil
	})
}

// RemoveDuplicateVocabularyOccrs keeps the occurrence of FieldName with
// the smallest index in Vocabulary, dropping the others that also
// appear in the vocabulary. Occurrences absent from the
// vocabulary are left untouched.
type RemoveDuplicateVocabularyOccrs struct {
	Base
	FieldName  string   `json:"fieldName" lr:"title=Field,order=2"`
	Vocabulary []string `json:"vocabulary" lr:"title=Ordered vocabulary,uiType=list,order=3"`

	index map[string]int
}

// Kind implements Rule.
func (r *RemoveDuplicateVocabularyOccrs) Kind() string { return kindRemoveDuplicateVocabularyOccrs }

// Name implements Describable.
func (r *RemoveDuplicateVocabularyOccrs) Name() string {
	return "Remove duplicate vocabulary occurrences"
}

// Help implements Describable.
func (r *RemoveDuplicateVocabularyOccrs) Help() string {
	return "Among occurrences ranked by an ordered vocabulary, keeps only the highest-ranked one."
}

// DescribeSchema implements Describable.
func (r *RemoveDuplicateVocabularyOccrs) DescribeSchema() []rules.FieldDescriptor {
	return rules.DescribeFields(r)
}

// Transform implements Rule.
func (r *RemoveDuplicateVocabularyOccrs) Transform(_ context.Context, _ *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	nodes := metadata.FieldNodes(r.FieldName)

	bestIdx := -1
	var best *metadatatree.Node
	var ranked []*metadatatree.Node
	for _, n := range nodes {
		vocabIdx, ok := r.index[n.Value()]
		if !ok {
			continue
		}
		ranked = append(ranked, n)
		if bestIdx == -1 || vocabIdx < bestIdx {
			bestIdx = vocabIdx
			best = n
		}
	}
	if len(ranked) <= 1 {
		return false, nil
	}

	changed := false
	for _, n := range ranked {
		if n != best {
			metadata.RemoveNode(n)
			changed = true
		}
	}
	return changed, nil
}
