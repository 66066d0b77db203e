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

// Package transformer implements the transformer side of the rule
// engine: the ordered rule variants plus the pipeline that applies
// them to a record and its metadata tree.
package transformer

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// Rule is the capability set every transformer rule variant implements.
type Rule interface {
	RuleID() uint64
	RunOrder() int32
	Kind() string
	Transform(ctx context.Context, record *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (changed bool, err error)
}

// Registry is the tagged-variant decoder for transformer rules.
var Registry = rules.NewRegistry[Rule]()

// Base holds the fields every transformer rule variant carries.
type Base struct {
	ID    uint64 `json:"ruleId" lr:"title=Rule ID,order=0"`
	Order int32  `json:"runorder" lr:"title=Run order,order=1"`
}

// RuleID implements Rule.
func (b Base) RuleID() uint64 { return b.ID }

// RunOrder implements Rule.
func (b Base) RunOrder() int32 { return b.Order }

// Transformer applies an ordered list of transformer rules to a
// record's metadata tree.
type Transformer struct {
	rules []Rule
	log   logr.Logger
}

// New decodes defs, already in ascending run-order, into a Transformer.
func New(defs []lareferencia.RuleDef, log logr.Logger) (*Transformer, error) {
	decoded, err := Registry.DecodeAll(defs)
	if err != nil {
		return nil, err
	}
	return &Transformer{rules: decoded, log: log}, nil
}

// Transform runs every rule against record/metadata in order. changed
// is true iff any rule reported a change. A rule error aborts the
// remaining rules and is wrapped as TransformError.
func (t *Transformer) Transform(ctx context.Context, record *lareferencia.HarvestedRecord, metadata *metadatatree.OAIRecordMetadata) (bool, error) {
	changedAny := false
	for _, r := range t.rules {
		changed, err := r.Transform(ctx, record, metadata)
		if err != nil {
			return changedAny, &lrerrors.TransformError{
				RuleID:   r.RuleID(),
				Class:    r.Kind(),
				RecordID: record.Identifier,
				Cause:    err,
			}
		}
		if changed && t.log.GetSink() != nil {
			t.log.V(1).Info("transformer rule changed record", "ruleId", r.RuleID(), "kind", r.Kind(), "recordId", record.Identifier)
		}
		changedAny = changedAny || changed
	}
	return changedAny, nil
}

// fieldExpressionError prefixes an expression error with its rule id.
// It has no caller: rules that take an expression parse it when they
// are decoded, so a malformed expression fails New rather than
// surfacing through TransformError.
func fieldExpressionError(ruleID uint64, err error) error {
	return fmt.Errorf("rule %d: invalid expression: %w", ruleID, err)
}

// maxFieldTranslateOccurrences bounds FieldNameTranslate/
// FieldNameBulkTranslate: "bounded by an implementation-chosen safety
// cap to prevent runaway translations".
const maxFieldTranslateOccurrences = 10000

// translateField moves every occurrence of source to target, value by
// value, up to the safety cap. Shared by FieldNameTranslate and
// FieldNameBulkTranslate.
func translateField(metadata *metadatatree.OAIRecordMetadata, source, target string) bool {
	nodes := metadata.FieldNodes(source)
	if len(nodes) > maxFieldTranslateOccurrences {
		nodes = nodes[:maxFieldTranslateOccurrences]
	}
	changed := false
	for _, n := range nodes {
		metadata.AddFieldOccurrence(target, n.Value())
		metadata.RemoveNode(n)
		changed = true
	}
	return changed
}
