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

// Package validator implements the validator side of the rule engine:
// the ordered rule variants plus the pipeline that runs them against a
// record's metadata tree.
package validator

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// Rule is the capability set every validator rule variant implements:
// apply-to-metadata (Evaluate) and self-identify (Kind).
type Rule interface {
	RuleID() uint64
	Mandatory() bool
	Quantifier() rules.Quantifier
	StoreOccurrences() bool
	Kind() string
	Evaluate(metadata *metadatatree.OAIRecordMetadata) rules.ValidatorRuleResult
}

// Registry is the tagged-variant decoder for validator rules. Every
// variant file in this package registers itself in init().
var Registry = rules.NewRegistry[Rule]()

// Base holds the fields every validator rule variant carries.
type Base struct {
	ID      uint64           `json:"ruleId" lr:"title=Rule ID,order=0"`
	Mand    bool             `json:"mandatory" lr:"title=Mandatory,uiType=checkbox,order=1"`
	Qty     rules.Quantifier `json:"quantifier" lr:"title=Quantifier,uiType=select,order=2"`
	StoreOc bool             `json:"storeOccurrences" lr:"title=Store occurrences,uiType=checkbox,order=3"`
}

// RuleID implements Rule.
func (b Base) RuleID() uint64 { return b.ID }

// Mandatory implements Rule.
func (b Base) Mandatory() bool { return b.Mand }

// Quantifier implements Rule.
func (b Base) Quantifier() rules.Quantifier { return b.Qty }

// StoreOccurrences implements Rule.
func (b Base) StoreOccurrences() bool { return b.StoreOc }

// Validator applies an ordered list of validator rules to a record's
// metadata tree.
type Validator struct {
	rules []Rule
	log   logr.Logger
}

// New decodes defs (in configuration order) into a Validator.
func New(defs []lareferencia.RuleDef, log logr.Logger) (*Validator, error) {
	decoded, err := Registry.DecodeAll(defs)
	if err != nil {
		return nil, err
	}
	return &Validator{rules: decoded, log: log}, nil
}

// Validate runs every rule against metadata in order, filling result.
// Callers are expected to have called result.Reset() first.
//
// Record-level Valid is the conjunction of every mandatory rule's
// verdict; non-mandatory failures still contribute a RuleFact but do
// not flip the record invalid.
func (v *Validator) Validate(metadata *metadatatree.OAIRecordMetadata, result *rules.ValidatorResult) {
	result.Valid = true
	for _, r := range v.rules {
		rr := v.evaluateSafely(r, metadata)
		result.RulesResults = append(result.RulesResults, rr)
		if !rr.Valid && r.Mandatory() {
			result.Valid = false
		}
	}
}

// StoreOccurrencesFor reports whether ruleID's StoreOccurrences flag
// is set, so callers deciding whether to persist per-occurrence detail
// don't need their own copy of the rule list. Unknown rule ids report
// false.
func (v *Validator) StoreOccurrencesFor(ruleID uint64) bool {
	for _, r := range v.rules {
		if r.RuleID() == ruleID {
			return r.StoreOccurrences()
		}
	}
	return false
}

// evaluateSafely runs one rule, converting a panic into a per-rule
// invalid verdict instead of aborting the record.
func (v *Validator) evaluateSafely(r Rule, metadata *metadatatree.OAIRecordMetadata) (rr rules.ValidatorRuleResult) {
	defer func() {
		if p := recover(); p != nil {
			if v.log.GetSink() != nil {
				v.log.Error(fmt.Errorf("%v", p), "validator rule panicked", "ruleId", r.RuleID(), "kind", r.Kind())
			}
			rr = rules.ValidatorRuleResult{
				RuleID: r.RuleID(),
				Valid:  false,
				Results: []rules.ContentValidatorResult{{
					Valid:         false,
					ReceivedValue: fmt.Sprintf("%v", p),
				}},
			}
		}
	}()
	return r.Evaluate(metadata)
}
