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

// Package rules holds the tagged-variant rule model and its JSON
// serializer/registry. The concrete validator and transformer variants
// live in the validator and transformer subpackages; this package only
// holds what both sides, and the stat store, need to share.
package rules

import "strings"

// Quantifier constrains how many occurrences of a field must satisfy a
// predicate for a rule to pass.
type Quantifier string

// The five quantifiers. Values match the JSON-persisted form exactly.
const (
	ZeroOnly   Quantifier = "ZERO_ONLY"
	OneOnly    Quantifier = "ONE_ONLY"
	ZeroOrMore Quantifier = "ZERO_OR_MORE"
	OneOrMore  Quantifier = "ONE_OR_MORE"
	All        Quantifier = "ALL"
)

// noOccurrencesFound is the synthetic received value recorded when a
// field-content or expression rule addresses zero occurrences.
const noOccurrencesFound = "no_occurrences_found"

// maxReceivedValueLen is the truncation bound for receivedValue.
const maxReceivedValueLen = 100

// Truncate shortens s to at most maxReceivedValueLen characters,
// appending "..." when it had to cut. Shared by every predicate that
// fills in ContentValidatorResult.ReceivedValue.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReceivedValueLen {
		return s
	}
	return string(runes[:maxReceivedValueLen]) + "..."
}

// ContentValidatorResult is one occurrence's verdict.
type ContentValidatorResult struct {
	Valid         bool
	ReceivedValue string
}

// ValidatorRuleResult is one rule's verdict across all of a field's
// occurrences.
type ValidatorRuleResult struct {
	RuleID  uint64
	Valid   bool
	Results []ContentValidatorResult
}

// ValidatorResult is the reusable, per-record output buffer the worker
// owns and resets between records.
type ValidatorResult struct {
	Valid        bool
	Transformed  bool
	MetadataHash string
	RulesResults []ValidatorRuleResult
}

// Reset clears r in place so it can be reused for the next record.
func (r *ValidatorResult) Reset() {
	r.Valid = false
	r.Transformed = false
	r.MetadataHash = ""
	r.RulesResults = r.RulesResults[:0]
}

// Aggregate collapses occurrenceCount/validCount into the quantifier's
// pass/fail verdict. Shared verbatim by the expression evaluator so
// field-content rules and expression atoms apply identical semantics.
func Aggregate(q Quantifier, occurrenceCount, validCount int) bool {
	switch q {
	case OneOnly:
		return validCount == 1
	case OneOrMore:
		return validCount >= 1
	case ZeroOrMore:
		return occurrenceCount == 0 || validCount >= 1
	case ZeroOnly:
		return validCount == 0
	case All:
		return validCount == occurrenceCount
	default:
		return false
	}
}

// EvaluateOccurrences applies predicate to each of occurrences (in
// order), synthesizes the "no occurrences found" result when
// occurrences is empty, and aggregates by quantifier. It is the one
// place the occurrenceCount special case lives, so every field-content
// rule and the expression evaluator share one implementation.
func EvaluateOccurrences(occurrences []string, quantifier Quantifier, predicate func(string) (bool, string)) (valid bool, results []ContentValidatorResult) {
	if len(occurrences) == 0 {
		return Aggregate(quantifier, 0, 0), []ContentValidatorResult{{Valid: false, ReceivedValue: noOccurrencesFound}}
	}
	results = make([]ContentValidatorResult, 0, len(occurrences))
	validCount := 0
	for _, occ := range occurrences {
		ok, received := predicate(occ)
		if ok {
			validCount++
		}
		results = append(results, ContentValidatorResult{Valid: ok, ReceivedValue: received})
	}
	return Aggregate(quantifier, len(occurrences), validCount), results
}

// NormalizeKind canonicalizes a rule-kind discriminator for registry
// lookups (case/space insensitive, so hand-edited rule fixtures are
// forgiving).
func NormalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
