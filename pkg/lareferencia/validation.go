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

package lareferencia

import "time"

// RuleFact is the persisted result of one rule applied to one record.
// Occurrence lists are only populated when detailed diagnosis is on
// and the rule itself asked to store occurrences.
type RuleFact struct {
	RuleID             int32
	IsValid            bool
	ValidOccurrences   []string
	InvalidOccurrences []string
}

// RecordValidation is the row the stat store persists for one record.
type RecordValidation struct {
	IdentifierHash       string
	Identifier           string
	Datestamp            time.Time
	RecordIsValid        bool
	IsTransformed        bool
	PublishedMetadataHash string
	RuleFacts            []RuleFact
}

// SnapshotValidationStats is the precomputed per-snapshot summary
// written at finalize and served by unfiltered stat queries.
type SnapshotValidationStats struct {
	TotalRecords       uint64
	ValidRecords       uint64
	TransformedRecords uint64
	RuleStats          map[uint64]RuleCounts
	Facets             map[string]map[string]uint64
}

// RuleCounts is the valid/invalid occurrence tally for one rule across
// a snapshot.
type RuleCounts struct {
	Valid   uint64
	Invalid uint64
}

// ValidationStatsResult is what queryRulesStats returns: the per-rule
// counts alongside the totals they were drawn from, so a filtered
// query and an unfiltered one expose the same shape.
type ValidationStatsResult struct {
	TotalRecords       uint64
	ValidRecords       uint64
	TransformedRecords uint64
	RuleStats          map[uint64]RuleCounts
}
