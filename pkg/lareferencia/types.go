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

// Package lareferencia holds the domain types shared across the
// validation engine, the stat store and the worker, and the types the
// out-of-scope catalog, indexer and admin surfaces exchange with them.
package lareferencia

import "time"

// SnapshotStatus is the lifecycle state of a snapshot.
type SnapshotStatus string

// Snapshot statuses, mirroring the harvester/indexer state machine this
// engine plugs into.
const (
	StatusInitialized                SnapshotStatus = "INITIALIZED"
	StatusHarvesting                  SnapshotStatus = "HARVESTING"
	StatusRetrying                    SnapshotStatus = "RETRYING"
	StatusHarvestingFinishedError     SnapshotStatus = "HARVESTING_FINISHED_ERROR"
	StatusHarvestingFinishedValid     SnapshotStatus = "HARVESTING_FINISHED_VALID"
	StatusHarvestingStopped           SnapshotStatus = "HARVESTING_STOPPED"
	StatusIndexing                    SnapshotStatus = "INDEXING"
	StatusIndexingFinishedError       SnapshotStatus = "INDEXING_FINISHED_ERROR"
	StatusIndexingFinishedValid       SnapshotStatus = "INDEXING_FINISHED_VALID"
	StatusValid                       SnapshotStatus = "VALID"
	StatusUnknown                     SnapshotStatus = "UNKNOWN"
	StatusEmptyIncremental            SnapshotStatus = "EMPTY_INCREMENTAL"
)

// HarvestedRecord is one record produced by the (out of scope) OAI-PMH
// harvester. It is immutable from the point of view of this module.
type HarvestedRecord struct {
	ID                   string
	Identifier           string
	Datestamp            time.Time
	OriginalMetadataHash string
	Deleted              bool
}

// NetworkInfo describes a configured upstream repository.
type NetworkInfo struct {
	Acronym              string
	Name                 string
	InstitutionName      string
	InstitutionAcronym   string
	MetadataPrefix       string
	MetadataStoreSchema  string
	OriginURL            string
	Attributes           map[string]any
	Properties           map[string]bool
	Sets                 []string

	Validator            []RuleDef
	Transformer          []RuleDef
	SecondaryTransformer []RuleDef
}

// BoolProperty returns a network property, defaulting to false when unset.
func (n NetworkInfo) BoolProperty(name string) bool {
	if n.Properties == nil {
		return false
	}
	return n.Properties[name]
}

// RuleDef is the persisted, still-undecoded form of a rule: a kind
// discriminator plus its raw JSON configuration. internal/rules decodes
// these into concrete ValidatorRule/TransformerRule variants.
type RuleDef struct {
	RuleID  uint64
	Kind    string
	Config  []byte // raw JSON
}

// SnapshotMetadata is the read-mostly metadata record the worker loads
// once per run and the stat store uses to fix its rule-column set.
type SnapshotMetadata struct {
	SnapshotID         uint64
	Network            NetworkInfo
	Size               uint64
	Status             SnapshotStatus
	ValidSize          uint64
	TransformedSize    uint64
	RuleDefinitions    map[uint64]RuleDef
}
