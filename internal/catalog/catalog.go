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

// Package catalog declares the contracts the validation worker
// consumes from the external snapshot catalog and harvest store, plus
// an in-memory double of both for tests. The real implementations are
// out of scope: any catalog technology may sit behind these
// interfaces, provided every call is safe to treat as its own
// independent transaction.
package catalog

import (
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// SnapshotStore is the subset of the snapshot catalog the worker
// consumes: discovering the snapshot to validate, reading its
// metadata, and reporting progress and lifecycle transitions back.
type SnapshotStore interface {
	// FindLastHarvestingSnapshot returns the most recent snapshot id
	// harvested for networkAcronym. ok is false when none exists.
	FindLastHarvestingSnapshot(networkAcronym string) (snapshotID uint64, ok bool, err error)

	// GetSnapshotMetadata loads the metadata the worker and the stat
	// store need for snapshotID.
	GetSnapshotMetadata(snapshotID uint64) (lareferencia.SnapshotMetadata, error)

	// UpdateSnapshotCounts overwrites the snapshot's running totals.
	UpdateSnapshotCounts(snapshotID uint64, total, valid, transformed uint64) error
	// IncrementValidSize adds delta to the snapshot's valid-record count.
	IncrementValidSize(snapshotID uint64, delta uint64) error
	// IncrementTransformedSize adds delta to the snapshot's transformed-record count.
	IncrementTransformedSize(snapshotID uint64, delta uint64) error
	// ResetSnapshotValidationCounts zeroes the snapshot's validation counters.
	ResetSnapshotValidationCounts(snapshotID uint64) error

	// UpdateSnapshotStatus sets the snapshot's lifecycle status directly.
	UpdateSnapshotStatus(snapshotID uint64, status lareferencia.SnapshotStatus) error
	// StartValidation transitions the snapshot into its validation-started status.
	StartValidation(snapshotID uint64) error
	// FinishValidation transitions the snapshot to VALID.
	FinishValidation(snapshotID uint64) error
	// FinishHarvesting transitions the snapshot to a terminal harvesting-finished status.
	FinishHarvesting(snapshotID uint64, status lareferencia.SnapshotStatus) error
	// SaveSnapshot persists meta verbatim, for callers that already hold a full copy.
	SaveSnapshot(meta lareferencia.SnapshotMetadata) error
	// MarkAsIndexed transitions the snapshot into its post-indexing status.
	MarkAsIndexed(snapshotID uint64) error
}

// RecordIterator streams a snapshot's harvested records in harvest
// order. Next returns ok=false once the iterator is exhausted, with a
// nil error.
type RecordIterator interface {
	Next() (record lareferencia.HarvestedRecord, ok bool, err error)
	Close() error
}

// HarvestStore opens a streaming iterator over one snapshot's
// harvested records. It is the out-of-scope OAI-PMH harvester's
// output, consumed here read-only.
type HarvestStore interface {
	Iterator(snapshotID uint64) (RecordIterator, error)
}
