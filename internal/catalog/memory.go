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

package catalog

import (
	"strconv"
	"sync"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// Memory is an in-memory SnapshotStore and HarvestStore double for
// tests: one network's worth of snapshot metadata and harvested
// records, held in plain maps behind a mutex.
type Memory struct {
	mu sync.Mutex

	lastHarvested map[string]uint64
	metadata      map[uint64]lareferencia.SnapshotMetadata
	records       map[uint64][]lareferencia.HarvestedRecord
}

// NewMemory returns an empty Memory double.
func NewMemory() *Memory {
	return &Memory{
		lastHarvested: make(map[string]uint64),
		metadata:      make(map[uint64]lareferencia.SnapshotMetadata),
		records:       make(map[uint64][]lareferencia.HarvestedRecord),
	}
}

// Seed registers meta as networkAcronym's most recently harvested
// snapshot, along with the records its iterator will deliver.
func (m *Memory) Seed(networkAcronym string, meta lareferencia.SnapshotMetadata, records []lareferencia.HarvestedRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHarvested[networkAcronym] = meta.SnapshotID
	m.metadata[meta.SnapshotID] = meta
	m.records[meta.SnapshotID] = records
}

// FindLastHarvestingSnapshot implements SnapshotStore.
func (m *Memory) FindLastHarvestingSnapshot(networkAcronym string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.lastHarvested[networkAcronym]
	return id, ok, nil
}

// GetSnapshotMetadata implements SnapshotStore.
func (m *Memory) GetSnapshotMetadata(snapshotID uint64) (lareferencia.SnapshotMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[snapshotID]
	if !ok {
		return lareferencia.SnapshotMetadata{}, &lrerrors.NotFound{Resource: "snapshot metadata", Key: strconv.FormatUint(snapshotID, 10)}
	}
	return meta, nil
}

// UpdateSnapshotCounts implements SnapshotStore.
func (m *Memory) UpdateSnapshotCounts(snapshotID uint64, total, valid, transformed uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[snapshotID]
	if !ok {
		return &lrerrors.NotFound{Resource: "snapshot metadata", Key: strconv.FormatUint(snapshotID, 10)}
	}
	meta.Size, meta.ValidSize, meta.TransformedSize = total, valid, transformed
	m.metadata[snapshotID] = meta
	return nil
}

// IncrementValidSize implements SnapshotStore.
func (m *Memory) IncrementValidSize(snapshotID uint64, delta uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[snapshotID]
	if !ok {
		return &lrerrors.NotFound{Resource: "snapshot metadata", Key: strconv.FormatUint(snapshotID, 10)}
	}
	meta.ValidSize += delta
	m.metadata[snapshotID] = meta
	return nil
}

// IncrementTransformedSize implements SnapshotStore.
func (m *Memory) IncrementTransformedSize(snapshotID uint64, delta uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[snapshotID]
	if !ok {
		return &lrerrors.NotFound{Resource: "snapshot metadata", Key: strconv.FormatUint(snapshotID, 10)}
	}
	meta.TransformedSize += delta
	m.metadata[snapshotID] = meta
	return nil
}

// ResetSnapshotValidationCounts implements SnapshotStore.
func (m *Memory) ResetSnapshotValidationCounts(snapshotID uint64) error {
	return m.UpdateSnapshotCounts(snapshotID, 0, 0, 0)
}

// UpdateSnapshotStatus implements SnapshotStore.
func (m *Memory) UpdateSnapshotStatus(snapshotID uint64, status lareferencia.SnapshotStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[snapshotID]
	if !ok {
		return &lrerrors.NotFound{Resource: "snapshot metadata", Key: strconv.FormatUint(snapshotID, 10)}
	}
	meta.Status = status
	m.metadata[snapshotID] = meta
	return nil
}

// StartValidation implements SnapshotStore.
func (m *Memory) StartValidation(snapshotID uint64) error {
	return m.UpdateSnapshotStatus(snapshotID, lareferencia.StatusHarvesting)
}

// FinishValidation implements SnapshotStore.
func (m *Memory) FinishValidation(snapshotID uint64) error {
	return m.UpdateSnapshotStatus(snapshotID, lareferencia.StatusValid)
}

// FinishHarvesting implements SnapshotStore.
func (m *Memory) FinishHarvesting(snapshotID uint64, status lareferencia.SnapshotStatus) error {
	return m.UpdateSnapshotStatus(snapshotID, status)
}

// SaveSnapshot implements SnapshotStore.
func (m *Memory) SaveSnapshot(meta lareferencia.SnapshotMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[meta.SnapshotID] = meta
	return nil
}

// MarkAsIndexed implements SnapshotStore.
func (m *Memory) MarkAsIndexed(snapshotID uint64) error {
	return m.UpdateSnapshotStatus(snapshotID, lareferencia.StatusIndexing)
}

// Iterator implements HarvestStore.
func (m *Memory) Iterator(snapshotID uint64) (RecordIterator, error) {
	m.mu.Lock()
	records := append([]lareferencia.HarvestedRecord(nil), m.records[snapshotID]...)
	m.mu.Unlock()
	return &memoryIterator{records: records}, nil
}

type memoryIterator struct {
	records []lareferencia.HarvestedRecord
	pos     int
}

func (it *memoryIterator) Next() (lareferencia.HarvestedRecord, bool, error) {
	if it.pos >= len(it.records) {
		return lareferencia.HarvestedRecord{}, false, nil
	}
	r := it.records[it.pos]
	it.pos++
	return r, true, nil
}

func (it *memoryIterator) Close() error { return nil }
