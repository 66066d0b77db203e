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

// Package statstore implements the embedded SQL-backed validation-
// stat store. One Store instance serves every configured snapshot; the
// per-snapshot record table's column set (one boolean per rule id) is
// fixed at initialize and torn down at delete, since it cannot be known
// until a snapshot's rule definitions are loaded.
package statstore

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// flushBatchSize is how many buffered record rows accumulate before
// addObservation issues a write transaction.
const flushBatchSize = 1000

// Store is the embedded SQL validation-stat store. Safe for concurrent
// use across different snapshot ids; callers must not call initialize/
// addObservation/finalize for the same snapshot id from more than one
// goroutine at a time.
type Store struct {
	db  *sqlx.DB
	log logr.Logger

	mu    sync.Mutex
	state map[uint64]*snapshotState
}

// snapshotState is the in-flight bookkeeping addObservation accumulates
// between initialize and finalize.
type snapshotState struct {
	ruleIDs          []uint64
	detailedDiagnose bool
	buffer           []lareferencia.RecordValidation
	stats            lareferencia.SnapshotValidationStats
}

// Open creates or attaches to the sqlite database at dataSourceName and
// ensures its fixed-schema assets exist.
func Open(dataSourceName string, log logr.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, &lrerrors.IoError{Op: "open stat store", Cause: err}
	}
	db.SetMaxOpenConns(1) // sqlite: one writer at a time avoids SQLITE_BUSY churn

	s := &Store{db: db, log: log, state: make(map[uint64]*snapshotState)}
	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return &lrerrors.IoError{Op: "close stat store", Cause: err}
	}
	return nil
}

// Initialize prepares snapshot's per-record tables for a fresh run,
// fixing the rule-id column set from meta.RuleDefinitions and resetting
// any in-memory accumulation.
func (s *Store) Initialize(meta lareferencia.SnapshotMetadata) error {
	ruleIDs := make([]uint64, 0, len(meta.RuleDefinitions))
	for id := range meta.RuleDefinitions {
		ruleIDs = append(ruleIDs, id)
	}
	sortUint64s(ruleIDs)

	if err := s.createSnapshotTables(meta.SnapshotID, ruleIDs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[meta.SnapshotID] = &snapshotState{
		ruleIDs:          ruleIDs,
		detailedDiagnose: meta.Network.BoolProperty("DETAILED_DIAGNOSE"),
		stats: lareferencia.SnapshotValidationStats{
			RuleStats: make(map[uint64]lareferencia.RuleCounts, len(ruleIDs)),
			Facets:    make(map[string]map[string]uint64),
		},
	}
	return nil
}

// AddObservation records one record's validation outcome against
// snapshotID: it folds rv into the in-memory running stats immediately
// and appends rv to the write buffer, flushing in batches of
// flushBatchSize.
func (s *Store) AddObservation(snapshotID uint64, rv lareferencia.RecordValidation) error {
	s.mu.Lock()
	st, ok := s.state[snapshotID]
	if !ok {
		s.mu.Unlock()
		return &lrerrors.NotFound{Resource: "snapshot stat state", Key: strconv.FormatUint(snapshotID, 10)}
	}
	st.accumulate(rv)
	st.buffer = append(st.buffer, rv)
	shouldFlush := len(st.buffer) >= flushBatchSize
	var batch []lareferencia.RecordValidation
	if shouldFlush {
		batch = st.buffer
		st.buffer = nil
	}
	ruleIDs := st.ruleIDs
	s.mu.Unlock()

	if shouldFlush {
		return s.flush(snapshotID, ruleIDs, batch)
	}
	return nil
}

// accumulate folds one record's outcome into the running summary
// (totals, facets, per-rule valid/invalid tallies).
func (st *snapshotState) accumulate(rv lareferencia.RecordValidation) {
	st.stats.TotalRecords++
	if rv.RecordIsValid {
		st.stats.ValidRecords++
	}
	if rv.IsTransformed {
		st.stats.TransformedRecords++
	}
	addFacet(st.stats.Facets, "record_is_valid", boolLabel(rv.RecordIsValid))
	addFacet(st.stats.Facets, "record_is_transformed", boolLabel(rv.IsTransformed))

	for _, fact := range rv.RuleFacts {
		counts := st.stats.RuleStats[uint64(fact.RuleID)]
		ruleID := strconv.FormatUint(uint64(fact.RuleID), 10)
		if fact.IsValid {
			counts.Valid++
			addFacet(st.stats.Facets, "valid_rules", ruleID)
		} else {
			counts.Invalid++
			addFacet(st.stats.Facets, "invalid_rules", ruleID)
		}
		st.stats.RuleStats[uint64(fact.RuleID)] = counts
	}
}

func addFacet(facets map[string]map[string]uint64, field, value string) {
	bucket, ok := facets[field]
	if !ok {
		bucket = make(map[string]uint64)
		facets[field] = bucket
	}
	bucket[value]++
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// flush writes a batch of buffered rows inside a single transaction.
func (s *Store) flush(snapshotID uint64, ruleIDs []uint64, batch []lareferencia.RecordValidation) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return &lrerrors.IoError{Op: "begin stat store batch", Cause: err}
	}

	for _, rv := range batch {
		if err := insertRecord(tx, snapshotID, ruleIDs, rv); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return &lrerrors.IoError{Op: "commit stat store batch", Cause: err}
	}
	return nil
}

// Finalize flushes any buffered rows, serializes the accumulated
// summary to JSON and persists it, then drops the in-memory state for
// snapshotID.
func (s *Store) Finalize(snapshotID uint64) error {
	s.mu.Lock()
	st, ok := s.state[snapshotID]
	if !ok {
		s.mu.Unlock()
		return &lrerrors.NotFound{Resource: "snapshot stat state", Key: strconv.FormatUint(snapshotID, 10)}
	}
	batch := st.buffer
	st.buffer = nil
	ruleIDs := st.ruleIDs
	stats := st.stats
	s.mu.Unlock()

	if err := s.flush(snapshotID, ruleIDs, batch); err != nil {
		return err
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return &lrerrors.IoError{Op: "serialize snapshot summary", Cause: err}
	}

	_, err = s.db.Exec(`INSERT INTO snapshot_summaries (snapshot_id, stats_json, finalized_at)
		VALUES (?, ?, ?)
		ON CONFLICT(snapshot_id) DO UPDATE SET stats_json = excluded.stats_json, finalized_at = excluded.finalized_at`,
		snapshotID, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &lrerrors.IoError{Op: "persist snapshot summary", Cause: err}
	}

	s.mu.Lock()
	delete(s.state, snapshotID)
	s.mu.Unlock()
	return nil
}

// Delete removes every stat-store asset for snapshotID: its dynamic
// tables, its rule-id list and its finalized summary, plus any
// in-flight buffered state.
func (s *Store) Delete(snapshotID uint64) error {
	s.mu.Lock()
	delete(s.state, snapshotID)
	s.mu.Unlock()
	return s.dropSnapshotTables(snapshotID)
}

func sortUint64s(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
