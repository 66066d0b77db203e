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

package statstore

import (
	"strconv"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", logr.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleMeta(snapshotID uint64) lareferencia.SnapshotMetadata {
	return lareferencia.SnapshotMetadata{
		SnapshotID: snapshotID,
		RuleDefinitions: map[uint64]lareferencia.RuleDef{
			1: {RuleID: 1, Kind: "RegexField"},
			2: {RuleID: 2, Kind: "ControlledValueField"},
		},
	}
}

func sampleObservation(identifier string, valid bool) lareferencia.RecordValidation {
	return lareferencia.RecordValidation{
		IdentifierHash:        IdentifierHash(identifier),
		Identifier:            identifier,
		Datestamp:             time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RecordIsValid:         valid,
		IsTransformed:         false,
		PublishedMetadataHash: "deadbeef",
		RuleFacts: []lareferencia.RuleFact{
			{RuleID: 1, IsValid: valid},
			{RuleID: 2, IsValid: true, ValidOccurrences: []string{"en"}},
		},
	}
}

func TestInitializeAddObservationFinalizeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(100)
	require.NoError(t, s.Initialize(meta))

	require.NoError(t, s.AddObservation(100, sampleObservation("oai:1", true)))
	require.NoError(t, s.AddObservation(100, sampleObservation("oai:2", false)))

	require.NoError(t, s.Finalize(100))

	stats, err := s.GetSnapshotStats(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.TotalRecords)
	assert.Equal(t, uint64(1), stats.ValidRecords)
	assert.Equal(t, lareferencia.RuleCounts{Valid: 1, Invalid: 1}, stats.RuleStats[1])
	assert.Equal(t, lareferencia.RuleCounts{Valid: 2, Invalid: 0}, stats.RuleStats[2])
}

func TestGetSnapshotStatsNotFoundBeforeFinalize(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetSnapshotStats(200)
	require.Error(t, err)
	assert.True(t, lrerrors.IsNotFound(err))
}

func TestGetRecordBySnapshotAndIdentifierIncludesOccurrences(t *testing.T) {
	s := openTestStore(t)
	meta := sampleMeta(101)
	require.NoError(t, s.Initialize(meta))
	require.NoError(t, s.AddObservation(101, sampleObservation("oai:3", true)))
	require.NoError(t, s.Finalize(101))

	rv, err := s.GetRecordBySnapshotAndIdentifier(101, "oai:3")
	require.NoError(t, err)
	assert.True(t, rv.RecordIsValid)
	require.Len(t, rv.RuleFacts, 2)
	for _, f := range rv.RuleFacts {
		if f.RuleID == 2 {
			assert.Equal(t, []string{"en"}, f.ValidOccurrences)
		}
	}
}

func TestGetRecordBySnapshotAndIdentifierMissingIsNotFound(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(102)))
	_, err := s.GetRecordBySnapshotAndIdentifier(102, "oai:missing")
	require.Error(t, err)
	assert.True(t, lrerrors.IsNotFound(err))
}

func TestQueryRulesStatsWithFilterRecomputesFromRecords(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(103)))
	require.NoError(t, s.AddObservation(103, sampleObservation("oai:4", true)))
	require.NoError(t, s.AddObservation(103, sampleObservation("oai:5", false)))
	require.NoError(t, s.Finalize(103))

	filters, ok := ParseFilters([]string{"record_is_valid:true"})
	require.True(t, ok)

	stats, err := s.QueryRulesStats(103, filters)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.TotalRecords)
	assert.Equal(t, uint64(1), stats.ValidRecords)
	assert.Equal(t, uint64(0), stats.TransformedRecords)
	assert.Equal(t, lareferencia.RuleCounts{Valid: 1, Invalid: 0}, stats.RuleStats[1])
}

func TestQueryObservationsPaginatesByIdentifierHashAscending(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(104)))
	for _, id := range []string{"oai:a", "oai:b", "oai:c"} {
		require.NoError(t, s.AddObservation(104, sampleObservation(id, true)))
	}
	require.NoError(t, s.Finalize(104))

	page1, info1, err := s.QueryObservations(104, nil, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Equal(t, 3, info1.Total)
	assert.True(t, info1.HasNext)

	page2, info2, err := s.QueryObservations(104, nil, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)
	assert.False(t, info2.HasNext)
}

func TestQueryRuleOccurrencesOrdersByCountDescValueAsc(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(105)))
	require.NoError(t, s.AddObservation(105, lareferencia.RecordValidation{
		IdentifierHash: IdentifierHash("oai:6"), Identifier: "oai:6", RecordIsValid: true,
		RuleFacts: []lareferencia.RuleFact{{RuleID: 2, IsValid: true, ValidOccurrences: []string{"en", "en", "es"}}},
	}))
	require.NoError(t, s.Finalize(105))

	occ, err := s.QueryRuleOccurrences(105, 2, nil)
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, "en", occ[0].Value)
	assert.Equal(t, uint64(2), occ[0].Count)
	assert.Equal(t, "es", occ[1].Value)
}

func TestDeleteRemovesObservationsAndSummary(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(106)))
	require.NoError(t, s.AddObservation(106, sampleObservation("oai:7", true)))
	require.NoError(t, s.Finalize(106))

	require.NoError(t, s.Delete(106))

	_, err := s.GetSnapshotStats(106)
	require.Error(t, err)
	assert.True(t, lrerrors.IsNotFound(err))
}

func TestAddObservationFlushesAtBatchSize(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Initialize(sampleMeta(107)))

	for i := 0; i < flushBatchSize+5; i++ {
		rv := sampleObservation("oai:bulk", true)
		rv.IdentifierHash = IdentifierHash(rv.Identifier) + strconv.Itoa(i)
		require.NoError(t, s.AddObservation(107, rv))
	}

	s.mu.Lock()
	buffered := len(s.state[107].buffer)
	s.mu.Unlock()
	assert.Equal(t, 5, buffered)
}
