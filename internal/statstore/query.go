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
	"crypto/md5" //nolint:gosec // content addressing, not a security boundary
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// IdentifierHash is the lookup key records are keyed by.
func IdentifierHash(identifier string) string {
	sum := md5.Sum([]byte(identifier)) //nolint:gosec // see import comment
	return hex.EncodeToString(sum[:])
}

// Page describes one page of a queryObservations result.
type Page struct {
	Number  int
	Size    int
	Total   int
	HasNext bool
}

// GetRecordBySnapshotAndIdentifier loads one record's full validation
// outcome, including occurrence detail when it was recorded.
func (s *Store) GetRecordBySnapshotAndIdentifier(snapshotID uint64, identifier string) (lareferencia.RecordValidation, error) {
	hash := IdentifierHash(identifier)
	ruleIDs, err := s.ruleIDsForSnapshot(snapshotID)
	if err != nil {
		return lareferencia.RecordValidation{}, err
	}

	row := make(map[string]any)
	rows, err := s.db.Queryx(fmt.Sprintf(`SELECT * FROM %s WHERE identifier_hash = ?`, recordsTable(snapshotID)), hash)
	if err != nil {
		return lareferencia.RecordValidation{}, &lrerrors.IoError{Op: "query record", Cause: err}
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	found := false
	if rows.Next() {
		found = true
		if err := rows.MapScan(row); err != nil {
			return lareferencia.RecordValidation{}, &lrerrors.IoError{Op: "scan record", Cause: err}
		}
	}
	if !found {
		return lareferencia.RecordValidation{}, &lrerrors.NotFound{Resource: "record", Key: identifier}
	}

	rv, err := rowToRecordValidation(row, ruleIDs)
	if err != nil {
		return lareferencia.RecordValidation{}, err
	}

	occurrences, err := s.occurrencesForRecord(snapshotID, hash)
	if err != nil {
		return lareferencia.RecordValidation{}, err
	}
	for i, f := range rv.RuleFacts {
		if occ, ok := occurrences[uint64(f.RuleID)]; ok {
			rv.RuleFacts[i].ValidOccurrences = occ.valid
			rv.RuleFacts[i].InvalidOccurrences = occ.invalid
		}
	}
	return rv, nil
}

type occurrenceSet struct {
	valid   []string
	invalid []string
}

func (s *Store) occurrencesForRecord(snapshotID uint64, identifierHash string) (map[uint64]occurrenceSet, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT rule_id, is_valid, occurrence_value FROM %s WHERE identifier_hash = ?`, occurrencesTable(snapshotID)), identifierHash)
	if err != nil {
		return nil, &lrerrors.IoError{Op: "query occurrences", Cause: err}
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	out := make(map[uint64]occurrenceSet)
	for rows.Next() {
		var ruleID uint64
		var isValid int
		var value string
		if err := rows.Scan(&ruleID, &isValid, &value); err != nil {
			return nil, &lrerrors.IoError{Op: "scan occurrence", Cause: err}
		}
		set := out[ruleID]
		if isValid != 0 {
			set.valid = append(set.valid, value)
		} else {
			set.invalid = append(set.invalid, value)
		}
		out[ruleID] = set
	}
	return out, nil
}

func rowToRecordValidation(row map[string]any, ruleIDs []uint64) (lareferencia.RecordValidation, error) {
	rv := lareferencia.RecordValidation{
		IdentifierHash:        asString(row["identifier_hash"]),
		Identifier:            asString(row["identifier"]),
		RecordIsValid:         asBool(row["record_is_valid"]),
		IsTransformed:         asBool(row["record_is_transformed"]),
		PublishedMetadataHash: asString(row["published_metadata_hash"]),
	}
	if ts, err := time.Parse(timeLayout, asString(row["datestamp"])); err == nil {
		rv.Datestamp = ts
	}
	for _, id := range ruleIDs {
		v, ok := row[ruleColumn(id)]
		if !ok || v == nil {
			continue
		}
		rv.RuleFacts = append(rv.RuleFacts, lareferencia.RuleFact{RuleID: int32(id), IsValid: asBool(v)}) //nolint:gosec // rule ids are small, config-defined
	}
	return rv, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

// GetSnapshotStats returns the finalized summary for snapshotID, or
// NotFound when the snapshot was never finalized.
func (s *Store) GetSnapshotStats(snapshotID uint64) (lareferencia.SnapshotValidationStats, error) {
	var payload string
	err := s.db.Get(&payload, `SELECT stats_json FROM snapshot_summaries WHERE snapshot_id = ?`, snapshotID)
	if err == sql.ErrNoRows {
		return lareferencia.SnapshotValidationStats{}, &lrerrors.NotFound{Resource: "snapshot stats", Key: strconv.FormatUint(snapshotID, 10)}
	}
	if err != nil {
		return lareferencia.SnapshotValidationStats{}, &lrerrors.IoError{Op: "load snapshot stats", Cause: err}
	}
	var stats lareferencia.SnapshotValidationStats
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		return lareferencia.SnapshotValidationStats{}, &lrerrors.IoError{Op: "decode snapshot stats", Cause: err}
	}
	return stats, nil
}

// QueryRulesStats returns rule valid/invalid counts for snapshotID
// alongside the totals they were drawn from. With no filters this is
// the finalized precomputed summary; with filters everything is
// recomputed on the fly, since a filtered view can't be served from
// the single precomputed blob.
func (s *Store) QueryRulesStats(snapshotID uint64, filters []Filter) (lareferencia.ValidationStatsResult, error) {
	if len(filters) == 0 {
		stats, err := s.GetSnapshotStats(snapshotID)
		if err != nil {
			return lareferencia.ValidationStatsResult{}, err
		}
		return lareferencia.ValidationStatsResult{
			TotalRecords:       stats.TotalRecords,
			ValidRecords:       stats.ValidRecords,
			TransformedRecords: stats.TransformedRecords,
			RuleStats:          stats.RuleStats,
		}, nil
	}

	ruleIDs, err := s.ruleIDsForSnapshot(snapshotID)
	if err != nil {
		return lareferencia.ValidationStatsResult{}, err
	}
	where, args, err := buildWhereClause(filters)
	if err != nil {
		return lareferencia.ValidationStatsResult{}, err
	}
	table := recordsTable(snapshotID)

	totalsQuery := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN record_is_valid = 1 THEN 1 ELSE 0 END), 0) AS valid,
		COALESCE(SUM(CASE WHEN record_is_transformed = 1 THEN 1 ELSE 0 END), 0) AS transformed
		FROM %s`, table)
	if where != "" {
		totalsQuery += " WHERE " + where
	}
	var totals struct {
		Total       uint64 `db:"total"`
		Valid       uint64 `db:"valid"`
		Transformed uint64 `db:"transformed"`
	}
	if err := s.db.Get(&totals, totalsQuery, args...); err != nil {
		return lareferencia.ValidationStatsResult{}, &lrerrors.IoError{Op: "query record totals", Cause: err}
	}

	ruleStats := make(map[uint64]lareferencia.RuleCounts, len(ruleIDs))
	for _, id := range ruleIDs {
		col := ruleColumn(id)
		query := fmt.Sprintf(`SELECT
			COALESCE(SUM(CASE WHEN %s = 1 THEN 1 ELSE 0 END), 0) AS valid,
			COALESCE(SUM(CASE WHEN %s = 0 THEN 1 ELSE 0 END), 0) AS invalid
			FROM %s`, col, col, table)
		if where != "" {
			query += " WHERE " + where
		}
		var counts lareferencia.RuleCounts
		if err := s.db.Get(&counts, query, args...); err != nil {
			return lareferencia.ValidationStatsResult{}, &lrerrors.IoError{Op: "query rule stats", Cause: err}
		}
		ruleStats[id] = counts
	}

	return lareferencia.ValidationStatsResult{
		TotalRecords:       totals.Total,
		ValidRecords:       totals.Valid,
		TransformedRecords: totals.Transformed,
		RuleStats:          ruleStats,
	}, nil
}

// QueryObservations returns a deterministic page of records matching
// filters, ordered by identifier_hash ascending.
func (s *Store) QueryObservations(snapshotID uint64, filters []Filter, page, pageSize int) ([]lareferencia.RecordValidation, Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	ruleIDs, err := s.ruleIDsForSnapshot(snapshotID)
	if err != nil {
		return nil, Page{}, err
	}
	where, args, err := buildWhereClause(filters)
	if err != nil {
		return nil, Page{}, err
	}
	table := recordsTable(snapshotID)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)
	if where != "" {
		countQuery += " WHERE " + where
	}
	var total int
	if err := s.db.Get(&total, countQuery, args...); err != nil {
		return nil, Page{}, &lrerrors.IoError{Op: "count observations", Cause: err}
	}

	listQuery := fmt.Sprintf(`SELECT * FROM %s`, table)
	if where != "" {
		listQuery += " WHERE " + where
	}
	listQuery += " ORDER BY identifier_hash ASC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), pageSize, (page-1)*pageSize)

	rows, err := s.db.Queryx(listQuery, listArgs...)
	if err != nil {
		return nil, Page{}, &lrerrors.IoError{Op: "list observations", Cause: err}
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []lareferencia.RecordValidation
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, Page{}, &lrerrors.IoError{Op: "scan observation", Cause: err}
		}
		rv, err := rowToRecordValidation(row, ruleIDs)
		if err != nil {
			return nil, Page{}, err
		}
		out = append(out, rv)
	}

	return out, Page{Number: page, Size: pageSize, Total: total, HasNext: page*pageSize < total}, nil
}

// RuleOccurrenceCount is one distinct value seen for a rule, with how
// often it occurred, for queryRuleOccurrences.
type RuleOccurrenceCount struct {
	Value   string
	IsValid bool
	Count   uint64
}

// QueryRuleOccurrences returns the distinct occurrence values recorded
// for ruleID within snapshotID, ordered by count desc then value asc.
// Empty unless detailed diagnosis was on when the snapshot ran.
func (s *Store) QueryRuleOccurrences(snapshotID, ruleID uint64, filters []Filter) ([]RuleOccurrenceCount, error) {
	where, args, err := buildWhereClause(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT occurrence_value, is_valid, COUNT(*) AS n FROM %s WHERE rule_id = ?`, occurrencesTable(snapshotID))
	queryArgs := append([]any{ruleID}, args...)
	if where != "" {
		query += " AND " + where
	}
	query += " GROUP BY occurrence_value, is_valid ORDER BY n DESC, occurrence_value ASC"

	rows, err := s.db.Query(query, queryArgs...)
	if err != nil {
		return nil, &lrerrors.IoError{Op: "query rule occurrences", Cause: err}
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []RuleOccurrenceCount
	for rows.Next() {
		var value string
		var isValid int
		var count uint64
		if err := rows.Scan(&value, &isValid, &count); err != nil {
			return nil, &lrerrors.IoError{Op: "scan rule occurrence", Cause: err}
		}
		out = append(out, RuleOccurrenceCount{Value: value, IsValid: isValid != 0, Count: count})
	}
	return out, nil
}

// buildWhereClause translates filters into a SQL predicate over a
// records table. Unrecognized fields are silently skipped; this layer
// has no logger, so surfacing a warning for an unknown field is the
// CLI/worker caller's responsibility.
func buildWhereClause(filters []Filter) (string, []any, error) {
	var clauses []string
	var args []any
	for _, f := range filters {
		if !isRecognizedField(f.Field) {
			continue
		}
		switch f.Field {
		case fieldRecordIsValid:
			clauses = append(clauses, "record_is_valid = ?")
			args = append(args, boolToInt(parseFilterBool(f.Value)))
		case fieldRecordIsTransformed:
			clauses = append(clauses, "record_is_transformed = ?")
			args = append(args, boolToInt(parseFilterBool(f.Value)))
		case fieldIdentifier:
			if f.Op == opContains {
				clauses = append(clauses, "identifier LIKE ?")
				args = append(args, "%"+f.Value+"%")
			} else {
				clauses = append(clauses, "identifier = ?")
				args = append(args, f.Value)
			}
		case fieldValidRules:
			id, err := strconv.ParseUint(f.Value, 10, 64)
			if err != nil {
				return "", nil, &lrerrors.ValidationStatisticsError{Op: "parse valid_rules filter", Cause: err}
			}
			clauses = append(clauses, fmt.Sprintf("%s = 1", ruleColumn(id)))
		case fieldInvalidRules:
			id, err := strconv.ParseUint(f.Value, 10, 64)
			if err != nil {
				return "", nil, &lrerrors.ValidationStatisticsError{Op: "parse invalid_rules filter", Cause: err}
			}
			clauses = append(clauses, fmt.Sprintf("%s = 0", ruleColumn(id)))
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

func parseFilterBool(v string) bool {
	return v == "true" || v == "1"
}
