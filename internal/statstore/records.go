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
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// insertRecord writes one record row plus its occurrence rows (when
// rv's RuleFacts carry any — callers populate those only when detailed
// diagnosis applies).
func insertRecord(tx *sqlx.Tx, snapshotID uint64, ruleIDs []uint64, rv lareferencia.RecordValidation) error {
	table := recordsTable(snapshotID)

	cols := []string{"identifier_hash", "identifier", "datestamp", "record_is_valid", "record_is_transformed", "published_metadata_hash"}
	vals := []any{rv.IdentifierHash, rv.Identifier, rv.Datestamp.UTC().Format(timeLayout), boolToInt(rv.RecordIsValid), boolToInt(rv.IsTransformed), rv.PublishedMetadataHash}

	byRule := make(map[uint64]lareferencia.RuleFact, len(rv.RuleFacts))
	for _, f := range rv.RuleFacts {
		byRule[uint64(f.RuleID)] = f
	}
	for _, id := range ruleIDs {
		cols = append(cols, ruleColumn(id))
		if f, ok := byRule[id]; ok {
			vals = append(vals, boolToInt(f.IsValid))
		} else {
			vals = append(vals, nil)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, strings.Join(cols, ", "), placeholders)
	if _, err := tx.Exec(stmt, vals...); err != nil {
		return &lrerrors.IoError{Op: "insert record row", Cause: err}
	}

	occTable := occurrencesTable(snapshotID)
	for _, f := range rv.RuleFacts {
		for _, v := range f.ValidOccurrences {
			if _, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (identifier_hash, rule_id, is_valid, occurrence_value) VALUES (?, ?, 1, ?)`, occTable),
				rv.IdentifierHash, f.RuleID, v); err != nil {
				return &lrerrors.IoError{Op: "insert occurrence row", Cause: err}
			}
		}
		for _, v := range f.InvalidOccurrences {
			if _, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (identifier_hash, rule_id, is_valid, occurrence_value) VALUES (?, ?, 0, ?)`, occTable),
				rv.IdentifierHash, f.RuleID, v); err != nil {
				return &lrerrors.IoError{Op: "insert occurrence row", Cause: err}
			}
		}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
