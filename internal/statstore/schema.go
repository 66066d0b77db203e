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
	"strconv"

	migrate "github.com/rubenv/sql-migrate"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
)

// bootstrapMigrations creates the assets whose schema is fixed: the
// finalized per-snapshot summary blob and the ordered list of rule ids
// a snapshot was initialized with. Everything whose column set depends
// on a snapshot's rule definitions is out of sql-migrate's reach (it
// has no way to express a runtime-determined column list) and is
// created directly by initialize via raw DDL instead.
var bootstrapMigrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_bootstrap",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS snapshot_summaries (
					snapshot_id INTEGER PRIMARY KEY,
					stats_json TEXT NOT NULL,
					finalized_at TEXT NOT NULL
)`,
				`CREATE TABLE IF NOT EXISTS snapshot_rules (
					snapshot_id INTEGER NOT NULL,
					rule_id INTEGER NOT NULL
)`,
			},
			Down: []string{
				`DROP TABLE IF EXISTS snapshot_rules`,
				`DROP TABLE IF EXISTS snapshot_summaries`,
			},
		},
	},
}

func (s *Store) bootstrap() error {
	_, err := migrate.Exec(s.db.DB, "sqlite3", bootstrapMigrations, migrate.Up)
	if err != nil {
		return &lrerrors.IoError{Op: "bootstrap stat store schema", Cause: err}
	}
	return nil
}

func recordsTable(snapshotID uint64) string {
	return "records_" + strconv.FormatUint(snapshotID, 10)
}

func occurrencesTable(snapshotID uint64) string {
	return "occurrences_" + strconv.FormatUint(snapshotID, 10)
}

func ruleColumn(ruleID uint64) string {
	return "rule_" + strconv.FormatUint(ruleID, 10)
}

// createSnapshotTables drops and recreates the per-snapshot tables for
// snapshotID, with one boolean column per id in ruleIDs.
func (s *Store) createSnapshotTables(snapshotID uint64, ruleIDs []uint64) error {
	records := recordsTable(snapshotID)
	occurrences := occurrencesTable(snapshotID)

	if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, records)); err != nil {
		return &lrerrors.IoError{Op: "drop records table", Cause: err}
	}
	if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, occurrences)); err != nil {
		return &lrerrors.IoError{Op: "drop occurrences table", Cause: err}
	}

	cols := `identifier_hash TEXT PRIMARY KEY,
		identifier TEXT NOT NULL,
		datestamp TEXT NOT NULL,
		record_is_valid INTEGER NOT NULL,
		record_is_transformed INTEGER NOT NULL,
		published_metadata_hash TEXT NOT NULL`
	for _, id := range ruleIDs {
		cols += fmt.Sprintf(", %s INTEGER", ruleColumn(id))
	}
	if _, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE %s (%s)`, records, cols)); err != nil {
		return &lrerrors.IoError{Op: "create records table", Cause: err}
	}

	occSchema := `identifier_hash TEXT NOT NULL,
		rule_id INTEGER NOT NULL,
		is_valid INTEGER NOT NULL,
		occurrence_value TEXT NOT NULL`
	if _, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE %s (%s)`, occurrences, occSchema)); err != nil {
		return &lrerrors.IoError{Op: "create occurrences table", Cause: err}
	}
	if _, err := s.db.Exec(fmt.Sprintf(`CREATE INDEX idx_%s_rule ON %s (rule_id)`, occurrences, occurrences)); err != nil {
		return &lrerrors.IoError{Op: "index occurrences table", Cause: err}
	}

	if _, err := s.db.Exec(`DELETE FROM snapshot_rules WHERE snapshot_id = ?`, snapshotID); err != nil {
		return &lrerrors.IoError{Op: "reset snapshot rule list", Cause: err}
	}
	for _, id := range ruleIDs {
		if _, err := s.db.Exec(`INSERT INTO snapshot_rules (snapshot_id, rule_id) VALUES (?, ?)`, snapshotID, id); err != nil {
			return &lrerrors.IoError{Op: "record snapshot rule list", Cause: err}
		}
	}
	return nil
}

// dropSnapshotTables removes every asset createSnapshotTables made, for
// delete(snapshotId).
func (s *Store) dropSnapshotTables(snapshotID uint64) error {
	if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, recordsTable(snapshotID))); err != nil {
		return &lrerrors.IoError{Op: "drop records table", Cause: err}
	}
	if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, occurrencesTable(snapshotID))); err != nil {
		return &lrerrors.IoError{Op: "drop occurrences table", Cause: err}
	}
	if _, err := s.db.Exec(`DELETE FROM snapshot_rules WHERE snapshot_id = ?`, snapshotID); err != nil {
		return &lrerrors.IoError{Op: "clear snapshot rule list", Cause: err}
	}
	if _, err := s.db.Exec(`DELETE FROM snapshot_summaries WHERE snapshot_id = ?`, snapshotID); err != nil {
		return &lrerrors.IoError{Op: "clear snapshot summary", Cause: err}
	}
	return nil
}

func (s *Store) ruleIDsForSnapshot(snapshotID uint64) ([]uint64, error) {
	var ids []uint64
	if err := s.db.Select(&ids, `SELECT rule_id FROM snapshot_rules WHERE snapshot_id = ? ORDER BY rule_id`, snapshotID); err != nil {
		return nil, &lrerrors.IoError{Op: "load snapshot rule list", Cause: err}
	}
	return ids, nil
}
