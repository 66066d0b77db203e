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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/lareferencia/lrvalidate/internal/blobstore"
	"github.com/lareferencia/lrvalidate/internal/catalog"
	"github.com/lareferencia/lrvalidate/internal/logging"
	"github.com/lareferencia/lrvalidate/internal/snapshotlog"
	"github.com/lareferencia/lrvalidate/internal/statstore"
	"github.com/lareferencia/lrvalidate/internal/worker"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// validateCmd wires an in-memory catalog seeded from a fixture file,
// the real filesystem-backed blob/stat/log stores, and runs the
// worker once. There is no real catalog, harvester or HTTP API behind
// this command; it exists to exercise the engine end to end without
// either.
type validateCmd struct {
	Network  string `required:"" help:"Network acronym to validate."`
	Snapshot string `required:"" help:"Path to a JSON snapshot fixture."`
	BasePath string `default:"/tmp/lrvalidate" help:"Root directory for the blob store, stat store and snapshot log."`
}

// fixtureRecord is one harvested record in a fixture file, standing in
// for what a real harvester would already have produced.
type fixtureRecord struct {
	Identifier string `json:"identifier"`
	Datestamp  string `json:"datestamp"`
	XML        string `json:"xml"`
}

// fixtureDocument is the --snapshot file's shape: the snapshot
// metadata the catalog would normally serve, plus its records.
type fixtureDocument struct {
	Metadata lareferencia.SnapshotMetadata `json:"metadata"`
	Records  []fixtureRecord               `json:"records"`
}

func (c *validateCmd) Run(ctx context.Context) error {
	raw, err := os.ReadFile(c.Snapshot)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var doc fixtureDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	fs := afero.NewOsFs()
	blobs := blobstore.New(fs, c.BasePath)
	slog := snapshotlog.New(fs, c.BasePath)
	logger := logging.NewLogger(0)

	stats, err := statstore.Open(c.BasePath+"/lrvalidate.db", logger)
	if err != nil {
		return fmt.Errorf("open stat store: %w", err)
	}
	defer stats.Close() //nolint:errcheck // best-effort close at process exit

	records, err := seedBlobs(blobs, doc)
	if err != nil {
		return err
	}

	cat := catalog.NewMemory()
	cat.Seed(c.Network, doc.Metadata, records)

	w := worker.New(blobs, stats, slog, cat, cat, logger)
	if err := w.Run(ctx, c.Network); err != nil {
		return fmt.Errorf("run worker: %w", err)
	}

	final, err := cat.GetSnapshotMetadata(doc.Metadata.SnapshotID)
	if err != nil {
		return fmt.Errorf("read final snapshot metadata: %w", err)
	}
	summary, err := stats.GetSnapshotStats(doc.Metadata.SnapshotID)
	if err != nil {
		return fmt.Errorf("read snapshot stats: %w", err)
	}

	fmt.Printf("snapshot %d: status=%s size=%d valid_size=%d transformed_size=%d total_records=%d valid_records=%d transformed_records=%d\n",
		final.SnapshotID, final.Status, final.Size, final.ValidSize, final.TransformedSize,
		summary.TotalRecords, summary.ValidRecords, summary.TransformedRecords)
	return nil
}

// seedBlobs publishes each fixture record's raw XML into the blob
// store, the step a real harvester would already have done, and
// returns the resulting HarvestedRecord set.
func seedBlobs(blobs *blobstore.Store, doc fixtureDocument) ([]lareferencia.HarvestedRecord, error) {
	records := make([]lareferencia.HarvestedRecord, 0, len(doc.Records))
	for _, r := range doc.Records {
		hash, err := blobs.Store(doc.Metadata, r.XML)
		if err != nil {
			return nil, fmt.Errorf("store blob for %q: %w", r.Identifier, err)
		}
		datestamp, err := time.Parse(time.RFC3339, r.Datestamp)
		if err != nil {
			return nil, fmt.Errorf("parse datestamp for %q: %w", r.Identifier, err)
		}
		records = append(records, lareferencia.HarvestedRecord{
			ID:                   r.Identifier,
			Identifier:           r.Identifier,
			Datestamp:            datestamp,
			OriginalMetadataHash: hash,
		})
	}
	return records, nil
}
