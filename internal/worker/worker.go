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

// Package worker implements the validation worker: the state machine
// that binds the blob store, the rule engine, the stat store, the
// snapshot log and the snapshot catalog into one per-snapshot pass
// over harvested records.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/lareferencia/lrvalidate/internal/blobstore"
	"github.com/lareferencia/lrvalidate/internal/catalog"
	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/internal/metadatatree"
	"github.com/lareferencia/lrvalidate/internal/rules"
	"github.com/lareferencia/lrvalidate/internal/rules/transformer"
	"github.com/lareferencia/lrvalidate/internal/rules/validator"
	"github.com/lareferencia/lrvalidate/internal/snapshotlog"
	"github.com/lareferencia/lrvalidate/internal/statstore"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// progressPageSize is how many records the worker processes between
// pushes of running counts to the snapshot catalog.
const progressPageSize = 1000

// Worker runs one snapshot's validation pass end to end. A Worker
// instance is not reused across concurrent Run calls; run separate
// snapshots through separate Workers (or serialize Run calls) the way
// the scheduling model requires.
type Worker struct {
	blobs   *blobstore.Store
	stats   *statstore.Store
	log     *snapshotlog.Store
	catalog catalog.SnapshotStore
	harvest catalog.HarvestStore
	logger  logr.Logger

	stopped atomic.Bool
}

// New assembles a Worker from its collaborators.
func New(blobs *blobstore.Store, stats *statstore.Store, log *snapshotlog.Store, cat catalog.SnapshotStore, harvest catalog.HarvestStore, logger logr.Logger) *Worker {
	return &Worker{blobs: blobs, stats: stats, log: log, catalog: cat, harvest: harvest, logger: logger}
}

// Stop requests cooperative shutdown. Checked at the top of the
// per-record loop and after each progress page; does not interrupt a
// record already in flight.
func (w *Worker) Stop() { w.stopped.Store(true) }

// Run executes preRun, the per-record loop, and postRun for
// networkAcronym's most recently harvested snapshot. A run that is
// stopped partway ends its loop normally, so postRun still calls
// stats.Finalize. A run that fails in buildRules or in the record loop
// does not finalize: fail logs the error and sets the terminal status,
// leaving only what the stat store had already flushed.
func (w *Worker) Run(ctx context.Context, networkAcronym string) error {
	meta, it, err := w.preRun(networkAcronym)
	if err != nil {
		return err
	}
	defer it.Close() //nolint:errcheck // the loop below reports its own errors; this is best-effort cleanup

	v, tr, str, err := w.buildRules(meta)
	if err != nil {
		w.fail(meta, err)
		return err
	}

	if err := w.processAll(ctx, meta, it, v, tr, str); err != nil {
		w.fail(meta, err)
		return err
	}

	return w.postRun(meta)
}

// preRun discovers the snapshot to validate, loads its metadata, opens
// its record iterator, and resets the stat store for a fresh pass.
func (w *Worker) preRun(networkAcronym string) (lareferencia.SnapshotMetadata, catalog.RecordIterator, error) {
	snapshotID, ok, err := w.catalog.FindLastHarvestingSnapshot(networkAcronym)
	if err != nil {
		return lareferencia.SnapshotMetadata{}, nil, err
	}
	if !ok {
		return lareferencia.SnapshotMetadata{}, nil, &lrerrors.NotFound{Resource: "harvested snapshot", Key: networkAcronym}
	}

	meta, err := w.catalog.GetSnapshotMetadata(snapshotID)
	if err != nil {
		return lareferencia.SnapshotMetadata{}, nil, err
	}

	it, err := w.harvest.Iterator(snapshotID)
	if err != nil {
		return lareferencia.SnapshotMetadata{}, nil, err
	}

	if err := w.stats.Delete(meta.SnapshotID); err != nil {
		_ = it.Close()
		return lareferencia.SnapshotMetadata{}, nil, err
	}
	if err := w.stats.Initialize(meta); err != nil {
		_ = it.Close()
		return lareferencia.SnapshotMetadata{}, nil, err
	}
	if err := w.catalog.ResetSnapshotValidationCounts(meta.SnapshotID); err != nil {
		_ = it.Close()
		return lareferencia.SnapshotMetadata{}, nil, err
	}
	if err := w.catalog.StartValidation(meta.SnapshotID); err != nil {
		_ = it.Close()
		return lareferencia.SnapshotMetadata{}, nil, err
	}

	_ = w.log.AddEntry(meta, fmt.Sprintf("validation started for snapshot %d", meta.SnapshotID))
	return meta, it, nil
}

// buildRules decodes whichever of validator/transformer/secondary
// transformer the network configured; a nil engine means "not
// configured", not "configured empty".
func (w *Worker) buildRules(meta lareferencia.SnapshotMetadata) (*validator.Validator, *transformer.Transformer, *transformer.Transformer, error) {
	var v *validator.Validator
	if len(meta.Network.Validator) > 0 {
		built, err := validator.New(meta.Network.Validator, w.logger)
		if err != nil {
			return nil, nil, nil, err
		}
		v = built
	}

	var tr *transformer.Transformer
	if len(meta.Network.Transformer) > 0 {
		built, err := transformer.New(meta.Network.Transformer, w.logger)
		if err != nil {
			return nil, nil, nil, err
		}
		tr = built
	}

	var str *transformer.Transformer
	if len(meta.Network.SecondaryTransformer) > 0 {
		built, err := transformer.New(meta.Network.SecondaryTransformer, w.logger)
		if err != nil {
			return nil, nil, nil, err
		}
		str = built
	}

	return v, tr, str, nil
}

// processAll drives the per-record loop, pushing progress counts to
// the catalog every progressPageSize records and after the loop ends.
func (w *Worker) processAll(ctx context.Context, meta lareferencia.SnapshotMetadata, it catalog.RecordIterator, v *validator.Validator, tr, str *transformer.Transformer) error {
	result := &rules.ValidatorResult{}
	var total, valid, transformedCount uint64
	inPage := 0

	for {
		if w.stopped.Load() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		rv, changed, err := w.processItem(ctx, meta, &record, v, tr, str, result)
		if err != nil {
			return err
		}
		if err := w.stats.AddObservation(meta.SnapshotID, rv); err != nil {
			return err
		}

		total++
		if rv.RecordIsValid {
			valid++
		}
		if changed {
			transformedCount++
		}
		inPage++

		if inPage >= progressPageSize {
			if err := w.catalog.UpdateSnapshotCounts(meta.SnapshotID, total, valid, transformedCount); err != nil {
				return err
			}
			inPage = 0
		}
	}

	return w.catalog.UpdateSnapshotCounts(meta.SnapshotID, total, valid, transformedCount)
}

// processItem runs one record through fetch, transform, validate and
// (if changed) republish, producing the RecordValidation row the stat
// store persists.
func (w *Worker) processItem(ctx context.Context, meta lareferencia.SnapshotMetadata, record *lareferencia.HarvestedRecord, v *validator.Validator, tr, str *transformer.Transformer, result *rules.ValidatorResult) (lareferencia.RecordValidation, bool, error) {
	result.Reset()

	xml, err := w.blobs.Get(meta, record.OriginalMetadataHash)
	if err != nil {
		return lareferencia.RecordValidation{}, false, err
	}

	tree, err := metadatatree.New(record.Identifier, record.Datestamp, meta.Network.OriginURL, "", meta.Network.MetadataStoreSchema, xml)
	if err != nil {
		return lareferencia.RecordValidation{}, false, err
	}

	changed := false
	if tr != nil {
		c, err := tr.Transform(ctx, record, tree)
		if err != nil {
			return lareferencia.RecordValidation{}, false, err
		}
		changed = changed || c
	}
	if str != nil {
		c, err := str.Transform(ctx, record, tree)
		if err != nil {
			return lareferencia.RecordValidation{}, false, err
		}
		changed = changed || c
	}

	if v != nil {
		v.Validate(tree, result)
	} else {
		result.Valid = true
	}

	publishedHash := record.OriginalMetadataHash
	if changed {
		publishedHash, err = w.blobs.Store(meta, tree.Serialize())
		if err != nil {
			return lareferencia.RecordValidation{}, false, err
		}
		record.Datestamp = time.Now().UTC()
	}
	result.Transformed = changed
	result.MetadataHash = publishedHash

	rv := lareferencia.RecordValidation{
		IdentifierHash:        statstore.IdentifierHash(record.Identifier),
		Identifier:            record.Identifier,
		Datestamp:             record.Datestamp,
		RecordIsValid:         result.Valid,
		IsTransformed:         changed,
		PublishedMetadataHash: publishedHash,
		RuleFacts:             w.buildRuleFacts(v, meta, result),
	}
	return rv, changed, nil
}

// buildRuleFacts translates the reusable ValidatorResult into the
// persisted RuleFact rows, populating occurrence detail only when
// detailed diagnosis is on for the network and the rule itself asked
// to store occurrences.
func (w *Worker) buildRuleFacts(v *validator.Validator, meta lareferencia.SnapshotMetadata, result *rules.ValidatorResult) []lareferencia.RuleFact {
	detailed := meta.Network.BoolProperty("DETAILED_DIAGNOSE")
	facts := make([]lareferencia.RuleFact, 0, len(result.RulesResults))
	for _, rr := range result.RulesResults {
		fact := lareferencia.RuleFact{RuleID: int32(rr.RuleID), IsValid: rr.Valid} //nolint:gosec // rule ids are small, persisted identifiers, never attacker-controlled magnitudes
		if detailed && v != nil && v.StoreOccurrencesFor(rr.RuleID) {
			for _, cr := range rr.Results {
				if cr.Valid {
					fact.ValidOccurrences = append(fact.ValidOccurrences, cr.ReceivedValue)
				} else {
					fact.InvalidOccurrences = append(fact.InvalidOccurrences, cr.ReceivedValue)
				}
			}
		}
		facts = append(facts, fact)
	}
	return facts
}

// postRun finalizes the stat store, marks the snapshot valid, and logs
// the outcome.
func (w *Worker) postRun(meta lareferencia.SnapshotMetadata) error {
	if err := w.stats.Finalize(meta.SnapshotID); err != nil {
		return err
	}
	if err := w.catalog.FinishValidation(meta.SnapshotID); err != nil {
		return err
	}

	summary := "validation finished"
	if stats, err := w.stats.GetSnapshotStats(meta.SnapshotID); err == nil {
		summary = fmt.Sprintf("validation finished: total=%d valid=%d transformed=%d", stats.TotalRecords, stats.ValidRecords, stats.TransformedRecords)
	}
	_ = w.log.AddEntry(meta, summary)
	return nil
}

// fail logs err to the snapshot log and transitions the snapshot to
// its terminal harvesting-finished status, preserving whatever counts
// the catalog already has. Partial validation data (whatever was
// flushed to the stat store before the failure) remains readable but
// incomplete.
func (w *Worker) fail(meta lareferencia.SnapshotMetadata, err error) {
	_ = w.log.AddEntry(meta, fmt.Sprintf("validation failed: %v", err))
	_ = w.catalog.FinishHarvesting(meta.SnapshotID, terminalStatusFor(err))
}

// terminalStatusFor picks the terminal status an error transitions the
// snapshot to: a metadata parse failure is treated as a harvesting
// (not validation) problem and reports valid, everything else reports
// the error terminal state.
func terminalStatusFor(err error) lareferencia.SnapshotStatus {
	var parseErr *lrerrors.MetadataParseError
	if asMetadataParseError(err, &parseErr) {
		return lareferencia.StatusHarvestingFinishedValid
	}
	return lareferencia.StatusHarvestingFinishedError
}

func asMetadataParseError(err error, target **lrerrors.MetadataParseError) bool {
	for err != nil {
		if pe, ok := err.(*lrerrors.MetadataParseError); ok { //nolint:errorlint // narrow local unwrap, mirrors errors.IsNotFound
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error }) //nolint:errorlint // see above
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
