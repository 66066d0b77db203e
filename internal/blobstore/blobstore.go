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

// Package blobstore implements a content-addressed, gzip-
// compressed, hash-partitioned store of record metadata XML.
package blobstore

import (
	"crypto/md5" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	gzip "github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const blobExt = ".xml.gz"

// Store is the filesystem-backed metadata blob store. A Store is safe
// for concurrent use: two writers racing to publish the same hash
// race only on the final rename, and both produce identical bytes.
type Store struct {
	fs       afero.Fs
	basePath string
}

// New returns a Store rooted at basePath on fs.
func New(fs afero.Fs, basePath string) *Store {
	return &Store{fs: fs, basePath: basePath}
}

// Store computes xml's content hash, gzip-compresses it and writes it
// under its hash-partitioned path, returning the hash. A write is
// atomic-or-idempotent: an existing blob for the same hash is left
// untouched, so two snapshots publishing identical XML share one blob.
func (s *Store) Store(snapshot lareferencia.SnapshotMetadata, xml string) (string, error) {
	sum := md5.Sum([]byte(xml)) //nolint:gosec // see import comment
	hash := hex.EncodeToString(sum[:])

	path := s.blobPath(snapshot, hash)
	if ok, err := afero.Exists(s.fs, path); err != nil {
		return "", &lrerrors.IoError{Op: "stat blob", Cause: err}
	} else if ok {
		return hash, nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &lrerrors.IoError{Op: "create blob directory", Cause: err}
	}

	tmpPath := path + "." + uuid.NewString() + ".tmp"
	if err := s.writeCompressed(tmpPath, xml); err != nil {
		return "", err
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		if ok, existsErr := afero.Exists(s.fs, path); existsErr == nil && ok {
			// Another writer won the race to the same hash; its bytes
			// are identical to ours, so this is not a failure.
			return hash, nil
		}
		return "", &lrerrors.IoError{Op: "publish blob", Cause: err}
	}
	return hash, nil
}

func (s *Store) writeCompressed(path, xml string) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return &lrerrors.IoError{Op: "create temporary blob", Cause: err}
	}
	defer f.Close() //nolint:errcheck // best-effort close; write errors below are authoritative

	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(xml)); err != nil {
		return &lrerrors.IoError{Op: "compress blob", Cause: err}
	}
	if err := gz.Close(); err != nil {
		return &lrerrors.IoError{Op: "finalize blob", Cause: err}
	}
	return nil
}

// Get opens the blob addressed by hash, gzip-decodes it and returns
// the original XML string. Fails with NotFound if the blob does not
// exist.
func (s *Store) Get(snapshot lareferencia.SnapshotMetadata, hash string) (string, error) {
	path := s.blobPath(snapshot, hash)

	f, err := s.fs.Open(path)
	if err != nil {
		if ok, existsErr := afero.Exists(s.fs, path); existsErr == nil && !ok {
			return "", &lrerrors.NotFound{Resource: "blob", Key: hash}
		}
		return "", &lrerrors.IoError{Op: "open blob", Cause: err}
	}
	defer f.Close() //nolint:errcheck // read-only handle

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", &lrerrors.IoError{Op: "decompress blob", Cause: err}
	}
	defer gz.Close() //nolint:errcheck // read-only handle

	contents, err := io.ReadAll(gz)
	if err != nil {
		return "", &lrerrors.IoError{Op: "read blob", Cause: err}
	}
	return string(contents), nil
}

// CleanAndOptimize scans the store for maintenance opportunities. This
// design keeps the store append-only with no background compaction,
// so it is a no-op that always reports success.
func (s *Store) CleanAndOptimize(_ lareferencia.SnapshotMetadata) (bool, error) {
	return true, nil
}

// blobPath returns <basePath>/<h0>/<h1>/<h2>/<hash>.xml.gz, where
// h0..h2 are hash's first three hex characters, uppercased. The path
// carries no snapshot segment: two snapshots publishing the same XML
// share the same blob, which is how cross-snapshot dedup works. The
// snapshot argument is unused here but kept so Store/Get share a
// uniform signature across the package's methods.
func (s *Store) blobPath(_ lareferencia.SnapshotMetadata, hash string) string {
	h0 := strings.ToUpper(hash[0:1])
	h1 := strings.ToUpper(hash[1:2])
	h2 := strings.ToUpper(hash[2:3])
	return filepath.Join(s.basePath, h0, h1, h2, fmt.Sprintf("%s%s", hash, blobExt))
}
