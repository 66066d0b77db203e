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

// Package snapshotlog implements the append-only, per-snapshot text
// log: one timestamped entry per line, newest-first pagination.
package snapshotlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	lrerrors "github.com/lareferencia/lrvalidate/internal/errors"
	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

const (
	logFileName  = "snapshot.log"
	entryLayout  = "2006-01-02 15:04:05.000"
	defaultPerms = 0o755

	osAppendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
)

// Store is the filesystem-backed snapshot log. A Store is safe for
// concurrent use: AddEntry opens the file in append mode for every
// call, so the OS's append atomicity covers concurrent small writes
// within a process.
type Store struct {
	fs       afero.Fs
	basePath string
}

// New returns a Store rooted at basePath.
func New(fs afero.Fs, basePath string) *Store {
	return &Store{fs: fs, basePath: basePath}
}

// AddEntry appends one timestamped line to snapshot's log, creating
// the parent directory if needed. Newlines and carriage returns in
// message are replaced with spaces so every entry occupies exactly
// one line.
func (s *Store) AddEntry(snapshot lareferencia.SnapshotMetadata, message string) error {
	path := s.logPath(snapshot)
	if err := s.fs.MkdirAll(filepath.Dir(path), defaultPerms); err != nil {
		return &lrerrors.IoError{Op: "create snapshot log directory", Cause: err}
	}

	f, err := s.fs.OpenFile(path, osAppendFlags, 0o644)
	if err != nil {
		return &lrerrors.IoError{Op: "open snapshot log", Cause: err}
	}
	defer f.Close() //nolint:errcheck // write error below is authoritative

	line := formatEntry(time.Now().UTC(), message)
	if _, err := f.Write([]byte(line)); err != nil {
		return &lrerrors.IoError{Op: "append snapshot log entry", Cause: err}
	}
	return nil
}

func formatEntry(ts time.Time, message string) string {
	sanitized := strings.ReplaceAll(message, "\n", " ")
	sanitized = strings.ReplaceAll(sanitized, "\r", " ")
	return fmt.Sprintf("[%s] %s\n", ts.Format(entryLayout), sanitized)
}

// Page is newest-first log entries plus pagination bookkeeping.
type Page struct {
	Entries []string
	Number  int
	Size    int
	Total   int
	HasNext bool
}

// Read returns page number (1-based) of snapshot's log entries,
// newest-first. A missing log file reads as an empty, zero-total
// page rather than an error, since a snapshot that has not logged
// anything yet is a normal state.
func (s *Store) Read(snapshot lareferencia.SnapshotMetadata, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	lines, err := s.readAllLines(snapshot)
	if err != nil {
		return Page{}, err
	}

	// reverse in place for newest-first order
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}

	total := len(lines)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Page{
		Entries: lines[start:end],
		Number:  page,
		Size:    pageSize,
		Total:   total,
		HasNext: end < total,
	}, nil
}

func (s *Store) readAllLines(snapshot lareferencia.SnapshotMetadata) ([]string, error) {
	path := s.logPath(snapshot)
	f, err := s.fs.Open(path)
	if err != nil {
		if ok, existsErr := afero.Exists(s.fs, path); existsErr == nil && !ok {
			return nil, nil
		}
		return nil, &lrerrors.IoError{Op: "open snapshot log", Cause: err}
	}
	defer f.Close() //nolint:errcheck // read-only handle

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &lrerrors.IoError{Op: "read snapshot log", Cause: err}
	}
	return lines, nil
}

// logPath returns <basePath>/<networkAcronym>/snapshots/snapshot_<id>/snapshot.log.
func (s *Store) logPath(snapshot lareferencia.SnapshotMetadata) string {
	snapshotDir := "snapshot_" + strconv.FormatUint(snapshot.SnapshotID, 10)
	return filepath.Join(s.basePath, snapshot.Network.Acronym, "snapshots", snapshotDir, logFileName)
}
