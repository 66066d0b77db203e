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

// Package errors holds the typed error taxonomy surfaced across the
// metadata blob store, stat store, rule engine and worker.
package errors

import "fmt"

// NotFound is returned when a blob, record or stat summary does not
// exist for the requested key.
type NotFound struct {
	Resource string
	Key      string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// IsNotFound reports whether err (or one of its wrapped causes) is a
// NotFound error.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFound) //nolint:errorlint // matched via errors.As by callers that need unwrapping
	if ok {
		return true
	}
	type unwrapper interface{ Unwrap() error }
	for u, ok := err.(unwrapper); ok; u, ok = err.(unwrapper) {
		err = u.Unwrap()
		if _, ok := err.(*NotFound); ok {
			return true
		}
	}
	return false
}

// IoError wraps a filesystem or transport failure encountered by the
// blob store, snapshot log or stat-store flush path.
type IoError struct {
	Op    string
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// MetadataParseError is returned when the metadata tree fails to parse a record's XML.
type MetadataParseError struct {
	RecordID string
	Cause    error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("cannot parse metadata for record %q: %v", e.RecordID, e.Cause)
}

func (e *MetadataParseError) Unwrap() error { return e.Cause }

// TransformError is returned when a transformer rule fails to apply.
// It aborts processing of the current record.
type TransformError struct {
	RuleID   uint64
	Class    string
	RecordID string
	Cause    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform rule %d (%s) failed for record %q: %v", e.RuleID, e.Class, e.RecordID, e.Cause)
}

func (e *TransformError) Unwrap() error { return e.Cause }

// ValidationStatisticsError is returned by stat-store queries that
// cannot be satisfied (malformed filters, backend failures).
type ValidationStatisticsError struct {
	Op    string
	Cause error
}

func (e *ValidationStatisticsError) Error() string {
	return fmt.Sprintf("validation statistics error during %s: %v", e.Op, e.Cause)
}

func (e *ValidationStatisticsError) Unwrap() error { return e.Cause }
