// Copyright 2024 Upbound Inc
// All rights reserved

// Package logging constructs the logr.Logger handed to the worker and
// the stat store. The engine and stores never reach for a concrete
// logging backend directly; they accept a logr.Logger so callers can
// plug in whatever sink their deployment uses.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a logr.Logger that writes to stderr with a
// timestamp prefix, filtered to level. A level of 0 logs Info and
// Error; higher levels surface increasingly verbose V(n) messages.
func NewLogger(level int) logr.Logger {
	sink := funcr.New(func(prefix, args string) {
		ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", ts, prefix, args)
			return
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", ts, args)
	}, funcr.Options{
		Verbosity: level,
	})
	return logr.New(sink)
}

// WithSnapshot returns a logger annotated with the snapshot id, the
// key-value pair every worker/stat-store log line carries.
func WithSnapshot(log logr.Logger, snapshotID uint64) logr.Logger {
	return log.WithValues("snapshotId", snapshotID)
}
