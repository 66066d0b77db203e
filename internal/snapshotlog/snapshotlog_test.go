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

package snapshotlog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

func sampleSnapshot() lareferencia.SnapshotMetadata {
	return lareferencia.SnapshotMetadata{
		SnapshotID: 9,
		Network:    lareferencia.NetworkInfo{Acronym: "demo"},
	}
}

func TestAddEntryCreatesParentDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := New(fs, "/data")
	snapshot := sampleSnapshot()

	require.NoError(t, store.AddEntry(snapshot, "harvest started"))

	exists, err := afero.Exists(fs, store.logPath(snapshot))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAddEntrySanitizesNewlines(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/data")
	snapshot := sampleSnapshot()

	require.NoError(t, store.AddEntry(snapshot, "line one\nline two\r\nline three"))

	page, err := store.Read(snapshot, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Contains(t, page.Entries[0], "line one line two  line three")
}

func TestReadReturnsEmptyPageForMissingLog(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/data")
	page, err := store.Read(sampleSnapshot(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.Equal(t, 0, page.Total)
	assert.False(t, page.HasNext)
}

func TestReadOrdersNewestFirstAndPaginates(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/data")
	snapshot := sampleSnapshot()

	for _, msg := range []string{"first", "second", "third"} {
		require.NoError(t, store.AddEntry(snapshot, msg))
	}

	page1, err := store.Read(snapshot, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1.Entries, 2)
	assert.Contains(t, page1.Entries[0], "third")
	assert.Contains(t, page1.Entries[1], "second")
	assert.Equal(t, 3, page1.Total)
	assert.True(t, page1.HasNext)

	page2, err := store.Read(snapshot, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2.Entries, 1)
	assert.Contains(t, page2.Entries[0], "first")
	assert.False(t, page2.HasNext)
}

func TestReadPastEndReturnsEmptyEntries(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/data")
	snapshot := sampleSnapshot()
	require.NoError(t, store.AddEntry(snapshot, "only entry"))

	page, err := store.Read(snapshot, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
	assert.False(t, page.HasNext)
}

func TestEntryFormatHasTimestampBrackets(t *testing.T) {
	store := New(afero.NewMemMapFs(), "/data")
	snapshot := sampleSnapshot()
	require.NoError(t, store.AddEntry(snapshot, "formatted"))

	page, err := store.Read(snapshot, 1, 1)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\] formatted$`, page.Entries[0])
}
