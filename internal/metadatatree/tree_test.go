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

package metadatatree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<metadata><element name='dc'><element name='title'><element name='none'><field name='value'>Hello</field></element></element></element></metadata>`

func newSample(t *testing.T) *OAIRecordMetadata {
	t.Helper()
	m, err := New("oai:test:1", time.Unix(0, 0), "http://origin", "", "dc", sampleXML)
	require.NoError(t, err)
	return m
}

func TestFieldOccurrencesDefaultLeaf(t *testing.T) {
	m := newSample(t)
	assert.Equal(t, []string{"Hello"}, m.FieldOccurrences("dc.title.none"))
	assert.Equal(t, []string{"Hello"}, m.FieldOccurrences("dc.title.none:value"))
}

func TestFieldOccurrencesAbsentPath(t *testing.T) {
	m := newSample(t)
	assert.Empty(t, m.FieldOccurrences("dc.subject.none"))
	assert.Empty(t, m.FieldOccurrences("dc.title.none:lang"))
}

func TestFieldOccurrencesWildcard(t *testing.T) {
	m := newSample(t)
	assert.Equal(t, []string{"Hello"}, m.FieldOccurrences("dc.*.none"))
}

func TestParsePathTruncated(t *testing.T) {
	p := parsePath("dc.subject.$")
	assert.True(t, p.truncated)
	assert.Equal(t, []string{"dc", "subject"}, p.elements)
}

func TestAddFieldOccurrenceCreatesIntermediates(t *testing.T) {
	m := newSample(t)
	m.AddFieldOccurrence("dc.subject.none", "X")
	assert.Equal(t, []string{"X"}, m.FieldOccurrences("dc.subject.none"))
}

func TestAddFieldOccurrenceAppends(t *testing.T) {
	m := newSample(t)
	m.AddFieldOccurrence("dc.title.none", "World")
	assert.Equal(t, []string{"Hello", "World"}, m.FieldOccurrences("dc.title.none"))
}

func TestRemoveFieldOccurrence(t *testing.T) {
	m := newSample(t)
	m.RemoveFieldOccurrence("dc.title.none")
	assert.Empty(t, m.FieldOccurrences("dc.title.none"))
}

func TestReplaceFieldOccurrenceNoopWhenAbsent(t *testing.T) {
	m := newSample(t)
	m.ReplaceFieldOccurrence("dc.subject.none", "X")
	assert.Empty(t, m.FieldOccurrences("dc.subject.none"))
}

func TestReplaceFieldOccurrenceInPlace(t *testing.T) {
	m := newSample(t)
	m.ReplaceFieldOccurrence("dc.title.none", "Bye")
	assert.Equal(t, []string{"Bye"}, m.FieldOccurrences("dc.title.none"))
}

func TestRemoveNode(t *testing.T) {
	m := newSample(t)
	nodes := m.FieldNodes("dc.title.none")
	require.Len(t, nodes, 1)
	m.RemoveNode(nodes[0])
	assert.Empty(t, m.FieldOccurrences("dc.title.none"))
}

func TestSerializeRoundTrip(t *testing.T) {
	m := newSample(t)
	out := m.Serialize()

	m2, err := New("oai:test:1", time.Unix(0, 0), "http://origin", "", "dc", out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, m2.FieldOccurrences("dc.title.none"))
}

func TestSerializeEscapesValues(t *testing.T) {
	m := newSample(t)
	m.ReplaceFieldOccurrence("dc.title.none", "A & B < C")
	out := m.Serialize()
	assert.Contains(t, out, "A &amp; B &lt; C")
}

func TestParseErrorOnMalformedXML(t *testing.T) {
	_, err := New("oai:test:1", time.Unix(0, 0), "", "", "", "<metadata><element name='dc'>")
	assert.Error(t, err)
}
