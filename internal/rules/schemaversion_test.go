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

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDocumentSatisfiesConstraint(t *testing.T) {
	doc := NewSchemaDocument(map[string][]FieldDescriptor{"Kind": nil})
	assert.Equal(t, SchemaVersion, doc.Version)

	ok, err := doc.Satisfies(">= 1.0.0, < 2.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSchemaDocumentRejectsIncompatibleConstraint(t *testing.T) {
	doc := NewSchemaDocument(nil)

	ok, err := doc.Satisfies(">= 2.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSchemaDocumentSatisfiesRejectsMalformedConstraint(t *testing.T) {
	doc := NewSchemaDocument(nil)

	_, err := doc.Satisfies("not-a-constraint")
	assert.Error(t, err)
}
