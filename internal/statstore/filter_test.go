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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterEqualsForm(t *testing.T) {
	f, ok := ParseFilter("record_is_valid:true")
	require.True(t, ok)
	assert.Equal(t, Filter{Field: "record_is_valid", Value: "true", Op: opEquals}, f)
}

func TestParseFilterContainsForm(t *testing.T) {
	f, ok := ParseFilter("identifier@@oai:upbound:123")
	require.True(t, ok)
	assert.Equal(t, "identifier", f.Field)
	assert.Equal(t, "oai:upbound:123", f.Value)
	assert.Equal(t, opContains, f.Op)
}

func TestParseFilterUnquotesValue(t *testing.T) {
	f, ok := ParseFilter(`identifier:"oai:has:colons"`)
	require.True(t, ok)
	assert.Equal(t, "oai:has:colons", f.Value)
}

func TestParseFilterRejectsMissingSeparator(t *testing.T) {
	_, ok := ParseFilter("no_separator_here")
	assert.False(t, ok)
}

func TestValidateFiltersAllOrNothing(t *testing.T) {
	assert.True(t, ValidateFilters([]string{"record_is_valid:true", "valid_rules:3"}))
	assert.False(t, ValidateFilters([]string{"record_is_valid:true", "garbage"}))
}
