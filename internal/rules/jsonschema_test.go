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

type sampleSchemaConfig struct {
	Field   string `json:"field" lr:"title=Field,desc=Target field,order=1"`
	Pattern string `json:"pattern" lr:"title=Pattern,order=2"`
	Hidden  string `json:"hidden"`
}

func TestJSONSchemaForAnnotatesDescribedProperties(t *testing.T) {
	schema := JSONSchemaFor(&sampleSchemaConfig{})
	require.NotNil(t, schema)
	require.NotNil(t, schema.Properties)

	prop, ok := schema.Properties.Get("field")
	require.True(t, ok)
	assert.Equal(t, "Field", prop.Title)
	assert.Equal(t, "Target field", prop.Description)
}

func TestJSONSchemaForLeavesUndescribedPropertiesAlone(t *testing.T) {
	schema := JSONSchemaFor(&sampleSchemaConfig{})
	require.NotNil(t, schema)

	prop, ok := schema.Properties.Get("hidden")
	require.True(t, ok)
	assert.Empty(t, prop.Title)
}
