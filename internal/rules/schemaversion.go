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

import "github.com/Masterminds/semver/v3"

// SchemaVersion is the current rule-schema introspection document
// version, bumped whenever FieldDescriptor's shape (or the `lr` tag
// grammar it's parsed from) changes in a way a dynamic form renderer
// needs to know about before it can trust a new field.
const SchemaVersion = "1.1.0"

// SchemaDocument is what a registry's DescribeAll, paired with
// SchemaVersion, hands to the admin UI: enough for a client to decide
// whether it understands the document before rendering it.
type SchemaDocument struct {
	Version string                       `json:"version"`
	Kinds   map[string][]FieldDescriptor `json:"kinds"`
}

// NewSchemaDocument stamps kinds with the engine's current
// SchemaVersion.
func NewSchemaDocument(kinds map[string][]FieldDescriptor) SchemaDocument {
	return SchemaDocument{Version: SchemaVersion, Kinds: kinds}
}

// Satisfies reports whether doc's version satisfies constraint, e.g.
// ">= 1.0.0, < 2.0.0". A client build that pins a constraint can use
// this to refuse a document it predates rather than mis-rendering it.
func (doc SchemaDocument) Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
