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
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// JSONSchemaFor reflects cfg's JSON-tagged fields into a JSON-Schema
// document and enriches each property with the same lr-tag metadata
// DescribeFields extracts for the ordered form layout, so the admin
// UI's schema endpoint and its dynamic form share one source of truth
// instead of two annotation systems drifting apart.
func JSONSchemaFor(cfg any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(cfg)
	if schema == nil || schema.Properties == nil {
		return schema
	}

	for _, fd := range DescribeFields(cfg) {
		name := jsonFieldName(cfg, fd.Name)
		if name == "" {
			continue
		}
		prop, ok := schema.Properties.Get(name)
		if !ok || prop == nil {
			continue
		}
		prop.Title = fd.Title
		prop.Description = fd.Description
		if fd.DefaultValue != "" {
			prop.Default = fd.DefaultValue
		}
	}
	return schema
}

// jsonFieldName resolves goFieldName's `json:"..."` tag name on cfg's
// underlying struct type, so property lookups key by the same name
// the struct actually serializes under.
func jsonFieldName(cfg any, goFieldName string) string {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}
	f, ok := t.FieldByName(goFieldName)
	if !ok {
		return ""
	}
	name := strings.Split(f.Tag.Get("json"), ",")[0]
	if name == "" {
		return goFieldName
	}
	return name
}
