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
	"strconv"
	"strings"
)

// FieldDescriptor is one field's form-generation annotation. The core engine never reads these; they exist so the
// out-of-scope admin UI can render a form for a rule without the core
// needing to know anything about that UI.
type FieldDescriptor struct {
	Name         string
	Title        string
	Description  string
	UIType       string
	DefaultValue string
	Order        int
}

// DescribeFields reflects over cfg's struct tags to build its ordered
// field layout. Rule variants annotate fields with a `lr` tag of the
// form `lr:"title=...,desc=...,uiType=...,default=...,order=N"`;
// fields without the tag are skipped. This is the one generic
// implementation every rule variant's DescribeSchema method delegates to,
// so adding schema metadata to a new variant is a struct-tag edit, not
// new code.
func DescribeFields(cfg any) []FieldDescriptor {
	t := reflect.TypeOf(cfg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	out := make([]FieldDescriptor, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("lr")
		if !ok {
			continue
		}
		out = append(out, parseFieldTag(f.Name, tag))
	}
	sortByOrder(out)
	return out
}

func parseFieldTag(name, tag string) FieldDescriptor {
	d := FieldDescriptor{Name: name}
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "title":
			d.Title = kv[1]
		case "desc":
			d.Description = kv[1]
		case "uiType":
			d.UIType = kv[1]
		case "default":
			d.DefaultValue = kv[1]
		case "order":
			if n, err := strconv.Atoi(kv[1]); err == nil {
				d.Order = n
			}
		}
	}
	return d
}

func sortByOrder(fields []FieldDescriptor) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j].Order < fields[j-1].Order; j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
}

// Describable is implemented by rule variants that expose schema
// introspection for the admin UI's dynamic form generation.
type Describable interface {
	// Name is the rule's human-readable display name.
	Name() string
	// Help is the rule's longer-form help text.
	Help() string
	// DescribeSchema returns the rule's ordered field layout.
	DescribeSchema() []FieldDescriptor
}
