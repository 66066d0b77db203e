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
	"fmt"
	"sync"

	"github.com/lareferencia/lrvalidate/pkg/lareferencia"
)

// Factory decodes one rule's raw JSON configuration into a concrete
// variant of T. "The engine never hard-codes rule classes: new
// variants register themselves with the serializer".
type Factory[T any] func(def lareferencia.RuleDef) (T, error)

// Registry is a tagged-variant decoder: it maps a rule-kind
// discriminator to the factory that can build the concrete Go value
// for it. A Registry[ValidatorRule] lives in the validator package and
// a Registry[TransformerRule] in the transformer package; both are
// built on this one generic implementation.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry returns an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register adds (or replaces) the factory for kind. Called from each
// rule variant's init().
func (r *Registry[T]) Register(kind string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[NormalizeKind(kind)] = f
}

// Kinds returns the registered kind discriminators, for schema
// enumeration.
func (r *Registry[T]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	return out
}

// Decode reconstructs the concrete rule named by def.Kind.
func (r *Registry[T]) Decode(def lareferencia.RuleDef) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[NormalizeKind(def.Kind)]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("rule: unknown kind %q for rule %d", def.Kind, def.RuleID)
	}
	return f(def)
}

// DecodeAll decodes defs in order, preserving configuration order.
func (r *Registry[T]) DecodeAll(defs []lareferencia.RuleDef) ([]T, error) {
	out := make([]T, 0, len(defs))
	for _, def := range defs {
		v, err := r.Decode(def)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DescribeAll builds the registry-wide schema document the admin UI's
// dynamic form generator reads: kind discriminator to ordered field
// layout, for every registered variant that implements Describable.
// Each kind is decoded once from an empty configuration object just to
// obtain a value to reflect over; a kind whose zero configuration
// fails to decode (e.g. a regular expression field left empty is
// itself valid, but a required enum with no zero value might not be)
// is omitted rather than failing the whole document.
func (r *Registry[T]) DescribeAll() map[string][]FieldDescriptor {
	r.mu.RLock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	factories := r.factories
	r.mu.RUnlock()

	out := make(map[string][]FieldDescriptor, len(kinds))
	for _, k := range kinds {
		v, err := factories[k](lareferencia.RuleDef{Kind: k, Config: []byte("{}")})
		if err != nil {
			continue
		}
		d, ok := any(v).(Describable)
		if !ok {
			continue
		}
		out[k] = d.DescribeSchema()
	}
	return out
}
