// Copyright 2024 The Mewa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scoped implements the three scoped-map primitives of §3/§4.2:
// ScopedInstance, ScopedMap and ScopedRelationMap, plus the scope
// hierarchy tree view used for introspection. Grounded on "scope.hpp"'s
// ScopedMap/scoped_find, generalised into the three distinct variants
// used across the type database.
package scoped

import (
	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/scope"
)

// Instance holds one value per scope for a single key (ScopedInstance<V>
// of §3). Resolution by step returns the value of the innermost
// containing scope.
type Instance[V any] struct {
	entries []instanceEntry[V]
}

type instanceEntry[V any] struct {
	scope scope.Scope
	value V
}

// Set assigns value to scope, replacing any prior value defined for the
// exact same scope. It rejects the assignment with ScopeHierarchyError
// if scope partially overlaps an existing entry.
func (m *Instance[V]) Set(sc scope.Scope, value V) error {
	for i := range m.entries {
		if m.entries[i].scope == sc {
			m.entries[i].value = value
			return nil
		}
		if m.entries[i].scope.OverlapsPartially(sc) {
			return errors.New(errors.ScopeHierarchyError)
		}
	}
	m.entries = append(m.entries, instanceEntry[V]{sc, value})
	return nil
}

// Get returns the value of the innermost scope containing step.
func (m *Instance[V]) Get(step scope.Step) (V, bool) {
	var best *instanceEntry[V]
	for i := range m.entries {
		e := &m.entries[i]
		if !e.scope.Contains(step) {
			continue
		}
		if best == nil || best.scope.Covers(e.scope) {
			best = e
		}
	}
	if best == nil {
		var zero V
		return zero, false
	}
	return best.value, true
}

// GetOfScope returns the value defined for the exact scope given,
// without considering enclosing or nested scopes.
func (m *Instance[V]) GetOfScope(sc scope.Scope) (V, bool) {
	for i := range m.entries {
		if m.entries[i].scope == sc {
			return m.entries[i].value, true
		}
	}
	var zero V
	return zero, false
}

// Scopes returns every scope that has a value defined, along with that
// value, in no particular order; used to build the introspection tree.
func (m *Instance[V]) Scopes() ([]scope.Scope, []V) {
	scopes := make([]scope.Scope, len(m.entries))
	values := make([]V, len(m.entries))
	for i, e := range m.entries {
		scopes[i] = e.scope
		values[i] = e.value
	}
	return scopes, values
}
