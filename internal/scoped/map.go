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

package scoped

import "github.com/mewalang/mewa/scope"

// Map is ScopedMap<K,V> of §3: an Instance per hashable key K. Lookup by
// step resolves, for the given key, the innermost scope containing it.
type Map[K comparable, V any] struct {
	byKey map[K]*Instance[V]
}

// NewMap creates an empty Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{byKey: make(map[K]*Instance[V])}
}

// GetOrSet returns the value already defined for (scope, key) if the
// exact same scope already carries an entry for key (the "duplicate
// definition" case the type database resolves by priority), or else
// inserts value and reports that none existed. A scope partially
// overlapping an existing one for the same key is rejected with
// ScopeHierarchyError.
func (m *Map[K, V]) GetOrSet(sc scope.Scope, key K, value V) (prev V, existed bool, err error) {
	inst, ok := m.byKey[key]
	if !ok {
		inst = &Instance[V]{}
		m.byKey[key] = inst
	}
	if v, ok := inst.GetOfScope(sc); ok {
		return v, true, nil
	}
	if e := inst.Set(sc, value); e != nil {
		var zero V
		return zero, false, e
	}
	var zero V
	return zero, false, nil
}

// Replace overwrites the value already defined for the exact scope+key
// (used when the type database's priority resolution decides a new
// definition should win over an existing one).
func (m *Map[K, V]) Replace(sc scope.Scope, key K, value V) error {
	inst, ok := m.byKey[key]
	if !ok {
		inst = &Instance[V]{}
		m.byKey[key] = inst
	}
	return inst.Set(sc, value)
}

// Get resolves key at step to the value of the innermost scope
// containing it.
func (m *Map[K, V]) Get(step scope.Step, key K) (V, bool) {
	inst, ok := m.byKey[key]
	if !ok {
		var zero V
		return zero, false
	}
	return inst.Get(step)
}

// Keys returns every key that has at least one entry, in no particular
// order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, len(m.byKey))
	for k := range m.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Instance returns the underlying per-key Instance, or nil if key was
// never defined; used for tree introspection.
func (m *Map[K, V]) Instance(key K) *Instance[V] {
	return m.byKey[key]
}
