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

import (
	"sort"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/scope"
)

// RelationItem is one (R, V, tag, weight) tuple attached to a
// ScopedRelationMap entry.
type RelationItem[R comparable, V any] struct {
	Target R
	Value  V
	Tag    int
	Weight int64
}

// RelationMap is ScopedRelationMap<L,R,V> of §3: keyed by (scope, L),
// each entry carrying an unordered set of (R, V, tag, weight) items.
type RelationMap[L comparable, R comparable, V any] struct {
	byL map[L][]*relEntry[R, V]
}

type relEntry[R comparable, V any] struct {
	scope scope.Scope
	items []RelationItem[R, V]
}

// NewRelationMap creates an empty RelationMap.
func NewRelationMap[L comparable, R comparable, V any]() *RelationMap[L, R, V] {
	return &RelationMap[L, R, V]{byL: make(map[L][]*relEntry[R, V])}
}

// Add attaches one (target, value, tag, weight) item to (scope, left).
// Scopes for the same left key must never partially overlap; violating
// that is reported as ScopeHierarchyError.
func (m *RelationMap[L, R, V]) Add(sc scope.Scope, left L, target R, value V, tag int, weight int64) error {
	list := m.byL[left]
	for _, e := range list {
		if e.scope == sc {
			e.items = append(e.items, RelationItem[R, V]{target, value, tag, weight})
			return nil
		}
		if e.scope.OverlapsPartially(sc) {
			return errors.New(errors.ScopeHierarchyError)
		}
	}
	m.byL[left] = append(list, &relEntry[R, V]{scope: sc, items: []RelationItem[R, V]{{target, value, tag, weight}}})
	return nil
}

// Query unions the items attached to left in every scope containing
// step whose tag intersects mask (mask == 0 selects every tag).
// Duplicates (same Target) are resolved by keeping the item from the
// innermost scope, per §4.2.
func (m *RelationMap[L, R, V]) Query(step scope.Step, left L, mask int) []RelationItem[R, V] {
	candidates := make([]*relEntry[R, V], 0, 4)
	for _, e := range m.byL[left] {
		if e.scope.Contains(step) {
			candidates = append(candidates, e)
		}
	}
	// Scopes attached to the same left key never partially overlap, so
	// sorting by interval length ascending orders them from innermost
	// to outermost.
	sort.Slice(candidates, func(i, j int) bool {
		return (candidates[i].scope.Second - candidates[i].scope.First) < (candidates[j].scope.Second - candidates[j].scope.First)
	})

	seen := make(map[R]bool)
	result := make([]RelationItem[R, V], 0, 4)
	for _, e := range candidates {
		for _, it := range e.items {
			if mask != 0 && it.Tag&mask == 0 {
				continue
			}
			if seen[it.Target] {
				continue
			}
			seen[it.Target] = true
			result = append(result, it)
		}
	}
	return result
}

// QueryEdge returns every item from left to target, in any scope
// containing step, whose tag matches mask (mask == 0 selects every tag).
// Items are not deduplicated by scope; more than one result is an
// ambiguity, left for the caller to report.
func (m *RelationMap[L, R, V]) QueryEdge(step scope.Step, left L, target R, mask int) (items []RelationItem[R, V]) {
	for _, e := range m.byL[left] {
		if !e.scope.Contains(step) {
			continue
		}
		for _, it := range e.items {
			if it.Target != target {
				continue
			}
			if mask != 0 && it.Tag&mask == 0 {
				continue
			}
			items = append(items, it)
		}
	}
	return items
}

// Keys returns every left key with at least one entry.
func (m *RelationMap[L, R, V]) Keys() []L {
	keys := make([]L, 0, len(m.byL))
	for k := range m.byL {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns the scopes and item lists attached to left, for tree
// introspection.
func (m *RelationMap[L, R, V]) Entries(left L) (scopes []scope.Scope, items [][]RelationItem[R, V]) {
	for _, e := range m.byL[left] {
		scopes = append(scopes, e.scope)
		items = append(items, e.items)
	}
	return scopes, items
}
