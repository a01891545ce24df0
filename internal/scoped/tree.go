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

	"github.com/mewalang/mewa/scope"
)

// TreeNode is one node of a scope hierarchy tree: a scope that carries
// at least one entry of the requested kind, together with its payload
// and its strictly-nested children. Per Open Question 3 (§9.3 of the
// original spec), no sentinel nodes are created for scopes with no
// entries.
type TreeNode[V any] struct {
	Scope    scope.Scope
	Value    V
	Children []*TreeNode[V]
}

// BuildTree constructs the forest of scope hierarchy trees for the
// given parallel scopes/values slices, in O(N log N) as specified in
// §4.2: sort by (start asc, end desc), then assign each node to the
// innermost scope on a stack that still covers it.
func BuildTree[V any](scopes []scope.Scope, values []V) []*TreeNode[V] {
	type item struct {
		scope scope.Scope
		value V
	}
	items := make([]item, len(scopes))
	for i := range scopes {
		items[i] = item{scopes[i], values[i]}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].scope.First != items[j].scope.First {
			return items[i].scope.First < items[j].scope.First
		}
		return items[i].scope.Second > items[j].scope.Second
	})

	var roots []*TreeNode[V]
	var stack []*TreeNode[V]
	for _, it := range items {
		node := &TreeNode[V]{Scope: it.scope, Value: it.value}
		for len(stack) > 0 && !stack[len(stack)-1].Scope.Covers(node.Scope) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return roots
}
