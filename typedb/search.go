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

package typedb

import (
	"container/heap"
	"fmt"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/internal/scoped"
	"github.com/mewalang/mewa/scope"
)

// Tag classifies a reduction; valid values are [1,32] (§3).
type Tag int

// TagMask is a 32-bit set of tags selecting which reduction classes
// participate in a search. A zero TagMask matches every tag, mirroring
// the "match all" convention already used by scoped.RelationMap.Query.
type TagMask int

// Bit returns the single-tag mask for tag, for combining with |.
func Bit(tag Tag) TagMask {
	return TagMask(1 << (uint(tag) - 1))
}

// MatchAll selects every tag.
const MatchAll TagMask = 0

// Weight is a reduction's contribution to a search's accumulated cost,
// represented as a fixed-point integer: one unit is 1/1000 of a
// source-grammar weight value (Open Question 1, §9.1). Two paths tie
// iff their summed weights are exactly equal; there is no epsilon to
// configure, since an integer domain has no representation error.
type Weight int64

// WeightUnit is the fixed-point scale: Weight(1000) represents a
// source-grammar weight of 1.0.
const WeightUnit = 1000

// FromFloat converts a decimal weight literal (as read from a grammar
// or host call) into its fixed-point Weight.
func FromFloat(w float64) Weight {
	return Weight(w*WeightUnit + 0.5)
}

func (w Weight) String() string {
	return fmt.Sprintf("%d.%03d", int64(w)/WeightUnit, int64(w)%WeightUnit)
}

// Reduction is one edge of a reduction path: the type reached and the
// constructor that performs the reduction to it.
type Reduction struct {
	Type        int
	Constructor int
}

// WeightedReduction is one outgoing reduction from a type, as returned
// by GetReductions.
type WeightedReduction struct {
	Type        int
	Constructor int
	Weight      Weight
}

// ReductionRecord is one reduction definition, as listed by
// GetReductionDefinitionTree.
type ReductionRecord struct {
	ToType      int
	FromType    int
	Constructor int
	Tag         Tag
	Weight      Weight
}

func tagFromBit(bit int) Tag {
	for i := 0; i < 32; i++ {
		if bit&(1<<i) != 0 {
			return Tag(i + 1)
		}
	}
	return 0
}

// DefineReduction defines a reduction edge fromType -> toType (§4.6).
func (db *TypeDatabase) DefineReduction(sc scope.Scope, toType, fromType, constructor int, tag Tag, weight Weight) error {
	if constructor < 0 {
		return errors.Newf(errors.InvalidHandle, "%d", constructor)
	}
	if !db.validHandle(toType) {
		return errors.Newf(errors.InvalidHandle, "%d", toType)
	}
	if fromType <= 0 || fromType > len(db.records) {
		return errors.Newf(errors.InvalidHandle, "%d", fromType)
	}
	if tag < 1 || tag > 32 {
		return errors.Newf(errors.InvalidBoundary, "tag %d", tag)
	}
	return db.reductions.Add(sc, fromType, toType, constructor, int(Bit(tag)), int64(weight))
}

// GetReductionDefinitionTree builds the scope hierarchy tree of every
// scope that defines at least one reduction.
func (db *TypeDatabase) GetReductionDefinitionTree() []*scoped.TreeNode[[]ReductionRecord] {
	byScope := map[scope.Scope][]ReductionRecord{}
	var order []scope.Scope
	for _, fromType := range db.reductions.Keys() {
		scopes, itemLists := db.reductions.Entries(fromType)
		for i, sc := range scopes {
			if _, seen := byScope[sc]; !seen {
				order = append(order, sc)
			}
			for _, it := range itemLists[i] {
				byScope[sc] = append(byScope[sc], ReductionRecord{
					ToType: it.Target, FromType: fromType, Constructor: it.Value,
					Tag: tagFromBit(it.Tag), Weight: Weight(it.Weight),
				})
			}
		}
	}
	scopes := make([]scope.Scope, len(order))
	values := make([][]ReductionRecord, len(order))
	for i, sc := range order {
		scopes[i] = sc
		values[i] = byScope[sc]
	}
	return scoped.BuildTree(scopes, values)
}

// GetReduction looks up the single reduction edge fromType -> toType
// valid at step matching tagMask. defined is false if no edge matches;
// err is AmbiguousTypeReference if more than one definition matches,
// whether in the same scope or in different scopes containing step
// (§3 "Reduction", §4.6).
func (db *TypeDatabase) GetReduction(step scope.Step, toType, fromType int, tagMask TagMask) (weight Weight, constructor int, defined bool, err error) {
	items := db.reductions.QueryEdge(step, fromType, toType, int(tagMask))
	if len(items) == 0 {
		return 0, 0, false, nil
	}
	if len(items) > 1 {
		return 0, 0, false, errors.Newf(errors.AmbiguousTypeReference, "%s -> %s", db.TypeString(fromType, ", "), db.TypeString(toType, ", "))
	}
	return Weight(items[0].Weight), items[0].Value, true, nil
}

// GetReductions lists every outgoing reduction from fromType visible at
// step matching tagMask.
func (db *TypeDatabase) GetReductions(step scope.Step, fromType int, tagMask TagMask) []WeightedReduction {
	items := db.reductions.Query(step, fromType, int(tagMask))
	out := make([]WeightedReduction, len(items))
	for i, it := range items {
		out[i] = WeightedReduction{Type: it.Target, Constructor: it.Value, Weight: Weight(it.Weight)}
	}
	return out
}

// pathNode is one node of the shortest-path search's prev-linked stack
// (§4.6/§4.7): the type reached, the constructor of the edge that
// reached it, the index of the preceding node (-1 for a search root),
// the number of length-counted edges on the path so far, and which of
// the search's starting types this node ultimately descends from.
type pathNode struct {
	typ         int
	constructor int
	prev        int
	lengthCount int
	startIdx    int
}

// pushIfNew appends a candidate node unless typ already occurs among
// the ancestors of prev (cycle prevention along this one path only, not
// a global visited set, per §4.6 "a node may not be expanded twice
// along the same path"). It returns -1 without appending on a cycle.
func pushIfNew(nodes *[]pathNode, typ, constructor, prev, lengthCount int) int {
	for idx := prev; idx >= 0; idx = (*nodes)[idx].prev {
		if (*nodes)[idx].typ == typ {
			return -1
		}
	}
	*nodes = append(*nodes, pathNode{typ: typ, constructor: constructor, prev: prev, lengthCount: lengthCount})
	return len(*nodes) - 1
}

// collectPath walks the prev chain from idx back to (but excluding) its
// root, returning the reductions applied in root-to-idx order. A root
// node (idx itself has no predecessor) yields an empty path, matching
// deriveType(step, A, A, *) -> empty path (§8 invariant 4).
func collectPath(nodes []pathNode, idx int) []Reduction {
	var out []Reduction
	for nodes[idx].prev >= 0 {
		out = append(out, Reduction{Type: nodes[idx].typ, Constructor: nodes[idx].constructor})
		idx = nodes[idx].prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// followEdge is one outgoing reduction considered by the search.
type followEdge struct {
	Type         int
	Constructor  int
	Weight       Weight
	CountsLength bool
}

// pqItem is one priority-queue entry: the accumulated weight to reach
// a stack node, used to order the Dijkstra frontier (§4.6
// "priority queue of (accumulated-weight, path-length-count,
// node-index)").
type pqItem struct {
	weight Weight
	idx    int
}

type pqHeap []pqItem

func (h pqHeap) Len() int { return len(h) }
func (h pqHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].idx < h[j].idx
}
func (h pqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *pqHeap) Push(x interface{}) { *h = append(*h, x.(pqItem)) }
func (h *pqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// shortestPathSearch is the standalone shortest-path primitive of §4.7:
// a Dijkstra search from one or more starting nodes, following edges
// produced by follow and stopping at the first node accepted by
// isMatch. It powers both DeriveType and ResolveType.
//
// maxLengthCount bounds the number of length-counted edges (CountsLength)
// an accepted path may carry; -1 disables the bound.
//
// It returns the full explored node stack (so the caller can recover a
// path with collectPath), the winning node's index and weight, and,
// if a second, equal-weight match exists, a conflicting node's index
// and the tie flag — ambiguity is reported as data, never as an error,
// leaving the decision on whether it is fatal to the caller (§4.6).
func shortestPathSearch(starts []int, maxLengthCount int, follow func(typ int) []followEdge, isMatch func(typ int) bool) (nodes []pathNode, winnerIdx int, winnerWeight Weight, found bool, tie bool, tieIdx int) {
	nodes = make([]pathNode, 0, 16)
	pq := &pqHeap{}
	heap.Init(pq)

	for i, s := range starts {
		idx := pushIfNew(&nodes, s, 0, -1, 0)
		if idx >= 0 {
			nodes[idx].startIdx = i
			heap.Push(pq, pqItem{weight: 0, idx: idx})
		}
	}

	for pq.Len() > 0 {
		top := heap.Pop(pq).(pqItem)
		n := nodes[top.idx]

		if isMatch(n.typ) {
			winnerIdx = top.idx
			winnerWeight = top.weight
			found = true

			for pq.Len() > 0 && (*pq)[0].weight == winnerWeight {
				alt := heap.Pop(pq).(pqItem)
				if isMatch(nodes[alt.idx].typ) {
					tie = true
					tieIdx = alt.idx
					break
				}
			}
			break
		}

		for _, e := range follow(n.typ) {
			lengthCount := n.lengthCount
			if e.CountsLength {
				lengthCount++
			}
			if maxLengthCount >= 0 && lengthCount > maxLengthCount {
				continue
			}
			idx := pushIfNew(&nodes, e.Type, e.Constructor, top.idx, lengthCount)
			if idx >= 0 {
				nodes[idx].startIdx = n.startIdx
				heap.Push(pq, pqItem{weight: top.weight + e.Weight, idx: idx})
			}
		}
	}
	return nodes, winnerIdx, winnerWeight, found, tie, tieIdx
}

func (db *TypeDatabase) followReductions(step scope.Step, tagMask, lengthCountMask TagMask) func(int) []followEdge {
	return func(typ int) []followEdge {
		items := db.reductions.Query(step, typ, int(tagMask))
		out := make([]followEdge, len(items))
		for i, it := range items {
			out[i] = followEdge{
				Type: it.Target, Constructor: it.Value, Weight: Weight(it.Weight),
				CountsLength: lengthCountMask == 0 || it.Tag&int(lengthCountMask) != 0,
			}
		}
		return out
	}
}

// DeriveResult is the outcome of DeriveType: the shortest-weight
// reduction path and, if a second path of equal weight also reaches
// toType, the conflicting alternative (§4.6, §8 invariant 5).
type DeriveResult struct {
	Defined           bool
	Path              []Reduction
	WeightSum         Weight
	Conflict          bool
	ConflictPath      []Reduction
	ConflictWeightSum Weight
}

// DeriveType searches for the reduction path of minimal weight sum from
// fromType to toType, considering only reductions matching selectTags
// and counting only those additionally matching lengthCountMask toward
// maxLengthCount (a negative bound disables the check). fromType ==
// toType yields a defined, empty-path, zero-weight result without
// touching the reduction graph (§8 invariant 4).
func (db *TypeDatabase) DeriveType(step scope.Step, toType, fromType int, selectTags, lengthCountMask TagMask, maxLengthCount int) (DeriveResult, error) {
	if fromType <= 0 || fromType > len(db.records) {
		return DeriveResult{}, errors.Newf(errors.InvalidHandle, "%d", fromType)
	}
	if !db.validHandle(toType) {
		return DeriveResult{}, errors.Newf(errors.InvalidHandle, "%d", toType)
	}

	follow := db.followReductions(step, selectTags, lengthCountMask)
	isMatch := func(typ int) bool { return typ == toType }

	nodes, winnerIdx, winnerWeight, found, tie, tieIdx := shortestPathSearch([]int{fromType}, maxLengthCount, follow, isMatch)
	if !found {
		return DeriveResult{}, nil
	}
	res := DeriveResult{
		Defined:   true,
		Path:      collectPath(nodes, winnerIdx),
		WeightSum: winnerWeight,
	}
	if tie {
		res.Conflict = true
		res.ConflictPath = collectPath(nodes, tieIdx)
		res.ConflictWeightSum = winnerWeight
	}
	return res, nil
}

// ResolveItem is one candidate overload found by ResolveType: a type
// sharing the resolved (contextType, name) and its constructor.
type ResolveItem struct {
	Type        int
	Constructor int
}

// ResolveResult is the outcome of ResolveType: the winning context
// type, the path of reductions leading to it from whichever of the
// query's starting context types produced it, the overload-chain items
// found there, and, if a second match of the same weight is a different
// context type, that conflicting context type (§4.6, §8 invariant 6).
type ResolveResult struct {
	Found       bool
	RootIndex   int
	ContextType int
	Path        []Reduction
	Items       []ResolveItem
	WeightSum   Weight
	ConflictType int
}

func (db *TypeDatabase) collectOverloadChain(head int) []ResolveItem {
	var out []ResolveItem
	for idx := head; idx != 0; idx = db.records[idx-1].next {
		out = append(out, ResolveItem{Type: idx, Constructor: db.records[idx-1].constructor})
	}
	return out
}

// ResolveType resolves name in a context reachable by reductions from
// any of contextTypes, returning the nearest context type (by total
// reduction weight) that defines it and every overload sharing that
// (contextType, name) there. RootIndex is the index into contextTypes
// the winning path descends from.
func (db *TypeDatabase) ResolveType(step scope.Step, contextTypes []int, name string, selectTags TagMask) (ResolveResult, error) {
	for _, ct := range contextTypes {
		if !db.validHandle(ct) {
			return ResolveResult{}, errors.Newf(errors.InvalidHandle, "%d", ct)
		}
	}
	res := ResolveResult{RootIndex: -1, ContextType: -1, ConflictType: -1}

	nameID := db.ident.Lookup(name)
	if nameID == 0 || len(contextTypes) == 0 {
		return res, nil
	}

	follow := db.followReductions(step, selectTags, 0)
	isMatch := func(typ int) bool {
		_, ok := db.types.Get(step, typeKey{ContextType: typ, NameID: nameID})
		return ok
	}

	nodes, winnerIdx, winnerWeight, found, tie, tieIdx := shortestPathSearch(contextTypes, -1, follow, isMatch)
	if !found {
		return res, nil
	}
	winnerType := nodes[winnerIdx].typ
	head, _ := db.types.Get(step, typeKey{ContextType: winnerType, NameID: nameID})

	res.Found = true
	res.RootIndex = nodes[winnerIdx].startIdx
	res.ContextType = winnerType
	res.Path = collectPath(nodes, winnerIdx)
	res.Items = db.collectOverloadChain(head)
	res.WeightSum = winnerWeight
	if tie && nodes[tieIdx].typ != winnerType {
		res.ConflictType = nodes[tieIdx].typ
	}
	return res, nil
}

// ResolveType1 resolves name from a single starting context type; a
// thin convenience wrapper over ResolveType (§4.6's single-contextType
// overload).
func (db *TypeDatabase) ResolveType1(step scope.Step, contextType int, name string, selectTags TagMask) (ResolveResult, error) {
	return db.ResolveType(step, []int{contextType}, name, selectTags)
}
