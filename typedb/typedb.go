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

// Package typedb implements the scoped type/object/reduction database of
// §4.6: three tightly indexed maps keyed by scope (named objects, type
// definitions with overload chains, and weighted typed reductions), plus
// the Dijkstra-style search that resolves a name or derives one type from
// another along shortest-weight reduction paths (search.go). Grounded on
// "typedb.hpp"/"typedb.cpp" and the exception-free "include/mewa/typedb.hpp"
// variant of the original sources.
package typedb

import (
	"strings"

	"github.com/rs/xid"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/internal/ident"
	"github.com/mewalang/mewa/internal/scoped"
	"github.com/mewalang/mewa/scope"
)

// Bit-width budgets for type definitions (§4.6, mirroring "MaxNofParameter"
// and "MaxPriority" in typedb.hpp).
const (
	MaxParameters = 1 << 15
	MaxPriority   = 1 << 15
)

// Parameter is one function-signature parameter: a type paired with the
// constructor that adapts an argument to it (TypeConstructorPair of §3).
type Parameter struct {
	Type        int
	Constructor int
}

// typeKey identifies an overload chain: every type record sharing the
// same (contextType, name) in the same scope forms one chain (§3 "Type
// record").
type typeKey struct {
	ContextType int
	NameID      int
}

type typeRecord struct {
	scope       scope.Scope
	contextType int
	nameID      int
	constructor int
	paramIdx    int // 1-based index into db.params, 0 = no parameters
	paramLen    int
	priority    int
	next        int // next handle in the overload chain, 0 = none
}

// TypeDatabase owns every table named by §3: the identifier intern
// table, the named-object map, the type table and its overload chains,
// and the reduction graph. All handles it returns are indices into this
// value's own storage and are meaningless against any other instance
// (§9 "Object ownership").
type TypeDatabase struct {
	// ID is a short sortable instance identifier a host can use to tell
	// databases apart in logs; never consulted by the search or
	// storage operations below.
	ID string

	ident      *ident.Table
	objects    *scoped.Map[int, int]
	types      *scoped.Map[typeKey, int]
	reductions *scoped.RelationMap[int, int, int]
	records    []typeRecord
	params     []Parameter
}

// New creates an empty TypeDatabase.
func New() *TypeDatabase {
	return &TypeDatabase{
		ID:         xid.New().String(),
		ident:      ident.New(),
		objects:    scoped.NewMap[int, int](),
		types:      scoped.NewMap[typeKey, int](),
		reductions: scoped.NewRelationMap[int, int, int](),
	}
}

func (db *TypeDatabase) validHandle(h int) bool {
	return h >= 0 && h <= len(db.records)
}

// SetObjectInstance binds handle to name within scope (§4.6). A second
// call for the exact same scope replaces the handle; a scope partially
// overlapping an existing one for name is rejected.
func (db *TypeDatabase) SetObjectInstance(name string, sc scope.Scope, handle int) error {
	if handle < 0 {
		return errors.Newf(errors.InvalidHandle, "%d", handle)
	}
	id := db.ident.Get(name)
	return db.objects.Replace(sc, id, handle)
}

// GetObjectInstance resolves name to the handle bound in the innermost
// scope containing step, or -1 if none defines it.
func (db *TypeDatabase) GetObjectInstance(name string, step scope.Step) int {
	id := db.ident.Lookup(name)
	if id == 0 {
		return -1
	}
	v, ok := db.objects.Get(step, id)
	if !ok {
		return -1
	}
	return v
}

// GetObjectInstanceOfScope resolves name within the exact scope given,
// without considering enclosing or nested scopes (supplemented feature,
// grounded on "getObjectInstanceOfScope" in typedb.hpp).
func (db *TypeDatabase) GetObjectInstanceOfScope(name string, sc scope.Scope) int {
	id := db.ident.Lookup(name)
	if id == 0 {
		return -1
	}
	inst := db.objects.Instance(id)
	if inst == nil {
		return -1
	}
	v, ok := inst.GetOfScope(sc)
	if !ok {
		return -1
	}
	return v
}

// GetObjectInstanceTree builds the scope hierarchy tree of every scope
// that binds name, for introspection/debugging.
func (db *TypeDatabase) GetObjectInstanceTree(name string) []*scoped.TreeNode[int] {
	id := db.ident.Lookup(name)
	if id == 0 {
		return nil
	}
	inst := db.objects.Instance(id)
	if inst == nil {
		return nil
	}
	scopes, values := inst.Scopes()
	return scoped.BuildTree(scopes, values)
}

func sameSignature(db *TypeDatabase, a, b *typeRecord) bool {
	if a.paramLen != b.paramLen {
		return false
	}
	for i := 0; i < a.paramLen; i++ {
		if db.params[a.paramIdx+i-1].Type != db.params[b.paramIdx+i-1].Type {
			return false
		}
	}
	return true
}

// DefineType creates a new type record and returns its handle (§4.6).
// Three outcomes share the (int, error) return, matching the original
// API's sentinel convention rather than folding them into Go errors,
// since all three are part of the documented public contract (§4.6,
// Scenario B/C of §8):
//
//   - handle > 0, err == nil: a new (or priority-replaced) type record.
//   - handle == -1, err == nil: a record with identical (scope,
//     contextType, name, parameter signature) and equal priority already
//     exists (duplicate).
//   - handle == 0, err == nil: a record with identical signature and
//     strictly higher priority already wins; this definition is
//     silently discarded and storage is left untouched (Scenario C).
//
// A non-nil err reports a true failure (invalid handle, priority or
// parameter count out of the §3 bit-width budget).
func (db *TypeDatabase) DefineType(sc scope.Scope, contextType int, name string, constructor int, parameters []Parameter, priority int) (int, error) {
	if !db.validHandle(contextType) {
		return 0, errors.Newf(errors.InvalidHandle, "%d", contextType)
	}
	if constructor < 0 {
		return 0, errors.Newf(errors.InvalidHandle, "%d", constructor)
	}
	if priority < 0 || priority >= MaxPriority {
		return 0, errors.Newf(errors.InvalidBoundary, "priority %d", priority)
	}
	if len(parameters) >= MaxParameters {
		return 0, errors.Newf(errors.InvalidBoundary, "%d parameters", len(parameters))
	}

	nameID := db.ident.Get(name)
	key := typeKey{ContextType: contextType, NameID: nameID}

	paramIdx := 0
	if len(parameters) > 0 {
		paramIdx = len(db.params) + 1
		db.params = append(db.params, parameters...)
	}
	rec := typeRecord{
		scope: sc, contextType: contextType, nameID: nameID, constructor: constructor,
		paramIdx: paramIdx, paramLen: len(parameters), priority: priority,
	}
	handle := len(db.records) + 1
	db.records = append(db.records, rec)

	abort := func() {
		db.records = db.records[:len(db.records)-1]
		if paramIdx > 0 {
			db.params = db.params[:len(db.params)-len(parameters)]
		}
	}

	var head int
	var headExists bool
	if inst := db.types.Instance(key); inst != nil {
		head, headExists = inst.GetOfScope(sc)
	}
	if !headExists {
		if err := db.types.Replace(sc, key, handle); err != nil {
			abort()
			return 0, err
		}
		return handle, nil
	}

	idx := head
	last := 0
	for idx != 0 {
		cur := &db.records[idx-1]
		if sameSignature(db, cur, &db.records[handle-1]) {
			switch {
			case priority > cur.priority:
				db.records[handle-1].next = cur.next
				if last == 0 {
					if err := db.types.Replace(sc, key, handle); err != nil {
						abort()
						return 0, err
					}
				} else {
					db.records[last-1].next = handle
				}
				return handle, nil
			case priority == cur.priority:
				abort()
				return -1, nil
			default:
				abort()
				return 0, nil
			}
		}
		last = idx
		idx = cur.next
	}
	// no record in the chain shares this signature: append at the end
	db.records[last-1].next = handle
	return handle, nil
}

// DefineTypeAs defines name in scope as a synonym of an existing type
// handle, without allocating a new type record or joining an overload
// chain (supplemented feature, grounded on "defineTypeAs" in
// typedb.hpp). It fails with DuplicateDefinition if name is already
// bound in the exact same scope.
func (db *TypeDatabase) DefineTypeAs(sc scope.Scope, contextType int, name string, typ int) error {
	if !db.validHandle(contextType) {
		return errors.Newf(errors.InvalidHandle, "%d", contextType)
	}
	if typ <= 0 || typ > len(db.records) {
		return errors.Newf(errors.InvalidHandle, "%d", typ)
	}
	nameID := db.ident.Get(name)
	key := typeKey{ContextType: contextType, NameID: nameID}
	if inst := db.types.Instance(key); inst != nil {
		if _, ok := inst.GetOfScope(sc); ok {
			return errors.New(errors.DuplicateDefinition)
		}
	}
	return db.types.Replace(sc, key, typ)
}

func (db *TypeDatabase) paramsMatchTypes(rec *typeRecord, parameterTypes []int) bool {
	if rec.paramLen != len(parameterTypes) {
		return false
	}
	for i, t := range parameterTypes {
		if db.params[rec.paramIdx+i-1].Type != t {
			return false
		}
	}
	return true
}

// GetType looks up a type with an exact parameter signature defined in
// the exact scope given (it does not search enclosing scopes, §4.6),
// returning 0 if none matches.
func (db *TypeDatabase) GetType(sc scope.Scope, contextType int, name string, parameterTypes []int) int {
	nameID := db.ident.Lookup(name)
	if nameID == 0 {
		return 0
	}
	inst := db.types.Instance(typeKey{ContextType: contextType, NameID: nameID})
	if inst == nil {
		return 0
	}
	head, ok := inst.GetOfScope(sc)
	if !ok {
		return 0
	}
	for idx := head; idx != 0; idx = db.records[idx-1].next {
		if db.paramsMatchTypes(&db.records[idx-1], parameterTypes) {
			return idx
		}
	}
	return 0
}

// GetTypes lists every type handle sharing (contextType, name) in the
// exact scope given, regardless of parameter signature (supplemented
// feature, grounded on "getTypes"/"GetTypesResult" in typedb.hpp).
func (db *TypeDatabase) GetTypes(sc scope.Scope, contextType int, name string) []int {
	nameID := db.ident.Lookup(name)
	if nameID == 0 {
		return nil
	}
	inst := db.types.Instance(typeKey{ContextType: contextType, NameID: nameID})
	if inst == nil {
		return nil
	}
	head, ok := inst.GetOfScope(sc)
	if !ok {
		return nil
	}
	var out []int
	for idx := head; idx != 0; idx = db.records[idx-1].next {
		out = append(out, idx)
	}
	return out
}

// GetTypeDefinitionTree builds the scope hierarchy tree of every scope
// that defines at least one type, grouping the type handles defined
// directly (as an overload-chain head) in that scope. Per Open Question
// 3 (§9.3), no sentinel node is created for a scope with no entries.
func (db *TypeDatabase) GetTypeDefinitionTree() []*scoped.TreeNode[[]int] {
	byScope := map[scope.Scope][]int{}
	var order []scope.Scope
	for _, key := range db.types.Keys() {
		inst := db.types.Instance(key)
		scopes, heads := inst.Scopes()
		for i, sc := range scopes {
			if _, seen := byScope[sc]; !seen {
				order = append(order, sc)
			}
			byScope[sc] = append(byScope[sc], heads[i])
		}
	}
	scopes := make([]scope.Scope, len(order))
	values := make([][]int, len(order))
	for i, sc := range order {
		scopes[i] = sc
		values[i] = byScope[sc]
	}
	return scoped.BuildTree(scopes, values)
}

// TypeName returns the bare name a type was defined with (no context or
// parameters). An out-of-range handle (including 0, the "no type"
// sentinel) returns "" rather than erroring: these introspection
// accessors are consulted only with handles the caller already
// obtained from a successful Define/Get call.
func (db *TypeDatabase) TypeName(typ int) string {
	if typ <= 0 || typ > len(db.records) {
		return ""
	}
	return db.ident.Inv(db.records[typ-1].nameID)
}

// TypeParameters returns the parameter signature a type was defined
// with.
func (db *TypeDatabase) TypeParameters(typ int) []Parameter {
	if typ <= 0 || typ > len(db.records) {
		return nil
	}
	rec := &db.records[typ-1]
	if rec.paramLen == 0 {
		return nil
	}
	return db.params[rec.paramIdx-1 : rec.paramIdx-1+rec.paramLen]
}

// TypeConstructor returns the constructor handle a type was defined
// with, or 0 if undefined or the handle is out of range.
func (db *TypeDatabase) TypeConstructor(typ int) int {
	if typ <= 0 || typ > len(db.records) {
		return 0
	}
	return db.records[typ-1].constructor
}

// TypeScope returns the scope a type was defined in.
func (db *TypeDatabase) TypeScope(typ int) scope.Scope {
	if typ <= 0 || typ > len(db.records) {
		return scope.Scope{}
	}
	return db.records[typ-1].scope
}

// TypeContext returns the contextType parameter a type was defined
// with.
func (db *TypeDatabase) TypeContext(typ int) int {
	if typ <= 0 || typ > len(db.records) {
		return 0
	}
	return db.records[typ-1].contextType
}

// TypeString renders a type's full qualified form: its context's own
// rendering (recursively), a space, its name, and, if it takes
// parameters, its parameter types joined by sep in parentheses.
// Grounded on "typeToString"/"appendTypeToString" in typedb.cpp; used
// internally to format the AmbiguousTypeReference error argument.
func (db *TypeDatabase) TypeString(typ int, sep string) string {
	if typ <= 0 || typ > len(db.records) {
		return ""
	}
	rec := &db.records[typ-1]
	var b strings.Builder
	if rec.contextType != 0 {
		b.WriteString(db.TypeString(rec.contextType, sep))
		b.WriteByte(' ')
	}
	b.WriteString(db.ident.Inv(rec.nameID))
	if rec.paramLen > 0 {
		b.WriteByte('(')
		for i := 0; i < rec.paramLen; i++ {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(db.TypeString(db.params[rec.paramIdx+i-1].Type, sep))
		}
		b.WriteByte(')')
	}
	return b.String()
}
