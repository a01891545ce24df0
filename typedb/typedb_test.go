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

package typedb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/scope"
	"github.com/mewalang/mewa/typedb"
)

func sc(a, b int) scope.Scope { return scope.Scope{First: scope.Step(a), Second: scope.Step(b)} }

// Scenario B (duplicate/overload), §8.
func TestDefineTypeOverload(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	floatType, err := db.DefineType(sc(0, 100), 0, "float", 0, nil, 0)
	require.NoError(t, err)

	h1, err := db.DefineType(sc(0, 100), 0, "f", 100, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)
	require.Positive(t, h1)

	h2, err := db.DefineType(sc(0, 100), 0, "f", 200, []typedb.Parameter{{Type: intType}, {Type: intType}}, 0)
	require.NoError(t, err)
	require.Positive(t, h2)
	require.NotEqual(t, h1, h2)

	assert.Equal(t, h1, db.GetType(sc(0, 100), 0, "f", []int{intType}))
	assert.Equal(t, h2, db.GetType(sc(0, 100), 0, "f", []int{intType, intType}))
	assert.Equal(t, 0, db.GetType(sc(0, 100), 0, "f", []int{floatType}))
}

// Scenario C (priority), §8.
func TestDefineTypePriority(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)

	first, err := db.DefineType(sc(0, 100), 0, "f", 1, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)
	require.Positive(t, first)

	second, err := db.DefineType(sc(0, 100), 0, "f", 2, []typedb.Parameter{{Type: intType}}, 1)
	require.NoError(t, err)
	require.Positive(t, second)
	require.NotEqual(t, first, second)
	assert.Equal(t, second, db.GetType(sc(0, 100), 0, "f", []int{intType}))

	third, err := db.DefineType(sc(0, 100), 0, "f", 3, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, third)
	// storage unaltered: the winning definition is still `second`
	assert.Equal(t, second, db.GetType(sc(0, 100), 0, "f", []int{intType}))
	assert.Equal(t, 2, db.TypeConstructor(second))
}

func TestDefineTypeDuplicateEqualPriority(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	_, err = db.DefineType(sc(0, 100), 0, "f", 1, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)

	dup, err := db.DefineType(sc(0, 100), 0, "f", 2, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, dup)
}

// Scenario D (ambiguous reduction), §8.
func TestGetReductionAmbiguous(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	doubleType, err := db.DefineType(sc(0, 100), 0, "double", 0, nil, 0)
	require.NoError(t, err)

	require.NoError(t, db.DefineReduction(sc(0, 100), doubleType, intType, 1, 1, typedb.FromFloat(1.0)))
	require.NoError(t, db.DefineReduction(sc(0, 100), doubleType, intType, 2, 1, typedb.FromFloat(1.0)))

	_, _, _, err = db.GetReduction(10, doubleType, intType, typedb.MatchAll)
	require.Error(t, err)
	var typedErr *errors.Error
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, errors.AmbiguousTypeReference, typedErr.Code)
}

func TestGetReductionUnambiguous(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	doubleType, err := db.DefineType(sc(0, 100), 0, "double", 0, nil, 0)
	require.NoError(t, err)
	require.NoError(t, db.DefineReduction(sc(0, 100), doubleType, intType, 7, 1, typedb.FromFloat(1.5)))

	w, c, defined, err := db.GetReduction(10, doubleType, intType, typedb.MatchAll)
	require.NoError(t, err)
	require.True(t, defined)
	assert.Equal(t, 7, c)
	assert.Equal(t, typedb.FromFloat(1.5), w)
}

// Scenario E (scope shadowing), §8.
func TestObjectInstanceShadowing(t *testing.T) {
	db := typedb.New()
	require.NoError(t, db.SetObjectInstance("x", sc(0, 100), 1))
	require.NoError(t, db.SetObjectInstance("x", sc(10, 20), 2))

	assert.Equal(t, 2, db.GetObjectInstance("x", 15))
	assert.Equal(t, 1, db.GetObjectInstance("x", 50))
	assert.Equal(t, -1, db.GetObjectInstance("x", 200))
}

func TestObjectInstancePartialOverlapRejected(t *testing.T) {
	db := typedb.New()
	require.NoError(t, db.SetObjectInstance("x", sc(0, 100), 1))
	err := db.SetObjectInstance("x", sc(50, 150), 2)
	require.Error(t, err)
	var typedErr *errors.Error
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, errors.ScopeHierarchyError, typedErr.Code)
}

// Invariant 4, §8: deriveType(step, A, A, *) -> weight 0, empty path.
func TestDeriveTypeIdentity(t *testing.T) {
	db := typedb.New()
	a, err := db.DefineType(sc(0, 100), 0, "A", 0, nil, 0)
	require.NoError(t, err)

	res, err := db.DeriveType(10, a, a, typedb.MatchAll, typedb.MatchAll, -1)
	require.NoError(t, err)
	require.True(t, res.Defined)
	assert.Empty(t, res.Path)
	assert.Equal(t, typedb.Weight(0), res.WeightSum)
	assert.False(t, res.Conflict)
}

// Scenario F (diamond derive), §8: A->B, A->C, B->D, C->D all weight 1;
// deriveType(A,D) must report a conflict of two weight-2 alternatives.
func TestDeriveTypeDiamondConflict(t *testing.T) {
	db := typedb.New()
	a, err := db.DefineType(sc(0, 100), 0, "A", 0, nil, 0)
	require.NoError(t, err)
	b, err := db.DefineType(sc(0, 100), 0, "B", 0, nil, 0)
	require.NoError(t, err)
	c, err := db.DefineType(sc(0, 100), 0, "C", 0, nil, 0)
	require.NoError(t, err)
	d, err := db.DefineType(sc(0, 100), 0, "D", 0, nil, 0)
	require.NoError(t, err)

	one := typedb.FromFloat(1.0)
	require.NoError(t, db.DefineReduction(sc(0, 100), b, a, 0, 1, one))
	require.NoError(t, db.DefineReduction(sc(0, 100), c, a, 0, 1, one))
	require.NoError(t, db.DefineReduction(sc(0, 100), d, b, 0, 1, one))
	require.NoError(t, db.DefineReduction(sc(0, 100), d, c, 0, 1, one))

	res, err := db.DeriveType(10, d, a, typedb.MatchAll, typedb.MatchAll, -1)
	require.NoError(t, err)
	require.True(t, res.Defined)
	assert.Equal(t, typedb.FromFloat(2.0), res.WeightSum)
	require.Len(t, res.Path, 2)
	assert.True(t, res.Conflict)
	require.Len(t, res.ConflictPath, 2)
	assert.Equal(t, typedb.FromFloat(2.0), res.ConflictWeightSum)
}

func TestDeriveTypeNoPath(t *testing.T) {
	db := typedb.New()
	a, err := db.DefineType(sc(0, 100), 0, "A", 0, nil, 0)
	require.NoError(t, err)
	b, err := db.DefineType(sc(0, 100), 0, "B", 0, nil, 0)
	require.NoError(t, err)

	res, err := db.DeriveType(10, b, a, typedb.MatchAll, typedb.MatchAll, -1)
	require.NoError(t, err)
	assert.False(t, res.Defined)
}

func TestDeriveTypeMaxLengthCount(t *testing.T) {
	db := typedb.New()
	a, err := db.DefineType(sc(0, 100), 0, "A", 0, nil, 0)
	require.NoError(t, err)
	b, err := db.DefineType(sc(0, 100), 0, "B", 0, nil, 0)
	require.NoError(t, err)
	c, err := db.DefineType(sc(0, 100), 0, "C", 0, nil, 0)
	require.NoError(t, err)

	require.NoError(t, db.DefineReduction(sc(0, 100), b, a, 0, 1, typedb.FromFloat(0.1)))
	require.NoError(t, db.DefineReduction(sc(0, 100), c, b, 0, 1, typedb.FromFloat(0.1)))

	res, err := db.DeriveType(10, c, a, typedb.MatchAll, typedb.MatchAll, 1)
	require.NoError(t, err)
	assert.False(t, res.Defined, "path of length 2 exceeds maxLengthCount 1")

	res, err = db.DeriveType(10, c, a, typedb.MatchAll, typedb.MatchAll, 2)
	require.NoError(t, err)
	assert.True(t, res.Defined)
}

// Invariant 6, §8: resolveType returns items drawn exclusively from the
// overload chain of (finalContextType, name) in the innermost scope
// containing step.
func TestResolveTypeAcrossReduction(t *testing.T) {
	db := typedb.New()
	base, err := db.DefineType(sc(0, 100), 0, "Base", 0, nil, 0)
	require.NoError(t, err)
	derived, err := db.DefineType(sc(0, 100), 0, "Derived", 0, nil, 0)
	require.NoError(t, err)
	require.NoError(t, db.DefineReduction(sc(0, 100), base, derived, 42, 1, typedb.FromFloat(1.0)))

	method, err := db.DefineType(sc(0, 100), base, "greet", 7, nil, 0)
	require.NoError(t, err)

	res, err := db.ResolveType1(10, derived, "greet", typedb.MatchAll)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, base, res.ContextType)
	require.Len(t, res.Items, 1)
	assert.Equal(t, method, res.Items[0].Type)
	assert.Equal(t, 7, res.Items[0].Constructor)
	assert.Equal(t, -1, res.ConflictType)
	require.Len(t, res.Path, 1)
	assert.Equal(t, base, res.Path[0].Type)
}

func TestResolveTypeDirectMatchSkipsReduction(t *testing.T) {
	db := typedb.New()
	base, err := db.DefineType(sc(0, 100), 0, "Base", 0, nil, 0)
	require.NoError(t, err)
	_, err = db.DefineType(sc(0, 100), base, "greet", 1, nil, 0)
	require.NoError(t, err)

	res, err := db.ResolveType1(10, base, "greet", typedb.MatchAll)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, base, res.ContextType)
	assert.Empty(t, res.Path)
	assert.Equal(t, 0, res.RootIndex)
}

func TestDefineTypeAsSynonym(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)

	require.NoError(t, db.DefineTypeAs(sc(0, 100), 0, "integer", intType))
	assert.Equal(t, intType, db.GetType(sc(0, 100), 0, "integer", nil))

	err = db.DefineTypeAs(sc(0, 100), 0, "integer", intType)
	require.Error(t, err)
	var typedErr *errors.Error
	require.ErrorAs(t, err, &typedErr)
	assert.Equal(t, errors.DuplicateDefinition, typedErr.Code)
}

func TestGetTypesEnumeratesOverloads(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	h1, err := db.DefineType(sc(0, 100), 0, "f", 1, []typedb.Parameter{{Type: intType}}, 0)
	require.NoError(t, err)
	h2, err := db.DefineType(sc(0, 100), 0, "f", 2, nil, 0)
	require.NoError(t, err)

	got := db.GetTypes(sc(0, 100), 0, "f")
	assert.ElementsMatch(t, []int{h1, h2}, got)
}

func TestTypeStringRendersContextAndParameters(t *testing.T) {
	db := typedb.New()
	intType, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	class, err := db.DefineType(sc(0, 100), 0, "Vector", 0, nil, 0)
	require.NoError(t, err)
	method, err := db.DefineType(sc(0, 100), class, "dot", 0, []typedb.Parameter{{Type: intType}, {Type: intType}}, 0)
	require.NoError(t, err)

	assert.Equal(t, "Vector dot(int, int)", db.TypeString(method, ", "))
}

func TestGetTypeDefinitionTreeCoversDefinedScopesOnly(t *testing.T) {
	db := typedb.New()
	_, err := db.DefineType(sc(0, 100), 0, "int", 0, nil, 0)
	require.NoError(t, err)
	_, err = db.DefineType(sc(10, 20), 0, "local", 0, nil, 0)
	require.NoError(t, err)

	tree := db.GetTypeDefinitionTree()
	require.Len(t, tree, 1, "one root scope, with the inner scope nested under it")
	assert.Equal(t, sc(0, 100), tree[0].Scope)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, sc(10, 20), tree[0].Children[0].Scope)
}

func TestObjectInstanceOfScopeExactMatch(t *testing.T) {
	db := typedb.New()
	require.NoError(t, db.SetObjectInstance("x", sc(0, 100), 1))
	assert.Equal(t, 1, db.GetObjectInstanceOfScope("x", sc(0, 100)))
	assert.Equal(t, -1, db.GetObjectInstanceOfScope("x", sc(0, 50)))
}
