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

package driver_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewalang/mewa/automaton"
	"github.com/mewalang/mewa/driver"
	"github.com/mewalang/mewa/grammar"
	"github.com/mewalang/mewa/scope"
)

const pointerAssignmentGrammar = `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = N ;
N = V "=" E ;
N = E ;
E = V ;
V = IDENT ;
V = "*" E ;
`

type recordHost struct {
	reductions int
	shifts     int
}

func (h *recordHost) Shift(terminal int, lexeme string, line int) (driver.Value, error) {
	h.shifts++
	return lexeme, nil
}

func (h *recordHost) Reduce(call grammar.Call, values []driver.Value, sc *scope.Scope, step scope.Step, line int) (driver.Value, error) {
	h.reductions++
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ""), nil
}

func build(t *testing.T, src string) *automaton.Automaton {
	t.Helper()
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	a, warnings, err := automaton.Build(lang)
	require.NoError(t, err)
	require.Empty(t, warnings)
	return a
}

func TestDriverAcceptsPointerAssignment(t *testing.T) {
	a := build(t, pointerAssignmentGrammar)
	host := &recordHost{}
	d := driver.New(a, host)

	result, err := d.Run("test", "x = * y")
	require.NoError(t, err)
	require.NotNil(t, result)

	s, ok := result.(string)
	require.True(t, ok)
	assert.Contains(t, s, "x")
	assert.Contains(t, s, "y")
	assert.NotContains(t, s, "*")
	assert.True(t, host.reductions > 0)
	assert.True(t, host.shifts > 0)
}

func TestDriverAcceptsBareExpression(t *testing.T) {
	a := build(t, pointerAssignmentGrammar)
	host := &recordHost{}
	d := driver.New(a, host)

	_, err := d.Run("test", "x")
	require.NoError(t, err)
}

func TestDriverRejectsUnexpectedToken(t *testing.T) {
	a := build(t, pointerAssignmentGrammar)
	host := &recordHost{}
	d := driver.New(a, host)

	_, err := d.Run("test", "= x")
	require.Error(t, err)
}

func TestDriverPropagatesScopeMarkers(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = "{" B "}" {} >> ;
B = IDENT ;
`
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	a, _, err := automaton.Build(lang)
	require.NoError(t, err)

	var gotScope *scope.Scope
	host := &scopeCapturingHost{onReduce: func(sc *scope.Scope) { gotScope = sc }}
	d := driver.New(a, host)

	_, err = d.Run("test", "{ x }")
	require.NoError(t, err)
	require.NotNil(t, gotScope)
}

type scopeCapturingHost struct {
	onReduce func(sc *scope.Scope)
}

func (h *scopeCapturingHost) Shift(terminal int, lexeme string, line int) (driver.Value, error) {
	return lexeme, nil
}

func (h *scopeCapturingHost) Reduce(call grammar.Call, values []driver.Value, sc *scope.Scope, step scope.Step, line int) (driver.Value, error) {
	if sc != nil {
		h.onReduce(sc)
	}
	return "", nil
}
