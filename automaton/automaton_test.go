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

package automaton_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewalang/mewa/automaton"
	"github.com/mewalang/mewa/grammar"
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

func TestBuildPointerAssignmentGrammar(t *testing.T) {
	lang, err := grammar.Parse(pointerAssignmentGrammar)
	require.NoError(t, err)

	a, warnings, err := automaton.Build(lang)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 10, a.NumStates)
	assert.NotEmpty(t, a.Actions)
	assert.NotEmpty(t, a.Gotos)

	sawAccept := false
	for _, act := range a.Actions {
		if act.Kind == automaton.Accept {
			sawAccept = true
		}
	}
	assert.True(t, sawAccept, "expected an accept action somewhere in the table")

	for key, act := range a.Actions {
		if act.Kind == automaton.Shift {
			assert.Less(t, act.State, a.NumStates)
			assert.GreaterOrEqual(t, act.State, 0)
		}
		assert.GreaterOrEqual(t, key.State, 0)
	}
}

func TestBuildRejectsEmptyGrammar(t *testing.T) {
	_, _, err := automaton.Build(&grammar.LanguageDef{})
	assert.Error(t, err)
}

func TestPackActionRoundTrip(t *testing.T) {
	cases := []automaton.Action{
		{Kind: automaton.Shift, State: 42},
		{Kind: automaton.Reduce, Nonterminal: 3, Count: 2, Call: 7},
		{Kind: automaton.Accept},
	}
	for _, c := range cases {
		packed := automaton.PackAction(c)
		got := automaton.UnpackAction(packed)
		assert.Equal(t, c.Kind, got.Kind)
		if c.Kind == automaton.Shift {
			assert.Equal(t, c.State, got.State)
		}
		if c.Kind == automaton.Reduce {
			assert.Equal(t, c.Nonterminal, got.Nonterminal)
			assert.Equal(t, c.Count, got.Count)
			assert.Equal(t, c.Call, got.Call)
		}
	}
}

func TestPackActionKeyRoundTrip(t *testing.T) {
	state, terminal := automaton.UnpackActionKey(automaton.PackActionKey(12, 5))
	assert.Equal(t, 12, state)
	assert.Equal(t, 5, terminal)
}

func TestEmitParseRoundTrip(t *testing.T) {
	lang, err := grammar.Parse(pointerAssignmentGrammar)
	require.NoError(t, err)
	a, _, err := automaton.Build(lang)
	require.NoError(t, err)

	data, err := automaton.Emit(a)
	require.NoError(t, err)

	back, err := automaton.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, a.Language, back.Language)
	assert.Equal(t, len(a.Actions), len(back.Actions))
	assert.Equal(t, len(a.Gotos), len(back.Gotos))
	assert.ElementsMatch(t, a.Calls, back.Calls)
}

func TestBuildReportsShiftReduceConflictAsWarning(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = E ;
E = E "+" E ;
E = IDENT ;
`
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	a, warnings, err := automaton.Build(lang)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.NotEmpty(t, warnings)
}
