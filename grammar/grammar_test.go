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

package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestParsePointerAssignmentGrammar(t *testing.T) {
	lang, err := grammar.Parse(pointerAssignmentGrammar)
	require.NoError(t, err)
	require.Len(t, lang.Productions, 6)

	names := map[string]bool{}
	for _, nt := range lang.Nonterminals {
		names[nt] = true
	}
	assert.Equal(t, map[string]bool{"S": true, "N": true, "V": true, "E": true}, names)

	start := lang.Productions[0]
	assert.Equal(t, "S", start.Left.Name)
	assert.Equal(t, grammar.NonTerminal, start.Left.Type)
	assert.Equal(t, 1, start.Left.Index)
	require.Len(t, start.Right, 1)
	assert.Equal(t, grammar.NonTerminal, start.Right[0].Type)

	vFromIdent := lang.Productions[4]
	assert.Equal(t, "V", vFromIdent.Left.Name)
	require.Len(t, vFromIdent.Right, 1)
	assert.Equal(t, grammar.Terminal, vFromIdent.Right[0].Type)
	assert.Equal(t, "IDENT", vFromIdent.Right[0].Name)

	vFromStar := lang.Productions[5]
	require.Len(t, vFromStar.Right, 2)
	assert.Equal(t, grammar.Terminal, vFromStar.Right[0].Type)
	assert.Equal(t, "*", vFromStar.Right[0].Name)
	assert.Equal(t, grammar.NonTerminal, vFromStar.Right[1].Type)

	assert.NotZero(t, lang.Lexer.Lookup("IDENT"))
	assert.NotZero(t, lang.Lexer.Lookup("="))
	assert.NotZero(t, lang.Lexer.Lookup("*"))
}

func TestParseDirectivesAndCalls(t *testing.T) {
	src := `
%LANGUAGE MewaScript ;
%COMMENT "//" ;
%COMMENT "/*" "*/" ;

IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = IDENT (binaryop.add) ;
`
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "MewaScript", lang.Language)
	require.Len(t, lang.Calls, 1)
	assert.Equal(t, grammar.Call{Function: "binaryop.add", ArgType: grammar.NoArg}, lang.Calls[0])
	assert.Equal(t, 1, lang.Productions[0].CallIdx)
}

func TestParseScopeMarkers(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = "{" IDENT "}" {} >> ;
`
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	require.Len(t, lang.Productions, 1)
	assert.True(t, lang.Productions[0].OpensScope)
	assert.True(t, lang.Productions[0].AdvancesStep)
}

func TestParseRejectsUnresolvedIdentifier(t *testing.T) {
	src := `
S = UNDEFINED ;
`
	_, err := grammar.Parse(src)
	assert.Error(t, err)
}

func TestParseRejectsStartSymbolReferencedOnRight(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = IDENT ;
N = S ;
`
	_, err := grammar.Parse(src)
	assert.Error(t, err)
}

func TestParseRejectsDuplicateStartSymbol(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = IDENT ;
S = IDENT IDENT ;
`
	_, err := grammar.Parse(src)
	assert.Error(t, err)
}

func TestParsePriorityAndAssociativity(t *testing.T) {
	src := `
IDENT : "[a-zA-Z_][a-zA-Z_0-9]*" ;

S = E ;
E /L2 = E "+" E ;
E = IDENT ;
`
	lang, err := grammar.Parse(src)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), lang.Productions[1].Priority.Weight)
	assert.Equal(t, grammar.AssocLeft, lang.Productions[1].Priority.Assoc)
}
