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

package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewalang/mewa/lexer"
)

func newPointerLangLexer(t *testing.T) *lexer.Lexer {
	t.Helper()
	l := lexer.New()
	l.DefineBadLexem("?")
	require.NoError(t, l.DefineEolnComment("//"))
	require.NoError(t, l.DefineBracketComment("/*", "*/"))
	require.NoError(t, l.DefineLexem("IDENT", "[a-zA-Z_][a-zA-Z_0-9]*", 0))
	require.NoError(t, l.DefineLexem("NUMBER", "[0-9]+", 0))
	require.NoError(t, l.DefineKeyword("="))
	require.NoError(t, l.DefineKeyword("*"))
	require.NoError(t, l.DefineKeyword(";"))
	return l
}

func scanAll(t *testing.T, l *lexer.Lexer, src string) []lexer.Lexem {
	t.Helper()
	scanner := lexer.NewScanner("test.prg", src)
	var out []lexer.Lexem
	for {
		lx, err := l.Next(scanner)
		require.NoError(t, err)
		if lx.Empty() {
			return out
		}
		out = append(out, lx)
	}
}

func TestScanPointerAssignment(t *testing.T) {
	l := newPointerLangLexer(t)
	toks := scanAll(t, l, "x = *y ;")
	require.Len(t, toks, 5)
	assert.Equal(t, lexer.Lexem{Name: "IDENT", Value: "x", Line: 1}, toks[0])
	assert.Equal(t, lexer.Lexem{Name: "=", Value: "=", Line: 1}, toks[1])
	assert.Equal(t, lexer.Lexem{Name: "*", Value: "*", Line: 1}, toks[2])
	assert.Equal(t, lexer.Lexem{Name: "IDENT", Value: "y", Line: 1}, toks[3])
	assert.Equal(t, lexer.Lexem{Name: ";", Value: ";", Line: 1}, toks[4])
}

func TestScanSkipsEolnComment(t *testing.T) {
	l := newPointerLangLexer(t)
	toks := scanAll(t, l, "x // this is a comment\n= 3 ;")
	require.Len(t, toks, 4)
	assert.Equal(t, "x", toks[0].Value)
	assert.Equal(t, "=", toks[1].Value)
	assert.Equal(t, "3", toks[2].Value)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanSkipsBracketComment(t *testing.T) {
	l := newPointerLangLexer(t)
	toks := scanAll(t, l, "x /* skip\nme */ = y ;")
	require.Len(t, toks, 4)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanLongestMatchWins(t *testing.T) {
	// A keyword ties with an identifier pattern on an exact match: the
	// earlier-registered definition wins, matching the reference lexer's
	// first-registered-wins tie break. "iffy" is strictly longer than
	// the keyword match, so the identifier pattern wins outright there.
	l := lexer.New()
	require.NoError(t, l.DefineKeyword("if"))
	require.NoError(t, l.DefineLexem("IDENT", "[a-z]+", 0))
	toks := scanAll(t, l, "iffy if")
	require.Len(t, toks, 2)
	assert.Equal(t, "IDENT", toks[0].Name)
	assert.Equal(t, "iffy", toks[0].Value)
	assert.Equal(t, "if", toks[1].Name)
}

func TestScanReportsBadCharacter(t *testing.T) {
	l := newPointerLangLexer(t)
	toks := scanAll(t, l, "x $ y")
	require.Len(t, toks, 3)
	assert.Equal(t, "?", toks[1].Name)
	assert.Equal(t, "$", toks[1].Value)
}

func TestDefineLexemRejectsPatternWithNoActivationChars(t *testing.T) {
	l := lexer.New()
	err := l.DefineLexem("EMPTY", "", 0)
	assert.Error(t, err)
}

func TestDefineLexemRejectsInvalidRegex(t *testing.T) {
	l := lexer.New()
	err := l.DefineLexem("BAD", "(", 0)
	assert.Error(t, err)
}

func TestSelectSubmatch(t *testing.T) {
	l := lexer.New()
	require.NoError(t, l.DefineLexem("STRING", `"([^"]*)"`, 1))
	toks := scanAll(t, l, `"hello"`)
	require.Len(t, toks, 1)
	assert.Equal(t, "hello", toks[0].Value)
}
