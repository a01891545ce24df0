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

// Package automaton builds a deterministic LALR(1) parser (action/goto
// tables plus a call table) from a grammar.LanguageDef, and serializes
// the result to and from the packed tables document of §6.
package automaton

import (
	"github.com/google/uuid"

	"github.com/mewalang/mewa/grammar"
	"github.com/mewalang/mewa/lexer"
)

// Bit widths packed tables are bounded by (§3): state and nonterminal/
// terminal/call indices, and production length (the reduce pop count).
const (
	ShiftState             = 15
	ShiftProductionLength  = 5
	ShiftNonterminal       = 10
	ShiftTerminal          = 10
	ShiftCall              = 10

	MaxState             = 1 << ShiftState
	MaxProductionLength  = 1 << ShiftProductionLength
	MaxNonterminal       = 1 << ShiftNonterminal
	MaxTerminal          = 1 << ShiftTerminal
	MaxCall              = 1 << ShiftCall
)

// EndOfInput is the reserved terminal id denoting '$', the end-of-input
// lookahead. Real lexer-defined terminal ids start at 1 (lexer.Lookup),
// so this never collides with a declared token.
const EndOfInput = 0

// ActionKind tags an Action's packed variant (§9 design notes: Action is
// a three-way tagged union rather than a type hierarchy).
type ActionKind int

const (
	Shift ActionKind = iota
	Reduce
	Accept
)

// Action is one parser-table cell: a shift to a new state, a reduce of
// Count symbols to Nonterminal invoking Call (0 for none), or accept.
type Action struct {
	Kind         ActionKind
	State        int // Shift target state
	Nonterminal  int // Reduce head
	Count        int // Reduce pop count (production length)
	Call         int // 1-based into Automaton.Calls, 0 for none
	Priority     grammar.Priority
	OpensScope   bool // reduce opens a fresh scope over its popped frames (§4.5)
	AdvancesStep bool // reduce advances the driver's step counter (§4.5)
}

// ActionKey indexes the action table by (state, terminal); EndOfInput
// selects '$'.
type ActionKey struct {
	State    int
	Terminal int
}

// Goto is a single entry of the goto table: the state reached after
// reducing to a given nonterminal while in a given state.
type Goto struct {
	State int
}

// GotoKey indexes the goto table by (state, nonterminal).
type GotoKey struct {
	State       int
	Nonterminal int
}

// Automaton is the fully built, validated result of running the
// generator over a grammar.LanguageDef: packed action/goto tables, the
// call table, the originating lexer, and the nonterminal name table,
// plus a content-independent BuildID used for host-side cache/log
// correlation (never consulted for parsing semantics).
type Automaton struct {
	BuildID      string
	Language     string
	TypeSystem   string
	Lexer        *lexer.Lexer
	Actions      map[ActionKey]Action
	Gotos        map[GotoKey]Goto
	Calls        []grammar.Call
	Nonterminals []string
	NumStates    int
}

func newBuildID() string { return uuid.NewString() }
