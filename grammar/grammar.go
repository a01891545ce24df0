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

// Package grammar parses an attributed EBNF grammar source into the
// normalised production list, lexer definition and call table the
// automaton package builds an LALR(1) parser from.
package grammar

import "github.com/mewalang/mewa/lexer"

// NodeType classifies a ProductionNode as resolved to a terminal
// (lexeme), a nonterminal, or not yet resolved.
type NodeType int

const (
	Unresolved NodeType = iota
	NonTerminal
	Terminal
)

// ProductionNode is one resolved grammar symbol: its type and its
// 1-based index into the nonterminal or terminal namespace.
type ProductionNode struct {
	Type  NodeType
	Index int
}

// ProductionNodeDef is a production symbol as written in the source:
// its literal name and whether it was written bare (a symbol reference)
// or quoted (an implicit keyword lexeme).
type ProductionNodeDef struct {
	ProductionNode
	Name     string
	IsSymbol bool
}

// Associativity resolves shift/reduce conflicts of equal priority.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
)

// Priority is a production's conflict-resolution weight: higher wins,
// equal priority falls back to Assoc. Weight is a fixed-point unit
// (1 unit = 1/1000 of one source priority step) so conflict comparisons
// are exact integer equality rather than floating-point with an
// epsilon, per the design decision recorded in SPEC_FULL.md.
type Priority struct {
	Weight int64
	Assoc  Associativity
}

// Defined reports whether a priority was given in the source: value 0
// with no associativity reports false. An explicit priority of 0 with no
// associativity is stored the same way and also reports false.
func (p Priority) Defined() bool { return p.Weight != 0 || p.Assoc != AssocNone }

// CallArgType distinguishes the three forms of call argument syntax
// (§4.3): the host must be able to tell a literal string from a
// reference and from a small integer.
type CallArgType int

const (
	NoArg CallArgType = iota
	StringArg
	ReferenceArg
	NumberArg
)

// Call is one distinct (function, arg, argtype) triple referenced by a
// production's reduction action; productions that use the same call
// signature share a Call table entry.
type Call struct {
	Function string
	Arg      string
	ArgType  CallArgType
}

// ProductionDef is one normalised grammar production: LHS nonterminal,
// RHS symbol sequence, conflict-resolution priority, an optional call
// index (1-based into LanguageDef.Calls, 0 for none), and the scope
// markers the driver consults when walking a parse carrying this
// production (§4.5).
type ProductionDef struct {
	Left         ProductionNodeDef
	Right        []ProductionNodeDef
	Priority     Priority
	CallIdx      int
	OpensScope   bool
	AdvancesStep bool
}

// LanguageDef is the complete, validated result of parsing a grammar
// source: the declared language/typesystem names, the lexer built from
// the grammar's token and keyword definitions, the normalised
// production list (production 0 is always the start production), the
// call table, and the nonterminal names in declaration order (index i
// of this slice is nonterminal id i+1).
type LanguageDef struct {
	Language     string
	TypeSystem   string
	Lexer        *lexer.Lexer
	Productions  []ProductionDef
	Calls        []Call
	Nonterminals []string
}
