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

// Package errors defines the stable, numeric error codes shared by every
// mewa core package (grammar, automaton, lexer, driver, typedb) plus the
// Error and List types used to report and accumulate them.
package errors

import (
	"fmt"
	"strings"
)

// Code is a stable numeric error identifier, grouped by origin as in §7
// of the specification.
type Code int

const (
	Ok Code = 0

	LogicError    Code = 401
	FileReadError Code = 402

	IllegalFirstCharacterInLexer Code = 501
	SyntaxErrorInLexer           Code = 502
	ArrayBoundReadInLexer        Code = 503
	InvalidRegexInLexer          Code = 504

	BadCharacterInGrammarDef     Code = 601
	ValueOutOfRangeInGrammarDef  Code = 602
	UnexpectedEofInGrammarDef    Code = 603
	UnexpectedTokenInGrammarDef  Code = 604
	ExpectedPatternInGrammarDef  Code = 605
	ExpectedNumberInGrammarDef   Code = 606
	ExpectedPriorityInGrammarDef Code = 607

	PriorityDefNotForLexemsInGrammarDef Code = 621
	UnexpectedEndOfRuleInGrammarDef     Code = 631

	CommandNumberOfArgumentsInGrammarDef Code = 641
	CommandNameUnknownInGrammarDef       Code = 642

	DefinedAsTerminalAndNonterminalInGrammarDef Code = 701
	UnresolvedIdentifierInGrammarDef            Code = 702
	UnreachableNonTerminalInGrammarDef          Code = 703
	StartSymbolReferencedInGrammarDef           Code = 704
	StartSymbolDefinedTwiceInGrammarDef         Code = 705
	EmptyGrammarDef                             Code = 706
	PriorityConflictInGrammarDef                Code = 707
	NoAcceptStatesInGrammarDef                  Code = 708

	ShiftReduceConflictInGrammarDef Code = 801
	ReduceReduceConflictInGrammarDef Code = 802
	ShiftShiftConflictInGrammarDef   Code = 803

	ComplexityMaxStateInGrammarDef           Code = 901
	ComplexityMaxProductionLengthInGrammarDef Code = 902
	ComplexityMaxNonterminalInGrammarDef      Code = 903
	ComplexityMaxTerminalInGrammarDef         Code = 904

	DuplicateDefinition           Code = 1001
	InvalidHandle                 Code = 1002
	InvalidBoundary               Code = 1003
	AmbiguousReductionDefinitions Code = 1004
	ScopeHierarchyError           Code = 1005
	AmbiguousTypeReference        Code = 1006
	UnresolvableType              Code = 1007

	UnexpectedTokenNotOneOf         Code = 1101
	LanguageAutomatonCorrupted      Code = 1102
	LanguageAutomatonMissingGoto    Code = 1103
	LanguageAutomatonUnexpectedAccept Code = 1104
)

var codeText = map[Code]string{
	Ok:            "",
	LogicError:    "logic error",
	FileReadError: "unknown error reading file, could not read until end of file",

	IllegalFirstCharacterInLexer: "bad character in a regular expression passed to the lexer",
	SyntaxErrorInLexer:           "syntax error in the lexer definition",
	ArrayBoundReadInLexer:        "logic error (array bound read) in the lexer definition",
	InvalidRegexInLexer:          "bad regular expression definition for the lexer",

	BadCharacterInGrammarDef:     "bad character in the grammar definition",
	ValueOutOfRangeInGrammarDef:  "value out of range in the grammar definition",
	UnexpectedEofInGrammarDef:    "unexpected EOF in the grammar definition",
	UnexpectedTokenInGrammarDef:  "unexpected token in the grammar definition",
	ExpectedPatternInGrammarDef:  "expected regular expression as first element of a lexem definition in the grammar",
	ExpectedNumberInGrammarDef:   "expected a number in the grammar definition",
	ExpectedPriorityInGrammarDef: "expected a priority definition in the grammar definition",

	PriorityDefNotForLexemsInGrammarDef: "priority definition for lexems not implemented",
	UnexpectedEndOfRuleInGrammarDef:     "unexpected end of rule in the grammar definition",

	CommandNumberOfArgumentsInGrammarDef: "wrong number of arguments for command (followed by '%') in the grammar definition",
	CommandNameUnknownInGrammarDef:       "unknown command (followed by '%') in the grammar definition",

	DefinedAsTerminalAndNonterminalInGrammarDef: "identifier defined as nonterminal and as lexem in the grammar definition not allowed",
	UnresolvedIdentifierInGrammarDef:            "unresolved identifier in the grammar definition",
	UnreachableNonTerminalInGrammarDef:          "unreachable nonterminal in the grammar definition",
	StartSymbolReferencedInGrammarDef:           "start symbol referenced on the right side of a rule in the grammar definition",
	StartSymbolDefinedTwiceInGrammarDef:         "start symbol defined on the left side of more than one rule of the grammar definition",
	EmptyGrammarDef:                             "the grammar definition is empty",
	PriorityConflictInGrammarDef:                "priority definition conflict in the grammar definition",
	NoAcceptStatesInGrammarDef:                  "no accept states in the grammar definition",

	ShiftReduceConflictInGrammarDef:  "SHIFT/REDUCE conflict in the grammar definition",
	ReduceReduceConflictInGrammarDef: "REDUCE/REDUCE conflict in the grammar definition",
	ShiftShiftConflictInGrammarDef:   "SHIFT/SHIFT conflict in the grammar definition",

	ComplexityMaxStateInGrammarDef:            "too many states in the resulting tables of the grammar",
	ComplexityMaxProductionLengthInGrammarDef: "too many elements in a production of the grammar",
	ComplexityMaxNonterminalInGrammarDef:       "too many nonterminals in the resulting tables of the grammar",
	ComplexityMaxTerminalInGrammarDef:          "too many terminals (lexems) in the resulting tables of the grammar",

	DuplicateDefinition:           "duplicate definition",
	InvalidHandle:                 "invalid handle",
	InvalidBoundary:               "invalid scope boundary",
	AmbiguousReductionDefinitions: "ambiguous reduction definitions",
	ScopeHierarchyError:           "scope hierarchy error, scopes overlap partially",
	AmbiguousTypeReference:        "ambiguous type reference",
	UnresolvableType:              "unresolvable type",

	UnexpectedTokenNotOneOf:           "unexpected token, not one of the expected tokens",
	LanguageAutomatonCorrupted:        "language automaton corrupted",
	LanguageAutomatonMissingGoto:      "language automaton corrupted, missing goto after reduce",
	LanguageAutomatonUnexpectedAccept: "language automaton corrupted, unexpected accept",
}

// String returns the stable human-readable text associated with a Code.
func (c Code) String() string {
	if s, ok := codeText[c]; ok {
		return s
	}
	return "unknown error"
}

// Position is the location an Error is attached to, if any.
type Position struct {
	Line     int
	Filename string
}

// IsValid reports whether the position carries a usable line number.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// Error is the common error type returned by every mewa core package. It
// carries a stable Code, an optional argument string and an optional
// source Position, exactly as required by §7 of the specification.
type Error struct {
	Code Code
	Arg  string
	Pos  Position
}

// New creates an Error with no argument and no position.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Newf creates an Error carrying a formatted argument string.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Arg: fmt.Sprintf(format, args...)}
}

// WithArg returns a copy of the error carrying the given argument string.
func (e *Error) WithArg(arg string) *Error {
	n := *e
	n.Arg = arg
	return &n
}

// WithLine returns a copy of the error attached to the given source line.
func (e *Error) WithLine(line int) *Error {
	n := *e
	n.Pos.Line = line
	return &n
}

// WithPosition returns a copy of the error attached to the given position.
func (e *Error) WithPosition(pos Position) *Error {
	n := *e
	n.Pos = pos
	return &n
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "error %d (%s) at %s", int(e.Code), e.Code.String(), e.Pos.String())
	} else {
		fmt.Fprintf(&b, "error %d (%s)", int(e.Code), e.Code.String())
	}
	if e.Arg != "" {
		b.WriteByte(' ')
		b.WriteString(e.Arg)
	}
	return b.String()
}

// Is reports whether target is an *Error with the same Code, so callers
// can use errors.Is(err, errors.New(SomeCode)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// List accumulates non-fatal warnings produced while building an
// automaton (shift/reduce, reduce/reduce and shift/shift conflicts
// resolved by priority/associativity, §7 "Warnings").
type List []*Error

func (l List) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// Add appends err to the list unless it is nil.
func (l *List) Add(err *Error) {
	if err != nil {
		*l = append(*l, err)
	}
}
