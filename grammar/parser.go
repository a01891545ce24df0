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

package grammar

import (
	"strconv"

	"golang.org/x/text/cases"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/lexer"
)

// newGrammarLexer builds the fixed lexer used to scan grammar source
// itself (as opposed to the Lexer a grammar source defines for the
// language it describes).
func newGrammarLexer() *lexer.Lexer {
	l := lexer.New()
	mustDefine(l.DefineEolnComment("//"))
	mustDefine(l.DefineBracketComment("/*", "*/"))
	mustDefine(l.DefineLexem("IDENT", "[a-zA-Z_][a-zA-Z_0-9]*", 0))
	mustDefine(l.DefineLexem("NUMBER", "[0-9]+", 0))
	mustDefine(l.DefineLexem("PRIORITY", "[0-9]+[LR]", 0))
	mustDefine(l.DefineLexem("DQSTRING", `["]((([^\\"\n])|([\\][^"\n]))*)["]`, 1))
	mustDefine(l.DefineLexem("SQSTRING", `[']((([^\\'\n])|([\\][^'\n]))*)[']`, 1))
	mustDefine(l.DefineKeyword("%"))
	mustDefine(l.DefineKeyword("/"))
	mustDefine(l.DefineKeyword("="))
	mustDefine(l.DefineKeyword("→"))
	mustDefine(l.DefineKeyword(":"))
	mustDefine(l.DefineKeyword(";"))
	mustDefine(l.DefineKeyword("ε"))
	mustDefine(l.DefineLexem("CALL", "[a-zA-Z_][:.a-zA-Z_0-9]*", 0))
	mustDefine(l.DefineKeyword("("))
	mustDefine(l.DefineKeyword(")"))
	mustDefine(l.DefineKeyword("|"))
	mustDefine(l.DefineKeyword("{"))
	mustDefine(l.DefineKeyword("}"))
	mustDefine(l.DefineKeyword(">>"))
	l.DefineBadLexem("?")
	return l
}

// mustDefine panics on a lexeme definition error: every pattern above
// is a fixed literal constant, so a failure here is a programming
// error in this package, not a runtime condition callers can recover
// from.
func mustDefine(err error) {
	if err != nil {
		panic(err)
	}
}

var foldCase = cases.Fold()

func cmdIs(name, want string) bool {
	return foldCase.String(name) == foldCase.String(want)
}

type parseState int

const (
	stInit parseState = iota
	stProductionAttributes
	stPriority
	stAssign
	stProductionElement
	stCall
	stCallName
	stCallArg
	stCallClose
	stScopeClose
	stEndOfProduction
	stPattern
	stPatternSelect
	stEndOfLexemDef
	stLexerCommand
	stLexerCommandArg
)

// Parse reads a grammar source text and returns its fully validated
// LanguageDef: production list (production 0 is the start production),
// lexer, call table and nonterminal names. See §4.3 for the accepted
// syntax and the post-parse validation this performs.
func Parse(source string) (*LanguageDef, error) {
	rt := &LanguageDef{Lexer: lexer.New()}

	gl := newGrammarLexer()
	scanner := lexer.NewScanner("", source)

	state := stInit
	var rulename string
	var patternstr string
	var cmdname string
	var cmdargs []string
	type prodRef struct {
		name string
		idx  int
	}
	var prodOrder []prodRef
	nonTerminalID := map[string]int{}
	used := map[string]bool{}
	callIndex := map[Call]int{}
	var priority Priority
	var callFunction, callArg string
	var callArgType CallArgType
	selectIdx := 0
	lastLine := 1

	fail := func(code errors.Code, arg string) (*LanguageDef, error) {
		return nil, errors.Newf(code, "%s", arg).WithLine(lastLine)
	}

	lx, err := gl.Next(scanner)
	if err != nil {
		return nil, err
	}
	for !lx.Empty() {
		lastLine = lx.Line
		switch {
		case lx.Name == gl.ErrorName():
			return fail(errors.BadCharacterInGrammarDef, lx.Value)

		case lx.Name == "IDENT":
			switch state {
			case stInit:
				rulename = lx.Value
				patternstr = ""
				selectIdx = 0
				priority = Priority{}
				callArgType = NoArg
				callFunction, callArg = "", ""
				state = stProductionAttributes
			case stProductionElement:
				rt.Productions[len(rt.Productions)-1].Right = append(rt.Productions[len(rt.Productions)-1].Right,
					ProductionNodeDef{Name: lx.Value, IsSymbol: true})
			case stCallName:
				callFunction = lx.Value
				state = stCallArg
			case stCallArg:
				callArg = lx.Value
				callArgType = ReferenceArg
				state = stCallClose
			case stLexerCommand:
				cmdname = lx.Value
				state = stLexerCommandArg
			case stLexerCommandArg:
				cmdargs = append(cmdargs, lx.Value)
			case stPriority:
				priority, err = parsePriority(lx.Value)
				if err != nil {
					return nil, err.(*errors.Error).WithLine(lastLine)
				}
				state = stAssign
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "CALL":
			switch state {
			case stCallName:
				callFunction = lx.Value
				state = stCallArg
			case stCallArg:
				callArg = lx.Value
				callArgType = ReferenceArg
				state = stCallClose
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "(":
			switch state {
			case stProductionElement, stCall:
				state = stCallName
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == ")":
			switch state {
			case stCallArg, stCallClose:
				call := Call{Function: callFunction, Arg: callArg, ArgType: callArgType}
				idx, ok := callIndex[call]
				if !ok {
					rt.Calls = append(rt.Calls, call)
					idx = len(rt.Calls)
					callIndex[call] = idx
				}
				rt.Productions[len(rt.Productions)-1].CallIdx = idx
				state = stEndOfProduction
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "{":
			switch state {
			case stProductionElement, stEndOfProduction, stCall:
				state = stScopeClose
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "}":
			if state != stScopeClose {
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}
			rt.Productions[len(rt.Productions)-1].OpensScope = true
			state = stEndOfProduction

		case lx.Name == ">>":
			switch state {
			case stProductionElement, stEndOfProduction, stCall:
				rt.Productions[len(rt.Productions)-1].AdvancesStep = true
				state = stEndOfProduction
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "PRIORITY":
			if state != stPriority {
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}
			priority, err = parsePriority(lx.Value)
			if err != nil {
				return nil, err.(*errors.Error).WithLine(lastLine)
			}
			state = stAssign

		case lx.Name == "NUMBER":
			switch state {
			case stPriority:
				priority, err = parsePriority(lx.Value)
				if err != nil {
					return nil, err.(*errors.Error).WithLine(lastLine)
				}
				state = stAssign
			case stPatternSelect:
				n, perr := strconv.Atoi(lx.Value)
				if perr != nil {
					return fail(errors.ExpectedNumberInGrammarDef, lx.Value)
				}
				selectIdx = n
				state = stEndOfLexemDef
			case stCallArg:
				callArg = lx.Value
				callArgType = NumberArg
				state = stCallClose
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "DQSTRING" || lx.Name == "SQSTRING":
			switch state {
			case stPattern:
				patternstr = lx.Value
				state = stPatternSelect
			case stLexerCommandArg:
				cmdargs = append(cmdargs, lx.Value)
			case stProductionElement:
				if rt.Lexer.Lookup(lx.Value) == 0 {
					if derr := rt.Lexer.DefineKeyword(lx.Value); derr != nil {
						return nil, derr
					}
				}
				rt.Productions[len(rt.Productions)-1].Right = append(rt.Productions[len(rt.Productions)-1].Right,
					ProductionNodeDef{Name: lx.Value, IsSymbol: false})
			case stCallArg:
				callArg = lx.Value
				callArgType = StringArg
				state = stCallClose
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == "ε":
			if state != stProductionElement || len(rt.Productions[len(rt.Productions)-1].Right) != 0 {
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}
			state = stCall

		case lx.Name == "%":
			if state != stInit {
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}
			cmdname = ""
			cmdargs = nil
			state = stLexerCommand

		case lx.Name == "/":
			if state != stProductionAttributes {
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}
			state = stPriority

		case lx.Name == "=" || lx.Name == "→":
			switch state {
			case stProductionAttributes, stAssign:
				prodOrder = append(prodOrder, prodRef{rulename, len(rt.Productions)})
				rt.Productions = append(rt.Productions, ProductionDef{
					Left:     ProductionNodeDef{Name: rulename, IsSymbol: true},
					Priority: priority,
				})
				if _, exists := nonTerminalID[rulename]; !exists {
					nonTerminalID[rulename] = len(nonTerminalID) + 1
					rt.Nonterminals = append(rt.Nonterminals, rulename)
				}
				state = stProductionElement
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == ":":
			switch state {
			case stAssign:
				return fail(errors.PriorityDefNotForLexemsInGrammarDef, "")
			case stProductionAttributes:
				state = stPattern
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		case lx.Name == ";":
			switch state {
			case stLexerCommandArg:
				if err := applyCommand(rt, cmdname, cmdargs); err != nil {
					return nil, err.WithLine(lastLine)
				}
			case stPatternSelect:
				if derr := rt.Lexer.DefineLexem(rulename, patternstr, 0); derr != nil {
					return nil, derr
				}
			case stEndOfLexemDef:
				if derr := rt.Lexer.DefineLexem(rulename, patternstr, selectIdx); derr != nil {
					return nil, derr
				}
			case stProductionElement, stEndOfProduction, stCall:
				// nothing left to do
			default:
				return fail(errors.UnexpectedEndOfRuleInGrammarDef, "")
			}
			state = stInit

		case lx.Name == "|":
			switch state {
			case stProductionElement, stEndOfProduction, stCall:
				prodOrder = append(prodOrder, prodRef{rulename, len(rt.Productions)})
				rt.Productions = append(rt.Productions, ProductionDef{
					Left:     ProductionNodeDef{Name: rulename, IsSymbol: true},
					Priority: priority,
				})
				state = stProductionElement
			default:
				return fail(errors.UnexpectedTokenInGrammarDef, lx.Value)
			}

		default:
			return fail(errors.BadCharacterInGrammarDef, lx.Value)
		}

		lx, err = gl.Next(scanner)
		if err != nil {
			return nil, err
		}
	}
	if state != stInit {
		return fail(errors.UnexpectedEofInGrammarDef, "")
	}

	// [2] Label grammar production elements.
	for i := range rt.Productions {
		prod := &rt.Productions[i]
		if rt.Lexer.Lookup(prod.Left.Name) != 0 {
			return fail(errors.DefinedAsTerminalAndNonterminalInGrammarDef, prod.Left.Name)
		}
		prod.Left.Type = NonTerminal
		prod.Left.Index = nonTerminalID[prod.Left.Name]

		for j := range prod.Right {
			el := &prod.Right[j]
			if el.Type != Unresolved {
				continue
			}
			lxid := rt.Lexer.Lookup(el.Name)
			nt, isNT := nonTerminalID[el.Name]
			if !isNT {
				if lxid == 0 {
					return fail(errors.UnresolvedIdentifierInGrammarDef, el.Name)
				}
				el.Type = Terminal
				el.Index = lxid
			} else {
				if lxid != 0 {
					return fail(errors.DefinedAsTerminalAndNonterminalInGrammarDef, el.Name)
				}
				el.Type = NonTerminal
				el.Index = nt
				used[el.Name] = true
			}
		}
	}

	// [3] Every nonterminal is reachable from the start symbol, and the
	// start symbol is never referenced.
	for _, pr := range prodOrder {
		nt := nonTerminalID[pr.name]
		if !used[pr.name] {
			if nt != 1 {
				return fail(errors.UnreachableNonTerminalInGrammarDef, pr.name)
			}
		} else if nt == 1 {
			return fail(errors.StartSymbolReferencedInGrammarDef, pr.name)
		}
	}

	// [4] The start symbol occurs exactly once on the left.
	startCount := 0
	for _, prod := range rt.Productions {
		if prod.Left.Index == 1 {
			startCount++
		}
	}
	if startCount == 0 {
		return fail(errors.EmptyGrammarDef, "")
	}
	if startCount > 1 {
		return fail(errors.StartSymbolDefinedTwiceInGrammarDef, rt.Productions[0].Left.Name)
	}

	if len(nonTerminalID) >= maxNonterminal {
		return fail(errors.ComplexityMaxNonterminalInGrammarDef, "")
	}

	return rt, nil
}

func parsePriority(s string) (Priority, error) {
	if s == "" {
		return Priority{}, errors.New(errors.ExpectedPriorityInGrammarDef)
	}
	assoc := AssocNone
	numPart := s
	if s[0] == 'L' || s[0] == 'R' {
		assoc = assocOf(s[0])
		numPart = s[1:]
	} else if last := s[len(s)-1]; last == 'L' || last == 'R' {
		assoc = assocOf(last)
		numPart = s[:len(s)-1]
	}
	weight := int64(0)
	if numPart != "" {
		n, err := strconv.ParseInt(numPart, 10, 64)
		if err != nil {
			return Priority{}, errors.Newf(errors.ExpectedNumberInGrammarDef, "%s", numPart)
		}
		weight = n
	} else if assoc == AssocNone {
		return Priority{}, errors.New(errors.ExpectedPriorityInGrammarDef)
	}
	return Priority{Weight: weight * 1000, Assoc: assoc}, nil
}

func assocOf(b byte) Associativity {
	if b == 'L' {
		return AssocLeft
	}
	return AssocRight
}

func applyCommand(rt *LanguageDef, cmdname string, cmdargs []string) *errors.Error {
	switch {
	case cmdIs(cmdname, "LANGUAGE"):
		if len(cmdargs) != 1 {
			return errors.New(errors.CommandNumberOfArgumentsInGrammarDef).WithArg(cmdname)
		}
		rt.Language = cmdargs[0]
	case cmdIs(cmdname, "TYPESYSTEM"):
		if len(cmdargs) != 1 {
			return errors.New(errors.CommandNumberOfArgumentsInGrammarDef).WithArg(cmdname)
		}
		rt.TypeSystem = cmdargs[0]
	case cmdIs(cmdname, "IGNORE"):
		if len(cmdargs) != 1 {
			return errors.New(errors.CommandNumberOfArgumentsInGrammarDef).WithArg(cmdname)
		}
		if err := rt.Lexer.DefineIgnore(cmdargs[0]); err != nil {
			return err.(*errors.Error)
		}
	case cmdIs(cmdname, "BAD"):
		if len(cmdargs) != 1 {
			return errors.New(errors.CommandNumberOfArgumentsInGrammarDef).WithArg(cmdname)
		}
		rt.Lexer.DefineBadLexem(cmdargs[0])
	case cmdIs(cmdname, "COMMENT"):
		switch len(cmdargs) {
		case 1:
			if err := rt.Lexer.DefineEolnComment(cmdargs[0]); err != nil {
				return err.(*errors.Error)
			}
		case 2:
			if err := rt.Lexer.DefineBracketComment(cmdargs[0], cmdargs[1]); err != nil {
				return err.(*errors.Error)
			}
		default:
			return errors.New(errors.CommandNumberOfArgumentsInGrammarDef).WithArg(cmdname)
		}
	default:
		return errors.New(errors.CommandNameUnknownInGrammarDef).WithArg(cmdname)
	}
	return nil
}

const maxNonterminal = 1 << 10
