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

package automaton

import (
	"gopkg.in/yaml.v3"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/grammar"
	"github.com/mewalang/mewa/lexer"
)

// callDoc is one call-table entry as emitted (§6: "an ordered list of
// (function-name, kind, arg) triples").
type callDoc struct {
	Function string `yaml:"function"`
	Kind     string `yaml:"kind"`
	Arg      string `yaml:"arg,omitempty"`
}

// lexerDoc has one field per lexer definition class of §6. Emit fills
// only Bad and Ignore; Keyword, Token and Comment are always left empty.
type lexerDoc struct {
	Keyword []string          `yaml:"keyword,omitempty"`
	Token   map[string]string `yaml:"token,omitempty"`
	Ignore  []string          `yaml:"ignore,omitempty"`
	Bad     string            `yaml:"bad,omitempty"`
	Comment []commentDoc      `yaml:"comment,omitempty"`
}

type commentDoc struct {
	Start string `yaml:"start"`
	End   string `yaml:"end,omitempty"`
}

// document is the top-level shape of the emitted tables document (§6):
// a map with keys language, typesystem, lexer, action, gto, call,
// nonterminal. action and gto keys and values are packed small integers
// (§3's bit widths), carried here as plain ints since YAML has no
// narrower integer type to enforce them with; PackActionKey/PackAction
// and PackGotoKey are the sole authority on the packing (a gto value is
// the plain target state).
type document struct {
	Language    string         `yaml:"language"`
	TypeSystem  string         `yaml:"typesystem"`
	Lexer       lexerDoc       `yaml:"lexer"`
	Action      map[int64]int64 `yaml:"action"`
	Gto         map[int64]int64 `yaml:"gto"`
	Call        []callDoc      `yaml:"call"`
	Nonterminal []string       `yaml:"nonterminal"`
}

func callArgTypeName(t grammar.CallArgType) string {
	switch t {
	case grammar.StringArg:
		return "string"
	case grammar.ReferenceArg:
		return "reference"
	case grammar.NumberArg:
		return "number"
	default:
		return "none"
	}
}

func callArgTypeOf(name string) grammar.CallArgType {
	switch name {
	case "string":
		return grammar.StringArg
	case "reference":
		return grammar.ReferenceArg
	case "number":
		return grammar.NumberArg
	default:
		return grammar.NoArg
	}
}

// PackActionKey packs an (state, terminal) action-table key into one
// word, per §3's terminal bit width.
func PackActionKey(state, terminal int) int64 {
	return int64(state)*MaxTerminal + int64(terminal)
}

// UnpackActionKey is PackActionKey's inverse.
func UnpackActionKey(packed int64) (state, terminal int) {
	return int(packed / MaxTerminal), int(packed % MaxTerminal)
}

// PackAction packs an Action into one word: a 2-bit kind tag followed by
// the kind-specific payload, using the §3 bit widths.
func PackAction(a Action) int64 {
	switch a.Kind {
	case Shift:
		return int64(Shift) | int64(a.State)<<2
	case Reduce, Accept:
		v := int64(a.Kind)
		v |= int64(a.Nonterminal) << 2
		v |= int64(a.Count) << (2 + ShiftNonterminal)
		v |= int64(a.Call) << (2 + ShiftNonterminal + ShiftProductionLength)
		return v
	default:
		return int64(Accept)
	}
}

// UnpackAction is PackAction's inverse for the fields PackAction packs;
// Priority, OpensScope and AdvancesStep are not part of the packed word
// and come back zero.
func UnpackAction(packed int64) Action {
	kind := ActionKind(packed & 0x3)
	rest := packed >> 2
	switch kind {
	case Shift:
		return Action{Kind: Shift, State: int(rest)}
	case Reduce, Accept:
		nt := int(rest & (MaxNonterminal - 1))
		rest >>= ShiftNonterminal
		count := int(rest & (MaxProductionLength - 1))
		rest >>= ShiftProductionLength
		call := int(rest)
		return Action{Kind: kind, Nonterminal: nt, Count: count, Call: call}
	default:
		return Action{Kind: Accept}
	}
}

// PackGotoKey packs an (state, nonterminal) goto-table key into one word.
func PackGotoKey(state, nonterminal int) int64 {
	return int64(state)*MaxNonterminal + int64(nonterminal)
}

// UnpackGotoKey is PackGotoKey's inverse.
func UnpackGotoKey(packed int64) (state, nonterminal int) {
	return int(packed / MaxNonterminal), int(packed % MaxNonterminal)
}

// Emit serialises a built Automaton into the §6 packed-tables document.
func Emit(a *Automaton) ([]byte, error) {
	doc := document{
		Language:    a.Language,
		TypeSystem:  a.TypeSystem,
		Lexer:       emitLexer(a.Lexer),
		Action:      map[int64]int64{},
		Gto:         map[int64]int64{},
		Nonterminal: a.Nonterminals,
	}
	for k, v := range a.Actions {
		doc.Action[PackActionKey(k.State, k.Terminal)] = PackAction(v)
	}
	for k, v := range a.Gotos {
		doc.Gto[PackGotoKey(k.State, k.Nonterminal)] = int64(v.State)
	}
	for _, c := range a.Calls {
		doc.Call = append(doc.Call, callDoc{Function: c.Function, Kind: callArgTypeName(c.ArgType), Arg: c.Arg})
	}
	return yaml.Marshal(&doc)
}

func emitLexer(l *lexer.Lexer) lexerDoc {
	d := lexerDoc{Bad: l.ErrorName()}
	for _, p := range l.IgnorePatterns() {
		d.Ignore = append(d.Ignore, p)
	}
	return d
}

// Parse decodes a §6 packed-tables document produced by Emit back into
// an Automaton. No lexer is rebuilt: the returned Automaton's Lexer is
// nil (and its BuildID empty), so scanning needs the grammar.LanguageDef's
// *lexer.Lexer kept alongside the emitted tables.
func Parse(data []byte) (*Automaton, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Newf(errors.FileReadError, "%s", err)
	}
	a := &Automaton{
		Language:     doc.Language,
		TypeSystem:   doc.TypeSystem,
		Actions:      map[ActionKey]Action{},
		Gotos:        map[GotoKey]Goto{},
		Nonterminals: doc.Nonterminal,
	}
	for k, v := range doc.Action {
		state, terminal := UnpackActionKey(k)
		a.Actions[ActionKey{State: state, Terminal: terminal}] = UnpackAction(v)
	}
	for k, v := range doc.Gto {
		state, nonterminal := UnpackGotoKey(k)
		a.Gotos[GotoKey{State: state, Nonterminal: nonterminal}] = Goto{State: int(v)}
	}
	for _, c := range doc.Call {
		a.Calls = append(a.Calls, grammar.Call{Function: c.Function, Arg: c.Arg, ArgType: callArgTypeOf(c.Kind)})
	}
	states := map[int]bool{}
	for k := range a.Actions {
		states[k.State] = true
	}
	for k := range a.Gotos {
		states[k.State] = true
	}
	for s := range states {
		if s+1 > a.NumStates {
			a.NumStates = s + 1
		}
	}
	return a, nil
}
