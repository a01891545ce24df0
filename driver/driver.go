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

// Package driver runs the table-driven shift/reduce parse loop over an
// automaton.Automaton: it walks one source string, invoking the host's
// semantic actions on each reduction and tracking the scope/step state
// a scope-marked production needs (§4.5).
package driver

import (
	"github.com/mewalang/mewa/automaton"
	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/grammar"
	"github.com/mewalang/mewa/lexer"
	"github.com/mewalang/mewa/scope"
)

// Value is an opaque host value: the driver never inspects it, only
// carries it on the stack and hands it back to Host.
type Value interface{}

// Host receives the semantic-action callbacks the driver invokes while
// parsing. Shift is called for every non-keyword terminal (a bare
// keyword contributes no independent value, per §4.5); Reduce is called
// once per production recognized, including the start production at
// accept.
type Host interface {
	// Shift returns the host value to carry for one matched terminal.
	Shift(terminal int, lexeme string, line int) (Value, error)

	// Reduce applies a production's action to the host values popped
	// for its RHS symbols, in left-to-right order. call is the zero
	// grammar.Call when the production carries no action. sc is
	// non-nil only for a scope-marked production (§4.5); step is the
	// driver's step counter at the moment of reduction.
	Reduce(call grammar.Call, values []Value, sc *scope.Scope, step scope.Step, line int) (Value, error)
}

// frame is one parser-stack entry: the automaton state reached by
// pushing it, its host value, and the step at which its leftmost
// contributing token was shifted (used to compute a scope's opening
// edge when the enclosing production is scope-marked).
type frame struct {
	state     int
	value     Value
	startStep scope.Step
}

// Driver runs one parse of a source string against a built Automaton.
type Driver struct {
	automaton *automaton.Automaton
	host      Host
}

// New creates a Driver over a, whose semantic actions it will report to
// host.
func New(a *automaton.Automaton, host Host) *Driver {
	return &Driver{automaton: a, host: host}
}

// Run parses source to completion, returning the host value the start
// symbol's action produced, or the first error raised (§4.5 "Errors").
func (d *Driver) Run(filename, source string) (Value, error) {
	scanner := lexer.NewScanner(filename, source)
	lex, err := d.automaton.Lexer.Next(scanner)
	if err != nil {
		return nil, err
	}

	stack := []frame{{state: 0}}
	var step scope.Step

	for {
		top := stack[len(stack)-1]
		terminal := automaton.EndOfInput
		if !lex.Empty() {
			terminal = d.automaton.Lexer.Lookup(lex.Name)
		}

		act, ok := d.automaton.Actions[automaton.ActionKey{State: top.state, Terminal: terminal}]
		if !ok {
			return nil, errors.Newf(errors.UnexpectedTokenNotOneOf, "%v", d.expectedTerminals(top.state)).WithLine(lex.Line)
		}

		switch act.Kind {
		case automaton.Shift:
			var val Value
			if !lex.Empty() && !d.automaton.Lexer.IsKeyword(terminal) {
				val, err = d.host.Shift(terminal, lex.Value, lex.Line)
				if err != nil {
					return nil, err
				}
			}
			stack = append(stack, frame{state: act.State, value: val, startStep: step})
			lex, err = d.automaton.Lexer.Next(scanner)
			if err != nil {
				return nil, err
			}

		case automaton.Reduce:
			result, open, err := d.reduce(&stack, act, step, lex.Line)
			if err != nil {
				return nil, err
			}
			newTop := stack[len(stack)-1]
			target, ok := d.automaton.Gotos[automaton.GotoKey{State: newTop.state, Nonterminal: act.Nonterminal}]
			if !ok {
				return nil, errors.New(errors.LanguageAutomatonMissingGoto).WithLine(lex.Line)
			}
			stack = append(stack, frame{state: target.State, value: result, startStep: open})
			if act.AdvancesStep {
				step++
			}

		case automaton.Accept:
			if !lex.Empty() {
				return nil, errors.New(errors.LanguageAutomatonUnexpectedAccept).WithLine(lex.Line)
			}
			result, _, err := d.reduce(&stack, act, step, lex.Line)
			if err != nil {
				return nil, err
			}
			return result, nil

		default:
			return nil, errors.New(errors.LanguageAutomatonCorrupted).WithLine(lex.Line)
		}
	}
}

// reduce pops act.Count frames, computes the scope interval when the
// production is scope-marked, invokes the host's action and returns its
// result plus the step its leftmost popped frame started at (the
// opening edge a further-enclosing scope marker would use).
func (d *Driver) reduce(stack *[]frame, act automaton.Action, step scope.Step, line int) (Value, scope.Step, error) {
	s := *stack
	if act.Count >= len(s) {
		return nil, step, errors.New(errors.LanguageAutomatonCorrupted).WithLine(line)
	}
	popped := s[len(s)-act.Count:]
	open := step
	if act.Count > 0 {
		open = popped[0].startStep
	}
	values := make([]Value, act.Count)
	for i, f := range popped {
		values[i] = f.value
	}

	var scPtr *scope.Scope
	if act.OpensScope {
		sc := scope.New(open, step)
		scPtr = &sc
	}

	var call grammar.Call
	if act.Call > 0 && act.Call <= len(d.automaton.Calls) {
		call = d.automaton.Calls[act.Call-1]
	}

	result, err := d.host.Reduce(call, values, scPtr, step, line)
	if err != nil {
		return nil, step, err
	}
	*stack = s[:len(s)-act.Count]
	return result, open, nil
}

// expectedTerminals lists the terminal ids for which state has any
// defined action, for the UnexpectedTokenNotOneOf error (§4.5).
func (d *Driver) expectedTerminals(state int) []int {
	var out []int
	for k := range d.automaton.Actions {
		if k.State == state {
			out = append(out, k.Terminal)
		}
	}
	return out
}
