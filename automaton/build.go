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
	"sort"

	"github.com/mpvl/unique"

	"github.com/mewalang/mewa/errors"
	"github.com/mewalang/mewa/grammar"
)

// item is one LR(1) item: dot at position pos in production prod's RHS,
// with lookahead terminal la (EndOfInput for '$').
type item struct {
	prod int
	pos  int
	la   int
}

// symKey identifies a grammar symbol (terminal or nonterminal) as a
// comparable map key.
type symKey struct {
	kind grammar.NodeType
	idx  int
}

func symOf(n grammar.ProductionNode) symKey { return symKey{n.Type, n.Index} }

// Build runs the LALR(1) generator over lang, returning the built
// Automaton, any non-fatal conflict warnings (§4.4 step 6), and an error
// for the first fatal condition encountered (§4.3/§4.4/§7).
func Build(lang *grammar.LanguageDef) (*Automaton, errors.List, error) {
	prods := lang.Productions
	if len(prods) == 0 {
		return nil, nil, errors.New(errors.EmptyGrammarDef)
	}
	for _, p := range prods {
		if len(p.Right) >= MaxProductionLength {
			return nil, nil, errors.New(errors.ComplexityMaxProductionLengthInGrammarDef)
		}
	}
	maxTerminal := 0
	for i := range prods {
		for _, r := range prods[i].Right {
			if r.Type == grammar.Terminal && r.Index > maxTerminal {
				maxTerminal = r.Index
			}
		}
	}
	if maxTerminal >= MaxTerminal {
		return nil, nil, errors.New(errors.ComplexityMaxTerminalInGrammarDef)
	}
	if len(lang.Calls) >= MaxCall {
		return nil, nil, errors.New(errors.ComplexityMaxTerminalInGrammarDef)
	}

	nullable := nullableNonterminals(prods)
	firstSets := nonterminalFirstSets(prods, nullable)

	// States are LALR(1) from the start: each is keyed and deduplicated
	// by its LR(0) core (coreKey, which drops lookahead), and a GOTO that
	// lands on an existing core has its lookaheads unioned into that
	// state rather than spawning a new one. This is equivalent to
	// building the full canonical LR(1) collection and then merging
	// same-core states, without a separate merge pass: the same state
	// that was going to be the merge target simply accumulates
	// lookaheads as each contributing LR(1) state is discovered.
	// Discovery runs breadth-first over allSymbols' fixed deterministic
	// symbol order, so state numbering is reproducible run to run (§8
	// invariant 8).
	canonItems := []map[item]bool{}
	canonGoto := []map[symKey]int{}
	indexOfCore := map[string]int{}

	startItems := closure(prods, firstSets, nullable, map[item]bool{{0, 0, EndOfInput}: true})
	indexOfCore[coreKey(startItems)] = 0
	canonItems = append(canonItems, startItems)
	canonGoto = append(canonGoto, map[symKey]int{})

	symbols := allSymbols(prods)

	// A merge into an already-visited state can add lookaheads that its
	// own outgoing GOTOs haven't propagated yet, so a state that changes
	// goes back on the worklist rather than being visited exactly once.
	queue := []int{0}
	queued := map[int]bool{0: true}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		queued[i] = false
		for _, s := range symbols {
			moved := gotoItems(prods, firstSets, nullable, canonItems[i], s)
			if len(moved) == 0 {
				continue
			}
			ck := coreKey(moved)
			idx, ok := indexOfCore[ck]
			if !ok {
				idx = len(canonItems)
				indexOfCore[ck] = idx
				canonItems = append(canonItems, moved)
				canonGoto = append(canonGoto, map[symKey]int{})
				queue = append(queue, idx)
				queued[idx] = true
			} else {
				before := len(canonItems[idx])
				mergeLookaheads(canonItems[idx], moved)
				if len(canonItems[idx]) != before && !queued[idx] {
					queue = append(queue, idx)
					queued[idx] = true
				}
			}
			canonGoto[i][s] = idx
		}
	}

	numStates := len(canonItems)
	if numStates >= MaxState {
		return nil, nil, errors.New(errors.ComplexityMaxStateInGrammarDef)
	}

	actions := map[ActionKey]Action{}
	gotos := map[GotoKey]Goto{}
	var warnings errors.List

	for state := 0; state < numStates; state++ {
		its := sortedItems(canonItems[state])
		for _, it := range its {
			p := prods[it.prod]
			if it.pos < len(p.Right) {
				sym := p.Right[it.pos]
				target, ok := canonGoto[state][symOf(sym.ProductionNode)]
				if !ok {
					continue
				}
				if sym.Type == grammar.NonTerminal {
					gotos[GotoKey{State: state, Nonterminal: sym.Index}] = Goto{State: target}
					continue
				}
				if err := insertAction(actions, ActionKey{State: state, Terminal: sym.Index},
					Action{Kind: Shift, State: target, Priority: p.Priority}, &warnings); err != nil {
					return nil, nil, err
				}
				continue
			}
			// Dot at end of the start production with '$' lookahead:
			// accept. The driver still needs to pop the start
			// production's own RHS and run its call (if any), so the
			// accept action carries the same reduce payload a normal
			// reduce would.
			if it.prod == 0 && it.la == EndOfInput {
				if err := insertAction(actions, ActionKey{State: state, Terminal: EndOfInput},
					Action{
						Kind: Accept, Nonterminal: p.Left.Index, Count: len(p.Right), Call: p.CallIdx,
						Priority: p.Priority, OpensScope: p.OpensScope, AdvancesStep: p.AdvancesStep,
					}, &warnings); err != nil {
					return nil, nil, err
				}
				continue
			}
			if err := insertAction(actions, ActionKey{State: state, Terminal: it.la},
				Action{
					Kind: Reduce, Nonterminal: p.Left.Index, Count: len(p.Right), Call: p.CallIdx,
					Priority: p.Priority, OpensScope: p.OpensScope, AdvancesStep: p.AdvancesStep,
				},
				&warnings); err != nil {
				return nil, nil, err
			}
		}
	}

	if _, ok := findAcceptState(actions); !ok {
		return nil, nil, errors.New(errors.NoAcceptStatesInGrammarDef)
	}

	return &Automaton{
		BuildID:      newBuildID(),
		Language:     lang.Language,
		TypeSystem:   lang.TypeSystem,
		Lexer:        lang.Lexer,
		Actions:      actions,
		Gotos:        gotos,
		Calls:        lang.Calls,
		Nonterminals: lang.Nonterminals,
		NumStates:    numStates,
	}, warnings, nil
}

func findAcceptState(actions map[ActionKey]Action) (int, bool) {
	for k, a := range actions {
		if a.Kind == Accept {
			return k.State, true
		}
	}
	return 0, false
}

// insertAction resolves a conflict at key between an already-present
// action and a newly proposed one, following §4.4 step 6 and the
// priority-conflict decision recorded in SPEC_FULL.md's Open Question 2.
func insertAction(actions map[ActionKey]Action, key ActionKey, next Action, warnings *errors.List) error {
	existing, ok := actions[key]
	if !ok {
		actions[key] = next
		return nil
	}
	if existing.Kind == Accept || next.Kind == Accept {
		if existing.Kind != Accept {
			actions[key] = next
		}
		return nil
	}
	if existing.Kind == next.Kind {
		switch existing.Kind {
		case Shift:
			if existing.Priority.Weight != next.Priority.Weight {
				return errors.New(errors.PriorityConflictInGrammarDef)
			}
			if existing.State == next.State {
				return nil
			}
			warnings.Add(errors.New(errors.ShiftShiftConflictInGrammarDef))
		case Reduce:
			switch {
			case existing.Priority.Weight == next.Priority.Weight:
				warnings.Add(errors.New(errors.ReduceReduceConflictInGrammarDef))
			case next.Priority.Weight > existing.Priority.Weight:
				actions[key] = next
			}
		}
		return nil
	}
	shiftAction, reduceAction := existing, next
	if next.Kind == Shift {
		shiftAction, reduceAction = next, existing
	}
	switch {
	case shiftAction.Priority.Weight > reduceAction.Priority.Weight:
		actions[key] = shiftAction
	case reduceAction.Priority.Weight > shiftAction.Priority.Weight:
		actions[key] = reduceAction
	default:
		switch reduceAction.Priority.Assoc {
		case grammar.AssocLeft:
			actions[key] = reduceAction
		case grammar.AssocRight:
			actions[key] = shiftAction
		default:
			warnings.Add(errors.New(errors.ShiftReduceConflictInGrammarDef))
			actions[key] = shiftAction
		}
	}
	return nil
}

// closure computes the LR(1) closure of items under prods, firstSets and
// nullable (§4.4 step 4).
func closure(prods []grammar.ProductionDef, firstSets map[int]map[int]bool, nullable map[int]bool, items map[item]bool) map[item]bool {
	result := map[item]bool{}
	for it := range items {
		result[it] = true
	}
	changed := true
	for changed {
		changed = false
		for it := range result {
			p := prods[it.prod]
			if it.pos >= len(p.Right) {
				continue
			}
			sym := p.Right[it.pos]
			if sym.Type != grammar.NonTerminal {
				continue
			}
			lookaheads := firstOfSequence(p.Right[it.pos+1:], it.la, firstSets, nullable)
			for prodIdx := range prods {
				if prods[prodIdx].Left.Index != sym.Index {
					continue
				}
				for la := range lookaheads {
					ni := item{prodIdx, 0, la}
					if !result[ni] {
						result[ni] = true
						changed = true
					}
				}
			}
		}
	}
	return result
}

// firstOfSequence computes FIRST(seq la): the terminals that can begin
// seq, plus la itself if the whole of seq is nullable.
func firstOfSequence(seq []grammar.ProductionNodeDef, la int, firstSets map[int]map[int]bool, nullable map[int]bool) map[int]bool {
	rt := map[int]bool{}
	for _, s := range seq {
		if s.Type == grammar.Terminal {
			rt[s.Index] = true
			return rt
		}
		for t := range firstSets[s.Index] {
			rt[t] = true
		}
		if !nullable[s.Index] {
			return rt
		}
	}
	rt[la] = true
	return rt
}

// gotoItems computes GOTO(items, sym): the closure of items advanced
// past one occurrence of sym.
func gotoItems(prods []grammar.ProductionDef, firstSets map[int]map[int]bool, nullable map[int]bool, items map[item]bool, sym symKey) map[item]bool {
	moved := map[item]bool{}
	for it := range items {
		p := prods[it.prod]
		if it.pos >= len(p.Right) {
			continue
		}
		r := p.Right[it.pos]
		if r.Type == sym.kind && r.Index == sym.idx {
			moved[item{it.prod, it.pos + 1, it.la}] = true
		}
	}
	if len(moved) == 0 {
		return moved
	}
	return closure(prods, firstSets, nullable, moved)
}

// mergeLookaheads unions b's items into a, both keyed by (prod,pos,la):
// effectively, the union of the two LR(1) item sets.
func mergeLookaheads(a, b map[item]bool) map[item]bool {
	for it := range b {
		a[it] = true
	}
	return a
}

// coreKey is the LR(0) core of an LR(1) item set: the sorted, lookahead-
// stripped (prod,pos) pairs, used to detect states the LALR(1) merge
// step must fold together. Pairs are packed into a single int (prod is
// bounded well under 1<<32) so the dedup-by-sort below is a plain int
// sort rather than a pair comparator.
func coreKey(items map[item]bool) string {
	packed := make([]int, 0, len(items))
	for it := range items {
		packed = append(packed, it.prod<<32|it.pos)
	}
	ps := intSlice(packed)
	unique.Sort(&ps)
	packed = []int(ps)
	buf := make([]byte, 0, len(packed)*8)
	for _, v := range packed {
		buf = appendInt(buf, v>>32)
		buf = append(buf, ':')
		buf = appendInt(buf, v&0xffffffff)
		buf = append(buf, ';')
	}
	return string(buf)
}

// intSlice adapts a []int to github.com/mpvl/unique's Interface (a
// sort.Interface plus Truncate), letting unique.Sort both order and
// deduplicate a symbol or item-core list in one pass.
type intSlice []int

func (x intSlice) Len() int           { return len(x) }
func (x intSlice) Less(i, j int) bool { return x[i] < x[j] }
func (x intSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }
func (x *intSlice) Truncate(n int)    { *x = (*x)[:n] }

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	neg := n < 0
	if neg {
		n = -n
		buf = append(buf, '-')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

func sortedItems(items map[item]bool) []item {
	out := make([]item, 0, len(items))
	for it := range items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].prod != out[j].prod {
			return out[i].prod < out[j].prod
		}
		if out[i].pos != out[j].pos {
			return out[i].pos < out[j].pos
		}
		return out[i].la < out[j].la
	})
	return out
}

// allSymbols returns every distinct grammar symbol referenced anywhere
// in prods' right-hand sides, in a fixed deterministic order (terminals
// ascending, then nonterminals ascending) so that state discovery order
// -- and therefore state numbering -- is reproducible run to run (§8
// invariant 8).
func allSymbols(prods []grammar.ProductionDef) []symKey {
	termSeen := map[int]bool{}
	ntSeen := map[int]bool{}
	for _, p := range prods {
		for _, r := range p.Right {
			if r.Type == grammar.Terminal {
				termSeen[r.Index] = true
			} else if r.Type == grammar.NonTerminal {
				ntSeen[r.Index] = true
			}
		}
	}
	terms := make([]int, 0, len(termSeen))
	for t := range termSeen {
		terms = append(terms, t)
	}
	sort.Ints(terms)
	nts := make([]int, 0, len(ntSeen))
	for n := range ntSeen {
		nts = append(nts, n)
	}
	sort.Ints(nts)
	out := make([]symKey, 0, len(terms)+len(nts))
	for _, t := range terms {
		out = append(out, symKey{grammar.Terminal, t})
	}
	for _, n := range nts {
		out = append(out, symKey{grammar.NonTerminal, n})
	}
	return out
}

// nullableNonterminals computes the fixed-point nullable set (§4.4 step 1).
func nullableNonterminals(prods []grammar.ProductionDef) map[int]bool {
	nullable := map[int]bool{}
	changed := true
	for changed {
		changed = false
		for _, p := range prods {
			if nullable[p.Left.Index] {
				continue
			}
			all := true
			for _, r := range p.Right {
				if r.Type == grammar.Terminal || !nullable[r.Index] {
					all = false
					break
				}
			}
			if all {
				nullable[p.Left.Index] = true
				changed = true
			}
		}
	}
	return nullable
}

// nonterminalFirstSets computes the fixed-point FIRST set for every
// nonterminal (§4.4 step 2).
func nonterminalFirstSets(prods []grammar.ProductionDef, nullable map[int]bool) map[int]map[int]bool {
	first := map[int]map[int]bool{}
	changed := true
	for changed {
		changed = false
		for _, p := range prods {
			set := first[p.Left.Index]
			if set == nil {
				set = map[int]bool{}
				first[p.Left.Index] = set
			}
			for _, r := range p.Right {
				if r.Type == grammar.Terminal {
					if !set[r.Index] {
						set[r.Index] = true
						changed = true
					}
					break
				}
				for t := range first[r.Index] {
					if !set[t] {
						set[t] = true
						changed = true
					}
				}
				if !nullable[r.Index] {
					break
				}
			}
		}
	}
	return first
}
