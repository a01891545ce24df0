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

// Package scope defines the half-open integer interval used to bracket
// the lifetime of a definition within one compilation, grounded on
// "scope.hpp" of the original mewa sources.
package scope

import (
	"fmt"
	"math"
)

// Step is a single point on the scope axis. The host typically assigns
// steps from a monotonically increasing counter that advances entering
// a block and is restored on exit.
type Step int

// Unbound is the upper bound used for a scope left open on the right
// (the "[first,INF]" rendering of the source's Scope::tostring).
const Unbound Step = math.MaxInt32

// Scope is a half-open interval [First, Second) on the Step axis.
type Scope struct {
	First  Step
	Second Step
}

// New builds a Scope, clamping a negative First to 0 and a negative
// Second to Unbound, matching the source's constructor.
func New(first, second Step) Scope {
	if first < 0 {
		first = 0
	}
	if second < 0 {
		second = Unbound
	}
	return Scope{First: first, Second: second}
}

// Contains reports whether the scope contains the given step: First <=
// step < Second.
func (s Scope) Contains(step Step) bool {
	return step >= s.First && step < s.Second
}

// Covers reports whether s fully covers o: s.First <= o.First && s.Second
// >= o.Second.
func (s Scope) Covers(o Scope) bool {
	return o.First >= s.First && o.Second <= s.Second
}

// OverlapsPartially reports whether s and o share at least one step without one
// covering the other — the condition that makes inserting both into the
// same scoped map a ScopeHierarchyError.
func (s Scope) OverlapsPartially(o Scope) bool {
	if s.Covers(o) || o.Covers(s) {
		return false
	}
	return s.First < o.Second && o.First < s.Second
}

func (s Scope) String() string {
	if s.Second == Unbound {
		return fmt.Sprintf("[%d,INF]", s.First)
	}
	return fmt.Sprintf("[%d,%d]", s.First, s.Second)
}
