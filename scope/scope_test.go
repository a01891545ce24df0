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

package scope_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/mewalang/mewa/scope"
)

func TestContains(t *testing.T) {
	s := scope.New(10, 20)
	qt.Assert(t, qt.IsTrue(s.Contains(10)))
	qt.Assert(t, qt.IsTrue(s.Contains(19)))
	qt.Assert(t, qt.IsFalse(s.Contains(20)))
	qt.Assert(t, qt.IsFalse(s.Contains(9)))
}

func TestCovers(t *testing.T) {
	outer := scope.New(0, 100)
	inner := scope.New(10, 20)
	qt.Assert(t, qt.IsTrue(outer.Covers(inner)))
	qt.Assert(t, qt.IsFalse(inner.Covers(outer)))
	qt.Assert(t, qt.IsTrue(outer.Covers(outer)))
}

func TestOverlapsPartially(t *testing.T) {
	a := scope.New(0, 100)
	b := scope.New(50, 150)
	qt.Assert(t, qt.IsTrue(a.OverlapsPartially(b)))
	qt.Assert(t, qt.IsTrue(b.OverlapsPartially(a)))

	c := scope.New(10, 20)
	qt.Assert(t, qt.IsFalse(a.OverlapsPartially(c)))

	d := scope.New(200, 300)
	qt.Assert(t, qt.IsFalse(a.OverlapsPartially(d)))
}

func TestUnboundString(t *testing.T) {
	s := scope.New(5, -1)
	qt.Assert(t, qt.Equals(s.String(), "[5,INF]"))
}
