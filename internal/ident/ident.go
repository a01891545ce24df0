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

// Package ident implements the identifier intern table described in §4.1
// of the specification: every name, keyword or label seen by a grammar
// or a type database is mapped to a small positive integer, with a
// reverse lookup back to the original bytes. Grounded on "identmap.hpp",
// but keyed with a fast hash from the dependency pack instead of the
// source's hand-rolled lookup3 mix.
package ident

import (
	"github.com/minio/highwayhash"
)

// hashKey is fixed: the table only needs a stable, collision-resistant
// hash, not a keyed MAC, so any 32-byte key works.
var hashKey = []byte("mewa-ident-intern-table-hashkey!")

// Table interns byte strings into small positive integers. The zero
// value is not usable; construct one with New. A Table is not safe for
// concurrent use by multiple goroutines, matching the single-threaded
// discipline of §5.
type Table struct {
	byHash map[uint64][]int32 // hash -> candidate ids (collision chain)
	arena  []byte             // append-only byte arena backing every interned string
	offs   []int32            // id-1 -> offset into arena
	lens   []int32            // id-1 -> length in arena
}

// New creates an empty Table.
func New() *Table {
	return &Table{byHash: make(map[uint64][]int32)}
}

func (t *Table) hash(s []byte) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// hashKey is a fixed, valid 32-byte key; New64 cannot fail here.
		panic(err)
	}
	h.Write(s)
	return h.Sum64()
}

// Lookup returns the id previously assigned to name, or 0 if name was
// never interned. It never inserts.
func (t *Table) Lookup(name string) int {
	if t == nil {
		return 0
	}
	h := t.hash([]byte(name))
	for _, id := range t.byHash[h] {
		if t.bytes(id) == name {
			return int(id)
		}
	}
	return 0
}

// Get returns the id for name, interning it on first use. The returned
// id is stable for the life of the Table.
func (t *Table) Get(name string) int {
	h := t.hash([]byte(name))
	for _, id := range t.byHash[h] {
		if t.bytes(id) == name {
			return int(id)
		}
	}
	off := int32(len(t.arena))
	t.arena = append(t.arena, name...)
	id := int32(len(t.offs) + 1)
	t.offs = append(t.offs, off)
	t.lens = append(t.lens, int32(len(name)))
	t.byHash[h] = append(t.byHash[h], id)
	return int(id)
}

// Inv resolves an id back to the original bytes. It returns "" for id
// values that were never interned (including 0).
func (t *Table) Inv(id int) string {
	return t.bytes(int32(id))
}

func (t *Table) bytes(id int32) string {
	if id < 1 || int(id) > len(t.offs) {
		return ""
	}
	off := t.offs[id-1]
	return string(t.arena[off : off+t.lens[id-1]])
}

// Len returns the number of distinct identifiers interned so far.
func (t *Table) Len() int {
	return len(t.offs)
}
