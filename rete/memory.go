// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rete

import (
	"strings"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/util/cmp"
)

// side identifies one of a join node's two inputs.
type side int

const (
	leftSide  side = 0
	rightSide side = 1
)

func (s side) opposite() side {
	if s == leftSide {
		return rightSide
	}
	return leftSide
}

func (s side) String() string {
	if s == leftSide {
		return "left"
	}
	return "right"
}

// memory is a hashed rete memory: the flat set of items that arrived on one
// side of a join node, plus an index keyed by the value tuple of the owning
// node's common variables. The index is what makes the join sub-linear in
// memory size: a lookup returns only the items whose common-variable values
// match the probe.
//
// Memberships are monotonic; nothing is ever removed short of reset().
type memory struct {
	owner *BetaNode
	pos   side
	items map[string]item
	index map[string][]item
}

func newMemory(owner *BetaNode, pos side) *memory {
	return &memory{
		owner: owner,
		pos:   pos,
		items: map[string]item{},
		index: map[string][]item{},
	}
}

// add inserts the item into the flat set and, for each binding combination it
// carries, into the hash index under the common-variable value tuple. Returns
// false if the item was already present (set semantics; duplicates are
// absorbed, not re-propagated).
func (m *memory) add(it item) bool {
	key := cmp.GetKey(it)
	if _, dup := m.items[key]; dup {
		return false
	}
	m.items[key] = it
	seen := map[string]bool{}
	for _, combo := range it.bindingCombos() {
		ck := commonKey(combo, m.owner.commonVars)
		if seen[ck] {
			continue
		}
		seen[ck] = true
		m.index[ck] = append(m.index[ck], it)
	}
	return true
}

// lookup returns the items previously added under the given common-variable
// value tuple. The returned slice must not be modified.
func (m *memory) lookup(commonKey string) []item {
	return m.index[commonKey]
}

func (m *memory) size() int {
	return len(m.items)
}

func (m *memory) empty() bool {
	return len(m.items) == 0
}

// reset clears both the flat set and the hash index.
func (m *memory) reset() {
	m.items = map[string]item{}
	m.index = map[string][]item{}
}

// commonKey serializes the values the binding assigns to the given variables,
// in order, into a single hash key. Unbound variables contribute a distinct
// marker so that a partially-bound probe never aliases a fully-bound one.
func commonKey(binding rdf.Binding, vars []string) string {
	var b strings.Builder
	for _, name := range vars {
		if val, ok := binding[name]; ok {
			val.Key(&b)
		} else {
			b.WriteByte('?')
		}
		b.WriteByte('\x00')
	}
	return b.String()
}
