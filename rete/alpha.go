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
	"fmt"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	"github.com/ebay/fuxi/util/cmp"
	log "github.com/sirupsen/logrus"
)

// memoryRef addresses one side of one join node. An upstream node holds a
// memoryRef per downstream connection; when the upstream node produces output
// it stores the result into the referenced memory and then activates the
// owning join node from that side.
type memoryRef struct {
	node *BetaNode
	pos  side
}

func (r memoryRef) memory() *memory {
	return r.node.memories[r.pos]
}

// input is a source feeding one side of a join node: an alpha node or a
// built-in filter placeholder.
type input interface {
	// variables returns the variable names the input can bind.
	variables() map[string]bool
	// addDescendant registers a downstream join node fed from this input.
	addDescendant(node *BetaNode, pos side)
}

var _ = []input{
	new(AlphaNode),
	new(BuiltinNode),
	new(BetaNode),
}

// An AlphaNode performs the single-pattern test: it admits exactly the facts
// matching its triple pattern, converts each into a token, and pushes the
// token into the memories of its descendant join nodes. One alpha node is
// shared by every rule condition with the same pattern.
type AlphaNode struct {
	network *Network
	pattern rdf.Pattern

	// tokens already produced, keyed by token key. Re-asserting a fact is
	// absorbed here and never re-propagated.
	tokens      map[string]*Token
	descendants []memoryRef
}

func newAlphaNode(network *Network, pattern rdf.Pattern) *AlphaNode {
	return &AlphaNode{
		network: network,
		pattern: pattern,
		tokens:  map[string]*Token{},
	}
}

// Pattern returns the triple pattern this node tests facts against.
func (a *AlphaNode) Pattern() rdf.Pattern {
	return a.pattern
}

func (a *AlphaNode) String() string {
	return fmt.Sprintf("<AlphaNode: %s>", a.pattern)
}

func (a *AlphaNode) variables() map[string]bool {
	vars := map[string]bool{}
	for _, name := range a.pattern.Variables() {
		vars[name] = true
	}
	return vars
}

func (a *AlphaNode) addDescendant(node *BetaNode, pos side) {
	a.descendants = append(a.descendants, memoryRef{node: node, pos: pos})
}

// Activate tests the fact against the pattern and, on a match, propagates the
// resulting token to every descendant join node. Facts already seen through
// this node are ignored.
func (a *AlphaNode) Activate(fact rdf.Fact) {
	bindings, ok := a.pattern.Match(fact)
	if !ok {
		return
	}
	tok := NewToken(fact, bindings)
	key := cmp.GetKey(tok)
	if _, dup := a.tokens[key]; dup {
		return
	}
	a.tokens[key] = tok
	a.network.metrics.alphaActivations.Inc()
	log.Debugf("rete: %v matched %v", a, fact)

	for _, ref := range a.descendants {
		if !ref.memory().add(tok) {
			continue
		}
		if !ref.node.passThru && ref.node.nullActivation(ref.pos) {
			continue
		}
		switch ref.pos {
		case rightSide:
			ref.node.rightActivate(tok)
		case leftSide:
			ref.node.leftActivate(newInstantiation([]*Token{tok}, nil))
		}
	}
}

// A BuiltinNode stands in for a built-in filter atom on one side of a join.
// It produces no tokens itself; the owning join node evaluates the filter
// against instantiations arriving on its other side. It exists so that the
// network keeps its uniform two-input shape.
type BuiltinNode struct {
	atom *rules.BuiltinAtom
}

func newBuiltinNode(atom *rules.BuiltinAtom) *BuiltinNode {
	if atom.Builtin == nil || atom.Builtin.Apply == nil {
		log.Panicf("rete: built-in atom %v has no filter function", atom)
	}
	return &BuiltinNode{atom: atom}
}

func (b *BuiltinNode) String() string {
	return fmt.Sprintf("<BuiltinNode: %s>", b.atom)
}

// variables returns the empty set: a built-in tests bindings, it never
// produces them.
func (b *BuiltinNode) variables() map[string]bool {
	return map[string]bool{}
}

// addDescendant is a no-op; nothing ever flows out of a built-in node.
func (b *BuiltinNode) addDescendant(node *BetaNode, pos side) {}
