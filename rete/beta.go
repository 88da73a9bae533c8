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
	"sort"
	"strings"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	"github.com/ebay/fuxi/util/cmp"
	log "github.com/sirupsen/logrus"
)

// A BetaNode is a two-input join node. It keeps a hashed memory per input and
// merges the items arriving on one side with the compatible items stored on
// the other, producing partial instantiations that flow to its descendants.
// The terminal node of a rule's chain additionally carries the consequent.
type BetaNode struct {
	network    *Network
	leftInput  input // nil on the pass-through root
	rightInput input
	memories   [2]*memory

	// passThru marks the root adapter at the head of each rule chain: no
	// join is performed, right tokens are promoted straight to
	// instantiations.
	passThru bool

	// commonVars is the sorted set of variables tested by this join: the
	// intersection of the two inputs' variables, or all of the right input's
	// variables on a pass-through root.
	commonVars []string

	// filter is set when the right input is a built-in atom; the node then
	// evaluates the filter against left instantiations instead of joining.
	filter *rules.BuiltinAtom

	// consequent is non-nil on terminal nodes only: the head patterns to
	// instantiate when an instantiation arrives.
	consequent []rdf.Pattern
	// headExistential marks consequent variables not bound by the rule body;
	// they are skolemized per firing rather than read from bindings.
	headExistential map[string]bool

	descendants []memoryRef
}

// newBetaNode wires a join node between the two inputs, registering it as a
// descendant of each. Exactly one of the inputs may be a built-in filter, and
// only the right one.
func newBetaNode(network *Network, left, right input, passThru bool) *BetaNode {
	if _, ok := left.(*BuiltinNode); ok {
		log.Panicf("rete: built-in atom may not feed the left side of a join")
	}
	n := &BetaNode{
		network:    network,
		leftInput:  left,
		rightInput: right,
		passThru:   passThru,
	}
	n.memories[leftSide] = newMemory(n, leftSide)
	n.memories[rightSide] = newMemory(n, rightSide)

	if builtin, ok := right.(*BuiltinNode); ok {
		n.filter = builtin.atom
	}
	switch {
	case n.filter != nil:
		// The join variables are the filter's variables; values come from
		// the left side only.
		vars := map[string]bool{}
		for _, name := range n.filter.Variables() {
			vars[name] = true
		}
		n.commonVars = sortedNames(vars)
	case passThru:
		n.commonVars = sortedNames(right.variables())
	default:
		common := map[string]bool{}
		rightVars := right.variables()
		for name := range left.variables() {
			if rightVars[name] {
				common[name] = true
			}
		}
		n.commonVars = sortedNames(common)
	}

	if left != nil {
		left.addDescendant(n, leftSide)
	}
	right.addDescendant(n, rightSide)
	return n
}

// CommonVariables returns the sorted join variables of this node.
func (n *BetaNode) CommonVariables() []string {
	return n.commonVars
}

// Consequent returns the head patterns if this is a terminal node, else nil.
func (n *BetaNode) Consequent() []rdf.Pattern {
	return n.consequent
}

func (n *BetaNode) String() string {
	kind := "BetaNode"
	if n.consequent != nil {
		kind = "TerminalNode"
	}
	var notes []string
	if n.passThru {
		notes = append(notes, "pass-thru")
	}
	if n.filter != nil {
		notes = append(notes, fmt.Sprintf("built-in %s", n.filter.Builtin.Name))
	}
	note := ""
	if len(notes) > 0 {
		note = " (" + strings.Join(notes, ", ") + ")"
	}
	vars := make([]string, len(n.commonVars))
	for i, name := range n.commonVars {
		vars[i] = "?" + name
	}
	return fmt.Sprintf("<%s%s: CommonVariables: [%s] (%d left, %d right)>",
		kind, note, strings.Join(vars, ", "),
		n.memories[leftSide].size(), n.memories[rightSide].size())
}

// variables implements input: the union of both inputs' variables.
func (n *BetaNode) variables() map[string]bool {
	vars := map[string]bool{}
	if n.leftInput != nil {
		for name := range n.leftInput.variables() {
			vars[name] = true
		}
	}
	for name := range n.rightInput.variables() {
		vars[name] = true
	}
	return vars
}

func (n *BetaNode) addDescendant(node *BetaNode, pos side) {
	n.descendants = append(n.descendants, memoryRef{node: node, pos: pos})
}

// nullActivation reports whether activation arriving from the given side can
// be deferred: with an empty opposite memory no join can succeed, and the
// item just stored will be found by the first arrival on the other side.
// Never true when the opposite input is a built-in filter, whose memory is
// permanently empty.
func (n *BetaNode) nullActivation(source side) bool {
	return n.filter == nil && n.memories[source.opposite()].empty()
}

// activate receives a completed instantiation: store it in each descendant
// memory and propagate, then fire the consequent if this node is terminal.
// Instantiations already present in a descendant memory are absorbed there.
func (n *BetaNode) activate(inst *Instantiation) {
	n.network.metrics.instantiations.Inc()
	log.Debugf("rete: %v produced %v", n, inst)
	for _, ref := range n.descendants {
		if !ref.memory().add(inst) {
			continue
		}
		if !ref.node.passThru && ref.node.nullActivation(ref.pos) {
			continue
		}
		switch ref.pos {
		case leftSide:
			ref.node.leftActivate(inst)
		case rightSide:
			ref.node.signalActivate(inst)
		}
	}
	if n.consequent != nil {
		n.network.fireConsequent(inst, n)
	}
}

// leftActivate joins an instantiation arriving on the left against the right
// memory, or evaluates the built-in filter when this node carries one.
func (n *BetaNode) leftActivate(inst *Instantiation) {
	if n.filter != nil {
		n.filterActivate(inst)
		return
	}
	var produced []*Instantiation
	for _, combo := range inst.Bindings() {
		ck := commonKey(combo, n.commonVars)
		for _, it := range n.memories[rightSide].lookup(ck) {
			switch right := it.(type) {
			case *Token:
				produced = append(produced,
					inst.newJoin(right, n.newJoinVariables(inst)))
			case *Instantiation:
				union := append(inst.Tokens(), right.Tokens()...)
				produced = append(produced,
					newInstantiation(union, projectBinding(combo, n.commonVars)))
			}
		}
	}
	n.propagate(produced)
}

// rightActivate joins a token arriving on the right against the left memory.
// On the pass-through root the token is promoted directly.
func (n *BetaNode) rightActivate(tok *Token) {
	if n.passThru {
		n.activate(newInstantiation([]*Token{tok}, tok.Bindings.Copy()))
		return
	}
	var produced []*Instantiation
	ck := commonKey(tok.Bindings, n.commonVars)
	for _, it := range n.memories[leftSide].lookup(ck) {
		switch left := it.(type) {
		case *Token:
			produced = append(produced, newInstantiation(
				[]*Token{left, tok},
				projectBinding(tok.Bindings, n.commonVars)))
		case *Instantiation:
			produced = append(produced,
				left.newJoin(tok, n.newJoinVariables(left)))
		}
	}
	n.propagate(produced)
}

// signalActivate handles an instantiation arriving on the right from another
// join node: each of its binding combinations probes both memories, and the
// tokens of every match found on either side, the arriving set included, are
// merged into one union per combination.
func (n *BetaNode) signalActivate(inst *Instantiation) {
	var produced []*Instantiation
	for _, combo := range inst.Bindings() {
		ck := commonKey(combo, n.commonVars)
		var matched []item
		matched = append(matched, n.memories[leftSide].lookup(ck)...)
		matched = append(matched, n.memories[rightSide].lookup(ck)...)
		if len(matched) == 0 {
			continue
		}
		union := inst.Tokens()
		for _, it := range matched {
			union = append(union, it.tokens()...)
		}
		produced = append(produced,
			newInstantiation(union, projectBinding(combo, n.commonVars)))
	}
	n.propagate(produced)
}

// filterActivate evaluates the built-in filter against each of the
// instantiation's binding combinations. If any combination satisfies it, the
// instantiation is propagated once, with the filter's variables promoted to
// joined bindings. Combinations leaving a filter variable unbound are
// skipped.
func (n *BetaNode) filterActivate(inst *Instantiation) {
	builtin := n.filter.Builtin
	for _, combo := range inst.Bindings() {
		arg, ok := resolveTerm(n.filter.Argument, combo)
		if !ok {
			continue
		}
		res, ok := resolveTerm(n.filter.Result, combo)
		if !ok {
			continue
		}
		if builtin.Apply(arg, res) {
			log.Debugf("rete: %v passed %s", inst, builtin.Name)
			n.activate(inst.withConsistentBinding(n.commonVars))
			return
		}
	}
}

// propagate de-duplicates and orders the joined instantiations, then
// activates each. Join counts are recorded per successful merge.
func (n *BetaNode) propagate(produced []*Instantiation) {
	if len(produced) == 0 {
		return
	}
	byKey := map[string]*Instantiation{}
	keys := make([]string, 0, len(produced))
	for _, inst := range produced {
		k := cmp.GetKey(inst)
		if _, dup := byKey[k]; dup {
			continue
		}
		byKey[k] = inst
		keys = append(keys, k)
	}
	sort.Strings(keys)
	n.network.metrics.joins.Add(float64(len(keys)))
	for _, k := range keys {
		n.activate(byKey[k])
	}
}

// newJoinVariables returns the node's common variables not yet confirmed in
// the instantiation's joined bindings.
func (n *BetaNode) newJoinVariables(inst *Instantiation) []string {
	joined := inst.JoinedBindings()
	var out []string
	for _, name := range n.commonVars {
		if _, ok := joined[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// resolveTerm maps a possibly-variable term through a binding. Reports false
// when the term is an unbound variable.
func resolveTerm(term rdf.Term, binding rdf.Binding) (rdf.Term, bool) {
	if v, ok := term.(*rdf.Var); ok {
		val, bound := binding[v.Name]
		return val, bound
	}
	return term, true
}

// projectBinding restricts a binding to the named variables, skipping unbound
// names.
func projectBinding(b rdf.Binding, names []string) rdf.Binding {
	out := rdf.Binding{}
	for _, name := range names {
		if val, ok := b[name]; ok {
			out[name] = val
		}
	}
	return out
}

func sortedNames(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
