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
	"context"
	"fmt"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	"github.com/ebay/fuxi/util/cmp"
	"github.com/google/btree"
	"github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
)

// A Network compiles rules into a shared node graph and drives fact
// propagation through it to a fixpoint. The network owns every node; the
// pointers nodes hold into each other are identity handles only.
//
// A Network is not safe for concurrent use.
type Network struct {
	// OnFire, if set, is consulted before each terminal-node firing. Return
	// false to suppress the firing; the instantiation is still recorded in
	// the node's memories. This is the hook an outer negation or proof
	// driver uses to intercept derivations.
	OnFire func(inst *Instantiation, terminal *BetaNode) bool

	alphaNodes []*AlphaNode
	alphaIndex map[string]*AlphaNode
	betaNodes  []*BetaNode
	terminals  []*BetaNode
	// rulesSeen keys compiled rules by their text; recompiling a rule with
	// identical text is a no-op.
	rulesSeen map[string]bool

	// workingMemory holds every ground fact asserted so far, fed or
	// inferred, keyed by fact identity.
	workingMemory map[string]rdf.Fact
	// inferred orders the facts materialized by rule firings.
	inferred *btree.BTree
	// pending queues facts awaiting assertion during a FeedFacts fixpoint.
	pending  []rdf.Fact
	blankSeq int

	metrics *reteMetrics
}

// NewNetwork returns an empty network with no rules compiled.
func NewNetwork() *Network {
	return &Network{
		alphaIndex:    map[string]*AlphaNode{},
		rulesSeen:     map[string]bool{},
		workingMemory: map[string]rdf.Fact{},
		inferred:      btree.New(16),
		metrics:       &metrics,
	}
}

// Compile adds the rule to the network, building its chain of join nodes and
// sharing alpha nodes with previously compiled rules. Compiling a rule whose
// text is identical to one already compiled is a no-op. A rule compiled after
// facts have been fed sees only facts fed afterwards.
func (n *Network) Compile(rule *rules.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	id := rule.String()
	if n.rulesSeen[id] {
		return nil
	}

	first := rule.Body[0].(*rules.PatternAtom)
	node := newBetaNode(n, nil, n.alphaFor(first.Pattern), true)
	n.betaNodes = append(n.betaNodes, node)
	for _, atom := range rule.Body[1:] {
		var right input
		switch a := atom.(type) {
		case *rules.PatternAtom:
			right = n.alphaFor(a.Pattern)
		case *rules.BuiltinAtom:
			right = newBuiltinNode(a)
		default:
			log.Panicf("rete: unknown atom type %T", atom)
		}
		node = newBetaNode(n, node, right, false)
		n.betaNodes = append(n.betaNodes, node)
	}

	node.consequent = rule.Head
	node.headExistential = map[string]bool{}
	bodyVars := rule.BodyVariables()
	for _, pattern := range rule.Head {
		for _, name := range pattern.Variables() {
			if !bodyVars[name] {
				node.headExistential[name] = true
			}
		}
	}
	n.terminals = append(n.terminals, node)
	n.rulesSeen[id] = true
	log.Debugf("rete: compiled rule %s, terminal %v", id, node)
	return nil
}

// CompileAll compiles every rule in the set, stopping at the first failure.
func (n *Network) CompileAll(rs rules.Ruleset) error {
	for _, rule := range rs {
		if err := n.Compile(rule); err != nil {
			return err
		}
	}
	return nil
}

// alphaFor returns the alpha node for the pattern, creating it on first use.
// Identical patterns across rules share one node.
func (n *Network) alphaFor(pattern rdf.Pattern) *AlphaNode {
	key := cmp.GetKey(pattern)
	if a, ok := n.alphaIndex[key]; ok {
		return a
	}
	a := newAlphaNode(n, pattern)
	n.alphaNodes = append(n.alphaNodes, a)
	n.alphaIndex[key] = a
	return a
}

// FeedFacts asserts the facts into the working memory and propagates to a
// fixpoint: facts materialized by rule firings are fed back in until nothing
// new is derived. Duplicate facts are absorbed silently; a non-ground fact is
// an error.
//
// The context bounds the run: cancellation is checked between individual fact
// assertions (never mid-propagation), which is the external stop for rule
// sets that do not terminate on their own.
func (n *Network) FeedFacts(ctx context.Context, facts []rdf.Fact) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "fuxi.feedFacts")
	defer span.Finish()
	span.SetTag("facts", len(facts))
	inferredBefore := n.inferred.Len()

	n.pending = append(n.pending, facts...)
	for len(n.pending) > 0 {
		if err := ctx.Err(); err != nil {
			span.SetTag("error", true)
			return fmt.Errorf("rete: fact propagation interrupted: %w", err)
		}
		fact := n.pending[0]
		n.pending = n.pending[1:]
		if !fact.Ground() {
			span.SetTag("error", true)
			return fmt.Errorf("rete: cannot assert non-ground fact %v", fact)
		}
		key := cmp.GetKey(fact)
		if _, dup := n.workingMemory[key]; dup {
			continue
		}
		n.workingMemory[key] = fact
		n.metrics.factsFed.Inc()
		for _, alpha := range n.alphaNodes {
			alpha.Activate(fact)
		}
	}

	span.SetTag("inferred", n.inferred.Len()-inferredBefore)
	return nil
}

// fireConsequent materializes the terminal node's head patterns once per
// binding combination of the instantiation. Head variables the body does not
// bind, and blank nodes in the head, are skolemized to fresh blank nodes per
// combination. A combination leaving any other head variable unbound is
// skipped. New facts join the pending queue for feedback.
func (n *Network) fireConsequent(inst *Instantiation, terminal *BetaNode) {
	if n.OnFire != nil && !n.OnFire(inst, terminal) {
		log.Debugf("rete: firing of %v suppressed at %v", inst, terminal)
		return
	}
	n.metrics.consequentsFired.Inc()
	for _, combo := range inst.Bindings() {
		skolems := map[string]rdf.Term{}
		facts := make([]rdf.Fact, 0, len(terminal.consequent))
		grounded := true
		for _, pattern := range terminal.consequent {
			fact := n.substituteHead(pattern, combo, terminal.headExistential, skolems)
			if !fact.Ground() {
				grounded = false
				break
			}
			facts = append(facts, fact)
		}
		if !grounded {
			continue
		}
		for _, fact := range facts {
			n.assertInferred(fact)
		}
	}
}

// substituteHead instantiates one head pattern under a binding combination.
// Existential variables resolve through the per-combination skolem table;
// blank nodes in the head are likewise freshened per combination.
func (n *Network) substituteHead(pattern rdf.Pattern, combo rdf.Binding,
	existential map[string]bool, skolems map[string]rdf.Term) rdf.Fact {

	sub := func(t rdf.Term) rdf.Term {
		switch term := t.(type) {
		case nil:
			return nil
		case *rdf.Var:
			if val, bound := combo[term.Name]; bound {
				return val
			}
			if existential[term.Name] {
				sk, ok := skolems["v:"+term.Name]
				if !ok {
					sk = n.newBlank()
					skolems["v:"+term.Name] = sk
				}
				return sk
			}
			return term
		case *rdf.Blank:
			sk, ok := skolems["b:"+term.ID]
			if !ok {
				sk = n.newBlank()
				skolems["b:"+term.ID] = sk
			}
			return sk
		}
		return t
	}
	return rdf.Fact{
		Subject:   sub(pattern.Subject),
		Predicate: sub(pattern.Predicate),
		Object:    sub(pattern.Object),
		Context:   sub(pattern.Context),
	}
}

func (n *Network) newBlank() *rdf.Blank {
	n.blankSeq++
	return &rdf.Blank{ID: fmt.Sprintf("sk%d", n.blankSeq)}
}

// assertInferred records a newly materialized fact and queues it for
// feedback. Facts already in the working memory or already inferred are
// dropped.
func (n *Network) assertInferred(fact rdf.Fact) {
	key := cmp.GetKey(fact)
	if _, known := n.workingMemory[key]; known {
		return
	}
	it := &factItem{key: key, fact: fact}
	if n.inferred.Has(it) {
		return
	}
	n.inferred.ReplaceOrInsert(it)
	n.metrics.factsInferred.Inc()
	n.pending = append(n.pending, fact)
	log.Debugf("rete: inferred %v", fact)
}

// InferredFacts returns the facts materialized by rule firings, in their
// stable identity-key order. Fed facts are not included.
func (n *Network) InferredFacts() []rdf.Fact {
	out := make([]rdf.Fact, 0, n.inferred.Len())
	n.inferred.Ascend(func(it btree.Item) bool {
		out = append(out, it.(*factItem).fact)
		return true
	})
	return out
}

// Contains reports whether the fact is in the working memory, fed or
// inferred.
func (n *Network) Contains(fact rdf.Fact) bool {
	_, ok := n.workingMemory[cmp.GetKey(fact)]
	return ok
}

// Reset clears the working memory, all node memories and the inferred-fact
// set. The compiled node graph is kept; the network is ready for a fresh run
// of the same rules.
func (n *Network) Reset() {
	n.workingMemory = map[string]rdf.Fact{}
	n.inferred = btree.New(16)
	n.pending = nil
	n.blankSeq = 0
	for _, alpha := range n.alphaNodes {
		alpha.tokens = map[string]*Token{}
	}
	for _, beta := range n.betaNodes {
		beta.memories[leftSide].reset()
		beta.memories[rightSide].reset()
	}
}

// factItem adapts a fact for the inferred-fact btree, ordered by identity
// key.
type factItem struct {
	key  string
	fact rdf.Fact
}

func (f *factItem) Less(than btree.Item) bool {
	return f.key < than.(*factItem).key
}
