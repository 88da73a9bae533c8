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
	"testing"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/util/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qn(v string) *rdf.QName { return &rdf.QName{Value: v} }
func v(name string) *rdf.Var { return &rdf.Var{Name: name} }
func lit(v string) *rdf.Literal {
	return &rdf.Literal{Value: v, Datatype: "xsd:integer"}
}

func fact(s, p, o string) rdf.Fact {
	return rdf.NewFact(qn(s), qn(p), qn(o))
}

// tok builds a token over a synthetic fact; the fact only matters for token
// identity, so each call site uses a distinct triple.
func tok(s, p, o string, bindings rdf.Binding) *Token {
	return NewToken(fact(s, p, o), bindings)
}

// bindingSet collapses combinations to their identity keys for
// order-independent comparison.
func bindingSet(combos []rdf.Binding) map[string]bool {
	set := map[string]bool{}
	for _, b := range combos {
		set[cmp.GetKey(b)] = true
	}
	return set
}

func Test_SingleTokenBindings(t *testing.T) {
	token := tok("a", "p", "b", rdf.Binding{"S": qn("a"), "O": qn("b")})
	inst := newInstantiation([]*Token{token}, nil)
	combos := inst.Bindings()
	require.Len(t, combos, 1)
	assert.Equal(t, cmp.GetKey(token.Bindings), cmp.GetKey(combos[0]))
}

func Test_IsolatedCrossProduct(t *testing.T) {
	// Two candidates for ?X and two for ?Y, each contributed by a token
	// binding a single variable. The combination assigning the shared value
	// "b" to both variables is spurious and dropped: 2x2 - 1 = 3.
	inst := newInstantiation([]*Token{
		tok("a", "p1", "o", rdf.Binding{"X": qn("a")}),
		tok("b", "p2", "o", rdf.Binding{"X": qn("b")}),
		tok("b", "p3", "o", rdf.Binding{"Y": qn("b")}),
		tok("c", "p4", "o", rdf.Binding{"Y": qn("c")}),
	}, nil)

	combos := inst.Bindings()
	assert.Len(t, combos, 3)
	expected := bindingSet([]rdf.Binding{
		{"X": qn("a"), "Y": qn("b")},
		{"X": qn("a"), "Y": qn("c")},
		{"X": qn("b"), "Y": qn("c")},
	})
	assert.Equal(t, expected, bindingSet(combos))
}

func Test_ForcedGroupMergesWithIsolated(t *testing.T) {
	// A token binding two variables keeps them grouped. Its ?X agrees with
	// the isolated candidate, so the merge collapses to one combination.
	inst := newInstantiation([]*Token{
		tok("bart", "p1", "o", rdf.Binding{"X": qn("bart")}),
		tok("bart", "p2", "lisa", rdf.Binding{"X": qn("bart"), "Y": qn("lisa")}),
	}, nil)

	combos := inst.Bindings()
	require.Len(t, combos, 1)
	assert.Equal(t,
		cmp.GetKey(rdf.Binding{"X": qn("bart"), "Y": qn("lisa")}),
		cmp.GetKey(combos[0]))
}

func Test_OverlappingForcedGroupsKeepBoth(t *testing.T) {
	// Two multi-variable tokens disagreeing on shared variables are rounded
	// out into two separate combinations; neither is discarded.
	inst := newInstantiation([]*Token{
		tok("a", "p1", "b", rdf.Binding{"X": qn("a"), "Y": qn("b")}),
		tok("c", "p2", "d", rdf.Binding{"X": qn("c"), "Y": qn("d")}),
	}, nil)

	combos := inst.Bindings()
	assert.Len(t, combos, 2)
	expected := bindingSet([]rdf.Binding{
		{"X": qn("a"), "Y": qn("b")},
		{"X": qn("c"), "Y": qn("d")},
	})
	assert.Equal(t, expected, bindingSet(combos))
}

func Test_AllJoinedFallsBackToJoinedBindings(t *testing.T) {
	joined := rdf.Binding{"X": qn("a")}
	inst := newInstantiation([]*Token{
		tok("a", "p1", "o", rdf.Binding{"X": qn("a")}),
		tok("a", "p2", "o", rdf.Binding{"X": qn("a")}),
	}, joined)

	combos := inst.Bindings()
	require.Len(t, combos, 1)
	assert.Equal(t, cmp.GetKey(joined), cmp.GetKey(combos[0]))
}

func Test_EveryComboAssignsEachVariableOnce(t *testing.T) {
	inst := newInstantiation([]*Token{
		tok("a", "p1", "o", rdf.Binding{"X": qn("a")}),
		tok("b", "p2", "c", rdf.Binding{"X": qn("b"), "Y": qn("c")}),
		tok("d", "p3", "o", rdf.Binding{"Z": qn("d")}),
	}, nil)
	for _, combo := range inst.Bindings() {
		for name, val := range combo {
			assert.NotNil(t, val, "variable %s has no value", name)
		}
	}
}

func Test_KeyIsOrderIndependent(t *testing.T) {
	t1 := tok("a", "p1", "o", rdf.Binding{"X": qn("a")})
	t2 := tok("b", "p2", "o", rdf.Binding{"Y": qn("b")})
	ab := newInstantiation([]*Token{t1, t2}, nil)
	ba := newInstantiation([]*Token{t2, t1}, nil)
	assert.Equal(t, cmp.GetKey(ab), cmp.GetKey(ba))

	other := newInstantiation([]*Token{t1}, nil)
	assert.NotEqual(t, cmp.GetKey(ab), cmp.GetKey(other))
}

func Test_NewJoin(t *testing.T) {
	agree := tok("foo", "value", "2", rdf.Binding{"X": qn("foo")})
	disagree := tok("qux", "value", "2", rdf.Binding{"X": qn("qux")})
	unrelated := tok("bar", "prop1", "w", rdf.Binding{"Z": qn("bar")})
	inst := newInstantiation([]*Token{agree, disagree, unrelated}, nil)

	right := tok("foo", "type", "baz", rdf.Binding{"X": qn("foo"), "Y": qn("baz")})
	joined := inst.newJoin(right, []string{"X"})

	// The token disagreeing on ?X is dropped; the token binding no join
	// variable is kept; the join variable is confirmed.
	toks := joined.Tokens()
	assert.Len(t, toks, 3)
	for _, member := range toks {
		assert.NotEqual(t, cmp.GetKey(disagree), cmp.GetKey(member))
	}
	assert.True(t, rdf.TermEq(qn("foo"), joined.JoinedBindings()["X"]))
}

func Test_WithConsistentBindingLeavesReceiverAlone(t *testing.T) {
	inst := newInstantiation([]*Token{
		tok("a", "p1", "o", rdf.Binding{"X": qn("a")}),
		tok("b", "p2", "o", rdf.Binding{"Y": qn("b")}),
	}, nil)
	before := len(inst.JoinedBindings())

	widened := inst.withConsistentBinding([]string{"X"})
	assert.Len(t, inst.JoinedBindings(), before, "receiver must not change")
	assert.True(t, rdf.TermEq(qn("a"), widened.JoinedBindings()["X"]))
	assert.Equal(t, cmp.GetKey(inst), cmp.GetKey(widened),
		"widening joined bindings does not change structural identity")
}

func Test_MemoryAddAndLookup(t *testing.T) {
	n := NewNetwork()
	alpha := n.alphaFor(rdf.NewPattern(v("X"), qn("p"), v("Y")))
	node := newBetaNode(n, nil, alpha, true)

	mem := node.memories[rightSide]
	token := tok("a", "p", "b", rdf.Binding{"X": qn("a"), "Y": qn("b")})
	assert.True(t, mem.add(token))
	assert.False(t, mem.add(token), "duplicates are absorbed")
	assert.Equal(t, 1, mem.size())

	ck := commonKey(token.Bindings, node.commonVars)
	assert.Len(t, mem.lookup(ck), 1)
	miss := commonKey(rdf.Binding{"X": qn("z"), "Y": qn("b")}, node.commonVars)
	assert.Empty(t, mem.lookup(miss))

	mem.reset()
	assert.True(t, mem.empty())
	assert.Empty(t, mem.lookup(ck))
}
