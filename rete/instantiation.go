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
	"github.com/ebay/fuxi/util/cmp"
)

// An Instantiation is a partial instantiation: the set of tokens that has
// satisfied every join test evaluated so far along one path through the
// network, together with (a) the joinedBindings already confirmed consistent
// across the whole set, and (b) the derived list of concrete binding
// combinations consistent with both.
//
// Instantiations are immutable after construction. Tokens are shared, never
// copied. Structural identity is order-independent over the member tokens,
// which is what lets the hashed memories de-duplicate structurally identical
// instantiations arriving by different routes.
type Instantiation struct {
	members map[string]*Token
	joined  rdf.Binding
	combos  []rdf.Binding
	key     string
}

// newInstantiation builds an instantiation from tokens known to be mutually
// compatible with the given joinedBindings, deriving the binding combination
// list. joinedBindings may be nil.
func newInstantiation(tokens []*Token, joinedBindings rdf.Binding) *Instantiation {
	p := &Instantiation{
		members: make(map[string]*Token, len(tokens)),
		joined:  joinedBindings.Copy(),
	}
	if p.joined == nil {
		p.joined = rdf.Binding{}
	}
	for _, tok := range tokens {
		p.members[cmp.GetKey(tok)] = tok
	}
	p.generateKey()
	p.generateBindings()
	return p
}

func (p *Instantiation) generateKey() {
	keys := make([]string, 0, len(p.members))
	for k := range p.members {
		keys = append(keys, k)
	}
	p.key = "pi:" + cmp.SortedKey(keys)
}

// Key implements cmp.Key. Two instantiations are equal iff they hold the same
// token set, regardless of the order the tokens were joined in.
func (p *Instantiation) Key(b *strings.Builder) {
	b.WriteString(p.key)
}

// Tokens returns the member tokens in deterministic (key) order.
func (p *Instantiation) Tokens() []*Token {
	keys := make([]string, 0, len(p.members))
	for k := range p.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Token, len(keys))
	for i, k := range keys {
		out[i] = p.members[k]
	}
	return out
}

// JoinedBindings returns the variables confirmed consistent across the whole
// token set. Callers must not mutate the result.
func (p *Instantiation) JoinedBindings() rdf.Binding {
	return p.joined
}

// Bindings returns the derived concrete binding combinations. Callers must
// not mutate the result.
func (p *Instantiation) Bindings() []rdf.Binding {
	return p.combos
}

func (p *Instantiation) String() string {
	var joinMsg string
	if len(p.joined) > 0 {
		names := p.joined.Names()
		for i, n := range names {
			names[i] = "?" + n
		}
		joinMsg = fmt.Sprintf(" (joined on %s)", strings.Join(names, ","))
	}
	toks := p.Tokens()
	strs := make([]string, len(toks))
	for i, tok := range toks {
		strs[i] = tok.String()
	}
	return fmt.Sprintf("<Instantiation%s: {%s}>", joinMsg, strings.Join(strs, ", "))
}

// bindingCombos implements item.
func (p *Instantiation) bindingCombos() []rdf.Binding {
	return p.combos
}

// tokens implements item; see Tokens.
func (p *Instantiation) tokens() []*Token { return p.Tokens() }

// generateBindings derives the minimal list of concrete binding combinations
// for the current token set and joinedBindings:
//
//  1. A single token's own binding is the single result.
//  2. Otherwise each token's bindings outside joinedBindings are partitioned:
//     a token contributing exactly one free variable is "isolated"; a token
//     contributing two or more is "forced" (those variables co-occurred in
//     one fact and must stay grouped).
//  3. The isolated contributions form a cross product of per-variable
//     candidate values, rejecting any combination that assigns the same
//     value to two different variable names: binding to an identical term is
//     not evidence that two unrelated variables unify.
//  4. Each forced group (augmented with joinedBindings) is then folded in by
//     unifying it against every accumulated combination.
//  5. If nothing survives, the result is the singleton joinedBindings.
func (p *Instantiation) generateBindings() {
	if len(p.members) == 1 {
		for _, tok := range p.members {
			p.combos = []rdf.Binding{tok.Bindings.Copy()}
		}
		return
	}

	// Partition free bindings into isolated candidates and forced groups.
	isolated := map[string]map[string]rdf.Term{} // var name -> value key -> value
	var forced []rdf.Binding
	for _, tok := range p.Tokens() {
		free := rdf.Binding{}
		for name, val := range tok.Bindings {
			if _, isJoined := p.joined[name]; !isJoined {
				free[name] = val
			}
		}
		switch len(free) {
		case 0:
			// Every variable already confirmed; nothing to contribute.
		case 1:
			for name, val := range free {
				vals, ok := isolated[name]
				if !ok {
					vals = map[string]rdf.Term{}
					isolated[name] = vals
				}
				vals[cmp.GetKey(val)] = val
			}
		default:
			forced = append(forced, free.Merge(p.joined))
		}
	}

	acc := p.isolatedCombos(isolated)
	for _, group := range forced {
		if len(acc) == 0 {
			acc = []rdf.Binding{group}
			continue
		}
		var next []rdf.Binding
		for _, combo := range acc {
			next = append(next, p.unify(combo, group)...)
		}
		acc = dedupBindings(next)
	}
	if len(acc) == 0 {
		acc = []rdf.Binding{p.joined.Copy()}
	}
	p.combos = acc
}

// isolatedCombos builds the cross product of the isolated per-variable
// candidate values, each combination augmented with joinedBindings.
// Combinations assigning one value to two distinct variables are rejected.
func (p *Instantiation) isolatedCombos(isolated map[string]map[string]rdf.Term) []rdf.Binding {
	if len(isolated) == 0 {
		return nil
	}
	names := make([]string, 0, len(isolated))
	for name := range isolated {
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []rdf.Binding{{}}
	for _, name := range names {
		valKeys := make([]string, 0, len(isolated[name]))
		for vk := range isolated[name] {
			valKeys = append(valKeys, vk)
		}
		sort.Strings(valKeys)
		var next []rdf.Binding
		for _, combo := range combos {
			for _, vk := range valKeys {
				next = append(next, combo.With(name, isolated[name][vk]))
			}
		}
		combos = next
	}

	var out []rdf.Binding
	for _, combo := range combos {
		if spuriousUnification(combo) {
			continue
		}
		out = append(out, combo.Merge(p.joined))
	}
	return dedupBindings(out)
}

// spuriousUnification reports whether two distinct variables in the
// combination are assigned equal values.
func spuriousUnification(combo rdf.Binding) bool {
	seen := map[string]string{}
	for name, val := range combo {
		vk := cmp.GetKey(val)
		if other, dup := seen[vk]; dup && other != name {
			return true
		}
		seen[vk] = name
	}
	return false
}

// unify merges two binding maps. If their variable sets outside
// joinedBindings are disjoint the result is the plain union. If they overlap,
// each map is instead "rounded out" with the other's non-overlapping entries
// and both reconciled maps are returned as separate valid combinations: the
// two tokens partially but not necessarily fully agree, and neither
// combination may be discarded.
func (p *Instantiation) unify(left, right rdf.Binding) []rdf.Binding {
	overlap := false
	for name := range left {
		if _, isJoined := p.joined[name]; isJoined {
			continue
		}
		if _, inRight := right[name]; inRight {
			overlap = true
			break
		}
	}
	if !overlap {
		return []rdf.Binding{left.Merge(right)}
	}
	l := left.Copy()
	for name, val := range right {
		if _, present := l[name]; !present {
			l[name] = val
		}
	}
	r := right.Copy()
	for name, val := range left {
		if _, present := r[name]; !present {
			r[name] = val
		}
	}
	return []rdf.Binding{l, r}
}

// newJoin extends the instantiation with a token arriving from the right side
// of a join. newJoinVariables names the join variables not already confirmed
// in joinedBindings. Tokens that disagree with the new token on every newly
// joined variable they bind are filtered out; tokens that bind none of them
// are retained unconditionally.
func (p *Instantiation) newJoin(right *Token, newJoinVariables []string) *Instantiation {
	joined := p.joined.Copy()
	var kept []*Token
	if len(newJoinVariables) > 0 {
		for _, name := range newJoinVariables {
			if val, ok := right.Bindings[name]; ok {
				joined[name] = val
			}
		}
		for _, tok := range p.Tokens() {
			hasCommon, agrees := false, false
			for _, name := range newJoinVariables {
				tv, bound := tok.Bindings[name]
				if !bound {
					continue
				}
				hasCommon = true
				if rdf.TermEq(tv, right.Bindings[name]) {
					agrees = true
				}
			}
			if !hasCommon || agrees {
				kept = append(kept, tok)
			}
		}
	} else {
		// Already consistent with respect to the new token.
		kept = p.Tokens()
	}
	kept = append(kept, right)
	return newInstantiation(kept, joined)
}

// withConsistentBinding widens joinedBindings with the named variables,
// taking each variable's value from the first derived combination that binds
// it. Confirmed joins are never overwritten. The receiver is unchanged; a new
// instantiation with regenerated combinations is returned.
func (p *Instantiation) withConsistentBinding(names []string) *Instantiation {
	joined := p.joined.Copy()
	for _, name := range names {
		if _, confirmed := joined[name]; confirmed {
			continue
		}
		for _, combo := range p.combos {
			if val, bound := combo[name]; bound {
				joined[name] = val
				break
			}
		}
	}
	return newInstantiation(p.Tokens(), joined)
}

// dedupBindings drops duplicate binding maps, preserving first-seen order.
func dedupBindings(in []rdf.Binding) []rdf.Binding {
	seen := map[string]bool{}
	var out []rdf.Binding
	for _, b := range in {
		k := cmp.GetKey(b)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out
}
