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

package rdf

import (
	"fmt"
	"strings"
)

// A Fact is a ground subject-predicate-object triple, optionally carrying a
// fourth context term. Facts are immutable once constructed.
type Fact struct {
	Subject   Term
	Predicate Term
	Object    Term
	// Context is nil for plain triples.
	Context Term
}

// NewFact returns a context-free fact.
func NewFact(s, p, o Term) Fact {
	return Fact{Subject: s, Predicate: p, Object: o}
}

// Key implements cmp.Key.
func (f Fact) Key(b *strings.Builder) {
	b.WriteByte('(')
	f.Subject.Key(b)
	b.WriteByte(' ')
	f.Predicate.Key(b)
	b.WriteByte(' ')
	f.Object.Key(b)
	if f.Context != nil {
		b.WriteByte(' ')
		f.Context.Key(b)
	}
	b.WriteByte(')')
}

func (f Fact) String() string {
	if f.Context != nil {
		return fmt.Sprintf("%v %v %v %v", f.Subject, f.Predicate, f.Object, f.Context)
	}
	return fmt.Sprintf("%v %v %v", f.Subject, f.Predicate, f.Object)
}

// Ground reports whether no slot of the fact is a variable.
func (f Fact) Ground() bool {
	for _, t := range f.terms() {
		if IsVariable(t) {
			return false
		}
	}
	return true
}

func (f Fact) terms() []Term {
	terms := []Term{f.Subject, f.Predicate, f.Object}
	if f.Context != nil {
		terms = append(terms, f.Context)
	}
	return terms
}

// A Pattern is a fact template: any slot may be a variable. A nil Context
// slot matches any fact context.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
	Context   Term
}

// NewPattern returns a triple pattern with a wildcard context.
func NewPattern(s, p, o Term) Pattern {
	return Pattern{Subject: s, Predicate: p, Object: o}
}

// Key implements cmp.Key.
func (p Pattern) Key(b *strings.Builder) {
	b.WriteByte('[')
	p.Subject.Key(b)
	b.WriteByte(' ')
	p.Predicate.Key(b)
	b.WriteByte(' ')
	p.Object.Key(b)
	if p.Context != nil {
		b.WriteByte(' ')
		p.Context.Key(b)
	}
	b.WriteByte(']')
}

func (p Pattern) String() string {
	if p.Context != nil {
		return fmt.Sprintf("%v %v %v %v", p.Subject, p.Predicate, p.Object, p.Context)
	}
	return fmt.Sprintf("%v %v %v", p.Subject, p.Predicate, p.Object)
}

// Variables returns the names of the variables appearing in the pattern, in
// slot order, without duplicates.
func (p Pattern) Variables() []string {
	var names []string
	seen := map[string]bool{}
	for _, t := range p.slots() {
		if v, ok := t.(*Var); ok && !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	}
	return names
}

func (p Pattern) slots() []Term {
	slots := []Term{p.Subject, p.Predicate, p.Object}
	if p.Context != nil {
		slots = append(slots, p.Context)
	}
	return slots
}

// Match tests the fact against the pattern. On success it returns the binding
// of the pattern's variables to the corresponding fact terms. A variable that
// repeats within the pattern must match equal terms in every slot it occupies.
// A fact that does not match is not an error; Match just returns false.
func (p Pattern) Match(f Fact) (Binding, bool) {
	binding := Binding{}
	factTerms := []Term{f.Subject, f.Predicate, f.Object}
	patTerms := []Term{p.Subject, p.Predicate, p.Object}
	if p.Context != nil {
		if f.Context == nil {
			return nil, false
		}
		factTerms = append(factTerms, f.Context)
		patTerms = append(patTerms, p.Context)
	}
	for i, pt := range patTerms {
		ft := factTerms[i]
		if v, ok := pt.(*Var); ok {
			if prev, bound := binding[v.Name]; bound {
				if !TermEq(prev, ft) {
					return nil, false
				}
				continue
			}
			binding[v.Name] = ft
			continue
		}
		if !TermEq(pt, ft) {
			return nil, false
		}
	}
	return binding, true
}

// Substitute materializes the pattern into a fact using the given binding.
// Variables not present in the binding are left in place, so the caller must
// check Ground() if a ground fact is required.
func (p Pattern) Substitute(binding Binding) Fact {
	sub := func(t Term) Term {
		if t == nil {
			return nil
		}
		if v, ok := t.(*Var); ok {
			if bound, present := binding[v.Name]; present {
				return bound
			}
		}
		return t
	}
	return Fact{
		Subject:   sub(p.Subject),
		Predicate: sub(p.Predicate),
		Object:    sub(p.Object),
		Context:   sub(p.Context),
	}
}
