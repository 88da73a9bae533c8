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

// Package rules defines the compiled rule representation consumed by the
// inference network: an ordered body of pattern and built-in atoms, and a
// head of one or more patterns. The body is expected to already be in
// left-to-right evaluable order; this package does not reorder atoms.
package rules

import (
	"fmt"
	"strings"

	"github.com/ebay/fuxi/rdf"
)

// An Atom is one conjunct of a rule body.
type Atom interface {
	// Marker method to prevent other types from implementing Atom.
	anAtom()
	// Variables returns the names of the variables the atom mentions.
	Variables() []string
	String() string
}

// PatternAtom is a triple/quad pattern conjunct.
type PatternAtom struct {
	Pattern rdf.Pattern
}

// BuiltinAtom is a comparison predicate conjunct. It is evaluated against
// bindings produced by the pattern atoms to its left rather than matched
// against facts.
type BuiltinAtom struct {
	Builtin  *Builtin
	Argument rdf.Term
	Result   rdf.Term
}

var _ = []Atom{
	new(PatternAtom),
	new(BuiltinAtom),
}

func (*PatternAtom) anAtom() {}
func (*BuiltinAtom) anAtom() {}

// Variables implements Atom.
func (a *PatternAtom) Variables() []string {
	return a.Pattern.Variables()
}

// Variables implements Atom.
func (a *BuiltinAtom) Variables() []string {
	var names []string
	for _, t := range []rdf.Term{a.Argument, a.Result} {
		if v, ok := t.(*rdf.Var); ok {
			names = append(names, v.Name)
		}
	}
	return names
}

func (a *PatternAtom) String() string {
	return a.Pattern.String()
}

func (a *BuiltinAtom) String() string {
	return fmt.Sprintf("%v %s %v", a.Argument, a.Builtin.Name, a.Result)
}

// A Rule is a single definite clause: body => head. The head may use a subset
// of the body's variables and may introduce fresh existential variables,
// which the network skolemizes at firing time.
type Rule struct {
	Body []Atom
	Head []rdf.Pattern
}

// String renders the rule in the textual syntax accepted by rules/parser. It
// also serves as the rule's identity for idempotent compilation.
func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, atom := range r.Body {
		if i > 0 {
			b.WriteString(" . ")
		}
		b.WriteString(atom.String())
	}
	b.WriteString(" } => { ")
	for i, pattern := range r.Head {
		if i > 0 {
			b.WriteString(" . ")
		}
		b.WriteString(pattern.String())
	}
	b.WriteString(" }")
	return b.String()
}

// BodyVariables returns the set of variable names bound by the body's pattern
// atoms. Variables appearing only in built-in atoms are not included: a
// built-in tests bindings, it never produces them.
func (r *Rule) BodyVariables() map[string]bool {
	vars := map[string]bool{}
	for _, atom := range r.Body {
		if p, ok := atom.(*PatternAtom); ok {
			for _, name := range p.Pattern.Variables() {
				vars[name] = true
			}
		}
	}
	return vars
}

// Validate checks the basic shape requirements on the rule. A rule that fails
// validation must be rejected at compile time (it is a programming error in
// the component that produced it).
func (r *Rule) Validate() error {
	if len(r.Body) == 0 {
		return fmt.Errorf("rules: rule has an empty body: %v", r)
	}
	if len(r.Head) == 0 {
		return fmt.Errorf("rules: rule has an empty head: %v", r)
	}
	if _, ok := r.Body[0].(*BuiltinAtom); ok {
		return fmt.Errorf("rules: rule body may not begin with a built-in: %v", r)
	}
	for _, atom := range r.Body {
		builtin, ok := atom.(*BuiltinAtom)
		if !ok {
			continue
		}
		if builtin.Builtin == nil || builtin.Builtin.Apply == nil {
			return fmt.Errorf("rules: built-in atom has no predicate function: %v", r)
		}
		if rdf.IsVariable(builtin.Argument) && rdf.IsVariable(builtin.Result) &&
			len(r.BodyVariables()) == 0 {
			return fmt.Errorf("rules: built-in references variables no pattern binds: %v", r)
		}
	}
	return nil
}

// A Ruleset is an ordered collection of rules.
type Ruleset []*Rule

// Validate validates every rule, reporting the first failure.
func (rs Ruleset) Validate() error {
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
