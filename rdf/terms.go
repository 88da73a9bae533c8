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
	"sort"
	"strings"

	"github.com/ebay/fuxi/util/cmp"
)

// A Term is one slot of a fact or pattern: a named node (IRI or qualified
// name), a blank node, a literal, or a variable. Terms are immutable once
// constructed and compare by value through their identity keys.
type Term interface {
	// Marker method to prevent other types from implementing Term.
	aTerm()
	// Key writes the term's identity, tagged by term kind so that, for
	// example, the IRI "x" and the literal "x" never collide.
	cmp.Key
	// Return a parseable string representation of the Term.
	String() string
}

// IRI is a named node identified by a full IRI, written "<urn:example:a>".
type IRI struct {
	Value string
}

// QName is a named node identified by an unexpanded qualified name such as
// "rdfs:subClassOf". Prefix expansion is a concern of whatever produced the
// term; the engine compares qualified names verbatim.
type QName struct {
	Value string
}

// Blank is a blank (anonymous) node with an opaque label.
type Blank struct {
	ID string
}

// Literal is an RDF literal: a lexical form with an optional datatype IRI and
// an optional language tag. At most one of Datatype and Language is set.
type Literal struct {
	Value    string
	Datatype string
	Language string
}

// Var is a named variable, as written "?name".
type Var struct {
	Name string
}

// Ensures that each of these implements the Term interface.
var _ = []Term{
	new(IRI),
	new(QName),
	new(Blank),
	new(Literal),
	new(Var),
}

func (*IRI) aTerm()     {}
func (*QName) aTerm()   {}
func (*Blank) aTerm()   {}
func (*Literal) aTerm() {}
func (*Var) aTerm()     {}

// Key implements cmp.Key.
func (i *IRI) Key(b *strings.Builder) {
	b.WriteString("i:")
	b.WriteString(i.Value)
}

// Key implements cmp.Key.
func (q *QName) Key(b *strings.Builder) {
	b.WriteString("q:")
	b.WriteString(q.Value)
}

// Key implements cmp.Key.
func (n *Blank) Key(b *strings.Builder) {
	b.WriteString("b:")
	b.WriteString(n.ID)
}

// Key implements cmp.Key. The lexical form and datatype are length-prefixed:
// a lexical form may itself contain "^^" or "@", and without the prefix a
// plain literal could alias a typed or language-tagged one.
func (l *Literal) Key(b *strings.Builder) {
	fmt.Fprintf(b, "l:%d:%s", len(l.Value), l.Value)
	if l.Datatype != "" {
		fmt.Fprintf(b, "^^%d:%s", len(l.Datatype), l.Datatype)
	}
	if l.Language != "" {
		b.WriteString("@")
		b.WriteString(l.Language)
	}
}

// Key implements cmp.Key.
func (v *Var) Key(b *strings.Builder) {
	b.WriteString("v:")
	b.WriteString(v.Name)
}

func (i *IRI) String() string {
	return fmt.Sprintf("<%s>", i.Value)
}

func (q *QName) String() string {
	return q.Value
}

func (n *Blank) String() string {
	return fmt.Sprintf("_:%s", n.ID)
}

func (l *Literal) String() string {
	switch {
	case l.Datatype != "":
		return fmt.Sprintf("%q^^%s", l.Value, l.Datatype)
	case l.Language != "":
		return fmt.Sprintf("%q@%s", l.Value, l.Language)
	}
	return fmt.Sprintf("%q", l.Value)
}

func (v *Var) String() string {
	return fmt.Sprintf("?%s", v.Name)
}

// TermEq reports whether two terms are equal by value. Either argument may be
// nil; two nils are equal.
func TermEq(a, b Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.GetKey(a) == cmp.GetKey(b)
}

// IsVariable reports whether the term is a *Var.
func IsVariable(t Term) bool {
	_, ok := t.(*Var)
	return ok
}

// A Binding maps variable names to the ground terms they are bound to. Keys
// are unique; there are no ordering semantics.
type Binding map[string]Term

// Copy returns an independent copy of the binding.
func (bnd Binding) Copy() Binding {
	out := make(Binding, len(bnd))
	for k, v := range bnd {
		out[k] = v
	}
	return out
}

// With returns a copy of the binding extended (or overwritten) with the named
// variable.
func (bnd Binding) With(name string, value Term) Binding {
	out := bnd.Copy()
	out[name] = value
	return out
}

// Merge returns a copy of the binding extended with every entry of other.
// Entries of other win on conflicting names.
func (bnd Binding) Merge(other Binding) Binding {
	out := bnd.Copy()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Names returns the bound variable names in sorted order.
func (bnd Binding) Names() []string {
	names := make([]string, 0, len(bnd))
	for k := range bnd {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Key implements cmp.Key. The key is order-independent over the entries.
func (bnd Binding) Key(b *strings.Builder) {
	for _, name := range bnd.Names() {
		b.WriteString(name)
		b.WriteString("->")
		bnd[name].Key(b)
		b.WriteByte(',')
	}
}

func (bnd Binding) String() string {
	parts := make([]string, 0, len(bnd))
	for _, name := range bnd.Names() {
		parts = append(parts, fmt.Sprintf("%s->%v", name, bnd[name]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
