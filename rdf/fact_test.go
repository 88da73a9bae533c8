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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iri(v string) *IRI  { return &IRI{Value: v} }
func v(name string) *Var { return &Var{Name: name} }

func Test_PatternMatch(t *testing.T) {
	// A single fact (a, p, b) matched by (?S, p, ?O) produces the binding
	// {S: a, O: b}.
	pattern := NewPattern(v("S"), iri("p"), v("O"))
	binding, ok := pattern.Match(NewFact(iri("a"), iri("p"), iri("b")))
	require.True(t, ok)
	assert.Equal(t, Binding{"S": iri("a"), "O": iri("b")}, binding)

	// Wrong predicate.
	_, ok = pattern.Match(NewFact(iri("a"), iri("q"), iri("b")))
	assert.False(t, ok)
}

func Test_PatternMatchRepeatedVariable(t *testing.T) {
	pattern := NewPattern(v("X"), iri("sameAs"), v("X"))
	binding, ok := pattern.Match(NewFact(iri("a"), iri("sameAs"), iri("a")))
	require.True(t, ok)
	assert.Equal(t, Binding{"X": iri("a")}, binding)

	_, ok = pattern.Match(NewFact(iri("a"), iri("sameAs"), iri("b")))
	assert.False(t, ok, "repeated variable must bind equal terms")
}

func Test_PatternMatchContext(t *testing.T) {
	quad := Fact{Subject: iri("a"), Predicate: iri("p"), Object: iri("b"), Context: iri("g")}

	// A triple pattern ignores fact context.
	binding, ok := NewPattern(v("S"), iri("p"), v("O")).Match(quad)
	require.True(t, ok)
	assert.Len(t, binding, 2)

	// A quad pattern binds it.
	quadPattern := Pattern{Subject: v("S"), Predicate: iri("p"), Object: v("O"), Context: v("G")}
	binding, ok = quadPattern.Match(quad)
	require.True(t, ok)
	assert.Equal(t, iri("g"), binding["G"])

	// A quad pattern does not match a context-free triple.
	_, ok = quadPattern.Match(NewFact(iri("a"), iri("p"), iri("b")))
	assert.False(t, ok)
}

func Test_PatternVariables(t *testing.T) {
	pattern := NewPattern(v("X"), v("P"), v("X"))
	assert.Equal(t, []string{"X", "P"}, pattern.Variables())
}

func Test_PatternSubstitute(t *testing.T) {
	pattern := NewPattern(v("X"), iri("type"), v("C"))
	fact := pattern.Substitute(Binding{"X": iri("socrates"), "C": iri("Human")})
	assert.Equal(t, NewFact(iri("socrates"), iri("type"), iri("Human")), fact)
	assert.True(t, fact.Ground())

	partial := pattern.Substitute(Binding{"X": iri("socrates")})
	assert.False(t, partial.Ground())
}
