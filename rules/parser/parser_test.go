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

package parser

import (
	"testing"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseTerm(t *testing.T) {
	tests := []struct {
		in       string
		expected rdf.Term
	}{
		{"<urn:example:a>", &rdf.IRI{Value: "urn:example:a"}},
		{"?X", &rdf.Var{Name: "X"}},
		{"rdfs:label", &rdf.QName{Value: "rdfs:label"}},
		{"_:b1", &rdf.Blank{ID: "b1"}},
		{"a", &rdf.QName{Value: "rdf:type"}},
		{`"Bart"`, &rdf.Literal{Value: "Bart"}},
		{`"maison"@fr`, &rdf.Literal{Value: "maison", Language: "fr"}},
		{`"2"^^xsd:integer`, &rdf.Literal{Value: "2", Datatype: "xsd:integer"}},
		{"42", &rdf.Literal{Value: "42", Datatype: "xsd:integer"}},
		{"3.5", &rdf.Literal{Value: "3.5", Datatype: "xsd:double"}},
		{"true", &rdf.Literal{Value: "true", Datatype: "xsd:boolean"}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			term, err := ParseTerm(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.expected, term)
		})
	}
}

func Test_ParseTermErrors(t *testing.T) {
	for _, in := range []string{"", "<unclosed", "?", "rdfs:", "?X ?Y"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTerm(in)
			assert.Error(t, err)
		})
	}
}

func Test_ParseRules(t *testing.T) {
	rs, err := ParseRules(`
		{ ?C rdfs:subClassOf ?SC . ?M a ?C } => { ?M a ?SC } .
		{ ?X ex:knows ?Y } => { ?Y ex:knows ?X } .
	`)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t,
		"{ ?C rdfs:subClassOf ?SC . ?M rdf:type ?C } => { ?M rdf:type ?SC }",
		rs[0].String())
	assert.Equal(t,
		"{ ?X ex:knows ?Y } => { ?Y ex:knows ?X }",
		rs[1].String())
}

func Test_ParseRuleWithBuiltin(t *testing.T) {
	rs, err := ParseRules(`{ ?X ex:value ?V . ?V math:greaterThan 2 } => { ?X a ex:Big } .`)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Len(t, rs[0].Body, 2)

	builtin, ok := rs[0].Body[1].(*rules.BuiltinAtom)
	require.True(t, ok, "math: predicate compiles to a built-in atom")
	assert.Equal(t, "math:greaterThan", builtin.Builtin.Name)
	assert.Equal(t, &rdf.Var{Name: "V"}, builtin.Argument)
	assert.Equal(t, &rdf.Literal{Value: "2", Datatype: "xsd:integer"}, builtin.Result)
}

func Test_ParseRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing terminator", "{ ?X ex:p ?Y } => { ?X ex:q ?Y }"},
		{"missing head", "{ ?X ex:p ?Y } => ."},
		{"builtin in head", "{ ?X ex:value ?V } => { ?V math:greaterThan 2 } ."},
		{"leading builtin", "{ ?V math:greaterThan 2 . ?X ex:value ?V } => { ?X a ex:Big } ."},
		{"junk", "hello"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseRules(test.in)
			assert.Error(t, err)
		})
	}
}

func Test_ParseFacts(t *testing.T) {
	facts, err := ParseFacts(`
# people
ex:bart ex:childOf ex:homer
ex:bart foaf:name "Bart"

ex:lisa a ex:Person <urn:example:school>
`)
	require.NoError(t, err)
	require.Len(t, facts, 3)

	assert.Equal(t, rdf.NewFact(
		&rdf.QName{Value: "ex:bart"},
		&rdf.QName{Value: "ex:childOf"},
		&rdf.QName{Value: "ex:homer"}), facts[0])
	assert.Equal(t, &rdf.Literal{Value: "Bart"}, facts[1].Object)

	require.NotNil(t, facts[2].Context, "4 column lines carry a context term")
	assert.Equal(t, &rdf.IRI{Value: "urn:example:school"}, facts[2].Context)
	assert.Equal(t, &rdf.QName{Value: "rdf:type"}, facts[2].Predicate)
}

func Test_ParseFactsErrors(t *testing.T) {
	_, err := ParseFacts("ex:a ex:p ?X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ground")

	_, err = ParseFacts("ex:a ex:p")
	assert.Error(t, err)
}
