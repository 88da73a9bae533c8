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

package rules

import (
	"testing"

	"github.com/ebay/fuxi/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qn(v string) *rdf.QName   { return &rdf.QName{Value: v} }
func v(name string) *rdf.Var   { return &rdf.Var{Name: name} }
func lit(v string) *rdf.Literal { return &rdf.Literal{Value: v, Datatype: "xsd:integer"} }

func pat(s, p, o rdf.Term) *PatternAtom {
	return &PatternAtom{Pattern: rdf.NewPattern(s, p, o)}
}

func Test_RuleString(t *testing.T) {
	rule := &Rule{
		Body: []Atom{
			pat(v("C"), qn("rdfs:subClassOf"), v("SC")),
			pat(v("M"), qn("rdf:type"), v("C")),
		},
		Head: []rdf.Pattern{rdf.NewPattern(v("M"), qn("rdf:type"), v("SC"))},
	}
	assert.Equal(t,
		"{ ?C rdfs:subClassOf ?SC . ?M rdf:type ?C } => { ?M rdf:type ?SC }",
		rule.String())
}

func Test_RuleValidate(t *testing.T) {
	gt, ok := BuiltinNamed("math:greaterThan")
	require.True(t, ok)

	valid := &Rule{
		Body: []Atom{
			pat(v("X"), qn("ex:value"), v("V")),
			&BuiltinAtom{Builtin: gt, Argument: v("V"), Result: lit("2")},
		},
		Head: []rdf.Pattern{rdf.NewPattern(v("X"), qn("rdf:type"), qn("ex:Big"))},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		rule *Rule
	}{
		{"empty body", &Rule{
			Head: []rdf.Pattern{rdf.NewPattern(v("X"), qn("p"), v("Y"))},
		}},
		{"empty head", &Rule{
			Body: []Atom{pat(v("X"), qn("p"), v("Y"))},
		}},
		{"leading builtin", &Rule{
			Body: []Atom{
				&BuiltinAtom{Builtin: gt, Argument: v("V"), Result: lit("2")},
				pat(v("X"), qn("ex:value"), v("V")),
			},
			Head: []rdf.Pattern{rdf.NewPattern(v("X"), qn("p"), v("V"))},
		}},
		{"builtin without function", &Rule{
			Body: []Atom{
				pat(v("X"), qn("ex:value"), v("V")),
				&BuiltinAtom{Argument: v("V"), Result: lit("2")},
			},
			Head: []rdf.Pattern{rdf.NewPattern(v("X"), qn("p"), v("V"))},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Error(t, test.rule.Validate())
		})
	}
}

func Test_BodyVariables(t *testing.T) {
	gt, _ := BuiltinNamed("math:greaterThan")
	rule := &Rule{
		Body: []Atom{
			pat(v("X"), qn("ex:value"), v("V")),
			&BuiltinAtom{Builtin: gt, Argument: v("V"), Result: v("Limit")},
		},
		Head: []rdf.Pattern{rdf.NewPattern(v("X"), qn("p"), v("V"))},
	}
	vars := rule.BodyVariables()
	assert.True(t, vars["X"])
	assert.True(t, vars["V"])
	assert.False(t, vars["Limit"], "built-in-only variables are not bound by the body")
}

func Test_Builtins(t *testing.T) {
	tests := []struct {
		builtin  string
		arg, res rdf.Term
		expected bool
	}{
		{"math:greaterThan", lit("3"), lit("2"), true},
		{"math:greaterThan", lit("2"), lit("3"), false},
		{"math:lessThan", lit("2"), lit("10"), true},
		{"math:notLessThan", lit("2"), lit("2"), true},
		{"math:notGreaterThan", lit("2"), lit("2"), true},
		{"math:equalTo", lit("2"), lit("2.0"), true},
		{"math:notEqualTo", lit("2"), lit("2.0"), false},
		// Non-numeric terms fall back to identity comparison.
		{"math:equalTo", qn("ex:a"), qn("ex:a"), true},
		{"log:equalTo", lit("2"), lit("2"), true},
		{"log:notEqualTo", lit("2"), lit("2.0"), true},
	}
	for _, test := range tests {
		b, ok := BuiltinNamed(test.builtin)
		require.True(t, ok, test.builtin)
		assert.Equal(t, test.expected, b.Apply(test.arg, test.res),
			"%s(%v, %v)", test.builtin, test.arg, test.res)
	}

	_, ok := BuiltinNamed("math:noSuchThing")
	assert.False(t, ok)
}
