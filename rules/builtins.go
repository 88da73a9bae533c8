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
	"strconv"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/util/cmp"
)

// A Builtin is a binary comparison predicate usable as a rule-body atom. It
// substitutes for a pattern-matched input on one side of a join node: the
// join evaluates Apply against each candidate binding combination instead of
// probing a memory.
type Builtin struct {
	// Name is the qualified name the predicate is written as, e.g.
	// "math:greaterThan".
	Name string
	// Apply evaluates the predicate over two ground terms.
	Apply func(argument, result rdf.Term) bool
}

// builtins holds the registered comparison predicates, keyed by Name.
var builtins = map[string]*Builtin{}

func register(name string, apply func(argument, result rdf.Term) bool) {
	builtins[name] = &Builtin{Name: name, Apply: apply}
}

func init() {
	register("math:equalTo", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) == 0
	})
	register("math:notEqualTo", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) != 0
	})
	register("math:greaterThan", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) > 0
	})
	register("math:lessThan", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) < 0
	})
	register("math:notGreaterThan", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) <= 0
	})
	register("math:notLessThan", func(a, r rdf.Term) bool {
		return numericOrTermCompare(a, r) >= 0
	})
	register("log:equalTo", func(a, r rdf.Term) bool {
		return rdf.TermEq(a, r)
	})
	register("log:notEqualTo", func(a, r rdf.Term) bool {
		return !rdf.TermEq(a, r)
	})
}

// BuiltinNamed looks up a registered built-in by its qualified name.
func BuiltinNamed(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// numericOrTermCompare compares two terms numerically when both are numeric
// literals, otherwise by their identity keys. Returns -1, 0 or 1.
func numericOrTermCompare(a, b rdf.Term) int {
	av, aNum := numericValue(a)
	bv, bNum := numericValue(b)
	if aNum && bNum {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	}
	ak, bk := cmp.GetKey(a), cmp.GetKey(b)
	switch {
	case ak < bk:
		return -1
	case ak > bk:
		return 1
	}
	return 0
}

func numericValue(t rdf.Term) (float64, bool) {
	lit, ok := t.(*rdf.Literal)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
