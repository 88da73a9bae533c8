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
	"fmt"
	"strconv"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	p "github.com/vektah/goparsify"
)

var (
	// ruleset is the parser function called by ParseRules. It extracts a
	// sequence of "{ body } => { head } ." rules.
	ruleset p.Parser
	// factLine is the parser function called by ParseFacts for each
	// non-comment input line: 3 or 4 whitespace-separated ground terms.
	factLine p.Parser
	// term is the parser function called by ParseTerm. It extracts a single
	// IRI, qualified name, blank node, literal or variable.
	term p.Parser
)

// parsedRule is the raw grammar production for one rule. ParseRules validates
// it and converts it to a rules.Rule.
type parsedRule struct {
	body []rules.Atom
	head []rules.Atom
}

func init() {
	// If you need to debug what the parser is doing, you can enable
	// goparsify's built in debug support by building with -tags debug. See
	// https://github.com/vektah/goparsify#debugging-parsers

	// unbroken character sequence used by variables, language tags and the
	// local part of blank node labels
	id := p.Chars("A-Za-z0-9_", 1)
	// unbroken character sequence used by the local part of qualified names
	qnameChars := p.Chars("A-Za-z0-9%()_\\-", 1)
	// IRI character sequence includes additional special characters
	iriChars := p.Chars("A-Za-z0-9%()_\\-.,:/#~?&=+", 1)

	iri := p.Seq("<", p.Cut(), iriChars, ">").Map(func(n *p.Result) { // <urn:example:a>
		n.Result = &rdf.IRI{Value: n.Child[2].Token}
	})
	variable := p.Seq("?", id).Map(func(n *p.Result) { // ?s
		n.Result = &rdf.Var{Name: n.Child[1].Token}
	})
	blank := p.Seq("_:", id).Map(func(n *p.Result) { // _:b1
		n.Result = &rdf.Blank{ID: n.Child[1].Token}
	})
	qname := p.Seq(id, ":", qnameChars).Map(func(n *p.Result) { // rdfs:label
		n.Result = &rdf.QName{Value: fmt.Sprintf("%s:%s", n.Child[0].Token, n.Child[2].Token)}
	})
	// "a" abbreviates rdf:type, as in N3
	kwA := p.Exact("a").Map(func(n *p.Result) {
		n.Result = &rdf.QName{Value: "rdf:type"}
	})

	langTag := p.Seq("@", id).Map(func(n *p.Result) { // @en
		n.Result = langSuffix(n.Child[1].Token)
	})
	datatype := p.Seq("^^", p.Any(iri, qname)).Map(func(n *p.Result) { // ^^xsd:date
		switch dt := n.Child[1].Result.(type) {
		case *rdf.IRI:
			n.Result = datatypeSuffix(dt.String())
		case *rdf.QName:
			n.Result = datatypeSuffix(dt.Value)
		}
	})
	literalString := p.Seq(p.StringLit(`"`), p.Maybe(p.Any(datatype, langTag))).
		Map(literalStringResult) // "Bart"^^xsd:string || "maison"@fr
	literalNumber := p.NumberLit().Map(literalNumberResult) // 9 || 3.14159
	literalBool := p.Any("true", "false").Map(func(n *p.Result) {
		n.Result = &rdf.Literal{Value: n.Token, Datatype: "xsd:boolean"}
	})
	literal := p.Any(literalString, literalNumber, literalBool)

	term = p.Any(variable, iri, blank, literal, qname, kwA)

	// a body/head conjunct: subject predicate object. A predicate naming a
	// registered built-in turns the conjunct into a filter atom.
	atom := p.Seq(term, term, term).Map(atomResult)
	atoms := repeatOneOrMore(atom, p.Exact("."))

	rule := p.Seq("{", p.Cut(), atoms, "}", "=>", "{", atoms, "}", ".").
		Map(func(n *p.Result) {
			n.Result = &parsedRule{
				body: atomList(&n.Child[2]),
				head: atomList(&n.Child[6]),
			}
		})
	ruleset = repeatOneOrMore(rule)

	factLine = p.Seq(term, term, term, p.Maybe(term))
}

// langSuffix and datatypeSuffix distinguish the two string literal suffixes in
// the grammar result tree.
type langSuffix string
type datatypeSuffix string

func literalStringResult(n *p.Result) {
	lit := &rdf.Literal{Value: n.Child[0].Token}
	switch suffix := n.Child[1].Result.(type) {
	case langSuffix:
		lit.Language = string(suffix)
	case datatypeSuffix:
		lit.Datatype = string(suffix)
	}
	n.Result = lit
}

func literalNumberResult(n *p.Result) {
	switch v := n.Result.(type) {
	case int64:
		n.Result = &rdf.Literal{
			Value:    strconv.FormatInt(v, 10),
			Datatype: "xsd:integer",
		}
	case float64:
		n.Result = &rdf.Literal{
			Value:    strconv.FormatFloat(v, 'g', -1, 64),
			Datatype: "xsd:double",
		}
	default:
		panic(fmt.Sprintf("unsupported number literal: '%s' %v", n.Token, v))
	}
}

func atomResult(n *p.Result) {
	s := n.Child[0].Result.(rdf.Term)
	pred := n.Child[1].Result.(rdf.Term)
	o := n.Child[2].Result.(rdf.Term)
	if q, ok := pred.(*rdf.QName); ok {
		if builtin, isBuiltin := rules.BuiltinNamed(q.Value); isBuiltin {
			n.Result = rules.Atom(&rules.BuiltinAtom{
				Builtin:  builtin,
				Argument: s,
				Result:   o,
			})
			return
		}
	}
	n.Result = rules.Atom(&rules.PatternAtom{Pattern: rdf.NewPattern(s, pred, o)})
}

func atomList(n *p.Result) []rules.Atom {
	atoms := make([]rules.Atom, len(n.Child))
	for i := range n.Child {
		atoms[i] = n.Child[i].Result.(rules.Atom)
	}
	return atoms
}
