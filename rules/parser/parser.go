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

// Package parser reads the textual rule and fact formats:
//
//	{ ?C rdfs:subClassOf ?SC . ?M a ?C } => { ?M a ?SC } .
//
// for rules, and lines of 3 or 4 whitespace-separated ground terms for
// facts. Lines starting with '#' are comments in the fact format.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/rules"
	"github.com/vektah/goparsify"
)

// ParseRules parses a sequence of rules, validating each.
func ParseRules(in string) (rules.Ruleset, error) {
	p := &parser{in: in}
	return p.parseRules()
}

// ParseFacts parses fact lines into ground facts.
func ParseFacts(in string) ([]rdf.Fact, error) {
	var facts []rdf.Fact
	for i, line := range strings.Split(in, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p := &parser{in: line}
		fact, err := p.parseFactLine()
		if err != nil {
			return nil, fmt.Errorf("parser: line %d: %w", i+1, err)
		}
		if !fact.Ground() {
			return nil, fmt.Errorf("parser: line %d: fact is not ground: %v", i+1, fact)
		}
		facts = append(facts, fact)
	}
	return facts, nil
}

// ParseTerm parses a single term.
func ParseTerm(in string) (rdf.Term, error) {
	p := &parser{in: in}
	return p.parseTerm()
}

// parser implementation
type parser struct {
	in string
}

// parse runs one of the root parsers over the input. If the input cannot be
// fully consumed a ParseError is returned that includes the position it
// parsed to and what the problem is.
func (p *parser) parse(typ string, parser goparsify.Parser) (*goparsify.Result, error) {
	// parse the input; see lang_def.go for the combinator semantics
	state := goparsify.NewState(p.in)
	state.WS = goparsify.UnicodeWhitespace
	// consume head whitespace
	state.WS(state)

	result := &goparsify.Result{}
	parser(state, result)
	if state.Errored() {
		line, col := coordinates(p.in, state.Error.Pos())
		return nil, &ParseError{
			ParseType: typ,
			Input:     p.in,
			Offset:    state.Error.Pos(),
			Line:      line,
			Column:    col,
			Details:   "expected " + expectedText(&state.Error),
		}
	}
	// consume tail whitespace and check for unparsed text
	state.WS(state)
	unparsed := state.Get()
	if unparsed != "" {
		line, col := coordinates(p.in, state.Pos)
		return nil, &ParseError{
			ParseType: typ,
			Input:     p.in,
			Offset:    state.Pos,
			Line:      line,
			Column:    col,
			Details: fmt.Sprintf("unparsed text: '%s'",
				strings.TrimRightFunc(unparsed, unicode.IsSpace)),
		}
	}
	return result, nil
}

func (p *parser) parseRules() (rules.Ruleset, error) {
	result, err := p.parse("rules", ruleset)
	if err != nil {
		return nil, err
	}
	rs := make(rules.Ruleset, 0, len(result.Child))
	for _, child := range result.Child {
		parsed, ok := child.Result.(*parsedRule)
		if !ok {
			return nil, fmt.Errorf("invalid result type: %T", child.Result)
		}
		rule, err := buildRule(parsed)
		if err != nil {
			return nil, err
		}
		rs = append(rs, rule)
	}
	return rs, nil
}

func (p *parser) parseFactLine() (rdf.Fact, error) {
	result, err := p.parse("fact", factLine)
	if err != nil {
		return rdf.Fact{}, err
	}
	fact := rdf.Fact{
		Subject:   result.Child[0].Result.(rdf.Term),
		Predicate: result.Child[1].Result.(rdf.Term),
		Object:    result.Child[2].Result.(rdf.Term),
	}
	if ctx, ok := result.Child[3].Result.(rdf.Term); ok {
		fact.Context = ctx
	}
	return fact, nil
}

func (p *parser) parseTerm() (rdf.Term, error) {
	result, err := p.parse("term", term)
	if err != nil {
		return nil, err
	}
	t, ok := result.Result.(rdf.Term)
	if !ok {
		return nil, fmt.Errorf("invalid result type: %T", result.Result)
	}
	return t, nil
}

// buildRule converts the raw grammar production to a validated rule. The head
// may only contain pattern atoms.
func buildRule(parsed *parsedRule) (*rules.Rule, error) {
	rule := &rules.Rule{Body: parsed.body}
	for _, atom := range parsed.head {
		pattern, ok := atom.(*rules.PatternAtom)
		if !ok {
			return nil, fmt.Errorf("parser: built-in %v not allowed in rule head", atom)
		}
		rule.Head = append(rule.Head, pattern.Pattern)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// ParseError captures detailed information about a parsing error and where it
// occurred.
type ParseError struct {
	// rules, fact, term.
	ParseType string
	// The input string to the parser which resulted in this error.
	Input string
	// Offset is the byte offset into 'Input' at which the error occurred.
	Offset int
	// Line is the line number in 'Input' at which the error occurred.
	Line int
	// Column is the column (in runes) into the indicated Line that the error
	// occurred. Line & Column represent the same point in 'Input' as 'Offset'.
	Column int
	// The specific parser error that occurred.
	Details string
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("unable to parse %s: line %d column %d: %s",
		p.ParseType, p.Line, p.Column, p.Details)
}

// coordinates returns the line & column of the supplied offset in the string
// 'input'. Offset is in bytes, the returned column value is in runes.
func coordinates(input string, atOffset int) (line, col int) {
	// Trim any trailing whitespace from the input, as most people wouldn't
	// consider it an expected place for an error.
	input = strings.TrimRightFunc(input, unicode.IsSpace)
	if atOffset > len(input) {
		atOffset = len(input)
	}
	lines := strings.Split(input, "\n")
	current := 0
	line = 1
	for _, l := range lines {
		if current+len(l) >= atOffset {
			// offset is in bytes, but the reported column is in runes.
			col = utf8.RuneCountInString(l[:atOffset-current]) + 1
			return line, col
		}
		line++
		current += len(l) + 1 // remember to consume the \n
	}
	return line, 1
}

// expectedText extracts from the supplied goparsify Error the expected text,
// i.e. the error from an unmatched parser. This relies on the format of the
// error message generated by goparsify.
func expectedText(e *goparsify.Error) string {
	msg := e.Error()
	expectedIdx := strings.Index(msg, "expected")
	if expectedIdx == -1 {
		return msg
	}
	return msg[expectedIdx+len("expected")+1:]
}

// repeatOneOrMore matches one or more parsers and returns the values as
// .Child[n]. An optional separator can be provided; its value is consumed but
// not returned.
func repeatOneOrMore(p goparsify.Parserish, sep ...goparsify.Parserish) goparsify.Parser {
	return goparsify.Many(p, sep...)
}
