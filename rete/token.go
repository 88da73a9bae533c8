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
	"strings"

	"github.com/ebay/fuxi/rdf"
	"github.com/ebay/fuxi/util/cmp"
)

// A Token is a working memory element matched against one pattern: the ground
// fact plus the binding of the pattern's variables to the fact's terms. The
// same fact matched by two different patterns yields two distinct tokens.
// Tokens are read-only after creation and may be shared between
// instantiations.
type Token struct {
	Fact rdf.Fact
	// Bindings maps the pattern's variable names to the matched fact terms.
	// Callers must not mutate it.
	Bindings rdf.Binding

	key string
}

// NewToken builds a token from a fact and the binding its pattern match
// produced.
func NewToken(fact rdf.Fact, bindings rdf.Binding) *Token {
	if bindings == nil {
		bindings = rdf.Binding{}
	}
	t := &Token{Fact: fact, Bindings: bindings}
	var b strings.Builder
	b.WriteString("t:")
	fact.Key(&b)
	b.WriteByte('|')
	bindings.Key(&b)
	t.key = b.String()
	return t
}

// Key implements cmp.Key. Two tokens are equal iff their facts and bindings
// are equal.
func (t *Token) Key(b *strings.Builder) {
	b.WriteString(t.key)
}

func (t *Token) String() string {
	return fmt.Sprintf("<Token: %v>", t.Bindings)
}

// bindingCombos implements item: a token carries exactly one binding.
func (t *Token) bindingCombos() []rdf.Binding {
	return []rdf.Binding{t.Bindings}
}

// tokens implements item.
func (t *Token) tokens() []*Token {
	return []*Token{t}
}

// An item is what a rete memory stores: a bare token on the right side of a
// join, or a partial instantiation flowing down from the left.
type item interface {
	cmp.Key
	// bindingCombos returns the concrete binding combinations the item
	// carries.
	bindingCombos() []rdf.Binding
	// tokens returns the underlying working memory elements.
	tokens() []*Token
}

var _ = []item{
	new(Token),
	new(Instantiation),
}
