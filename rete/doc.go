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

// Package rete implements an incremental forward-chaining inference engine:
// a RETE-style join network over subject-predicate-object-context facts.
//
// Facts fed into a Network activate every alpha node whose triple pattern
// they match. Each match becomes a token (the fact plus its variable
// bindings) which flows into two-input join nodes. A join node keeps a
// hashed memory per input, keyed by the values of the variables common to
// both sides, and merges consistent tokens into partial instantiations.
// Instantiations reaching a terminal node fire the rule's consequent,
// materializing new facts which are fed back into the network until a
// fixpoint is reached.
//
// The network follows the structure described in Doorenbos' RETE/UL thesis
// (Production Matching for Large Learning Systems, 1995), with memories
// implemented as binding-hashed sets. Left/right unlinking is not
// implemented. There is no retraction or truth maintenance: memories and
// the inferred-fact set grow monotonically.
//
// A Network instance is not safe for concurrent use. Propagation runs on
// the caller's stack; FeedFacts returns only once the fixpoint is reached.
package rete
