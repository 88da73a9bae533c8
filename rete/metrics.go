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
	"github.com/prometheus/client_golang/prometheus"

	metricsutil "github.com/ebay/fuxi/util/metrics"
)

// reteMetrics are instrumentation points on the inference network. They are
// package-global: Prometheus metrics register once per process, and every
// Network instance shares them.
type reteMetrics struct {
	factsFed         prometheus.Counter
	alphaActivations prometheus.Counter
	instantiations   prometheus.Counter
	joins            prometheus.Counter
	consequentsFired prometheus.Counter
	factsInferred    prometheus.Counter
}

var metrics reteMetrics

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}

	metrics = reteMetrics{
		factsFed: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "facts_fed_total",
			Help:      "Number of facts asserted into the working memory.",
		}),
		alphaActivations: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "alpha_activations_total",
			Help:      "Number of fact/pattern matches produced by alpha nodes.",
		}),
		instantiations: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "instantiations_total",
			Help:      "Number of partial instantiations emitted by join nodes.",
		}),
		joins: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "joins_total",
			Help:      "Number of successful merges between join node memories.",
		}),
		consequentsFired: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "consequents_fired_total",
			Help:      "Number of rule firings at terminal nodes.",
		}),
		factsInferred: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "fuxi",
			Subsystem: "rete",
			Name:      "facts_inferred_total",
			Help:      "Number of distinct new facts materialized by rule firings.",
		}),
	}
}
