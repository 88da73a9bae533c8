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

// Command fuxi-infer runs a rule set over a fact file to fixpoint and prints
// the inferred facts.
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	docopt "github.com/docopt/docopt-go"
	"github.com/ebay/fuxi/rete"
	"github.com/ebay/fuxi/rules/parser"
	"github.com/ebay/fuxi/util/debuglog"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

const usage = `fuxi-infer is a command-line forward-chaining inference tool.

Usage:
  fuxi-infer [-t=DUR --debug] RULES FACTS

Arguments:
  RULES    File of rules in "{ body } => { head } ." syntax, or - for stdin.
  FACTS    File of facts, one per line as 3 or 4 whitespace-separated terms,
           or - for stdin. Lines starting with # are comments.

Options:
  -t=DUR, --timeout=DUR   Give up if the fixpoint is not reached within this
                          duration; guards against non-terminating rule sets
                          [default: 30s]
  --debug                 Log the network propagation trace.

Examples:
  # Class-membership closure.
  fuxi-infer rdfs.rules facts.nt

  # Rules from a file, facts from stdin.
  fuxi-infer family.rules - <<EOF
  ex:bart ex:childOf ex:homer
  ex:homer ex:childOf ex:abe
EOF
`

type options struct {
	RulesFile string `docopt:"RULES"`
	FactsFile string `docopt:"FACTS"`
	// Timeout is never zero; it's set to 1 hour if the user passes 0s.
	Timeout       time.Duration
	TimeoutString string `docopt:"--timeout"`
	Debug         bool   `docopt:"--debug"`
}

func parseArgs() *options {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing command-line arguments: %v", err)
	}
	var options options
	err = opts.Bind(&options)
	if err != nil {
		log.Fatalf("Error binding command-line arguments: %v\nfrom: %+v", err, opts)
	}
	if options.TimeoutString != "" {
		options.Timeout, err = time.ParseDuration(options.TimeoutString)
		if err != nil {
			log.Fatalf("Unable to parse timeout value: %v", err)
		}
	}
	if options.Timeout == 0 {
		options.Timeout = time.Hour
	}
	return &options
}

func main() {
	debuglog.Configure(debuglog.Options{})
	options := parseArgs()
	if options.Debug {
		log.SetLevel(log.DebugLevel)
	}

	ruleText, err := readInput(options.RulesFile)
	if err != nil {
		log.Fatalf("Error reading rules: %v", err)
	}
	ruleset, err := parser.ParseRules(ruleText)
	if err != nil {
		log.Fatalf("Error parsing rules: %v", err)
	}
	factText, err := readInput(options.FactsFile)
	if err != nil {
		log.Fatalf("Error reading facts: %v", err)
	}
	facts, err := parser.ParseFacts(factText)
	if err != nil {
		log.Fatalf("Error parsing facts: %v", err)
	}

	network := rete.NewNetwork()
	if err := network.CompileAll(ruleset); err != nil {
		log.Fatalf("Error compiling rules: %v", err)
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), options.Timeout)
	defer cancelFunc()

	start := time.Now()
	if err := network.FeedFacts(ctx, facts); err != nil {
		log.Fatalf("Error running inference: %v", err)
	}
	elapsed := time.Since(start)

	inferred := network.InferredFacts()
	for _, fact := range inferred {
		fmt.Println(fact)
	}
	fmtr.Fprintf(os.Stderr, "Inferred %d facts from %d rules and %d input facts in %v\n",
		len(inferred), len(ruleset), len(facts), elapsed.Round(time.Millisecond))
}

// readInput returns the contents of the named file, or of stdin for "-".
func readInput(name string) (string, error) {
	if name == "-" {
		data, err := ioutil.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := ioutil.ReadFile(name)
	return string(data), err
}
