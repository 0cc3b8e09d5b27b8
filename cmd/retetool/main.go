/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a little command-line utility for poking at a
// compiled production network, independent of any application that
// would otherwise host one.
//
//	retetool compile trafficlight
//	retetool dump rockpaperscissors
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/slott56/go-rete/core"

	"github.com/jsccast/yaml"
)

// examples is the fixed registry retetool draws named production sets
// from. A production set is ordinary Go-constructed data (§6A), not a
// bespoke text grammar, so there is nothing on disk for retetool to
// read; it works against whichever named example (or, eventually,
// whichever set an embedding application registers) the caller asks
// for by name.
var examples = map[string]func() (*core.ProductionSet, error){
	"trafficlight":      core.TrafficLightProductionSet,
	"rockpaperscissors": core.RockPaperScissorsProductionSet,
}

func main() {
	if len(os.Args) < 3 {
		Usage()
		os.Exit(1)
	}

	name := os.Args[2]
	build, have := examples[name]
	if !have {
		fmt.Fprintf(os.Stderr, "unknown production set %q\n", name)
		Usage()
		os.Exit(1)
	}

	ps, err := build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	e := core.NewEngine(core.DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "compile error in %q: %v\n", p.Name, err)
			os.Exit(1)
		}
	}

	switch os.Args[1] {
	case "compile":
		stats := e.Stats()
		bs, err := yaml.Marshal(&stats)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: compiled cleanly\n%s\n", name, bs)

	case "dump":
		topo := e.Topology()
		bs, err := yaml.Marshal(topo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s\n", bs)

	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		Usage()
		os.Exit(1)
	}
}

func Usage() {
	fmt.Printf("Usage: retetool (compile|dump) <production-set>\n\n")
	fmt.Printf("Known production sets:\n")
	for name := range examples {
		fmt.Printf("  %s\n", name)
	}
}
