// Package interpreters assembles the standard set of core.Interpreter
// backends a caller wires into core.EngineOptions.Interpreters.
package interpreters

import (
	"github.com/slott56/go-rete/core"
	"github.com/slott56/go-rete/interpreters/goja"
	"github.com/slott56/go-rete/interpreters/native"
)

// Standard returns a fresh map registering every backend this repo
// ships: "native" for Go-closure Tests/Binds/actions, and "goja" for
// ECMAScript-sourced ones.
func Standard() map[string]core.Interpreter {
	is := make(map[string]core.Interpreter, 2)
	is["native"] = native.NewInterpreter()
	is["goja"] = goja.NewInterpreter()
	return is
}
