// Package native implements core.Interpreter for native Go code: its
// "source" is a Go function value, and "compiling" it is a type
// assertion rather than any real translation.
//
// This plays the role the teacher's interpreters/noop package played
// for the state-machine engine (a trivial interpreter registered so
// that at least one backend always works without external
// dependencies), but unlike noop it actually executes the given code
// rather than discarding it: a production's Test, Bind, or action can
// be written directly in Go and still flow through the same
// ActionSource/Interpreter plumbing as a scripted one.
package native

import (
	"context"
	"fmt"

	"github.com/slott56/go-rete/core"
)

// Func is the native code form an ActionSource.Source holds when its
// Interpreter is "native": a plain Go function from the current
// bindings to whatever EvalTest/EvalBind/EvalAction expects back.
type Func func(ctx context.Context, bs core.Bindings) (core.Value, error)

// Interpreter implements core.Interpreter by type-asserting the given
// source to Func and calling it directly; there is no separate
// compiled representation.
type Interpreter struct{}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Compile checks that code is a Func (or a *Func) and returns it
// unchanged; a native interpreter has nothing to compile.
func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	switch code.(type) {
	case Func, *Func:
		return code, nil
	default:
		return nil, fmt.Errorf("native: source is a %T, not a native.Func", code)
	}
}

// Exec calls the compiled Func with bs.
func (i *Interpreter) Exec(ctx context.Context, bs core.Bindings, code interface{}, compiled interface{}) (core.Value, error) {
	switch f := compiled.(type) {
	case Func:
		return f(ctx, bs)
	case *Func:
		return (*f)(ctx, bs)
	default:
		return nil, fmt.Errorf("native: compiled is a %T, not a native.Func", compiled)
	}
}
