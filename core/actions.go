package core

import (
	"context"
	"errors"
	"fmt"
)

// InterpreterNotFound is returned by ActionSource.Compile when its
// named interpreter is absent from the given (or default) registry.
var InterpreterNotFound = errors.New("interpreter not found")

// DefaultInterpreters is used by ActionSource.Compile when given a nil
// interpreters map; production code normally passes an explicit map
// (see crew.Registry), and this exists mainly for quick examples and
// tests.
var DefaultInterpreters = make(map[string]Interpreter)

// Interpreter compiles and executes the scripted code behind a Test,
// Bind, or production action. A production rule's left-hand side and
// right-hand side name an interpreter by a short string key ("native",
// "ecmascript", …, resolved against a map[string]Interpreter); the
// engine is otherwise indifferent to which language, if any, the code
// is written in. Compile is called once, at production-compile time;
// Exec is called once per evaluation of the Test/Bind/action at match
// or fire time.
type Interpreter interface {
	// Compile turns source code into whatever representation Exec
	// wants to run repeatedly (an AST, a *goja.Program, or just the
	// source unchanged for an interpreter with no separate compile
	// step).
	Compile(ctx context.Context, code interface{}) (compiled interface{}, err error)

	// Exec evaluates the compiled code against the current binding
	// environment. Its return Value is interpreted according to the
	// calling condition: a Test treats it as truthy/falsy, a Bind
	// takes it as the value to bind, and an action treats a
	// map[string]interface{} result as bindings to merge (any other
	// result, including nil, leaves the bindings unchanged).
	Exec(ctx context.Context, bs Bindings, code interface{}, compiled interface{}) (Value, error)
}

// ActionSource names an interpreter and the source code to run under
// it. It is the serializable, pre-compile representation carried by
// Test, Bind, and production definitions.
type ActionSource struct {
	Interpreter string      `json:"interpreter" yaml:"interpreter"`
	Source      interface{} `json:"source" yaml:"source"`
}

// Copy makes a shallow copy.
func (a *ActionSource) Copy() *ActionSource {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// Compile resolves a's interpreter from interpreters (DefaultInterpreters
// if nil) and compiles its source, returning a CompiledCode ready to be
// evaluated repeatedly.
func (a *ActionSource) Compile(ctx context.Context, interpreters map[string]Interpreter) (*CompiledCode, error) {
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}
	interp, have := interpreters[a.Interpreter]
	if !have {
		return nil, fmt.Errorf("%w: %q", InterpreterNotFound, a.Interpreter)
	}
	compiled, err := interp.Compile(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	return &CompiledCode{interp: interp, source: a.Source, compiled: compiled}, nil
}

// CompiledCode is the result of compiling an ActionSource: the
// interpreter it runs under, paired with the compiled form of its
// source. A Test, Bind, or production action holds one of these once
// the production has been compiled into the network.
type CompiledCode struct {
	interp   Interpreter
	source   interface{}
	compiled interface{}
}

// Eval runs the compiled code against bs, returning whatever the
// interpreter produced.
func (c *CompiledCode) Eval(ctx context.Context, bs Bindings) (Value, error) {
	return c.interp.Exec(ctx, bs, c.source, c.compiled)
}

// EvalTest runs the compiled code as a boolean side condition. A nil,
// false, or zero/empty result is falsy; anything else is truthy. An
// error from the interpreter is wrapped in TestRaised by the caller.
func (c *CompiledCode) EvalTest(ctx context.Context, bs Bindings) (bool, error) {
	v, err := c.Eval(ctx, bs)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// EvalBind runs the compiled code and returns the Value to bind.
func (c *CompiledCode) EvalBind(ctx context.Context, bs Bindings) (Value, error) {
	return c.Eval(ctx, bs)
}

// EvalAction runs the compiled code as a production's right-hand side.
// A result that is a map[string]interface{} is treated as additional
// bindings to merge into the fired match's environment (used by the
// scripted interpreters to let action code compute derived values);
// a nil or non-map result means the action performed whatever
// externally visible work it wanted via closure capture (the usual
// case for a native Go Action) and has nothing to merge back.
func (c *CompiledCode) EvalAction(ctx context.Context, bs Bindings) (Bindings, error) {
	v, err := c.Eval(ctx, bs)
	if err != nil {
		return nil, err
	}
	m, is := v.(map[string]interface{})
	if !is {
		return nil, nil
	}
	return Bindings(m), nil
}

func truthy(v Value) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case float64:
		return vv != 0
	case int:
		return vv != 0
	case []interface{}:
		return len(vv) > 0
	case map[string]interface{}:
		return len(vv) > 0
	default:
		return true
	}
}

// Action is a production's compiled right-hand side. NativeAction
// wraps a Go closure directly (see interpreters/native); ScriptAction
// wraps a CompiledCode produced by a scripted Interpreter such as
// interpreters/goja.
type Action interface {
	Exec(ctx context.Context, bs Bindings) (Bindings, error)
}

// NativeAction is the simplest Action: a Go function called directly,
// with no interpreter indirection. Engine.AddProduction accepts one
// wherever a production's action is defined in Go rather than in a
// scripted ActionSource.
type NativeAction func(ctx context.Context, bs Bindings) (Bindings, error)

func (f NativeAction) Exec(ctx context.Context, bs Bindings) (Bindings, error) {
	return f(ctx, bs)
}

// ScriptAction adapts a CompiledCode to Action.
type ScriptAction struct {
	Code *CompiledCode
}

func (a ScriptAction) Exec(ctx context.Context, bs Bindings) (Bindings, error) {
	return a.Code.EvalAction(ctx, bs)
}
