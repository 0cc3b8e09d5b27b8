package native

import (
	"context"
	"testing"

	"github.com/slott56/go-rete/core"
)

func TestExecCallsTheGivenFunc(t *testing.T) {
	i := NewInterpreter()

	var f Func = func(ctx context.Context, bs core.Bindings) (core.Value, error) {
		return bs["?x"], nil
	}

	compiled, err := i.Compile(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(context.Background(), core.Bindings{"?x": 42.0}, f, compiled)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42.0 {
		t.Fatalf("got %v, want 42.0", v)
	}
}

func TestCompileRejectsNonFunc(t *testing.T) {
	i := NewInterpreter()
	if _, err := i.Compile(context.Background(), "not a func"); err == nil {
		t.Fatal("expected an error compiling a non-Func source")
	}
}
