package core

import "context"

// errSink receives errors raised by scripted Test/Bind/action code
// during network propagation, which has no other channel back to the
// Engine call (AddFact, UpdateFact, AddProduction) that triggered it.
type errSink interface {
	raise(err error)
}

// testNode implements a Test condition (§4.5): a token passes through
// unchanged if evaluating the compiled code against its bindings is
// truthy, and is dropped otherwise. By default a raised error is
// treated the same as a falsy result, so authoring a test stays
// forgiving; setting strict makes it report the error to sink as
// TestRaised instead (§7's EngineOptions.StrictTests).
type testNode struct {
	production string
	code       *CompiledCode
	children   []leftActivator
	sink       errSink
	strict     bool
}

func (n *testNode) addChild(c leftActivator) { n.children = append(n.children, c) }

func (n *testNode) leftActivate(t *Token) {
	ok, err := n.code.EvalTest(context.Background(), t.Bindings)
	if err != nil {
		if n.strict {
			n.sink.raise(TestRaised{Production: n.production, Err: err})
		}
		return
	}
	if !ok {
		return
	}
	nt := NewToken(t, nil, n, t.Bindings)
	for _, c := range n.children {
		c.leftActivate(nt)
	}
}

func (n *testNode) forget(*Token) {}
