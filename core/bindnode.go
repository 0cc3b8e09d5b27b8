package core

import "context"

// bindNode implements a Bind condition (§4.5): it evaluates its
// compiled code against the arriving token's bindings and extends
// them with the result under Variable. Grounded on py_rete's
// bind_node.py, which plays the identical role of introducing a
// computed (rather than matched) binding partway down a beta chain.
type bindNode struct {
	production string
	variable   string
	code       *CompiledCode
	children   []leftActivator
	sink       errSink
}

func (n *bindNode) addChild(c leftActivator) { n.children = append(n.children, c) }

func (n *bindNode) leftActivate(t *Token) {
	v, err := n.code.EvalBind(context.Background(), t.Bindings)
	if err != nil {
		n.sink.raise(TestRaised{Production: n.production, Err: err})
		return
	}
	nt := NewToken(t, nil, n, t.Bindings.Copy().Extend(n.variable, v))
	for _, c := range n.children {
		c.leftActivate(nt)
	}
}

func (n *bindNode) forget(*Token) {}
