package core

// negativeJoinResult records one WME that currently witnesses (and so
// blocks) a token sitting in a NegativeNode's memory. Mirrors py_rete's
// NegativeJoinResult dataclass.
type negativeJoinResult struct {
	owner *Token
	wme   *WME
}

func removeNegJoinResult(list []*negativeJoinResult, target *negativeJoinResult) []*negativeJoinResult {
	out := list[:0]
	for _, jr := range list {
		if jr != target {
			out = append(out, jr)
		}
	}
	return out
}

// negativeNode implements a Not condition: §4.3's "no WME currently
// satisfies the join tests against this token" rule. A token that
// finds zero witnesses at the moment it arrives is propagated to the
// node's children; it is retracted from them (without being forgotten
// by the node itself) the instant a witness appears, and propagated
// again the instant the last witness disappears. This incremental
// behavior, rather than a recomputation on every change, is the
// algorithmic point of a negative node.
type negativeNode struct {
	amem     *AlphaMemory
	tests    []joinTest
	children []leftActivator
	items    []*Token

	// out/refs mirror joinNode's: a Not condition repeated as the
	// same prefix step by two productions shares one negativeNode
	// rather than building a second existence check against the same
	// alpha memory.
	out  *BetaMemory
	refs int
}

func newNegativeNode(amem *AlphaMemory, tests []joinTest) *negativeNode {
	n := &negativeNode{amem: amem, tests: tests, refs: 1}
	amem.addSuccessor(n)
	return n
}

// findSharedNegativeNode looks for an existing negativeNode child of
// parent built from the same alpha memory and join tests.
func findSharedNegativeNode(parent *BetaMemory, amem *AlphaMemory, tests []joinTest) *negativeNode {
	for _, c := range parent.children {
		nn, ok := c.(*negativeNode)
		if !ok {
			continue
		}
		if nn.amem == amem && joinTestsEqual(nn.tests, tests) {
			return nn
		}
	}
	return nil
}

func (n *negativeNode) addChild(c leftActivator) { n.children = append(n.children, c) }

func (n *negativeNode) leftActivate(t *Token) {
	nt := NewToken(t, nil, n, t.Bindings)
	n.items = append(n.items, nt)

	for _, w := range n.amem.wmes {
		if joinTestsPass(n.tests, nt, w) {
			jr := &negativeJoinResult{owner: nt, wme: w}
			nt.joinResults = append(nt.joinResults, jr)
			w.negJoinResults = append(w.negJoinResults, jr)
		}
	}

	if len(nt.joinResults) == 0 {
		n.propagate(nt)
	}
}

func (n *negativeNode) rightActivate(w *WME) {
	for _, t := range n.items {
		if !joinTestsPass(n.tests, t, w) {
			continue
		}
		if len(t.joinResults) == 0 {
			// t was propagated as satisfying the negation; it no
			// longer does, so unwind everything it produced.
			for len(t.Children) > 0 {
				t.Children[0].deleteSelfAndDescendents()
			}
		}
		jr := &negativeJoinResult{owner: t, wme: w}
		t.joinResults = append(t.joinResults, jr)
		w.negJoinResults = append(w.negJoinResults, jr)
	}
}

func (n *negativeNode) rightRemove(w *WME) {
	for _, jr := range w.negJoinResults {
		t := jr.owner
		if t.Node != n {
			continue // witnessed a different negative node's test on the same WME
		}
		t.joinResults = removeNegJoinResult(t.joinResults, jr)
		if len(t.joinResults) == 0 {
			n.propagate(t)
		}
	}
	// Leave w.negJoinResults itself to WME removal cleanup; this node
	// only needed the subset it owns, filtered above.
}

func (n *negativeNode) propagate(t *Token) {
	for _, c := range n.children {
		c.leftActivate(t)
	}
}

func (n *negativeNode) forget(t *Token) {
	n.items = removeToken(n.items, t)
}
