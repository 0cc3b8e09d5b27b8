package core

// joinTest is one consistency test a JoinNode (or negativeNode, or
// NccPartnerNode) applies between a left token's existing bindings and
// a candidate right-hand WME: the WME's value at path must equal
// whatever the token has already bound for variable.
type joinTest struct {
	variable string   // variable name (with its "?"/"?$" prefix), already bound on the left
	path     []string // attribute path (full PathSegments) to read on the right-hand WME
	factId   bool     // if true, compare against w.FactId rather than a value read via path
}

func joinTestsPass(tests []joinTest, t *Token, w *WME) bool {
	for _, jt := range tests {
		bound, have := t.Bindings[jt.variable]
		if !have {
			continue // first binding occurrence; nothing to check yet
		}
		var v Value
		var ok bool
		if jt.factId {
			v, ok = w.FactId, true
		} else {
			v, ok = lookupWMEPath(w, jt.path)
		}
		if !ok || !ValuesEqual(bound, v) {
			return false
		}
	}
	return true
}

func lookupWMEPath(w *WME, path []string) (Value, bool) {
	if len(path) == 0 {
		return nil, false
	}
	if w.Attr != path[0] {
		return nil, false
	}
	if len(path) == 1 {
		return w.Value, true
	}
	return LookupPath(w.Value, path[1:])
}

// joinNode implements a positive Pattern condition: it pairs every
// token in its parent's memory with every WME in its alpha memory that
// passes the join tests, extends the bindings with whatever new
// variables the pattern introduces, and left-activates its children
// with the result. A joinNode is both a tokenMemory consumer (it reads
// its parent's accumulated tokens on right-activation) and itself owns
// no memory of its own tokens; BetaMemory nodes inserted between join
// levels hold that.
type joinNode struct {
	parent   tokenMemory
	amem     *AlphaMemory
	tests    []joinTest
	bind     patternBinder
	children []leftActivator

	// out is the single BetaMemory this node feeds; refs counts how
	// many compiled productions currently share this node (§4.3's
	// node-sharing rule — two productions whose condition sequences
	// agree on a prefix reuse the same join node rather than building
	// a parallel one), so NetworkBuilder knows when the last one has
	// let go and the node can actually be torn down.
	out  *BetaMemory
	refs int
}

// patternBinder derives the binding additions a Pattern contributes
// once a candidate WME has passed every join test, and reports whether
// the WME is acceptable (a Pattern can still reject a WME here, when
// the path of the field that binds a variable does not resolve on it).
type patternBinder interface {
	bind(existing Bindings, w *WME) (Bindings, bool)
}

func newJoinNode(parent tokenMemory, amem *AlphaMemory, tests []joinTest, bind patternBinder) *joinNode {
	n := &joinNode{parent: parent, amem: amem, tests: tests, bind: bind, refs: 1}
	amem.addSuccessor(n)
	return n
}

// joinTestsEqual reports whether two join-test sets require exactly
// the same consistency checks, in the same order — the order always
// matches since both sides are derived deterministically from the
// same field sequence when two productions share a condition prefix.
func joinTestsEqual(a, b []joinTest) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !joinTestEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// joinTestEqual compares two joinTests field by field: joinTest embeds
// a []string path, so the struct itself is not comparable with ==.
func joinTestEqual(a, b joinTest) bool {
	if a.variable != b.variable || a.factId != b.factId {
		return false
	}
	if len(a.path) != len(b.path) {
		return false
	}
	for i := range a.path {
		if a.path[i] != b.path[i] {
			return false
		}
	}
	return true
}

// fieldBindersEqual reports whether two patternBinders would derive
// identical bindings from identical WMEs — i.e. whether the join
// nodes they'd each be attached to are candidates for sharing. Only
// *fieldBinder is ever built by the compiler, so anything else never
// matches (there is nothing else to share it with).
func fieldBindersEqual(a, b patternBinder) bool {
	fa, ok := a.(*fieldBinder)
	if !ok {
		return false
	}
	fb, ok := b.(*fieldBinder)
	if !ok {
		return false
	}
	if fa.attr != fb.attr || fa.bindVar != fb.bindVar || fa.bindFact != fb.bindFact {
		return false
	}
	if len(fa.path) != len(fb.path) {
		return false
	}
	for i := range fa.path {
		if fa.path[i] != fb.path[i] {
			return false
		}
	}
	return true
}

// findSharedJoinNode looks for an existing child of parent that a new
// pattern field with these exact (alpha memory, join tests, binder)
// requirements could reuse instead of building a parallel one.
func findSharedJoinNode(parent *BetaMemory, amem *AlphaMemory, tests []joinTest, bind patternBinder) *joinNode {
	for _, c := range parent.children {
		jn, ok := c.(*joinNode)
		if !ok {
			continue
		}
		if jn.amem == amem && joinTestsEqual(jn.tests, tests) && fieldBindersEqual(jn.bind, bind) {
			return jn
		}
	}
	return nil
}

func (n *joinNode) addChild(c leftActivator) { n.children = append(n.children, c) }

// leftActivate is driven by the parent memory when a new token arrives
// there; pair it against every WME currently in the alpha memory.
func (n *joinNode) leftActivate(t *Token) {
	for _, w := range n.amem.wmes {
		n.tryJoin(t, w)
	}
}

// rightActivate is driven by the alpha memory when a new WME arrives
// there; pair it against every token currently in the parent memory.
func (n *joinNode) rightActivate(w *WME) {
	for _, t := range n.parent.allTokens() {
		n.tryJoin(t, w)
	}
}

func (n *joinNode) rightRemove(w *WME) {
	// Every token this WME helped build is linked from w.tokens;
	// deleting them here keeps each join node's output consistent
	// the instant its right input disappears.
	for len(w.tokens) > 0 {
		w.tokens[0].deleteSelfAndDescendents()
	}
}

func (n *joinNode) tryJoin(t *Token, w *WME) {
	if !joinTestsPass(n.tests, t, w) {
		return
	}
	bindings, ok := n.bind.bind(t.Bindings, w)
	if !ok {
		return
	}
	nt := NewToken(t, w, n, bindings)
	for _, c := range n.children {
		c.leftActivate(nt)
	}
}

func (n *joinNode) forget(*Token) {
	// A joinNode keeps no memory of its own; the BetaMemory below it
	// (out) stores its own child of each token and drops that child
	// when it is deleted.
}
