package core

import (
	"fmt"
	"sort"
)

// alphaTestKind distinguishes the three shapes of constant test an
// AlphaNode can apply to a WME, per §4.2.
type alphaTestKind int

const (
	attrEqual alphaTestKind = iota
	valueEqual
	pathEqual
)

// alphaTest is one constant test: "attribute == a", "value == v", or
// (for a path-expression attribute) "the value reached by indexing
// path into this WME's value == v".
type alphaTest struct {
	kind  alphaTestKind
	attr  string   // attribute this test applies to (the path's first segment)
	path  []string // remaining path segments, for pathEqual
	value Value
}

func (t alphaTest) matches(w *WME) bool {
	switch t.kind {
	case attrEqual:
		return w.Attr == t.attr
	case valueEqual:
		return w.Attr == t.attr && ValuesEqual(w.Value, t.value)
	case pathEqual:
		if w.Attr != t.attr {
			return false
		}
		v, ok := LookupPath(w.Value, t.path)
		return ok && ValuesEqual(v, t.value)
	}
	return false
}

// key canonicalizes a test for node-sharing lookups: two tests that
// would accept exactly the same WMEs must produce equal keys.
func (t alphaTest) key() string {
	switch t.kind {
	case attrEqual:
		return "a:" + t.attr
	case valueEqual:
		return "v:" + t.attr + "=" + canonString(t.value)
	case pathEqual:
		return "p:" + JoinPath(append([]string{t.attr}, t.path...)) + "=" + canonString(t.value)
	}
	return ""
}

// canonString renders a constant test's value as a string suitable for
// use in a node-sharing key: equal (per ValuesEqual) values must
// render identically. Mappings sort their keys first so that field
// order in source YAML/JSON never affects sharing.
func canonString(v Value) string {
	switch vv := fudge(v).(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := "{"
		for _, k := range keys {
			s += k + ":" + canonString(vv[k]) + ","
		}
		return s + "}"
	case []interface{}:
		s := "["
		for _, x := range vv {
			s += canonString(x) + ","
		}
		return s + "]"
	default:
		return fmt.Sprintf("%T:%v", vv, vv)
	}
}

// AlphaNode is one node of the discrimination tree: a single constant
// test plus the children reached after it passes. A node that is the
// terminal of at least one compiled pattern owns an AlphaMemory.
type AlphaNode struct {
	test     alphaTest
	parent   *AlphaNode
	children map[string]*AlphaNode
	memory   *AlphaMemory
}

// AlphaMemory holds the current set of WMEs satisfying the conjunction
// of tests from the alpha network's root down to its owning AlphaNode,
// and the beta-network receivers that should be right-activated when
// the memory's contents change.
type AlphaMemory struct {
	node       *AlphaNode
	wmes       map[wmeKey]*WME
	successors []rightInputReceiver
	refs       int // number of compiled patterns still using this memory
}

type wmeKey struct {
	FactId int64
	Attr   string
}

// rightInputReceiver is implemented by every beta node that sits to
// the right of an AlphaMemory (currently only *joinNode and
// *negativeNode).
type rightInputReceiver interface {
	rightActivate(w *WME)
	rightRemove(w *WME)
}

// AlphaNetwork is the root of the discrimination tree.
type AlphaNetwork struct {
	root *AlphaNode
}

// NewAlphaNetwork makes an empty alpha network: a root node whose test
// always matches (so any WME descends into it).
func NewAlphaNetwork() *AlphaNetwork {
	return &AlphaNetwork{root: &AlphaNode{children: make(map[string]*AlphaNode)}}
}

// buildMemory walks from the root, reusing existing nodes whose test
// already matches the next required test, creating new nodes only
// where the required tests diverge from the existing tree (§4.2's
// sharing rule). tests must already be in canonical order (see
// canonicalAlphaTests) so that two patterns requiring the same test
// set build (or find) the same path regardless of source order.
func (an *AlphaNetwork) buildMemory(tests []alphaTest) *AlphaMemory {
	node := an.root
	for _, t := range tests {
		k := t.key()
		child, have := node.children[k]
		if !have {
			child = &AlphaNode{test: t, parent: node, children: make(map[string]*AlphaNode)}
			node.children[k] = child
		}
		node = child
	}
	if node.memory == nil {
		node.memory = &AlphaMemory{node: node, wmes: make(map[wmeKey]*WME)}
	}
	node.memory.refs++
	return node.memory
}

// releaseMemory drops one reference to mem; when no compiled pattern
// uses it any more, it (and any now-unused ancestor nodes) is removed
// from the tree.
func (an *AlphaNetwork) releaseMemory(mem *AlphaMemory) {
	mem.refs--
	if mem.refs > 0 {
		return
	}
	node := mem.node
	node.memory = nil
	for node != nil && node.parent != nil && len(node.children) == 0 && node.memory == nil {
		parent := node.parent
		delete(parent.children, node.test.key())
		node = parent
	}
}

// activate propagates an inserted WME top-down through the
// discrimination tree, depth-first, matching every child whose test
// the WME satisfies, and right-activates every alpha memory reached.
func (an *AlphaNetwork) activate(w *WME) {
	an.activateNode(an.root, w)
}

func (an *AlphaNetwork) activateNode(node *AlphaNode, w *WME) {
	for _, child := range node.children {
		if child.test.matches(w) {
			an.activateNode(child, w)
		}
	}
	if node.memory != nil {
		node.memory.activate(w)
	}
}

func (am *AlphaMemory) activate(w *WME) {
	k := wmeKey{w.FactId, w.Attr}
	am.wmes[k] = w
	w.amems = append(w.amems, am)
	for _, s := range am.successors {
		s.rightActivate(w)
	}
}

// deactivate propagates a removed WME symmetrically to activate,
// removing it from every alpha memory that held it and issuing a
// right removal to each memory's successors.
func (an *AlphaNetwork) deactivate(w *WME) {
	for _, am := range w.amems {
		am.deactivate(w)
	}
}

func (am *AlphaMemory) deactivate(w *WME) {
	k := wmeKey{w.FactId, w.Attr}
	delete(am.wmes, k)
	for _, s := range am.successors {
		s.rightRemove(w)
	}
}

// addSuccessor registers r to be right-activated/removed for every
// WME later added to, or removed from, am. WMEs already present are
// not replayed to r; a newly built node is brought up to date by the
// left-activation bootstrap in Network.Compile instead.
func (am *AlphaMemory) addSuccessor(r rightInputReceiver) {
	am.successors = append(am.successors, r)
}

func (am *AlphaMemory) removeSuccessor(r rightInputReceiver) {
	out := am.successors[:0]
	for _, s := range am.successors {
		if s != r {
			out = append(out, s)
		}
	}
	am.successors = out
}

// canonicalAlphaTests sorts a pattern's constant tests into a
// deterministic order so that two patterns with the same test set,
// written in a different order, share the same alpha path.
func canonicalAlphaTests(tests []alphaTest) []alphaTest {
	out := make([]alphaTest, len(tests))
	copy(out, tests)
	sort.Slice(out, func(i, j int) bool { return out[i].key() < out[j].key() })
	return out
}
