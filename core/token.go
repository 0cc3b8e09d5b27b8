package core

// Token is a partial (or, at a terminal, complete) match: the ordered
// tuple of WMEs bound by the positive conditions seen so far, plus the
// derived binding environment those WMEs (and any BIND conditions)
// produced. The shape — parent pointer, owning node, per-level WME,
// child list — is taken directly from py_rete's Token (common.py),
// which is this specification's algorithmic source.
type Token struct {
	Parent   *Token
	Wme      *WME // nil for tokens produced by non-join levels (beta memory/test/bind/negative/ncc/terminal)
	Node     betaNode
	Bindings Bindings
	Children []*Token

	// joinResults holds, for a token sitting in a NegativeNode's
	// memory, every WME currently witnessing (falsifying) it.
	// Mirrors py_rete's Token.join_results.
	joinResults []*negativeJoinResult

	// nccResults holds, for a token owned by an NccNode, every
	// subnetwork match token that currently extends it. Mirrors
	// py_rete's Token.ncc_results.
	nccResults []*Token

	// owner is set on tokens living in an NccPartnerNode's private
	// subnetwork memory: it points back at the parent-network token
	// this subnetwork match extends. Mirrors py_rete's Token.owner.
	owner *Token
}

// NewToken builds a token extending parent with wme (which may be nil)
// at node, deriving its bindings, and links the parent/child and
// WME/token back-pointers.
func NewToken(parent *Token, wme *WME, node betaNode, bindings Bindings) *Token {
	t := &Token{
		Parent:   parent,
		Wme:      wme,
		Node:     node,
		Bindings: bindings,
	}
	if parent != nil {
		parent.Children = append(parent.Children, t)
		t.owner = parent.owner
	}
	if wme != nil {
		wme.tokens = append(wme.tokens, t)
	}
	return t
}

// IsRoot reports whether t is the network's single dummy-top token.
func (t *Token) IsRoot() bool {
	return t.Parent == nil && t.Wme == nil
}

// WMEs returns, oldest first, every WME this token accumulated walking
// up to (but not including) the root.
func (t *Token) WMEs() []*WME {
	var out []*WME
	for cur := t; cur != nil && !cur.IsRoot(); cur = cur.Parent {
		if cur.Wme != nil {
			out = append([]*WME{cur.Wme}, out...)
		}
	}
	return out
}

// deleteSelfAndDescendents removes t, recursively removing every
// descendent first, unlinking all back-pointers (parent/children,
// WME/tokens, negative witnesses, NCC results) along the way. Mirrors
// py_rete's Token.delete_token_and_descendents, generalized to our
// tagged-variant betaNode interface via node.forget(t).
func (t *Token) deleteSelfAndDescendents() {
	for len(t.Children) > 0 {
		t.Children[0].deleteSelfAndDescendents()
	}

	if t.Node != nil {
		t.Node.forget(t)
	}

	if t.Wme != nil {
		t.Wme.tokens = removeToken(t.Wme.tokens, t)
	}
	if t.Parent != nil {
		t.Parent.Children = removeToken(t.Parent.Children, t)
	}

	for _, jr := range t.joinResults {
		jr.wme.negJoinResults = removeNegJoinResult(jr.wme.negJoinResults, jr)
	}
}

func removeToken(ts []*Token, target *Token) []*Token {
	out := ts[:0]
	for _, t := range ts {
		if t != target {
			out = append(out, t)
		}
	}
	return out
}
