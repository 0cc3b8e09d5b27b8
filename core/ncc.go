package core

// nccNode implements a negated conjunctive condition (§4.3's NCC): it
// holds when its private subnetwork — compiled from the conjunction
// inside the Not — has no matching extension of the token arriving
// from the main network. The subnetwork is fed a copy of every token
// this node receives; its results are reported back through
// nccPartnerNode, which is the subnetwork's sole terminal.
//
// This two-node split (rather than a single node watching its own
// subnetwork) is the standard Rete NCC construction; it lets the
// subnetwork share ordinary join/negative/bind nodes; only the
// boundary nodes need to know they are part of an NCC.
type nccNode struct {
	subEntry *BetaMemory // first level of the private subnetwork
	children []leftActivator
	items    []*Token
	entries  map[*Token]*Token // main-side token -> its subnetwork entry token
}

func newNccNode(subEntry *BetaMemory) *nccNode {
	return &nccNode{subEntry: subEntry, entries: make(map[*Token]*Token)}
}

func (n *nccNode) addChild(c leftActivator) { n.children = append(n.children, c) }

func (n *nccNode) leftActivate(t *Token) {
	nccToken := NewToken(t, nil, n, t.Bindings)
	n.items = append(n.items, nccToken)

	entry := &Token{Bindings: t.Bindings, owner: nccToken}
	n.entries[nccToken] = entry
	n.subEntry.leftActivate(entry)

	if len(nccToken.nccResults) == 0 {
		n.propagate(nccToken)
	}
}

func (n *nccNode) propagate(t *Token) {
	for _, c := range n.children {
		c.leftActivate(t)
	}
}

func (n *nccNode) forget(t *Token) {
	n.items = removeToken(n.items, t)
	if entry, have := n.entries[t]; have {
		delete(n.entries, t)
		entry.deleteSelfAndDescendents()
	}
}

// nccPartnerNode is the single terminal of an nccNode's private
// subnetwork. Every token that reaches it is a witness disqualifying
// the main-side token it (transitively) extends, found via the owner
// back-pointer NewToken propagates down the subnetwork chain.
type nccPartnerNode struct {
	ncc *nccNode
}

func newNccPartnerNode(ncc *nccNode) *nccPartnerNode { return &nccPartnerNode{ncc: ncc} }

func (p *nccPartnerNode) leftActivate(st *Token) {
	wrapped := NewToken(st, nil, p, st.Bindings)
	owner := wrapped.owner
	if owner == nil {
		return
	}
	if len(owner.nccResults) == 0 {
		for len(owner.Children) > 0 {
			owner.Children[0].deleteSelfAndDescendents()
		}
	}
	owner.nccResults = append(owner.nccResults, wrapped)
}

func (p *nccPartnerNode) forget(wrapped *Token) {
	owner := wrapped.owner
	if owner == nil {
		return
	}
	owner.nccResults = removeToken(owner.nccResults, wrapped)
	if _, live := p.ncc.entries[owner]; live && len(owner.nccResults) == 0 {
		p.ncc.propagate(owner)
	}
}
