package core

// Match is one conflict-set entry: a production whose left-hand side
// is currently satisfied by a specific, complete token. Per the
// decided Open Question (§9), two tokens that both satisfy the same
// production are two distinct Matches — the engine never deduplicates
// by production name alone.
type Match struct {
	Production string
	token      *Token
}

// Bindings returns the binding environment this match's token
// accumulated: every pattern variable bound by the production's
// left-hand side, plus any Bind-introduced values.
func (m *Match) Bindings() Bindings {
	return m.token.Bindings
}

// FactIds returns, oldest first, the ids of every fact whose WME this
// match's token is built from.
func (m *Match) FactIds() []int64 {
	wmes := m.token.WMEs()
	ids := make([]int64, 0, len(wmes))
	seen := make(map[int64]bool)
	for _, w := range wmes {
		if !seen[w.FactId] {
			seen[w.FactId] = true
			ids = append(ids, w.FactId)
		}
	}
	return ids
}

// terminalNode is the bottom of a compiled production's beta chain: it
// has no children, and every token that reaches it is a complete
// match, added to the engine's conflict set.
type terminalNode struct {
	production string
	conflict   *ConflictSet
	matches    map[*Token]*Match
}

func newTerminalNode(production string, conflict *ConflictSet) *terminalNode {
	return &terminalNode{production: production, conflict: conflict, matches: make(map[*Token]*Match)}
}

func (n *terminalNode) leftActivate(t *Token) {
	nt := NewToken(t, nil, n, t.Bindings)
	m := &Match{Production: n.production, token: nt}
	n.matches[nt] = m
	n.conflict.add(m)
}

func (n *terminalNode) forget(t *Token) {
	if m, have := n.matches[t]; have {
		n.conflict.remove(m)
		delete(n.matches, t)
	}
}
