package core

// ConflictSet is the engine's live set of satisfied matches, held in
// stable insertion order (§4.6): Matches() always returns matches in
// the order their tokens first became complete, regardless of which
// production produced them or how many times the set has since grown
// or shrunk. This is a deliberate implementation choice, not a
// requirement of the Rete algorithm itself, made for reproducible
// matches() output across runs.
type ConflictSet struct {
	order []*Match
	index map[*Match]int
}

// NewConflictSet makes an empty ConflictSet.
func NewConflictSet() *ConflictSet {
	return &ConflictSet{index: make(map[*Match]int)}
}

func (cs *ConflictSet) add(m *Match) {
	cs.index[m] = len(cs.order)
	cs.order = append(cs.order, m)
}

func (cs *ConflictSet) remove(m *Match) {
	i, have := cs.index[m]
	if !have {
		return
	}
	delete(cs.index, m)
	cs.order = append(cs.order[:i], cs.order[i+1:]...)
	for j := i; j < len(cs.order); j++ {
		cs.index[cs.order[j]] = j
	}
}

// Matches returns every match currently in the conflict set, in
// stable insertion order. The returned slice is a copy; mutating it
// does not affect the conflict set.
func (cs *ConflictSet) Matches() []*Match {
	out := make([]*Match, len(cs.order))
	copy(out, cs.order)
	return out
}

// Len reports the number of matches currently in the conflict set.
func (cs *ConflictSet) Len() int {
	return len(cs.order)
}
