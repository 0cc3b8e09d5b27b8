package core

// betaNode is the uniform interface every beta-network node — join,
// negative, NCC, NCC-partner, test, bind, terminal — presents to its
// neighbors and to Token. A concrete node only implements the
// activation directions it actually receives: a join node's leftActivate
// is driven by its parent's token memory, a bind node has no right
// input at all, and so on. forget is called on every node that owns t
// when t is deleted, so each node can drop t from whatever private
// bookkeeping it keeps (a memory slice, a conflict-set entry, …).
type betaNode interface {
	forget(t *Token)
}

// leftActivator is implemented by nodes that receive tokens from their
// parent (i.e. everything below the dummy top node).
type leftActivator interface {
	betaNode
	leftActivate(t *Token)
}

// tokenMemory is implemented by nodes that retain the tokens they were
// left-activated with, so a later right-activation (new WME, or a new
// NCC subnetwork match) can join against the accumulated history.
// Plain test and bind nodes pass tokens straight through and do not
// need a memory.
type tokenMemory interface {
	betaNode
	allTokens() []*Token
}

// BetaMemory is the simplest tokenMemory: an unconditional accumulator.
// The network's dummy top is one, and every join, negative, NCC, test
// and bind node feeds its own BetaMemory, which its children attach
// to. Each arriving token is stored as a child token owned by the
// memory, so deleting the arriving token also drops it from the memory
// through forget.
type BetaMemory struct {
	children []leftActivator
	tokens   []*Token
}

func newBetaMemory() *BetaMemory {
	return &BetaMemory{}
}

func (bm *BetaMemory) allTokens() []*Token { return bm.tokens }

func (bm *BetaMemory) addChild(c leftActivator) { bm.children = append(bm.children, c) }

func (bm *BetaMemory) removeChild(c leftActivator) {
	out := bm.children[:0]
	for _, x := range bm.children {
		if x != c {
			out = append(out, x)
		}
	}
	bm.children = out
}

func (bm *BetaMemory) leftActivate(t *Token) {
	nt := NewToken(t, nil, bm, t.Bindings)
	bm.tokens = append(bm.tokens, nt)
	for _, c := range bm.children {
		c.leftActivate(nt)
	}
}

func (bm *BetaMemory) forget(t *Token) {
	bm.tokens = removeToken(bm.tokens, t)
}

// newDummyTop builds the network's single root token, from which every
// top-level positive condition's first join descends. It carries no
// WME and an empty binding environment.
func newDummyTop() *Token {
	return &Token{Bindings: NewBindings()}
}
