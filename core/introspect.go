package core

import "sort"

// NetworkStats summarizes a compiled Network's size: how many
// productions it holds, how much the alpha discrimination tree's node
// sharing (§4.2) actually collapsed their constant tests, and how
// large the current conflict set is. cmd/retetool's "compile"
// subcommand reports this after loading a ProductionSet.
type NetworkStats struct {
	Productions   int
	AlphaNodes    int
	AlphaMemories int
	Matches       int
}

// Stats computes net's current NetworkStats.
func (net *Network) Stats() NetworkStats {
	nodes, mems := countAlpha(net.alpha.root)
	return NetworkStats{
		Productions:   len(net.productions),
		AlphaNodes:    nodes,
		AlphaMemories: mems,
		Matches:       net.conflict.Len(),
	}
}

func countAlpha(n *AlphaNode) (nodes, mems int) {
	nodes = 1
	if n.memory != nil {
		mems = 1
	}
	for _, c := range n.children {
		cn, cm := countAlpha(c)
		nodes += cn
		mems += cm
	}
	return nodes, mems
}

// AlphaTopology is a YAML/JSON-renderable snapshot of one alpha node
// and its subtree, for cmd/retetool's "dump" subcommand.
type AlphaTopology struct {
	Test     string           `json:"test,omitempty" yaml:"test,omitempty"`
	Memory   bool             `json:"memory,omitempty" yaml:"memory,omitempty"`
	Children []*AlphaTopology `json:"children,omitempty" yaml:"children,omitempty"`
}

// NetworkTopology is a YAML/JSON-renderable snapshot of a whole
// Network: the names of its compiled productions and the shape of the
// shared alpha discrimination tree they compiled against.
//
// Beta-network topology is not included: unlike the alpha tree, beta
// chains fan out per production rather than forming one tree rooted at
// a single node (two productions sharing a condition prefix reuse the
// same join/negative nodes per §4.3, but diverge again past that
// prefix into private branches), so there is no single structure to
// render beyond the list of compiled production names already in
// Productions.
type NetworkTopology struct {
	Productions []string       `json:"productions" yaml:"productions"`
	Alpha       *AlphaTopology `json:"alpha" yaml:"alpha"`
}

// Topology renders net's current shape.
func (net *Network) Topology() *NetworkTopology {
	names := make([]string, 0, len(net.productions))
	for name := range net.productions {
		names = append(names, name)
	}
	sort.Strings(names)
	return &NetworkTopology{Productions: names, Alpha: dumpAlphaNode(net.alpha.root)}
}

func dumpAlphaNode(n *AlphaNode) *AlphaTopology {
	t := &AlphaTopology{Memory: n.memory != nil}
	if n.parent != nil {
		t.Test = n.test.key()
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Children = append(t.Children, dumpAlphaNode(n.children[k]))
	}
	return t
}

// Stats exposes the engine's Network's NetworkStats.
func (e *Engine) Stats() NetworkStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Stats()
}

// Topology exposes the engine's Network's NetworkTopology.
func (e *Engine) Topology() *NetworkTopology {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Topology()
}
