package core

import "context"

// Production is one rule definition: a left-hand side of conditions
// (Pattern/Not/Test/Bind, possibly combined with And/Or) plus a
// right-hand side action. Exactly one of Action or NativeAction should
// be set; NativeAction takes precedence if both are.
type Production struct {
	Name         string
	LHS          Condition
	Action       ActionSource
	NativeAction NativeAction

	// ActionFormals names the bindings the action reads, validated at
	// compile time against the variables the left-hand side actually
	// binds (§6's "unknown formal parameter" compile error).
	ActionFormals []string
}

// ProductionSet is an immutable, validated collection of Production
// definitions, generalizing the teacher's compiled core.Spec. It does
// no network compilation of its own: each Engine that is given a
// ProductionSet builds its own private alpha/beta network from it (see
// Network.Compile and crew.Registry), since a network's memories hold
// per-engine working-memory state that cannot be shared between
// engines even when their logic is identical.
type ProductionSet struct {
	productions map[string]*Production
	order       []string
}

// NewProductionSet validates and wraps a list of productions. Validation
// checks: no duplicate names, no path-expression attribute with an
// empty segment, and — walking each production's left-hand side in
// order — no Test/Bind/action formal parameter referencing a variable
// not yet bound, and no Bind rebinding a variable an earlier condition
// already bound.
func NewProductionSet(productions ...*Production) (*ProductionSet, error) {
	ps := &ProductionSet{productions: make(map[string]*Production, len(productions))}
	for _, p := range productions {
		if _, dup := ps.productions[p.Name]; dup {
			return nil, DuplicateProduction{Name: p.Name}
		}
		if err := validateProduction(p); err != nil {
			return nil, err
		}
		ps.productions[p.Name] = p
		ps.order = append(ps.order, p.Name)
	}
	return ps, nil
}

// Productions returns every production in the set, in the order given
// to NewProductionSet.
func (ps *ProductionSet) Productions() []*Production {
	out := make([]*Production, len(ps.order))
	for i, name := range ps.order {
		out[i] = ps.productions[name]
	}
	return out
}

// Get returns the named production, if present.
func (ps *ProductionSet) Get(name string) (*Production, bool) {
	p, have := ps.productions[name]
	return p, have
}

// WithProduction returns a new ProductionSet with p added (or, if a
// production of the same name exists, replacing it), leaving the
// receiver untouched.
func (ps *ProductionSet) WithProduction(p *Production) (*ProductionSet, error) {
	next := make([]*Production, 0, len(ps.order)+1)
	for _, name := range ps.order {
		if name != p.Name {
			next = append(next, ps.productions[name])
		}
	}
	next = append(next, p)
	return NewProductionSet(next...)
}

// WithoutProduction returns a new ProductionSet with name removed,
// leaving the receiver untouched. ok is false if name was not present.
func (ps *ProductionSet) WithoutProduction(name string) (*ProductionSet, bool) {
	if _, have := ps.productions[name]; !have {
		return ps, false
	}
	next := make([]*Production, 0, len(ps.order)-1)
	for _, n := range ps.order {
		if n != name {
			next = append(next, ps.productions[n])
		}
	}
	out, err := NewProductionSet(next...)
	if err != nil {
		// Removing a production cannot reintroduce a validation
		// failure that wasn't already present.
		return ps, false
	}
	return out, true
}

func validateProduction(p *Production) error {
	bound := make(map[string]bool)
	if err := validateConditions(p.Name, conditionsOf(p.LHS), bound); err != nil {
		return err
	}
	for _, f := range p.ActionFormals {
		if !bound[f] {
			return UnknownFormalParameter{Production: p.Name, Parameter: f}
		}
	}
	return nil
}

func conditionsOf(c Condition) []Condition {
	if and, ok := c.(And); ok {
		return and.Conds
	}
	return []Condition{c}
}

func copyBoundSet(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound))
	for k, v := range bound {
		out[k] = v
	}
	return out
}

func validateConditions(name string, conds []Condition, bound map[string]bool) error {
	for _, c := range conds {
		switch cc := c.(type) {
		case Pattern:
			for _, f := range cc.Fields {
				if err := validateAttr(name, f.Attr); err != nil {
					return err
				}
				if s, ok := f.Value.(string); ok && IsVariable(s) && !IsAnonymousVariable(s) {
					bound[s] = true
				}
			}
		case Not:
			if err := validateConditions(name, conditionsOf(cc.Inner), copyBoundSet(bound)); err != nil {
				return err
			}
		case And:
			if err := validateConditions(name, cc.Conds, bound); err != nil {
				return err
			}
		case Or:
			for _, alt := range cc.Conds {
				if err := validateConditions(name, conditionsOf(alt), copyBoundSet(bound)); err != nil {
					return err
				}
			}
		case Test:
			for _, v := range cc.Formals {
				if !bound[v] {
					return UnboundVariable{Production: name, Variable: v}
				}
			}
		case Bind:
			for _, v := range cc.Formals {
				if !bound[v] {
					return UnboundVariable{Production: name, Variable: v}
				}
			}
			if bound[cc.Variable] {
				return DuplicateVariable{Production: name, Variable: cc.Variable}
			}
			bound[cc.Variable] = true
		}
	}
	return nil
}

func validateAttr(name, attr string) error {
	for _, seg := range PathSegments(attr) {
		if seg == "" {
			return BadPathExpression{Production: name, Path: attr}
		}
	}
	return nil
}

// Network is one Engine's private, live compilation of a ProductionSet:
// the discrimination tree, the single dummy-top memory every compiled
// production's chain descends from, and the conflict set its terminal
// nodes populate.
type Network struct {
	alpha       *AlphaNetwork
	top         *BetaMemory
	rootToken   *Token
	conflict    *ConflictSet
	productions map[string]*compiledProduction
	sink        errSink
	strict      bool
}

type compiledProduction struct {
	def      *Production
	terminal *terminalNode
	action   Action
	teardown []func()
}

// NewNetwork makes an empty Network, ready to have productions added.
// strict controls whether a Test condition that raises an error is
// reported to sink (true) or simply treated as false, per §4.5/§7.
func NewNetwork(sink errSink, strict bool) *Network {
	top := newBetaMemory()
	root := &Token{Bindings: NewBindings()}
	top.tokens = append(top.tokens, root)
	return &Network{
		alpha:       NewAlphaNetwork(),
		top:         top,
		rootToken:   root,
		conflict:    NewConflictSet(),
		productions: make(map[string]*compiledProduction),
		sink:        sink,
		strict:      strict,
	}
}

// Compile builds p's beta chain(s) — one per DNF disjunct of its
// left-hand side, per §4.4 — attaches them to the shared alpha network
// and dummy top, bootstraps them against whatever WMEs already exist,
// and compiles its action. Compiling a production whose name is
// already present replaces it (its old chain is torn down first).
func (net *Network) Compile(p *Production, interpreters map[string]Interpreter) error {
	if old, have := net.productions[p.Name]; have {
		for t := range old.terminal.matches {
			t.deleteSelfAndDescendents()
		}
		net.teardownProduction(old)
	}

	action, err := net.compileAction(p, interpreters)
	if err != nil {
		return err
	}

	terminal := newTerminalNode(p.Name, net.conflict)
	cp := &compiledProduction{def: p, terminal: terminal, action: action}

	nb := &networkBuilder{net: net, production: p.Name, interpreters: interpreters, strict: net.strict}
	disjuncts := ToDNF(p.LHS)
	for _, d := range disjuncts {
		cur, bp, err := nb.build(net.top, conditionsOf(d), make(map[string]bool))
		if err != nil {
			nb.rollback()
			return err
		}
		cur.addChild(terminal)
		localCur := cur
		nb.teardown = append(nb.teardown, func() { localCur.removeChild(terminal) })
		if bp != nil {
			// Only the first node this disjunct actually built needs
			// feeding: the rest of the chain, shared or not, is
			// already wired as its descendants and the normal
			// leftActivate cascade reaches all of it, terminal
			// included.
			for _, t := range bp.seed {
				bp.node.leftActivate(t)
			}
		} else {
			// Every node in this disjunct's chain was shared with an
			// already-compiled production, so cur is a pre-populated
			// memory; only the brand-new terminal needs seeding.
			for _, t := range cur.allTokens() {
				terminal.leftActivate(t)
			}
		}
	}
	cp.teardown = nb.teardown

	net.productions[p.Name] = cp
	return nil
}

func (net *Network) compileAction(p *Production, interpreters map[string]Interpreter) (Action, error) {
	if p.NativeAction != nil {
		return p.NativeAction, nil
	}
	if p.Action.Source == nil {
		return NativeAction(func(context.Context, Bindings) (Bindings, error) { return nil, nil }), nil
	}
	code, err := p.Action.Compile(context.Background(), interpreters)
	if err != nil {
		return nil, err
	}
	return ScriptAction{Code: code}, nil
}

// Remove tears down name's beta chain(s), deletes every token and
// match it currently owns, and forgets its compiled action.
func (net *Network) Remove(name string) (*Production, bool) {
	cp, have := net.productions[name]
	if !have {
		return nil, false
	}
	for t := range cp.terminal.matches {
		t.deleteSelfAndDescendents()
	}
	net.teardownProduction(cp)
	delete(net.productions, name)
	return cp.def, true
}

func (net *Network) teardownProduction(cp *compiledProduction) {
	for _, fn := range cp.teardown {
		fn()
	}
}

func (net *Network) raise(err error) {
	if net.sink != nil {
		net.sink.raise(err)
	}
}
