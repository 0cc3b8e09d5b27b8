package core

import (
	"context"
	"fmt"
)

// networkBuilder compiles one production's conditions into a chain of
// beta nodes, reusing join and negative nodes that earlier productions
// already built where it can, and records everything needed to release
// or tear the chain down again in Network.Remove.
type networkBuilder struct {
	net          *Network
	production   string
	interpreters map[string]Interpreter
	teardown     []func()
	factVarSeq   int
	strict       bool
}

func (nb *networkBuilder) rollback() {
	for _, fn := range nb.teardown {
		fn()
	}
	nb.teardown = nil
}

// bootstrapPoint records the first node a build call actually created
// (as opposed to one it found and reused — §4.3's node sharing) and
// the tokens present at its attachment point the moment it was built.
// Everything below that node is reached automatically once it is fed
// those tokens, since the rest of the chain is already fully wired as
// its descendants by the time the caller fires the bootstrap; nothing
// above it needs re-feeding, because a reused prefix's memories already
// hold every token earlier productions populated them with.
type bootstrapPoint struct {
	node leftActivator
	seed []*Token
}

// build compiles conds in order, starting from parent, returning the
// BetaMemory the next condition (or the terminal node) should attach
// to, and the bootstrapPoint of the first node this call actually
// built (nil if every node along the way was shared with an existing
// production, or conds is empty).
func (nb *networkBuilder) build(parent *BetaMemory, conds []Condition, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	cur := parent
	var bp *bootstrapPoint
	for _, c := range conds {
		next, newBP, err := nb.buildOne(cur, c, bound)
		if err != nil {
			return nil, nil, err
		}
		if bp == nil {
			bp = newBP
		}
		cur = next
	}
	return cur, bp, nil
}

func (nb *networkBuilder) buildOne(parent *BetaMemory, c Condition, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	switch cc := c.(type) {
	case Pattern:
		return nb.buildPattern(parent, cc, bound)
	case Not:
		return nb.buildNot(parent, cc, bound)
	case Test:
		return nb.buildTest(parent, cc, bound)
	case Bind:
		return nb.buildBind(parent, cc, bound)
	default:
		return nil, nil, fmt.Errorf("core: unsupported condition %T", c)
	}
}

// buildPattern compiles one Pattern into a run of join nodes, one per
// field. At each field it first looks for an existing join node
// attached to the current memory that already does exactly this test
// against exactly this alpha memory with exactly this binder (§4.3):
// when a prefix of this production's conditions matches a prefix some
// earlier production already compiled, the nodes are shared rather
// than rebuilt, and only the point where the two productions first
// diverge needs a fresh node and a bootstrap against the tokens
// already sitting at that point.
func (nb *networkBuilder) buildPattern(parent *BetaMemory, pat Pattern, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	factVar := ""
	for _, f := range pat.Fields {
		if s, ok := f.Value.(string); ok && IsFactBindingVariable(s) {
			factVar = s
			break
		}
	}
	if factVar == "" {
		nb.factVarSeq++
		factVar = fmt.Sprintf("?$_fact%d", nb.factVarSeq)
	}

	cur := parent
	var bp *bootstrapPoint
	for i, f := range pat.Fields {
		segs := PathSegments(f.Attr)
		binder := &fieldBinder{attr: segs[0], path: segs[1:]}
		var tests []alphaTest
		var jtests []joinTest
		if i > 0 {
			jtests = append(jtests, joinTest{variable: factVar, factId: true})
		}

		s, isStr := f.Value.(string)
		isVar := isStr && IsVariable(s)
		switch {
		case isVar && IsFactBindingVariable(s):
			tests = append(tests, alphaTest{kind: attrEqual, attr: segs[0]})
		case isVar && IsAnonymousVariable(s):
			tests = append(tests, alphaTest{kind: attrEqual, attr: segs[0]})
		case isVar:
			tests = append(tests, alphaTest{kind: attrEqual, attr: segs[0]})
			if bound[s] {
				jtests = append(jtests, joinTest{variable: s, path: segs})
			} else {
				binder.bindVar = s
				bound[s] = true
			}
		default:
			if len(segs) == 1 {
				tests = append(tests, alphaTest{kind: valueEqual, attr: segs[0], value: f.Value})
			} else {
				tests = append(tests, alphaTest{kind: pathEqual, attr: segs[0], path: segs[1:], value: f.Value})
			}
		}
		if i == 0 {
			binder.bindFact = factVar
		}

		am := nb.net.alpha.buildMemory(canonicalAlphaTests(tests))
		attachedTo := cur
		jn := findSharedJoinNode(attachedTo, am, jtests, binder)
		created := jn == nil
		if created {
			jn = newJoinNode(attachedTo, am, jtests, binder)
			jn.out = newBetaMemory()
			jn.addChild(jn.out)
			attachedTo.addChild(jn)
		} else {
			jn.refs++
		}
		nb.teardown = append(nb.teardown, func() {
			nb.net.alpha.releaseMemory(am)
			jn.refs--
			if jn.refs == 0 {
				am.removeSuccessor(jn)
				attachedTo.removeChild(jn)
			}
		})
		if bp == nil && created {
			bp = &bootstrapPoint{node: jn, seed: attachedTo.allTokens()}
		}
		cur = jn.out
	}
	return cur, bp, nil
}

// fieldBinder derives the bindings one pattern field contributes once
// its WME has passed every alpha and join test.
type fieldBinder struct {
	attr     string
	path     []string
	bindVar  string // "" if this field binds no plain variable
	bindFact string // "" if this field does not bind the fact-id variable
}

func (b *fieldBinder) bind(existing Bindings, w *WME) (Bindings, bool) {
	if b.bindVar == "" && b.bindFact == "" {
		return existing, true
	}
	bs := existing.Copy()
	if bs == nil {
		bs = NewBindings()
	}
	if b.bindFact != "" {
		bs[b.bindFact] = w.FactId
	}
	if b.bindVar != "" {
		v, ok := lookupWMEPath(w, append([]string{b.attr}, b.path...))
		if !ok {
			return nil, false
		}
		bs[b.bindVar] = v
	}
	return bs, true
}

// buildNot compiles a negated condition. A single-field negated
// Pattern compiles to the lighter-weight negativeNode, which tests
// existence directly against one alpha memory; anything else (a
// multi-field Pattern, or an explicit And) compiles as a full NCC
// subnetwork, since disproving it requires its own join chain rather
// than a single existence check.
func (nb *networkBuilder) buildNot(parent *BetaMemory, not Not, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	if pat, ok := not.Inner.(Pattern); ok && len(pat.Fields) == 1 {
		return nb.buildNegative(parent, pat, bound)
	}
	return nb.buildNcc(parent, not.Inner, bound)
}

func (nb *networkBuilder) buildNegative(parent *BetaMemory, pat Pattern, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	f := pat.Fields[0]
	segs := PathSegments(f.Attr)
	var tests []alphaTest
	var jtests []joinTest

	s, isStr := f.Value.(string)
	isVar := isStr && IsVariable(s)
	switch {
	case isVar && !IsAnonymousVariable(s) && !IsFactBindingVariable(s):
		tests = append(tests, alphaTest{kind: attrEqual, attr: segs[0]})
		if bound[s] {
			jtests = append(jtests, joinTest{variable: s, path: segs})
		}
		// A negated pattern's own variable, if not already bound
		// elsewhere, constrains nothing and is dropped: negation
		// introduces no bindings (§4.3).
	case isVar:
		tests = append(tests, alphaTest{kind: attrEqual, attr: segs[0]})
	default:
		if len(segs) == 1 {
			tests = append(tests, alphaTest{kind: valueEqual, attr: segs[0], value: f.Value})
		} else {
			tests = append(tests, alphaTest{kind: pathEqual, attr: segs[0], path: segs[1:], value: f.Value})
		}
	}

	am := nb.net.alpha.buildMemory(canonicalAlphaTests(tests))
	nn := findSharedNegativeNode(parent, am, jtests)
	var bp *bootstrapPoint
	created := nn == nil
	if created {
		nn = newNegativeNode(am, jtests)
		nn.out = newBetaMemory()
		nn.addChild(nn.out)
		parent.addChild(nn)
		bp = &bootstrapPoint{node: nn, seed: parent.allTokens()}
	} else {
		nn.refs++
	}
	nb.teardown = append(nb.teardown, func() {
		nb.net.alpha.releaseMemory(am)
		nn.refs--
		if nn.refs == 0 {
			am.removeSuccessor(nn)
			parent.removeChild(nn)
		}
	})
	return nn.out, bp, nil
}

// buildNcc's private subnetwork is never shared across productions —
// each Not wrapping a multi-field pattern or an explicit And gets its
// own subEntry, since two NCCs only look alike by coincidence of
// authoring, not by construction — but the NCC node itself still needs
// bootstrapping against whatever tokens already sit at parent, exactly
// like a freshly built join or negative node.
func (nb *networkBuilder) buildNcc(parent *BetaMemory, inner Condition, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	subEntry := newBetaMemory()
	innerBound := copyBoundSet(bound)
	subCur, _, err := nb.build(subEntry, conditionsOf(inner), innerBound)
	if err != nil {
		return nil, nil, err
	}
	ncc := newNccNode(subEntry)
	partner := newNccPartnerNode(ncc)
	subCur.addChild(partner)

	parent.addChild(ncc)
	nb.teardown = append(nb.teardown, func() { parent.removeChild(ncc) })
	next := newBetaMemory()
	ncc.addChild(next)
	bp := &bootstrapPoint{node: ncc, seed: parent.allTokens()}
	return next, bp, nil
}

func (nb *networkBuilder) buildTest(parent *BetaMemory, t Test, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	for _, v := range t.Formals {
		if !bound[v] {
			return nil, nil, UnboundVariable{Production: nb.production, Variable: v}
		}
	}
	code, err := t.Source.Compile(context.Background(), nb.interpreters)
	if err != nil {
		return nil, nil, err
	}
	tn := &testNode{production: nb.production, code: code, sink: nb.net, strict: nb.strict}
	parent.addChild(tn)
	nb.teardown = append(nb.teardown, func() { parent.removeChild(tn) })
	next := newBetaMemory()
	tn.addChild(next)
	bp := &bootstrapPoint{node: tn, seed: parent.allTokens()}
	return next, bp, nil
}

func (nb *networkBuilder) buildBind(parent *BetaMemory, b Bind, bound map[string]bool) (*BetaMemory, *bootstrapPoint, error) {
	for _, v := range b.Formals {
		if !bound[v] {
			return nil, nil, UnboundVariable{Production: nb.production, Variable: v}
		}
	}
	if bound[b.Variable] {
		return nil, nil, DuplicateVariable{Production: nb.production, Variable: b.Variable}
	}
	code, err := b.Source.Compile(context.Background(), nb.interpreters)
	if err != nil {
		return nil, nil, err
	}
	bound[b.Variable] = true
	bn := &bindNode{production: nb.production, variable: b.Variable, code: code, sink: nb.net}
	parent.addChild(bn)
	nb.teardown = append(nb.teardown, func() { parent.removeChild(bn) })
	next := newBetaMemory()
	bn.addChild(next)
	bp := &bootstrapPoint{node: bn, seed: parent.allTokens()}
	return next, bp, nil
}
