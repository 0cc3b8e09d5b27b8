package core

import (
	"context"
	"log"
	"sync"
)

// EngineOptions configures a new Engine, mirroring the small
// struct-of-switches style the teacher's match.Matcher and core.Control
// use for their own construction-time options.
type EngineOptions struct {
	// Interpreters resolves the interpreter name carried by every
	// Test, Bind, and scripted production action. A nil map behaves
	// like an empty one: any ActionSource naming an interpreter fails
	// to compile with InterpreterNotFound.
	Interpreters map[string]Interpreter

	// StrictTests, if true, makes a Test condition whose compiled code
	// raises an error surface that error from the triggering fact
	// operation (wrapped in TestRaised) instead of silently treating
	// the raise as a falsy result (§4.5/§7).
	StrictTests bool

	// Trace, if true, logs every fact and production mutation via the
	// standard log package, the same ad hoc way the teacher logs from
	// deep inside match/control code rather than through a dedicated
	// logging subsystem.
	Trace bool
}

// DefaultEngineOptions returns the zero-value-safe default options: no
// interpreters registered, so only productions with NativeAction
// actions and Test/Bind-free left-hand sides can be compiled. Callers
// wanting scripted conditions or actions supply their own
// Interpreters map (see interpreters/native and interpreters/goja).
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{Interpreters: make(map[string]Interpreter)}
}

// Engine is a single, non-reentrant production-rule engine: one
// working-memory FactStore, one compiled Network, and the
// ProductionSet the network was built from. Every public method takes
// the same mutex, so an Engine may be shared across goroutines and no
// two calls propagate at once (§5's non-reentrant model). Fire
// releases the mutex before running the action, so an action may call
// back into the engine it fired from.
type Engine struct {
	mu           sync.Mutex
	facts        *FactStore
	net          *Network
	productions  *ProductionSet
	interpreters map[string]Interpreter
	pending      error
	trace        bool
}

// NewEngine makes an empty Engine: no facts, no productions.
func NewEngine(opts EngineOptions) *Engine {
	interpreters := opts.Interpreters
	if interpreters == nil {
		interpreters = make(map[string]Interpreter)
	}
	empty, _ := NewProductionSet()
	e := &Engine{
		facts:        NewFactStore(),
		productions:  empty,
		interpreters: interpreters,
		trace:        opts.Trace,
	}
	e.net = NewNetwork(e, opts.StrictTests)
	return e
}

// raise implements errSink: it is called by the network when scripted
// Test/Bind code raises an error during propagation. Only the first
// error of a single public-method call is kept; WMEs already
// propagated before the error are not rolled back (§7: fact operations
// are not transactional).
func (e *Engine) raise(err error) {
	if e.pending == nil {
		e.pending = err
	}
}

func (e *Engine) takePending() error {
	err := e.pending
	e.pending = nil
	return err
}

// AddFact inserts f into working memory, assigning it a fact-id, and
// propagates its WMEs through the network. It returns FactHasVariables
// if any positional or attribute value contains a pattern variable
// string, and the first error any Test or Bind raised while
// propagating, if any.
func (e *Engine) AddFact(ctx context.Context, f *Fact) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if path, bad := f.HasVariable(); bad {
		return 0, FactHasVariables{Path: path}
	}

	wmes := e.facts.insert(f)
	for _, w := range wmes {
		e.net.alpha.activate(w)
	}
	if e.trace {
		log.Printf("core: added fact %d %v", f.Id, f.Attrs)
	}
	return f.Id, e.takePending()
}

// RemoveFact deletes the fact with the given id from working memory
// and retracts every match it contributed to.
func (e *Engine) RemoveFact(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	wmes, ok := e.facts.remove(id)
	if !ok {
		return UnknownFact{FactId: id}
	}
	for _, w := range wmes {
		e.net.alpha.deactivate(w)
	}
	if e.trace {
		log.Printf("core: removed fact %d", id)
	}
	return e.takePending()
}

// UpdateFact applies attribute changes to an existing fact (§4.7):
// only attributes whose value actually changes are retracted and
// reasserted, so matches depending solely on the fact's unchanged
// attributes are left completely undisturbed.
func (e *Engine) UpdateFact(ctx context.Context, id int64, changes map[string]Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, added, ok := e.facts.update(id, changes)
	if !ok {
		return UnknownFact{FactId: id}
	}
	for _, w := range removed {
		e.net.alpha.deactivate(w)
	}
	for _, w := range added {
		e.net.alpha.activate(w)
	}
	return e.takePending()
}

// GetFact returns the fact with the given id, if present.
func (e *Engine) GetFact(id int64) (*Fact, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.facts.Get(id)
}

// AddProduction compiles p into the network, replacing any existing
// production of the same name, and returns a ProductionSet snapshot
// reflecting the change.
func (e *Engine) AddProduction(ctx context.Context, p *Production) (*ProductionSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ps, err := e.productions.WithProduction(p)
	if err != nil {
		return nil, err
	}
	if err := e.net.Compile(p, e.interpreters); err != nil {
		return nil, err
	}
	if err := e.takePending(); err != nil {
		return nil, err
	}
	e.productions = ps
	if e.trace {
		log.Printf("core: added production %q", p.Name)
	}
	return e.productions, nil
}

// RemoveProduction removes the named production, retracting every
// match it currently owns.
func (e *Engine) RemoveProduction(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, have := e.net.Remove(name); !have {
		return UnknownProduction{Name: name}
	}
	ps, _ := e.productions.WithoutProduction(name)
	e.productions = ps
	return nil
}

// Matches returns the current conflict set: every production whose
// left-hand side is satisfied by some combination of facts, one Match
// per distinct satisfying token.
func (e *Engine) Matches() []*Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.conflict.Matches()
}

// Fire executes m's production's action against m's bindings. It
// returns StaleMatch if m's underlying token has since been retracted
// (its production or one of the facts it matched was removed) between
// a Matches() call and this Fire call.
//
// The action runs with the engine's mutex released, not held: §5 lets
// an action call back into AddFact/RemoveFact/UpdateFact/etc, and
// those calls take the same mutex, so holding it across Exec would
// deadlock. The action reaches the engine through ctx via EngineFromContext
// under the conventional name "net" (§6), not through a direct
// parameter, since Interpreter.Exec's signature is the same for every
// backend.
func (e *Engine) Fire(ctx context.Context, m *Match) (Bindings, error) {
	e.mu.Lock()
	cp, have := e.net.productions[m.Production]
	if !have {
		e.mu.Unlock()
		return nil, StaleMatch{Production: m.Production}
	}
	if _, live := cp.terminal.matches[m.token]; !live {
		e.mu.Unlock()
		return nil, StaleMatch{Production: m.Production}
	}
	bs := m.Bindings()
	action := cp.action
	if e.trace {
		log.Printf("core: firing %q", m.Production)
	}
	e.mu.Unlock()

	return action.Exec(WithEngine(ctx, e), bs)
}

// Productions returns the engine's current ProductionSet.
func (e *Engine) Productions() *ProductionSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.productions
}

type engineContextKey struct{}

// WithEngine returns a copy of ctx carrying e, so that a production's
// action — reached only through Interpreter.Exec's fixed (ctx, bs,
// code, compiled) signature — can still call back into the engine that
// is firing it. Fire calls this automatically. Test and Bind code runs
// with a context that carries no engine.
func WithEngine(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, engineContextKey{}, e)
}

// EngineFromContext returns the Engine WithEngine attached to ctx, if
// any. A scripted interpreter exposes it to script code under the
// conventional name "net" (§6).
func EngineFromContext(ctx context.Context) (*Engine, bool) {
	e, ok := ctx.Value(engineContextKey{}).(*Engine)
	return e, ok
}
