package core

import (
	"context"
	"errors"
	"testing"
)

func matchNamed(t *testing.T, e *Engine, name string) *Match {
	t.Helper()
	for _, m := range e.Matches() {
		if m.Production == name {
			return m
		}
	}
	t.Fatalf("no match for production %q", name)
	return nil
}

func TestSimplePatternMatch(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "likes-tacos",
		LHS: Pattern{Fields: []PatternField{
			Field("likes", "tacos"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("likes", "tacos")); err != nil {
		t.Fatal(err)
	}

	if n := len(e.Matches()); n != 1 {
		t.Fatalf("expected 1 match, got %d", n)
	}
}

func TestVariableEqualityJoin(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "same-person",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{Field("kind", "likes"), Field("who", "?who"), Field("what", "tacos")}},
			Pattern{Fields: []PatternField{Field("kind", "likes"), Field("who", "?who"), Field("what", "queso")}},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "likes").WithAttr("who", "alice").WithAttr("what", "tacos")); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("should not match with only one fact")
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "likes").WithAttr("who", "bob").WithAttr("what", "queso")); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("should not match across different people")
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "likes").WithAttr("who", "alice").WithAttr("what", "queso")); err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "same-person")
	if who := m.Bindings()["?who"]; who != "alice" {
		t.Fatalf("bound ?who = %v, want alice", who)
	}
}

func TestTestConditionFiltersMatch(t *testing.T) {
	ctx := context.Background()
	interps := map[string]Interpreter{"native": testFuncInterpreter{}}
	e := NewEngine(EngineOptions{Interpreters: interps})

	p := &Production{
		Name: "over-threshold",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{Field("kind", "reading"), Field("value", "?v")}},
			Test{
				Formals: []string{"?v"},
				Source: ActionSource{Interpreter: "native", Source: testFunc(func(ctx context.Context, bs Bindings) (Value, error) {
					v, _ := bs["?v"].(float64)
					return v > 10, nil
				})},
			},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "reading").WithAttr("value", 5.0)); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("5 should not pass the threshold test")
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "reading").WithAttr("value", 20.0)); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 1 {
		t.Fatal("20 should pass the threshold test")
	}
}

func TestNegationAsFailure(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "unpaid-order",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{Field("kind", "order"), Field("id", "?id")}},
			Not{Inner: Pattern{Fields: []PatternField{Field("kind", "payment"), Field("id", "?id")}}},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	orderId, err := e.AddFact(ctx, NewFact().WithAttr("kind", "order").WithAttr("id", "o1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 1 {
		t.Fatal("expected an unpaid-order match before payment arrives")
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "payment").WithAttr("id", "o1")); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("match should retract once the matching payment arrives")
	}

	if err := e.RemoveFact(ctx, orderId); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("removing the order should not resurrect the match")
	}
}

func TestRetractionSymmetry(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name:         "is-red",
		LHS:          Pattern{Fields: []PatternField{Field("color", "red")}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	before := len(e.Matches())

	id, err := e.AddFact(ctx, NewFact().WithAttr("color", "red"))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != before+1 {
		t.Fatalf("expected one new match after adding the fact, got %d", len(e.Matches()))
	}

	if err := e.RemoveFact(ctx, id); err != nil {
		t.Fatal(err)
	}
	if after := len(e.Matches()); after != before {
		t.Fatalf("add then remove should restore the conflict set exactly: before=%d after=%d", before, after)
	}
}

func TestOrderIndependenceOfFactAdditions(t *testing.T) {
	ctx := context.Background()

	build := func(addInOrder []*Fact) []string {
		e := NewEngine(DefaultEngineOptions())
		p := &Production{
			Name: "same-person",
			LHS: And{Conds: []Condition{
				Pattern{Fields: []PatternField{Field("kind", "likes"), Field("who", "?who"), Field("what", "tacos")}},
				Pattern{Fields: []PatternField{Field("kind", "likes"), Field("who", "?who"), Field("what", "queso")}},
			}},
			NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
		}
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
		for _, f := range addInOrder {
			if _, err := e.AddFact(ctx, f); err != nil {
				t.Fatal(err)
			}
		}
		out := make([]string, 0, len(e.Matches()))
		for _, m := range e.Matches() {
			who, _ := m.Bindings()["?who"].(string)
			out = append(out, who)
		}
		return out
	}

	mk := func(who, what string) *Fact {
		return NewFact().WithAttr("kind", "likes").WithAttr("who", who).WithAttr("what", what)
	}

	forward := build([]*Fact{mk("alice", "tacos"), mk("alice", "queso"), mk("bob", "tacos")})
	backward := build([]*Fact{mk("bob", "tacos"), mk("alice", "queso"), mk("alice", "tacos")})

	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("expected exactly one match regardless of add order: forward=%v backward=%v", forward, backward)
	}
	if forward[0] != backward[0] {
		t.Fatalf("expected the same binding regardless of add order: forward=%v backward=%v", forward, backward)
	}
}

func TestAddingOneProductionDoesNotPerturbAnother(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p1 := &Production{
		Name:         "is-red",
		LHS:          Pattern{Fields: []PatternField{Field("color", "red")}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddFact(ctx, NewFact().WithAttr("color", "red")); err != nil {
		t.Fatal(err)
	}

	before := matchNamed(t, e, "is-red")

	p2 := &Production{
		Name:         "is-blue",
		LHS:          Pattern{Fields: []PatternField{Field("color", "blue")}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p2); err != nil {
		t.Fatal(err)
	}

	after := matchNamed(t, e, "is-red")
	if before != after {
		t.Fatal("adding an unrelated production should not replace another production's existing match")
	}

	if err := e.RemoveProduction(ctx, "is-blue"); err != nil {
		t.Fatal(err)
	}
	stillThere := matchNamed(t, e, "is-red")
	if stillThere != after {
		t.Fatal("removing an unrelated production should not perturb another production's match")
	}
}

func TestBindConditionComputesDerivedValue(t *testing.T) {
	ctx := context.Background()
	interps := map[string]Interpreter{"native": testFuncInterpreter{}}
	e := NewEngine(EngineOptions{Interpreters: interps})

	p := &Production{
		Name: "double-the-reading",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{Field("kind", "reading"), Field("value", "?v")}},
			Bind{
				Variable: "?doubled",
				Formals:  []string{"?v"},
				Source: ActionSource{Interpreter: "native", Source: testFunc(func(ctx context.Context, bs Bindings) (Value, error) {
					v, _ := bs["?v"].(float64)
					return v * 2, nil
				})},
			},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "reading").WithAttr("value", 21.0)); err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "double-the-reading")
	if got := m.Bindings()["?doubled"]; got != 42.0 {
		t.Fatalf("?doubled = %v, want 42.0", got)
	}
}

func TestBindRejectsUnboundFormal(t *testing.T) {
	ctx := context.Background()
	interps := map[string]Interpreter{"native": testFuncInterpreter{}}
	e := NewEngine(EngineOptions{Interpreters: interps})

	p := &Production{
		Name: "bad-bind",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{Field("kind", "reading")}},
			Bind{
				Variable: "?doubled",
				Formals:  []string{"?never-bound"},
				Source: ActionSource{Interpreter: "native", Source: testFunc(func(ctx context.Context, bs Bindings) (Value, error) {
					return 0.0, nil
				})},
			},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err == nil {
		t.Fatal("expected an UnboundVariable error compiling a Bind over an unbound formal")
	}
}

func TestNestedPathField(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "nested",
		LHS: Pattern{Fields: []PatternField{
			Field("address__city", "Philadelphia"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	f := NewFact().WithAttr("address", map[string]interface{}{"city": "Philadelphia", "state": "PA"})
	if _, err := e.AddFact(ctx, f); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 1 {
		t.Fatal("expected a match against the nested address__city path")
	}
}

func TestUpdateFactOnlyDisturbsChangedAttributes(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	fired := 0
	p := &Production{
		Name: "is-red",
		LHS: Pattern{Fields: []PatternField{
			Field("kind", "light"),
			Field("color", "red"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			fired++
			return bs, nil
		},
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	id, err := e.AddFact(ctx, NewFact().WithAttr("kind", "light").WithAttr("color", "red").WithAttr("road", "ns"))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 1 {
		t.Fatal("expected a match on the red light")
	}

	// Changing an attribute the production does not test should not
	// disturb the existing match.
	if err := e.UpdateFact(ctx, id, map[string]Value{"road": "ew"}); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 1 {
		t.Fatal("match should survive an update to an untested attribute")
	}

	if err := e.UpdateFact(ctx, id, map[string]Value{"color": "green"}); err != nil {
		t.Fatal(err)
	}
	if len(e.Matches()) != 0 {
		t.Fatal("match should retract once color no longer satisfies the pattern")
	}
}

func TestFireReleasesLockForActionCallback(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "spawn-alarm",
		LHS:  Pattern{Fields: []PatternField{Field("kind", "trigger")}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			callback, ok := EngineFromContext(ctx)
			if !ok {
				t.Fatal("action should find its engine via EngineFromContext")
			}
			if _, err := callback.AddFact(ctx, NewFact().WithAttr("kind", "alarm")); err != nil {
				return nil, err
			}
			return bs, nil
		},
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "trigger")); err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "spawn-alarm")
	if _, err := e.Fire(ctx, m); err != nil {
		t.Fatal(err)
	}
}

func TestFireStaleMatch(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	p := &Production{
		Name: "stale",
		LHS:  Pattern{Fields: []PatternField{Field("kind", "thing")}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			return bs, nil
		},
	}
	if _, err := e.AddProduction(ctx, p); err != nil {
		t.Fatal(err)
	}

	id, err := e.AddFact(ctx, NewFact().WithAttr("kind", "thing"))
	if err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "stale")

	if err := e.RemoveFact(ctx, id); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Fire(ctx, m); err == nil {
		t.Fatal("expected StaleMatch after removing the underlying fact")
	}
}

func TestStrictTestsSurfacesRaisedError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	raising := func(strict bool) error {
		interps := map[string]Interpreter{"native": testFuncInterpreter{}}
		e := NewEngine(EngineOptions{Interpreters: interps, StrictTests: strict})

		p := &Production{
			Name: "raises",
			LHS: And{Conds: []Condition{
				Pattern{Fields: []PatternField{Field("kind", "reading"), Field("value", "?v")}},
				Test{
					Formals: []string{"?v"},
					Source: ActionSource{Interpreter: "native", Source: testFunc(func(ctx context.Context, bs Bindings) (Value, error) {
						return nil, boom
					})},
				},
			}},
			NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
		}
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}

		_, err := e.AddFact(ctx, NewFact().WithAttr("kind", "reading").WithAttr("value", 1.0))
		return err
	}

	if err := raising(false); err != nil {
		t.Fatalf("non-strict mode should swallow a raised Test error, got %v", err)
	}

	err := raising(true)
	if err == nil {
		t.Fatal("strict mode should surface the raised Test error from AddFact")
	}
	var tr TestRaised
	if !errors.As(err, &tr) {
		t.Fatalf("expected a TestRaised, got %T: %v", err, err)
	}
	if !errors.Is(tr.Err, boom) {
		t.Fatalf("TestRaised should wrap the original error, got %v", tr.Err)
	}
}

// testFunc and testFuncInterpreter let condition tests exercise Test
// without depending on interpreters/native, avoiding an import of a
// package that itself imports core.
type testFunc func(ctx context.Context, bs Bindings) (Value, error)

type testFuncInterpreter struct{}

func (testFuncInterpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	return code, nil
}

func (testFuncInterpreter) Exec(ctx context.Context, bs Bindings, code interface{}, compiled interface{}) (Value, error) {
	f := compiled.(testFunc)
	return f(ctx, bs)
}
