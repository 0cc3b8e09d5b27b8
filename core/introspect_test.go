package core

import (
	"context"
	"testing"
)

func TestStatsCountsProductionsAndSharedAlphaNodes(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	// Both productions share the "kind == light" alpha test, so it
	// should be built (and counted) once, not twice.
	p1 := &Production{
		Name: "p1",
		LHS: Pattern{Fields: []PatternField{
			Field("kind", "light"), Field("road", "ns"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	p2 := &Production{
		Name: "p2",
		LHS: Pattern{Fields: []PatternField{
			Field("kind", "light"), Field("road", "ew"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
	}
	if _, err := e.AddProduction(ctx, p1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddProduction(ctx, p2); err != nil {
		t.Fatal(err)
	}

	stats := e.Stats()
	if stats.Productions != 2 {
		t.Fatalf("expected 2 productions, got %d", stats.Productions)
	}
	if stats.AlphaMemories != 3 {
		t.Fatalf("expected 3 alpha memories (kind=light shared, plus one per road), got %d", stats.AlphaMemories)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "light").WithAttr("road", "ns")); err != nil {
		t.Fatal(err)
	}
	if stats := e.Stats(); stats.Matches != 1 {
		t.Fatalf("expected 1 match after adding a matching fact, got %d", stats.Matches)
	}
}

func TestTopologyListsProductionsSorted(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(DefaultEngineOptions())

	for _, name := range []string{"zeta", "alpha", "mu"} {
		p := &Production{
			Name:         name,
			LHS:          Pattern{Fields: []PatternField{Field("kind", name)}},
			NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) { return bs, nil },
		}
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	topo := e.Topology()
	want := []string{"alpha", "mu", "zeta"}
	if len(topo.Productions) != len(want) {
		t.Fatalf("got %v, want %v", topo.Productions, want)
	}
	for i, name := range want {
		if topo.Productions[i] != name {
			t.Fatalf("got %v, want %v", topo.Productions, want)
		}
	}
	if topo.Alpha == nil {
		t.Fatal("expected a non-nil alpha tree root")
	}
}
