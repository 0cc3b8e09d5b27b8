package core

import (
	"context"
	"testing"
)

func TestTrafficLightAdvancesOnRed(t *testing.T) {
	ctx := context.Background()

	ps, err := TrafficLightProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	nsId, err := e.AddFact(ctx, NewTrafficLight("ns"))
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range e.Matches() {
		if m.Production == "advance-on-red" {
			if _, err := e.Fire(ctx, m); err != nil {
				t.Fatal(err)
			}
		}
	}

	f, _ := e.GetFact(nsId)
	if f.Attrs["color"] != "green" {
		t.Fatalf("light should have advanced to green, got %v", f.Attrs["color"])
	}
}

// TestTrafficLightTogglesAcrossFirings drives the same light fact
// through five firings and checks the exact green/red/green/red/green
// sequence that advance-on-red and advance-on-green produce between
// them.
func TestTrafficLightTogglesAcrossFirings(t *testing.T) {
	ctx := context.Background()

	ps, err := TrafficLightProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	nsId, err := e.AddFact(ctx, NewTrafficLight("ns"))
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"green", "red", "green", "red", "green"}
	for i, color := range want {
		var toggle *Match
		for _, m := range e.Matches() {
			if m.Production == "advance-on-red" || m.Production == "advance-on-green" {
				toggle = m
				break
			}
		}
		if toggle == nil {
			t.Fatalf("firing %d: no advance-on-red/advance-on-green match pending", i+1)
		}
		if _, err := e.Fire(ctx, toggle); err != nil {
			t.Fatal(err)
		}
		f, _ := e.GetFact(nsId)
		if f.Attrs["color"] != color {
			t.Fatalf("firing %d: got color %v, want %v", i+1, f.Attrs["color"], color)
		}
	}
}

func TestTrafficLightFlashesWithoutOverride(t *testing.T) {
	ctx := context.Background()

	ps, err := TrafficLightProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := e.AddFact(ctx, NewTrafficLight("ns")); err != nil {
		t.Fatal(err)
	}

	flashes := 0
	for _, m := range e.Matches() {
		if m.Production == "flash-without-override" {
			flashes++
		}
	}
	if flashes != 1 {
		t.Fatalf("expected one flash match with no override present, got %d", flashes)
	}

	if _, err := e.AddFact(ctx, NewFact().WithAttr("kind", "override")); err != nil {
		t.Fatal(err)
	}

	flashes = 0
	for _, m := range e.Matches() {
		if m.Production == "flash-without-override" {
			flashes++
		}
	}
	if flashes != 0 {
		t.Fatal("flash match should retract once an override fact is present")
	}
}

func TestTrafficLightBothGreenConflict(t *testing.T) {
	ctx := context.Background()

	ps, err := TrafficLightProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	ns := NewTrafficLight("ns")
	ns.Attrs["color"] = "green"
	ew := NewTrafficLight("ew")
	ew.Attrs["color"] = "green"

	if _, err := e.AddFact(ctx, ns); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddFact(ctx, ew); err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "both-green-conflict")
	if _, err := e.Fire(ctx, m); err != nil {
		t.Fatal(err)
	}

	alarms := 0
	for id := 1; ; id++ {
		f, ok := e.GetFact(int64(id))
		if !ok {
			break
		}
		if f.Attrs["kind"] == "alarm" {
			alarms++
		}
	}
	if alarms != 1 {
		t.Fatalf("expected the conflict action to add one alarm fact, got %d", alarms)
	}
}

func TestRockPaperScissors(t *testing.T) {
	ctx := context.Background()

	ps, err := RockPaperScissorsProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := e.AddFact(ctx, NewThrow("alice", "rock")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddFact(ctx, NewThrow("bob", "scissors")); err != nil {
		t.Fatal(err)
	}

	m := matchNamed(t, e, "rock-beats-scissors")
	bs := m.Bindings()
	if bs["?winner"] != "alice" || bs["?loser"] != "bob" {
		t.Fatalf("unexpected bindings: %v", bs)
	}

	if len(e.Matches()) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(e.Matches()))
	}
}

func TestRockPaperScissorsTie(t *testing.T) {
	ctx := context.Background()

	ps, err := RockPaperScissorsProductionSet()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEngine(DefaultEngineOptions())
	for _, p := range ps.Productions() {
		if _, err := e.AddProduction(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := e.AddFact(ctx, NewThrow("alice", "rock")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddFact(ctx, NewThrow("bob", "rock")); err != nil {
		t.Fatal(err)
	}

	if len(e.Matches()) != 0 {
		t.Fatal("no production should declare a winner on a tie")
	}
}
