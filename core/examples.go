package core

import "context"

// TrafficLightProductionSet builds a small, self-contained production
// set modeling a two-road traffic signal: a pair of productions toggle
// a light between red and green, one flags the unsafe state of both
// roads being green at once, and one demonstrates negation by only
// flashing a red light when no manual override fact is present. It
// exists for scenario tests and for cmd/retetool's "compile"/"dump"
// subcommands, which need a named, Go-constructed ProductionSet to
// exercise rather than a file to parse (§6A).
//
// Every action is a NativeAction rather than a scripted ActionSource,
// so this set compiles with a nil Interpreters map.
func TrafficLightProductionSet() (*ProductionSet, error) {
	advance := &Production{
		Name: "advance-on-red",
		LHS: Pattern{Fields: []PatternField{
			Field("kind", "light"),
			Field("road", "?road"),
			Field("color", "red"),
			Field("self", "?$fid"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			e, ok := EngineFromContext(ctx)
			if !ok {
				return bs, nil
			}
			fid, _ := bs["?$fid"].(int64)
			if err := e.UpdateFact(ctx, fid, map[string]Value{"color": "green"}); err != nil {
				return nil, err
			}
			return bs, nil
		},
	}

	retreat := &Production{
		Name: "advance-on-green",
		LHS: Pattern{Fields: []PatternField{
			Field("kind", "light"),
			Field("road", "?road"),
			Field("color", "green"),
			Field("self", "?$fid"),
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			e, ok := EngineFromContext(ctx)
			if !ok {
				return bs, nil
			}
			fid, _ := bs["?$fid"].(int64)
			if err := e.UpdateFact(ctx, fid, map[string]Value{"color": "red"}); err != nil {
				return nil, err
			}
			return bs, nil
		},
	}

	conflict := &Production{
		Name: "both-green-conflict",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{
				Field("kind", "light"),
				Field("road", "ns"),
				Field("color", "green"),
				Field("self", "?$ns"),
			}},
			Pattern{Fields: []PatternField{
				Field("kind", "light"),
				Field("road", "ew"),
				Field("color", "green"),
				Field("self", "?$ew"),
			}},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			e, ok := EngineFromContext(ctx)
			if !ok {
				return bs, nil
			}
			alarm := NewFact().WithAttr("kind", "alarm").WithAttr("ns", bs["?$ns"]).WithAttr("ew", bs["?$ew"])
			if _, err := e.AddFact(ctx, alarm); err != nil {
				return nil, err
			}
			return bs, nil
		},
	}

	flash := &Production{
		Name: "flash-without-override",
		LHS: And{Conds: []Condition{
			Pattern{Fields: []PatternField{
				Field("kind", "light"),
				Field("road", "?road"),
				Field("color", "red"),
				Field("self", "?$fid"),
			}},
			Not{Inner: Pattern{Fields: []PatternField{
				Field("kind", "override"),
			}}},
		}},
		NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
			e, ok := EngineFromContext(ctx)
			if !ok {
				return bs, nil
			}
			fid, _ := bs["?$fid"].(int64)
			if err := e.UpdateFact(ctx, fid, map[string]Value{"flashing": true}); err != nil {
				return nil, err
			}
			return bs, nil
		},
	}

	return NewProductionSet(advance, retreat, conflict, flash)
}

// NewTrafficLight builds one light fact of the shape
// TrafficLightProductionSet's productions expect, for the given road,
// starting red.
func NewTrafficLight(road string) *Fact {
	return NewFact().WithAttr("kind", "light").WithAttr("road", road).WithAttr("color", "red").WithAttr("self", true)
}

// RockPaperScissorsProductionSet builds a production set that declares
// a winner for every pair of "throw" facts whose moves beat each
// other, leaving ties silently unmatched (there is no rule for a move
// beating itself). Grounded the same way as TrafficLightProductionSet:
// NativeAction only, no interpreter required.
func RockPaperScissorsProductionSet() (*ProductionSet, error) {
	beats := func(name, winningMove, losingMove string) *Production {
		return &Production{
			Name: name,
			LHS: And{Conds: []Condition{
				Pattern{Fields: []PatternField{
					Field("kind", "throw"),
					Field("player", "?winner"),
					Field("move", winningMove),
				}},
				Pattern{Fields: []PatternField{
					Field("kind", "throw"),
					Field("player", "?loser"),
					Field("move", losingMove),
				}},
			}},
			NativeAction: func(ctx context.Context, bs Bindings) (Bindings, error) {
				return bs.Extend("outcome", winningMove+" beats "+losingMove), nil
			},
		}
	}

	return NewProductionSet(
		beats("rock-beats-scissors", "rock", "scissors"),
		beats("scissors-beats-paper", "scissors", "paper"),
		beats("paper-beats-rock", "paper", "rock"),
	)
}

// NewThrow builds a "throw" fact for player making move.
func NewThrow(player, move string) *Fact {
	return NewFact().WithAttr("kind", "throw").WithAttr("player", player).WithAttr("move", move)
}
