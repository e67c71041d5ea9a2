package strategy

import (
	"cmp"
	"slices"

	"github.com/brensch/snekbasic/game"
)

// Decision is the result of one turn.
type Decision struct {
	Move game.Move
	// NoSafeMove is set when every direction was Dead and Move is the fallback.
	NoSafeMove bool
	// Candidates are the surviving moves, best first.
	Candidates []DirectionResult
	// Results holds all four evaluations in game.AllMoves order.
	Results [4]DirectionResult
}

// Select drops lethal moves and picks the best of the rest. health is the
// snake's current health, used for the low-health food bonus.
func Select(results [4]DirectionResult, health int32, cfg Config) Decision {
	d := Decision{Results: results}

	d.Candidates = make([]DirectionResult, 0, len(results))
	for _, r := range results {
		if r.Outcome == Alive {
			d.Candidates = append(d.Candidates, r)
		}
	}

	if len(d.Candidates) == 0 {
		d.Move = cfg.FallbackMove
		d.NoSafeMove = true
		return d
	}

	slices.SortStableFunc(d.Candidates, func(a, b DirectionResult) int {
		return Compare(a, b, health, cfg)
	})
	d.Move = d.Candidates[0].Move
	return d
}

// Compare orders two candidates, best first: a winnable head-to-head, then
// effective food weight (descending), then collision penalty, then distance
// to food (both ascending).
func Compare(a, b DirectionResult, health int32, cfg Config) int {
	if a.CanTouchHead != b.CanTouchHead {
		if a.CanTouchHead {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(foodWeight(b, health, cfg), foodWeight(a, health, cfg)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CollisionPenalty, b.CollisionPenalty); c != 0 {
		return c
	}
	return cmp.Compare(a.DistanceToFood, b.DistanceToFood)
}

func foodWeight(r DirectionResult, health int32, cfg Config) float64 {
	if r.FoodScore > 0 && health < cfg.HealthThreshold {
		return r.FoodScore + cfg.LowHealthBonus
	}
	return r.FoodScore
}
