package strategy

import (
	"math"

	"github.com/brensch/snekbasic/game"
)

// Outcome is whether taking a direction this turn kills the snake outright.
type Outcome int

const (
	Alive Outcome = iota
	Dead
)

func (o Outcome) String() string {
	if o == Dead {
		return "dead"
	}
	return "alive"
}

// DirectionResult is the evaluation of one candidate move for one turn.
type DirectionResult struct {
	Move    game.Move
	Outcome Outcome
	Dest    game.Point

	FoodScore       float64
	HealthAfterMove int32
	// CollisionPenalty is reserved for near-miss scoring. Anything that
	// actually collides is Dead, so it is currently always zero.
	CollisionPenalty float64
	// DistanceToFood is +Inf when there is no food or the move is Dead.
	DistanceToFood float64
	CanTouchHead   bool
}

// Evaluate scores all four moves for state.You, in game.AllMoves order.
func Evaluate(state *game.GameState, cfg Config) [4]DirectionResult {
	var out [4]DirectionResult
	for i, m := range game.AllMoves {
		out[i] = EvaluateMove(state, m, cfg)
	}
	return out
}

// EvaluateMove classifies the cell reached by moving the head of state.You
// one step in direction m.
func EvaluateMove(state *game.GameState, m game.Move, cfg Config) DirectionResult {
	you := state.You
	dest := game.Step(you.Head(), m)

	dead := DirectionResult{
		Move:            m,
		Outcome:         Dead,
		Dest:            dest,
		HealthAfterMove: you.Health,
		DistanceToFood:  math.Inf(1),
	}

	// 1. Bounds
	if state.IsOutside(dest) {
		return dead
	}

	// 2. Own body
	if occupiesOwnBody(you.Body, dest, cfg.TailVacates) {
		return dead
	}

	res := DirectionResult{
		Move:    m,
		Outcome: Alive,
		Dest:    dest,
	}

	// 3. Head-to-head, then 4. opponent bodies. A won head-to-head does not
	// clear a cell that some other snake's body occupies.
	for _, opp := range state.Others() {
		for i, seg := range opp.Body {
			if seg != dest {
				continue
			}
			if i == 0 {
				if you.Length > opp.Length {
					res.CanTouchHead = true
				} else {
					res.Outcome = Dead
				}
				continue
			}
			res.Outcome = Dead
		}
	}
	if res.Outcome == Dead {
		res.CanTouchHead = false
		res.HealthAfterMove = you.Health
		res.DistanceToFood = math.Inf(1)
		return res
	}

	// 5. Food
	if state.IsFood(dest) {
		res.FoodScore = cfg.FoodWeight
		res.HealthAfterMove = you.Health
	} else {
		res.HealthAfterMove = you.Health - 1
	}

	// 6. Distance to nearest food
	res.DistanceToFood = closestFoodDistance(dest, state.Food)

	return res
}

func occupiesOwnBody(body []game.Point, p game.Point, tailVacates bool) bool {
	n := len(body)
	if tailVacates && n >= 2 && body[n-1] != body[n-2] {
		n--
	}
	for _, seg := range body[:n] {
		if seg == p {
			return true
		}
	}
	return false
}

func closestFoodDistance(p game.Point, food []game.Point) float64 {
	closest := math.Inf(1)
	for _, f := range food {
		if d := float64(game.Manhattan(p, f)); d < closest {
			closest = d
		}
	}
	return closest
}
