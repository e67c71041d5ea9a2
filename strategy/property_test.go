package strategy

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/brensch/snekbasic/game"
)

func drawPoint(t *rapid.T, w, h int32, label string) game.Point {
	// One cell of slack on each side so heads can sit on the edge.
	return game.Point{
		X: rapid.Int32Range(-1, w).Draw(t, label+"_x"),
		Y: rapid.Int32Range(-1, h).Draw(t, label+"_y"),
	}
}

func drawSnake(t *rapid.T, id string, w, h int32) game.Snake {
	n := rapid.IntRange(1, 6).Draw(t, id+"_len")
	body := make([]game.Point, n)
	body[0] = game.Point{
		X: rapid.Int32Range(0, w-1).Draw(t, id+"_head_x"),
		Y: rapid.Int32Range(0, h-1).Draw(t, id+"_head_y"),
	}
	for i := 1; i < n; i++ {
		body[i] = drawPoint(t, w, h, id+"_seg")
	}
	return game.Snake{
		Id:     id,
		Health: rapid.Int32Range(1, 100).Draw(t, id+"_health"),
		Length: int32(n),
		Body:   body,
	}
}

func drawState(t *rapid.T) *game.GameState {
	w := rapid.Int32Range(1, 11).Draw(t, "width")
	h := rapid.Int32Range(1, 11).Draw(t, "height")
	you := drawSnake(t, "me", w, h)
	state := &game.GameState{Width: w, Height: h, You: you, YouId: you.Id, Snakes: []game.Snake{you}}

	opponents := rapid.IntRange(0, 3).Draw(t, "opponents")
	for i := 0; i < opponents; i++ {
		state.Snakes = append(state.Snakes, drawSnake(t, string(rune('a'+i)), w, h))
	}
	food := rapid.IntRange(0, 4).Draw(t, "food")
	for i := 0; i < food; i++ {
		state.Food = append(state.Food, game.Point{
			X: rapid.Int32Range(0, w-1).Draw(t, "food_x"),
			Y: rapid.Int32Range(0, h-1).Draw(t, "food_y"),
		})
	}
	return state
}

func contains(body []game.Point, p game.Point) bool {
	for _, seg := range body {
		if seg == p {
			return true
		}
	}
	return false
}

func TestEvaluate_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := drawState(t)
		cfg := DefaultConfig()
		you := state.You

		for _, r := range Evaluate(state, cfg) {
			if r.Dest != game.Step(you.Head(), r.Move) {
				t.Fatalf("%s dest=%v", r.Move, r.Dest)
			}
			if state.IsOutside(r.Dest) && r.Outcome != Dead {
				t.Fatalf("%s leaves the board but is %s", r.Move, r.Outcome)
			}
			if contains(you.Body, r.Dest) && r.Outcome != Dead {
				t.Fatalf("%s hits own body but is %s", r.Move, r.Outcome)
			}
			for _, opp := range state.Others() {
				if contains(opp.Body[1:], r.Dest) && r.Outcome != Dead {
					t.Fatalf("%s hits body of %s but is %s", r.Move, opp.Id, r.Outcome)
				}
				if opp.Head() == r.Dest && you.Length <= opp.Length && r.Outcome != Dead {
					t.Fatalf("%s loses head-to-head with %s but is %s", r.Move, opp.Id, r.Outcome)
				}
			}
			if r.Outcome == Dead {
				if r.CanTouchHead {
					t.Fatalf("%s is dead but CanTouchHead", r.Move)
				}
				continue
			}
			if r.CollisionPenalty != 0 {
				t.Fatalf("%s collision penalty=%v", r.Move, r.CollisionPenalty)
			}
			if state.IsFood(r.Dest) {
				if r.HealthAfterMove != you.Health || r.FoodScore != cfg.FoodWeight {
					t.Fatalf("%s eats but health=%d score=%v", r.Move, r.HealthAfterMove, r.FoodScore)
				}
			} else if r.HealthAfterMove != you.Health-1 || r.FoodScore != 0 {
				t.Fatalf("%s does not eat but health=%d score=%v", r.Move, r.HealthAfterMove, r.FoodScore)
			}
			if len(state.Food) == 0 && !math.IsInf(r.DistanceToFood, 1) {
				t.Fatalf("%s distance=%v with no food", r.Move, r.DistanceToFood)
			}
			if r.CanTouchHead {
				found := false
				for _, opp := range state.Others() {
					if opp.Head() == r.Dest && you.Length > opp.Length {
						found = true
					}
				}
				if !found {
					t.Fatalf("%s CanTouchHead without a shorter head there", r.Move)
				}
			}
		}
	})
}

func TestSelect_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := drawState(t)
		cfg := DefaultConfig()
		results := Evaluate(state, cfg)
		d := Select(results, state.You.Health, cfg)

		alive := 0
		for _, r := range results {
			if r.Outcome == Alive {
				alive++
			}
		}
		if alive == 0 {
			if !d.NoSafeMove || d.Move != cfg.FallbackMove {
				t.Fatalf("no alive moves but decision=%+v", d)
			}
			return
		}
		if d.NoSafeMove || len(d.Candidates) != alive {
			t.Fatalf("alive=%d decision=%+v", alive, d)
		}
		if d.Candidates[0].Move != d.Move {
			t.Fatalf("move=%s top=%s", d.Move, d.Candidates[0].Move)
		}
		for i := 1; i < len(d.Candidates); i++ {
			if Compare(d.Candidates[i-1], d.Candidates[i], state.You.Health, cfg) > 0 {
				t.Fatalf("candidates out of order at %d: %+v", i, d.Candidates)
			}
		}

		// Under the threshold food wins every tie on CanTouchHead.
		if state.You.Health < cfg.HealthThreshold {
			for i, a := range d.Candidates {
				for _, b := range d.Candidates[i+1:] {
					if a.CanTouchHead == b.CanTouchHead && b.FoodScore > 0 && a.FoodScore == 0 {
						t.Fatalf("non-food %s ranked above food %s at low health", a.Move, b.Move)
					}
				}
			}
		}
	})
}
