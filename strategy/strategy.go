// Package strategy picks a move for one turn with a fixed, single-step
// heuristic.
//
// Each of the four neighbouring cells is classified (Evaluate) and the
// survivors are ranked (Select). Nothing is remembered between turns, so one
// Basic value can serve any number of concurrent games.
package strategy

import (
	"context"
	"log/slog"
	"math"

	"github.com/brensch/snekbasic/game"
)

// Strategy chooses a move for the snake identified by state.YouId.
type Strategy interface {
	NextMove(ctx context.Context, state *game.GameState) Decision
}

// Basic is the one-step heuristic strategy.
type Basic struct {
	cfg    Config
	logger *slog.Logger
}

func NewBasic(cfg Config, logger *slog.Logger) *Basic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Basic{cfg: cfg, logger: logger}
}

func (b *Basic) Config() Config { return b.cfg }

// NextMove always returns a move. When nothing is safe it returns the
// configured fallback and sets Decision.NoSafeMove.
func (b *Basic) NextMove(ctx context.Context, state *game.GameState) Decision {
	results := Evaluate(state, b.cfg)
	d := Select(results, state.You.Health, b.cfg)

	if b.logger.Enabled(ctx, slog.LevelDebug) {
		for _, r := range results {
			b.logger.DebugContext(ctx, "candidate",
				"turn", state.Turn,
				"move", r.Move.String(),
				"outcome", r.Outcome.String(),
				"food_score", r.FoodScore,
				"health_after", r.HealthAfterMove,
				"distance_to_food", distanceAttr(r.DistanceToFood),
				"can_touch_head", r.CanTouchHead,
			)
		}
	}

	if d.NoSafeMove {
		b.logger.WarnContext(ctx, "no safe moves, falling back", "turn", state.Turn, "move", d.Move.String())
		return d
	}
	b.logger.InfoContext(ctx, "move", "turn", state.Turn, "move", d.Move.String())
	return d
}

// distanceAttr keeps +Inf out of JSON log handlers, which reject it.
func distanceAttr(d float64) any {
	if math.IsInf(d, 1) {
		return "inf"
	}
	return int(d)
}
