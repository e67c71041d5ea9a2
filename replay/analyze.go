package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/strategy"
)

// ErrSnakeNotFound is returned when the requested snake is not alive in a frame.
var ErrSnakeNotFound = errors.New("snake not found")

// Turn is one replayed decision.
type Turn struct {
	Turn     int32
	State    *game.GameState
	Decision strategy.Decision
	// Actual is the move the snake really made, valid when HasActual.
	Actual    game.Move
	HasActual bool
	Agrees    bool
}

// ResolveSnake maps a snake name or ID to its ID using the first frame.
func ResolveSnake(g *Game, nameOrID string) (string, error) {
	if len(g.Frames) == 0 {
		return "", ErrNoFrames
	}
	for _, s := range g.Frames[0].Snakes {
		if s.ID == nameOrID || s.Name == nameOrID {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSnakeNotFound, nameOrID)
}

// FrameState converts a frame into a snapshot from snakeID's point of view.
// Dead snakes are left off the board.
func FrameState(info GameInfo, frame FrameData, snakeID string) (*game.GameState, error) {
	width, height := info.Game.Width, info.Game.Height
	if frame.Board.Width > 0 && frame.Board.Height > 0 {
		width, height = frame.Board.Width, frame.Board.Height
	}
	if width <= 0 || height <= 0 {
		// The engine omits dimensions on some older games; every public
		// arena used 11x11.
		width, height = 11, 11
	}

	state := &game.GameState{
		Width:  int32(width),
		Height: int32(height),
		Turn:   int32(frame.Turn),
		YouId:  snakeID,
		Food:   make([]game.Point, len(frame.Food)),
	}
	for i, f := range frame.Food {
		state.Food[i] = toPoint(f)
	}

	found := false
	for _, s := range frame.Snakes {
		if s.Death != nil || len(s.Body) == 0 {
			continue
		}
		snake := game.Snake{
			Id:     s.ID,
			Health: int32(s.Health),
			Length: int32(len(s.Body)),
			Body:   make([]game.Point, len(s.Body)),
		}
		for i, b := range s.Body {
			snake.Body[i] = toPoint(b)
		}
		state.Snakes = append(state.Snakes, snake)
		if s.ID == snakeID {
			state.You = snake
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s on turn %d", ErrSnakeNotFound, snakeID, frame.Turn)
	}
	return state, nil
}

func toPoint(c Coord) game.Point {
	return game.Point{X: int32(c.X), Y: int32(c.Y)}
}

// Analyze reruns strat on every turn snakeID was alive and compares its
// choice with the move actually played, taken from the next frame.
func Analyze(ctx context.Context, g *Game, snakeID string, strat strategy.Strategy) ([]Turn, error) {
	var turns []Turn
	for i, frame := range g.Frames {
		if err := ctx.Err(); err != nil {
			return turns, err
		}
		state, err := FrameState(g.Info, frame, snakeID)
		if errors.Is(err, ErrSnakeNotFound) {
			continue
		}
		if err != nil {
			return turns, err
		}

		t := Turn{
			Turn:     state.Turn,
			State:    state,
			Decision: strat.NextMove(ctx, state.Clone()),
		}
		if i+1 < len(g.Frames) {
			if next, ok := headOf(g.Frames[i+1], snakeID); ok {
				t.Actual, t.HasActual = game.MoveBetween(state.You.Head(), next)
			}
		}
		t.Agrees = t.HasActual && t.Actual == t.Decision.Move
		turns = append(turns, t)
	}
	return turns, nil
}

// headOf reads the snake's head even from a frame where it died, since the
// engine keeps the body of the fatal move.
func headOf(frame FrameData, snakeID string) (game.Point, bool) {
	for _, s := range frame.Snakes {
		if s.ID == snakeID && len(s.Body) > 0 {
			return toPoint(s.Body[0]), true
		}
	}
	return game.Point{}, false
}

// Agreement counts turns with a known actual move and how many of them the
// strategy matched.
func Agreement(turns []Turn) (agree, known int) {
	for _, t := range turns {
		if !t.HasActual {
			continue
		}
		known++
		if t.Agrees {
			agree++
		}
	}
	return agree, known
}

// Elimination finds the first frame where snakeID is marked dead and returns
// that frame's turn and the engine's cause.
func Elimination(g *Game, snakeID string) (turn int, cause string, ok bool) {
	for _, frame := range g.Frames {
		for _, s := range frame.Snakes {
			if s.ID == snakeID && s.Death != nil {
				return frame.Turn, s.Death.Cause, true
			}
		}
	}
	return 0, "", false
}
