// Package game defines the board snapshot types for Battlesnake.
//
// A GameState is rebuilt from the wire request every turn and handed to the
// strategy as a read-only value. Nothing in this package keeps state between
// turns.
package game

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Snake is one snake on the board. Body[0] is the head.
//
// Length is what head-to-head fights compare; Body is what occupies cells.
// The two normally agree but some rulesets track them separately.
type Snake struct {
	Id     string
	Health int32
	Length int32
	Body   []Point
}

// Head returns the first body segment, or the zero Point for an empty body.
func (s Snake) Head() Point {
	if len(s.Body) == 0 {
		return Point{}
	}
	return s.Body[0]
}

// GameState is the complete snapshot needed for one move decision.
// You is the ego snake; it is also present in Snakes.
type GameState struct {
	Width  int32
	Height int32
	Snakes []Snake
	Food   []Point
	You    Snake
	YouId  string
	Turn   int32
}

// Others returns every snake except You, in board order.
func (s *GameState) Others() []Snake {
	out := make([]Snake, 0, len(s.Snakes))
	for _, sn := range s.Snakes {
		if sn.Id == s.YouId {
			continue
		}
		out = append(out, sn)
	}
	return out
}

// IsFood reports whether p holds food.
func (s *GameState) IsFood(p Point) bool {
	for _, f := range s.Food {
		if f == p {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
		You:    cloneSnake(s.You),
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = cloneSnake(s.Snakes[i])
		}
	}

	return out
}

func cloneSnake(s Snake) Snake {
	out := Snake{Id: s.Id, Health: s.Health, Length: s.Length}
	if len(s.Body) > 0 {
		out.Body = make([]Point, len(s.Body))
		copy(out.Body, s.Body)
	}
	return out
}
