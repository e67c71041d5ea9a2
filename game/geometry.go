package game

import (
	"fmt"
	"strings"
)

// Move is one of the four cardinal directions a snake can take.
type Move int

const (
	MoveUp Move = iota
	MoveDown
	MoveLeft
	MoveRight
)

// AllMoves is every move in enumeration order. Evaluation and tie-breaks
// follow this order.
var AllMoves = [4]Move{MoveUp, MoveDown, MoveLeft, MoveRight}

// String returns the lower-case wire token for the move.
func (m Move) String() string {
	switch m {
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	default:
		return fmt.Sprintf("move(%d)", int(m))
	}
}

// Valid reports whether m is one of the four moves.
func (m Move) Valid() bool {
	return m >= MoveUp && m <= MoveRight
}

// ParseMove is the inverse of Move.String. It is case-insensitive.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return MoveUp, nil
	case "down":
		return MoveDown, nil
	case "left":
		return MoveLeft, nil
	case "right":
		return MoveRight, nil
	}
	return MoveUp, fmt.Errorf("unknown move %q", s)
}

// Step returns the cell adjacent to origin in the given direction.
// Up increases Y.
func Step(origin Point, m Move) Point {
	switch m {
	case MoveUp:
		origin.Y++
	case MoveDown:
		origin.Y--
	case MoveLeft:
		origin.X--
	case MoveRight:
		origin.X++
	}
	return origin
}

// MoveBetween returns the move that takes from to to, if they are adjacent.
func MoveBetween(from, to Point) (Move, bool) {
	for _, m := range AllMoves {
		if Step(from, m) == to {
			return m, true
		}
	}
	return MoveUp, false
}

// IsOutside reports whether p lies off a width x height board.
func IsOutside(p Point, width, height int32) bool {
	return p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height
}

// IsOutside reports whether p lies off this board.
func (s *GameState) IsOutside(p Point) bool {
	return IsOutside(p, s.Width, s.Height)
}

// Manhattan is |dx| + |dy|.
func Manhattan(a, b Point) int {
	dx := int(a.X - b.X)
	if dx < 0 {
		dx = -dx
	}
	dy := int(a.Y - b.Y)
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
