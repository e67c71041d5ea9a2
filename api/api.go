// Package api holds the Battlesnake v1 JSON types and their conversion to
// game.GameState.
package api

import (
	"errors"
	"fmt"

	"github.com/brensch/snekbasic/game"
)

// ErrMalformedState is returned for snapshots the strategy cannot be run on.
var ErrMalformedState = errors.New("malformed game state")

type InfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int `json:"foodSpawnChance"`
	MinimumFood         int `json:"minimumFood"`
	HazardDamagePerTurn int `json:"hazardDamagePerTurn"`
}

type Board struct {
	Height  int           `json:"height"`
	Width   int           `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Health         int     `json:"health"`
	Body           []Coord `json:"body"`
	Latency        string  `json:"latency"`
	Head           Coord   `json:"head"`
	Length         int     `json:"length"`
	Shout          string  `json:"shout"`
	Squad          string  `json:"squad"`
	Customizations struct {
		Color string `json:"color"`
		Head  string `json:"head"`
		Tail  string `json:"tail"`
	} `json:"customizations"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// ToGameState converts the request into the strategy's snapshot.
// It rejects requests with no board, no snakes, or a headless You.
func (r *GameRequest) ToGameState() (*game.GameState, error) {
	if r.Board.Width <= 0 || r.Board.Height <= 0 {
		return nil, fmt.Errorf("%w: board %dx%d", ErrMalformedState, r.Board.Width, r.Board.Height)
	}
	if len(r.Board.Snakes) == 0 {
		return nil, fmt.Errorf("%w: no snakes on board", ErrMalformedState)
	}
	if len(r.You.Body) == 0 {
		return nil, fmt.Errorf("%w: you has no body", ErrMalformedState)
	}
	if r.Turn < 0 {
		return nil, fmt.Errorf("%w: negative turn %d", ErrMalformedState, r.Turn)
	}

	state := &game.GameState{
		Width:  int32(r.Board.Width),
		Height: int32(r.Board.Height),
		YouId:  r.You.ID,
		Turn:   int32(r.Turn),
		You:    convertSnake(r.You),
	}

	state.Food = make([]game.Point, len(r.Board.Food))
	for i, f := range r.Board.Food {
		state.Food[i] = convertCoord(f)
	}

	state.Snakes = make([]game.Snake, 0, len(r.Board.Snakes))
	for _, s := range r.Board.Snakes {
		if len(s.Body) == 0 {
			return nil, fmt.Errorf("%w: snake %s has no body", ErrMalformedState, s.ID)
		}
		state.Snakes = append(state.Snakes, convertSnake(s))
	}

	return state, nil
}

func convertSnake(s Battlesnake) game.Snake {
	out := game.Snake{
		Id:     s.ID,
		Health: int32(s.Health),
		Length: int32(s.Length),
		Body:   make([]game.Point, len(s.Body)),
	}
	for i, b := range s.Body {
		out.Body[i] = convertCoord(b)
	}
	if out.Length == 0 {
		out.Length = int32(len(s.Body))
	}
	return out
}

func convertCoord(c Coord) game.Point {
	return game.Point{X: int32(c.X), Y: int32(c.Y)}
}

// Result reports won, lost or draw from the final /end snapshot. Only the
// last snake standing wins; several survivors, or none, is a draw.
func (r *GameRequest) Result() string {
	alive := false
	for _, snake := range r.Board.Snakes {
		if snake.ID == r.You.ID {
			alive = true
			break
		}
	}
	switch {
	case len(r.Board.Snakes) == 0:
		return "draw"
	case !alive:
		return "lost"
	case len(r.Board.Snakes) == 1:
		return "won"
	default:
		return "draw"
	}
}
