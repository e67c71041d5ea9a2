// Package replay fetches finished games from the Battlesnake engine and
// reruns the strategy over them turn by turn.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds downloader configuration
type Config struct {
	EngineURL      string // WebSocket URL template, %s is the game ID
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Logger         *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// ErrNoFrames is returned when the stream closed before any frame arrived.
var ErrNoFrames = errors.New("no frames received")

// GameEvent represents an event from the WebSocket stream
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo from the "game_info" event
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type RulesetInfo struct {
	Name string `json:"name"`
}

// FrameData from "frame" events
type FrameData struct {
	Turn   int         `json:"turn"`
	Snakes []SnakeData `json:"snakes"`
	Food   []Coord     `json:"food"`
	Board  BoardData   `json:"board,omitempty"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Death  *Death  `json:"death,omitempty"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type BoardData struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Death struct {
	Cause string `json:"cause"`
}

// Game is a downloaded game: its info event and every frame in turn order.
type Game struct {
	ID     string
	Info   GameInfo
	Frames []FrameData
	Winner string
}

// Download connects to the game's event stream and reads until game_end,
// a normal close, or a read error after at least one frame.
func Download(ctx context.Context, gameID string, cfg Config) (*Game, error) {
	if gameID == "" {
		return nil, fmt.Errorf("game id is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	url := fmt.Sprintf(cfg.EngineURL, gameID)

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.ConnectTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	g := &Game{ID: gameID}

read:
	for {
		if cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			// Timeout or unexpected close; keep what we have.
			if len(g.Frames) > 0 {
				logger.WarnContext(ctx, "stream ended early", "game_id", gameID, "frames", len(g.Frames), "err", err)
				break
			}
			return nil, fmt.Errorf("read error: %w", err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			logger.WarnContext(ctx, "failed to parse event", "game_id", gameID, "err", err)
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &g.Info); err != nil {
				logger.WarnContext(ctx, "failed to parse game_info", "game_id", gameID, "err", err)
			}
		case "frame":
			var frame FrameData
			if err := json.Unmarshal(event.Data, &frame); err != nil {
				logger.WarnContext(ctx, "failed to parse frame", "game_id", gameID, "err", err)
				continue
			}
			g.Frames = append(g.Frames, frame)
		case "game_end":
			break read
		}
	}

	if len(g.Frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, gameID)
	}
	g.Winner = determineWinner(g.Frames[len(g.Frames)-1])
	logger.InfoContext(ctx, "downloaded game", "game_id", gameID, "frames", len(g.Frames), "winner", g.Winner)
	return g, nil
}

// determineWinner names the single survivor of the final frame, or "draw".
func determineWinner(frame FrameData) string {
	var alive []SnakeData
	for _, snake := range frame.Snakes {
		if snake.Death == nil && snake.Health > 0 {
			alive = append(alive, snake)
		}
	}
	if len(alive) == 1 {
		return alive[0].Name
	}
	return "draw"
}
