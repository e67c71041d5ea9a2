// Package server exposes the strategy over the Battlesnake HTTP API.
//
// Handlers decode the request, hand a fresh snapshot to the strategy and
// encode the chosen move. Bookkeeping (game ledger, decision archive) is
// best effort: a failing store is logged and never changes the move.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/brensch/snekbasic/api"
	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/store"
	"github.com/brensch/snekbasic/strategy"
)

// maxBodyBytes caps request bodies. Real game states are a few KiB.
const maxBodyBytes = 1 << 20

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . GameStore,DecisionRecorder

// GameStore keeps a ledger of games and moves.
type GameStore interface {
	StartGame(ctx context.Context, g store.GameRecord) error
	RecordMove(ctx context.Context, gameID string, turn int, move string, fallback bool) error
	EndGame(ctx context.Context, gameID string, turn int, result string) error
}

// DecisionRecorder archives full decisions for offline analysis.
type DecisionRecorder interface {
	Record(ctx context.Context, gameID string, state *game.GameState, d strategy.Decision) error
}

// Appearance is the customization returned from GET /.
type Appearance struct {
	Author  string
	Color   string
	Head    string
	Tail    string
	Version string
}

// Server holds the strategy and its collaborators. A nil GameStore or
// DecisionRecorder disables that bookkeeping.
type Server struct {
	strategy   strategy.Strategy
	games      GameStore
	recorder   DecisionRecorder
	appearance Appearance
	logger     *slog.Logger
	router     chi.Router
}

type Option func(*Server)

func WithGameStore(g GameStore) Option {
	return func(s *Server) { s.games = g }
}

func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(s *Server) { s.recorder = r }
}

func WithAppearance(a Appearance) Option {
	return func(s *Server) { s.appearance = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(strat strategy.Strategy, opts ...Option) *Server {
	s := &Server{
		strategy: strat,
		appearance: Appearance{
			Author:  "snekbasic",
			Color:   "#00ff00",
			Head:    "default",
			Tail:    "default",
			Version: "1.0.0",
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/", s.handleIndex)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/start", s.handleStart)
	r.Post("/move", s.handleMove)
	r.Post("/end", s.handleEnd)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.InfoResponse{
		APIVersion: "1",
		Author:     s.appearance.Author,
		Color:      s.appearance.Color,
		Head:       s.appearance.Head,
		Tail:       s.appearance.Tail,
		Version:    s.appearance.Version,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	s.logger.InfoContext(r.Context(), "game started",
		"game_id", req.Game.ID,
		"turn", req.Turn,
		"you", req.You.Name,
		"ruleset", req.Game.Ruleset.Name,
	)
	if s.games != nil {
		err := s.games.StartGame(r.Context(), store.GameRecord{
			ID:      req.Game.ID,
			Ruleset: req.Game.Ruleset.Name,
			Map:     req.Game.Map,
			Width:   req.Board.Width,
			Height:  req.Board.Height,
		})
		if err != nil {
			s.logger.ErrorContext(r.Context(), "ledger start failed", "game_id", req.Game.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	state, err := req.ToGameState()
	if err != nil {
		s.logger.WarnContext(r.Context(), "rejected move request", "game_id", req.Game.ID, "turn", req.Turn, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d := s.strategy.NextMove(r.Context(), state)

	resp := api.MoveResponse{Move: d.Move.String()}
	if d.NoSafeMove {
		resp.Shout = "no safe moves"
	}
	writeJSON(w, http.StatusOK, resp)

	// Bookkeeping happens after the response is written and must not use a
	// context that dies with the request.
	ctx := context.WithoutCancel(r.Context())
	if s.games != nil {
		if err := s.games.RecordMove(ctx, req.Game.ID, req.Turn, resp.Move, d.NoSafeMove); err != nil {
			s.logger.ErrorContext(ctx, "ledger move failed", "game_id", req.Game.ID, "turn", req.Turn, "err", err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, req.Game.ID, state, d); err != nil {
			s.logger.ErrorContext(ctx, "record decision failed", "game_id", req.Game.ID, "turn", req.Turn, "err", err)
		}
	}

	s.logger.DebugContext(ctx, "move served",
		"game_id", req.Game.ID,
		"turn", req.Turn,
		"move", resp.Move,
		"elapsed", time.Since(startTime),
	)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	result := req.Result()
	s.logger.InfoContext(r.Context(), "game ended", "game_id", req.Game.ID, "turn", req.Turn, "result", result)
	if s.games != nil {
		if err := s.games.EndGame(r.Context(), req.Game.ID, req.Turn, result); err != nil {
			s.logger.ErrorContext(r.Context(), "ledger end failed", "game_id", req.Game.ID, "err", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*api.GameRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return nil, false
	}
	return &req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
