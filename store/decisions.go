package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/strategy"
)

// DecisionRow is one move decision, with the snapshot it was made from and
// the evaluation of all four directions.
type DecisionRow struct {
	GameID     string         `parquet:"game_id,dict"`
	Turn       int32          `parquet:"turn"`
	YouID      string         `parquet:"you_id,dict"`
	Width      int32          `parquet:"width"`
	Height     int32          `parquet:"height"`
	Health     int32          `parquet:"health"`
	Move       string         `parquet:"move,dict"`
	NoSafeMove bool           `parquet:"no_safe_move"`
	RecordedAt int64          `parquet:"recorded_at"`
	State      []byte         `parquet:"state,zstd"`
	Candidates []CandidateRow `parquet:"candidates"`
}

// CandidateRow is one direction's evaluation. Rank is the position among the
// surviving moves (0 = chosen), or -1 for dead moves.
type CandidateRow struct {
	Move             string  `parquet:"move,dict"`
	Outcome          string  `parquet:"outcome,dict"`
	Rank             int32   `parquet:"rank"`
	FoodScore        float64 `parquet:"food_score"`
	HealthAfterMove  int32   `parquet:"health_after_move"`
	CollisionPenalty float64 `parquet:"collision_penalty"`
	DistanceToFood   float64 `parquet:"distance_to_food"`
	CanTouchHead     bool    `parquet:"can_touch_head"`
}

// RawGameState is the JSON snapshot stored in DecisionRow.State.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type RawGameState struct {
	Width  int32      `json:"width"`
	Height int32      `json:"height"`
	Turn   int32      `json:"turn"`
	YouID  string     `json:"you_id"`
	Food   []RawPoint `json:"food"`
	Snakes []RawSnake `json:"snakes"`
}

type RawPoint struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type RawSnake struct {
	ID     string     `json:"id"`
	Health int32      `json:"health"`
	Length int32      `json:"length"`
	Body   []RawPoint `json:"body"`
}

func EncodeState(state *game.GameState) ([]byte, error) {
	raw := RawGameState{
		Width:  state.Width,
		Height: state.Height,
		Turn:   state.Turn,
		YouID:  state.YouId,
		Food:   rawPoints(state.Food),
		Snakes: make([]RawSnake, len(state.Snakes)),
	}
	for i, s := range state.Snakes {
		raw.Snakes[i] = RawSnake{ID: s.Id, Health: s.Health, Length: s.Length, Body: rawPoints(s.Body)}
	}
	return json.Marshal(raw)
}

// DecodeState is the inverse of EncodeState. You is looked up in Snakes.
func DecodeState(b []byte) (*game.GameState, error) {
	var raw RawGameState
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state := &game.GameState{
		Width:  raw.Width,
		Height: raw.Height,
		Turn:   raw.Turn,
		YouId:  raw.YouID,
		Food:   gamePoints(raw.Food),
		Snakes: make([]game.Snake, len(raw.Snakes)),
	}
	found := false
	for i, s := range raw.Snakes {
		state.Snakes[i] = game.Snake{Id: s.ID, Health: s.Health, Length: s.Length, Body: gamePoints(s.Body)}
		if s.ID == raw.YouID {
			state.You = state.Snakes[i]
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("decode state: you %q not among snakes", raw.YouID)
	}
	return state, nil
}

func rawPoints(ps []game.Point) []RawPoint {
	out := make([]RawPoint, len(ps))
	for i, p := range ps {
		out[i] = RawPoint{X: p.X, Y: p.Y}
	}
	return out
}

func gamePoints(ps []RawPoint) []game.Point {
	out := make([]game.Point, len(ps))
	for i, p := range ps {
		out[i] = game.Point{X: p.X, Y: p.Y}
	}
	return out
}

// NewDecisionRow flattens a decision into an archive row.
func NewDecisionRow(gameID string, state *game.GameState, d strategy.Decision) (DecisionRow, error) {
	raw, err := EncodeState(state)
	if err != nil {
		return DecisionRow{}, fmt.Errorf("encode state: %w", err)
	}

	rank := make(map[game.Move]int32, len(d.Candidates))
	for i, c := range d.Candidates {
		rank[c.Move] = int32(i)
	}

	row := DecisionRow{
		GameID:     gameID,
		Turn:       state.Turn,
		YouID:      state.YouId,
		Width:      state.Width,
		Height:     state.Height,
		Health:     state.You.Health,
		Move:       d.Move.String(),
		NoSafeMove: d.NoSafeMove,
		RecordedAt: time.Now().UnixMilli(),
		State:      raw,
		Candidates: make([]CandidateRow, 0, len(d.Results)),
	}
	for _, r := range d.Results {
		cr := CandidateRow{
			Move:             r.Move.String(),
			Outcome:          r.Outcome.String(),
			Rank:             -1,
			FoodScore:        r.FoodScore,
			HealthAfterMove:  r.HealthAfterMove,
			CollisionPenalty: r.CollisionPenalty,
			DistanceToFood:   r.DistanceToFood,
			CanTouchHead:     r.CanTouchHead,
		}
		if i, ok := rank[r.Move]; ok {
			cr.Rank = i
		}
		row.Candidates = append(row.Candidates, cr)
	}
	return row, nil
}

// WriteDecisions writes rows to a new parquet file in outDir. The file is
// written under outDir/tmp and renamed into place once complete.
func WriteDecisions(outDir string, rows []DecisionRow) (string, error) {
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("decisions_%d_%s.parquet", time.Now().UnixNano(), uuid.NewString())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "decision_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

// ReadDecisions loads every row of a decisions parquet file.
func ReadDecisions(path string) ([]DecisionRow, error) {
	rows, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

// Recorder buffers decisions in memory and flushes them to parquet batches.
// It is safe for concurrent use by many games.
type Recorder struct {
	outDir     string
	flushTurns int
	logger     *slog.Logger

	mu      sync.Mutex
	rows    []DecisionRow
	written int
}

func NewRecorder(outDir string, flushTurns int, logger *slog.Logger) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if flushTurns <= 0 {
		flushTurns = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Recorder{
		outDir:     outDir,
		flushTurns: flushTurns,
		logger:     logger,
		rows:       make([]DecisionRow, 0, flushTurns),
	}, nil
}

// Record buffers one decision, flushing when the buffer is full.
func (r *Recorder) Record(ctx context.Context, gameID string, state *game.GameState, d strategy.Decision) error {
	row, err := NewDecisionRow(gameID, state, d)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	if len(r.rows) < r.flushTurns {
		return nil
	}
	_, err = r.flushLocked(ctx, "count")
	return err
}

// Flush writes any buffered rows. It returns the written path, or "" when
// the buffer was empty.
func (r *Recorder) Flush(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx, "manual")
}

func (r *Recorder) flushLocked(ctx context.Context, reason string) (string, error) {
	if len(r.rows) == 0 {
		return "", nil
	}
	path, err := WriteDecisions(r.outDir, r.rows)
	if err != nil {
		r.logger.ErrorContext(ctx, "decision flush failed", "reason", reason, "rows", len(r.rows), "err", err)
		return "", err
	}
	r.written += len(r.rows)
	r.logger.InfoContext(ctx, "flushed decisions", "reason", reason, "rows", len(r.rows), "path", path)
	r.rows = r.rows[:0]
	return path, nil
}

// Buffered reports rows waiting to be flushed.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Written reports rows flushed so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Run flushes every interval until ctx is done, then flushes once more.
func (r *Recorder) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			_, err := r.flushLocked(context.WithoutCancel(ctx), "shutdown")
			r.mu.Unlock()
			return err
		case <-ticker.C:
			r.mu.Lock()
			_, _ = r.flushLocked(ctx, "ticker")
			r.mu.Unlock()
		}
	}
}
