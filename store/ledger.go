package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrGameNotFound is returned by GetGame for unknown IDs.
var ErrGameNotFound = errors.New("game not found")

// Ledger records every game the snake plays and every move it sends.
type Ledger struct {
	conn *sql.DB
	mu   sync.Mutex
}

// GameRecord is one row of the games table.
type GameRecord struct {
	ID        string
	Ruleset   string
	Map       string
	Width     int
	Height    int
	StartedAt time.Time
	EndedAt   sql.NullTime
	Turns     int
	Result    string
}

// Summary aggregates finished games.
type Summary struct {
	Won       int
	Lost      int
	Draw      int
	Fallbacks int
}

// ReplayRecord is one offline replay of an archived game, as one snake.
type ReplayRecord struct {
	GameID     string
	Snake      string
	Turns      int
	Agreed     int
	Known      int
	Winner     string
	ReplayedAt time.Time
}

// ReplayTotals sums every stored replay.
type ReplayTotals struct {
	Games  int
	Agreed int
	Known  int
}

// OpenLedger opens (creating if needed) the SQLite ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	l := &Ledger{conn: conn}
	if err := l.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		ruleset TEXT,
		map TEXT,
		width INTEGER,
		height INTEGER,
		started_at DATETIME,
		ended_at DATETIME,
		turns INTEGER DEFAULT 0,
		result TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS moves (
		game_id TEXT,
		turn INTEGER,
		move TEXT,
		fallback BOOLEAN DEFAULT 0,
		PRIMARY KEY (game_id, turn),
		FOREIGN KEY(game_id) REFERENCES games(id)
	);

	CREATE TABLE IF NOT EXISTS replays (
		game_id TEXT,
		snake TEXT,
		turns INTEGER,
		agreed INTEGER,
		known INTEGER,
		winner TEXT,
		replayed_at DATETIME,
		PRIMARY KEY (game_id, snake)
	);

	CREATE INDEX IF NOT EXISTS idx_games_result ON games(result);
	`

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

// StartGame inserts the game. Starting an already known game is a no-op.
func (l *Ledger) StartGame(ctx context.Context, g GameRecord) error {
	if g.StartedAt.IsZero() {
		g.StartedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO games (id, ruleset, map, width, height, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		g.ID, g.Ruleset, g.Map, g.Width, g.Height, g.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// RecordMove stores the move sent for a turn and bumps the game's turn count.
// Games that never saw /start are created on the fly.
func (l *Ledger) RecordMove(ctx context.Context, gameID string, turn int, move string, fallback bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO games (id, started_at) VALUES (?, ?)",
		gameID, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO moves (game_id, turn, move, fallback) VALUES (?, ?, ?, ?)",
		gameID, turn, move, fallback,
	); err != nil {
		return fmt.Errorf("failed to insert move %d: %w", turn, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE games SET turns = MAX(turns, ?) WHERE id = ?",
		turn, gameID,
	); err != nil {
		return fmt.Errorf("failed to update turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EndGame stores the final turn and result.
func (l *Ledger) EndGame(ctx context.Context, gameID string, turn int, result string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	if _, err := l.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO games (id, started_at) VALUES (?, ?)",
		gameID, now,
	); err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	if _, err := l.conn.ExecContext(ctx,
		"UPDATE games SET ended_at = ?, turns = MAX(turns, ?), result = ? WHERE id = ?",
		now, turn, result, gameID,
	); err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	return nil
}

func (l *Ledger) GetGame(ctx context.Context, gameID string) (GameRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var g GameRecord
	var ruleset, mapName sql.NullString
	var width, height sql.NullInt64
	err := l.conn.QueryRowContext(ctx,
		"SELECT id, ruleset, map, width, height, started_at, ended_at, turns, result FROM games WHERE id = ?",
		gameID,
	).Scan(&g.ID, &ruleset, &mapName, &width, &height, &g.StartedAt, &g.EndedAt, &g.Turns, &g.Result)
	if errors.Is(err, sql.ErrNoRows) {
		return GameRecord{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return GameRecord{}, err
	}
	g.Ruleset = ruleset.String
	g.Map = mapName.String
	g.Width = int(width.Int64)
	g.Height = int(height.Int64)
	return g, nil
}

// Summary counts results over all finished games and fallback moves overall.
func (l *Ledger) Summary(ctx context.Context) (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Summary
	if err := l.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM moves WHERE fallback = 1").Scan(&s.Fallbacks); err != nil {
		return Summary{}, err
	}

	rows, err := l.conn.QueryContext(ctx, "SELECT result, COUNT(*) FROM games WHERE result != '' GROUP BY result")
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return Summary{}, err
		}
		switch result {
		case "won":
			s.Won = n
		case "lost":
			s.Lost = n
		case "draw":
			s.Draw = n
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// RecordReplay stores the outcome of replaying a game. Replaying the same game
// as the same snake again overwrites the earlier row.
func (l *Ledger) RecordReplay(ctx context.Context, r ReplayRecord) error {
	if r.GameID == "" {
		return fmt.Errorf("replay game id is required")
	}
	if r.ReplayedAt.IsZero() {
		r.ReplayedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO replays (game_id, snake, turns, agreed, known, winner, replayed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.GameID, r.Snake, r.Turns, r.Agreed, r.Known, r.Winner, r.ReplayedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert replay %s: %w", r.GameID, err)
	}
	return nil
}

// HasReplay reports whether gameID was already replayed as snake.
func (l *Ledger) HasReplay(ctx context.Context, gameID, snake string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	err := l.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM replays WHERE game_id = ? AND snake = ?",
		gameID, snake,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReplayTotals sums the replays stored for snake.
func (l *Ledger) ReplayTotals(ctx context.Context, snake string) (ReplayTotals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var t ReplayTotals
	err := l.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(agreed), 0), COALESCE(SUM(known), 0) FROM replays WHERE snake = ?",
		snake,
	).Scan(&t.Games, &t.Agreed, &t.Known)
	if err != nil {
		return ReplayTotals{}, err
	}
	return t, nil
}
