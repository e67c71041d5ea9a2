// Command replay reruns the strategy over recorded or live-archived games.
//
//	replay -game <id> -snake <name|id> [-tui]
//	replay -player-stats <url> -snake <name|id> [-limit N] [-db path]
//	replay -decisions <file.parquet>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/brensch/snekbasic/logging"
	"github.com/brensch/snekbasic/replay"
	"github.com/brensch/snekbasic/store"
	"github.com/brensch/snekbasic/strategy"
)

func main() {
	_ = godotenv.Load()

	gameID := flag.String("game", "", "Game ID to download and replay")
	playerStats := flag.String("player-stats", "", "Player stats page URL; replays every game listed")
	snake := flag.String("snake", os.Getenv("SNAKE_NAME"), "Snake name or ID to replay as")
	tui := flag.Bool("tui", false, "Step through a single game interactively")
	limit := flag.Int("limit", 20, "Maximum games to replay from -player-stats")
	dbPath := flag.String("db", os.Getenv("DB_PATH"), "SQLite ledger recording replayed games; already replayed games are skipped (optional)")
	decisions := flag.String("decisions", "", "Re-evaluate a decisions parquet file with the current strategy")
	tailVacates := flag.Bool("tail-vacates", os.Getenv("TAIL_VACATES") == "true", "Treat our own non-stacked tail as free")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(os.Stderr, "text", *logLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	cfg := strategy.DefaultConfig()
	cfg.TailVacates = *tailVacates
	strat := strategy.NewBasic(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dlCfg := replay.DefaultConfig()
	dlCfg.Logger = logger

	switch {
	case *decisions != "":
		if err := reevaluate(ctx, *decisions, strat); err != nil {
			log.Fatalf("Re-evaluate failed: %v", err)
		}
	case *gameID != "":
		if *snake == "" {
			log.Fatalf("-snake is required")
		}
		if err := replayOne(ctx, *gameID, *snake, *tui, dlCfg, strat); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
	case *playerStats != "":
		if *snake == "" {
			log.Fatalf("-snake is required")
		}
		if err := replayPlayer(ctx, *playerStats, *snake, *limit, *dbPath, dlCfg, strat, logger); err != nil {
			log.Fatalf("Replay failed: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func replayOne(ctx context.Context, gameID, snake string, interactive bool, cfg replay.Config, strat strategy.Strategy) error {
	g, err := replay.Download(ctx, gameID, cfg)
	if err != nil {
		return err
	}
	snakeID, err := replay.ResolveSnake(g, snake)
	if err != nil {
		return err
	}
	turns, err := replay.Analyze(ctx, g, snakeID, strat)
	if err != nil {
		return err
	}

	if interactive {
		_, err := tea.NewProgram(replay.NewViewer(gameID, turns), tea.WithAltScreen()).Run()
		return err
	}

	for _, t := range turns {
		actual := "-"
		if t.HasActual {
			actual = t.Actual.String()
		}
		mark := " "
		if t.HasActual && !t.Agrees {
			mark = "*"
		}
		fmt.Printf("%s turn %3d  chose %-5s actual %-5s\n", mark, t.Turn, t.Decision.Move, actual)
	}
	agree, known := replay.Agreement(turns)
	fmt.Printf("\n%s (%s): agreed on %d/%d turns, winner %s\n", gameID, g.Info.Ruleset.Name, agree, known, g.Winner)
	if turn, cause, ok := replay.Elimination(g, snakeID); ok {
		fmt.Printf("%s eliminated on turn %d by %s\n", snake, turn, cause)
	}
	return nil
}

func replayPlayer(ctx context.Context, statsURL, snake string, limit int, dbPath string, cfg replay.Config, strat strategy.Strategy, logger *slog.Logger) error {
	ids, err := replay.PlayerGames(ctx, statsURL)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}

	var ledger *store.Ledger
	if dbPath != "" {
		ledger, err = store.OpenLedger(dbPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	var games, agreeTotal, knownTotal int
	for _, id := range ids {
		if limit > 0 && games >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if ledger != nil {
			done, err := ledger.HasReplay(ctx, id, snake)
			if err != nil {
				return fmt.Errorf("check replay %s: %w", id, err)
			}
			if done {
				continue
			}
		}

		g, err := replay.Download(ctx, id, cfg)
		if err != nil {
			logger.Warn("download failed", "game_id", id, "err", err)
			continue
		}
		snakeID, err := replay.ResolveSnake(g, snake)
		if err != nil {
			logger.Warn("snake not in game", "game_id", id, "snake", snake)
			continue
		}
		turns, err := replay.Analyze(ctx, g, snakeID, strat)
		if err != nil {
			return err
		}

		agree, known := replay.Agreement(turns)
		agreeTotal += agree
		knownTotal += known
		games++
		fmt.Printf("%s  turns=%d agreed=%d/%d winner=%s\n", id, len(turns), agree, known, g.Winner)

		if ledger != nil {
			err := ledger.RecordReplay(ctx, store.ReplayRecord{
				GameID: id,
				Snake:  snake,
				Turns:  len(turns),
				Agreed: agree,
				Known:  known,
				Winner: g.Winner,
			})
			if err != nil {
				logger.Warn("replay record failed", "game_id", id, "err", err)
			}
		}
		// Be polite to the engine.
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Printf("\n%d games, agreed on %d/%d turns\n", games, agreeTotal, knownTotal)
	if ledger != nil {
		totals, err := ledger.ReplayTotals(ctx, snake)
		if err != nil {
			return err
		}
		fmt.Printf("all replays of %s: %d games, agreed on %d/%d turns\n", snake, totals.Games, totals.Agreed, totals.Known)
	}
	return nil
}

// reevaluate reruns the strategy on archived decisions and prints every turn
// where the current configuration picks differently.
func reevaluate(ctx context.Context, path string, strat strategy.Strategy) error {
	rows, err := store.ReadDecisions(path)
	if err != nil {
		return err
	}

	changed := 0
	for _, row := range rows {
		state, err := store.DecodeState(row.State)
		if err != nil {
			return fmt.Errorf("game %s turn %d: %w", row.GameID, row.Turn, err)
		}
		d := strat.NextMove(ctx, state)
		if d.Move.String() == row.Move {
			continue
		}
		changed++
		fmt.Printf("%s turn %3d  recorded %-5s now %-5s\n", row.GameID, row.Turn, row.Move, d.Move)
	}
	fmt.Printf("\n%d/%d decisions changed\n", changed, len(rows))
	return nil
}
