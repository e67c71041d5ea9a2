package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/logging"
	"github.com/brensch/snekbasic/server"
	"github.com/brensch/snekbasic/store"
	"github.com/brensch/snekbasic/strategy"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	def := strategy.DefaultConfig()

	listen := flag.String("listen", getEnvOrDefault("LISTEN", ":8000"), "HTTP listen address")
	logLevel := flag.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	logFormat := flag.String("log-format", getEnvOrDefault("LOG_FORMAT", "text"), "text, json or pretty")
	healthThreshold := flag.Int("health-threshold", getEnvIntOrDefault("HEALTH_THRESHOLD", int(def.HealthThreshold)), "Health below which food gets the low-health bonus")
	foodWeight := flag.Float64("food-weight", getEnvFloatOrDefault("FOOD_WEIGHT", def.FoodWeight), "Score for stepping onto food")
	lowHealthBonus := flag.Float64("low-health-bonus", getEnvFloatOrDefault("LOW_HEALTH_BONUS", def.LowHealthBonus), "Extra food score when health is low")
	fallback := flag.String("fallback-move", getEnvOrDefault("FALLBACK_MOVE", def.FallbackMove.String()), "Move sent when every direction is fatal")
	tailVacates := flag.Bool("tail-vacates", getEnvBoolOrDefault("TAIL_VACATES", def.TailVacates), "Treat our own non-stacked tail as free")
	dbPath := flag.String("db", getEnvOrDefault("DB_PATH", "data/ledger.db"), "SQLite game ledger (empty disables)")
	recordDir := flag.String("record-dir", getEnvOrDefault("RECORD_DIR", "data/decisions"), "Directory for decision parquet batches (empty disables)")
	flushTurns := flag.Int("flush-turns", getEnvIntOrDefault("FLUSH_TURNS", 1000), "Flush decisions when this many are buffered")
	flushEvery := flag.Duration("flush-every", getEnvDurationOrDefault("FLUSH_EVERY", 5*time.Minute), "Flush decisions at this interval regardless of count")
	color := flag.String("color", getEnvOrDefault("SNAKE_COLOR", "#00ff00"), "Snake colour")
	head := flag.String("head", getEnvOrDefault("SNAKE_HEAD", "default"), "Snake head")
	tail := flag.String("tail", getEnvOrDefault("SNAKE_TAIL", "default"), "Snake tail")
	author := flag.String("author", getEnvOrDefault("SNAKE_AUTHOR", "snekbasic"), "Snake author")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logFormat, *logLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	fallbackMove, err := game.ParseMove(*fallback)
	if err != nil {
		log.Fatalf("Invalid fallback move: %v", err)
	}
	cfg := strategy.Config{
		HealthThreshold: int32(*healthThreshold),
		FoodWeight:      *foodWeight,
		LowHealthBonus:  *lowHealthBonus,
		FallbackMove:    fallbackMove,
		TailVacates:     *tailVacates,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid strategy config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithAppearance(server.Appearance{
			Author:  *author,
			Color:   *color,
			Head:    *head,
			Tail:    *tail,
			Version: "1.0.0",
		}),
	}

	if *dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
			log.Fatalf("Failed to create db dir: %v", err)
		}
		ledger, err := store.OpenLedger(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open ledger: %v", err)
		}
		defer ledger.Close()
		opts = append(opts, server.WithGameStore(ledger))

		if s, err := ledger.Summary(ctx); err == nil {
			logger.Info("ledger opened", "path", *dbPath, "won", s.Won, "lost", s.Lost, "draw", s.Draw, "fallbacks", s.Fallbacks)
		}
	}

	var recorder *store.Recorder
	if *recordDir != "" {
		recorder, err = store.NewRecorder(*recordDir, *flushTurns, logger)
		if err != nil {
			log.Fatalf("Failed to create recorder: %v", err)
		}
		opts = append(opts, server.WithDecisionRecorder(recorder))
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           server.New(strategy.NewBasic(cfg, logger), opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting snake",
		"listen", *listen,
		"health_threshold", cfg.HealthThreshold,
		"food_weight", cfg.FoodWeight,
		"low_health_bonus", cfg.LowHealthBonus,
		"fallback", cfg.FallbackMove.String(),
		"tail_vacates", cfg.TailVacates,
	)

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}

	if err := serve(ctx, srv, ln, recorder, *flushEvery); err != nil {
		logger.Error("exited with error", "err", err)
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

// serve runs srv on ln until ctx is done. The recorder's final flush waits
// for Shutdown so moves still in flight are written too.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, recorder *store.Recorder, flushEvery time.Duration) error {
	recorderCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRecorder()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopRecorder()
		return err
	})
	if recorder != nil {
		eg.Go(func() error {
			return recorder.Run(recorderCtx, flushEvery)
		})
	}
	return eg.Wait()
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
