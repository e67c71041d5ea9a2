package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/store"
	"github.com/brensch/snekbasic/strategy"
)

func TestServe_FlushesMovesRecordedDuringShutdown(t *testing.T) {
	rec, err := store.NewRecorder(t.TempDir(), 100, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	you := game.Snake{Id: "me", Health: 50, Length: 2, Body: []game.Point{{X: 3, Y: 3}, {X: 3, Y: 2}}}
	state := &game.GameState{Width: 7, Height: 7, Turn: 4, YouId: "me", You: you, Snakes: []game.Snake{you}}
	cfg := strategy.DefaultConfig()
	decision := strategy.Select(strategy.Evaluate(state, cfg), you.Health, cfg)

	entered := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		if err := rec.Record(context.WithoutCancel(r.Context()), "g1", state, decision); err != nil {
			t.Errorf("Record: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	shuttingDown := make(chan struct{})
	srv := &http.Server{Handler: handler}
	srv.RegisterOnShutdown(func() { close(shuttingDown) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, rec, time.Hour) }()

	respErr := make(chan error, 1)
	go func() {
		resp, err := http.Post("http://"+ln.Addr().String()+"/move", "application/json", nil)
		if err == nil {
			resp.Body.Close()
		}
		respErr <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("request never reached the handler")
	}
	cancel()
	select {
	case <-shuttingDown:
	case <-time.After(5 * time.Second):
		t.Fatalf("shutdown never started")
	}
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("serve did not return")
	}
	if err := <-respErr; err != nil {
		t.Fatalf("in-flight request failed: %v", err)
	}
	if rec.Written() != 1 || rec.Buffered() != 0 {
		t.Fatalf("written=%d buffered=%d want=1,0", rec.Written(), rec.Buffered())
	}
}

func TestServe_NoRecorder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	srv := &http.Server{Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, nil, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return")
	}
}
