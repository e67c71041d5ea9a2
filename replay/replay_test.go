package replay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/strategy"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(t *testing.T, typ string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	b, err := json.Marshal(GameEvent{Type: typ, Data: raw})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return b
}

// twoTurnGame: "me" at (5,5) moves up onto food at (5,6); "them" dies on turn 2.
func twoTurnGame() (GameInfo, []FrameData) {
	info := GameInfo{
		Game:    GameDetails{ID: "g-1", Width: 11, Height: 11},
		Ruleset: RulesetInfo{Name: "standard"},
	}
	frames := []FrameData{
		{
			Turn: 0,
			Food: []Coord{{5, 6}},
			Snakes: []SnakeData{
				{ID: "me", Name: "snek", Health: 90, Body: []Coord{{5, 5}, {5, 4}, {5, 3}}},
				{ID: "them", Name: "other", Health: 90, Body: []Coord{{1, 1}, {1, 0}, {0, 0}}},
			},
		},
		{
			Turn: 1,
			Snakes: []SnakeData{
				{ID: "me", Name: "snek", Health: 100, Body: []Coord{{5, 6}, {5, 5}, {5, 4}, {5, 4}}},
				{ID: "them", Name: "other", Health: 89, Body: []Coord{{1, 2}, {1, 1}, {1, 0}}},
			},
		},
		{
			Turn: 2,
			Snakes: []SnakeData{
				{ID: "me", Name: "snek", Health: 99, Body: []Coord{{4, 6}, {5, 6}, {5, 5}, {5, 4}}},
				{ID: "them", Name: "other", Health: 88, Body: []Coord{{1, 3}, {1, 2}, {1, 1}}, Death: &Death{Cause: "head-collision"}},
			},
		},
	}
	return info, frames
}

func engineServer(t *testing.T, messages [][]byte, closeNormally bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/g-1/events") {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, m); err != nil {
				return
			}
		}
		if closeNormally {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) Config {
	cfg := DefaultConfig()
	cfg.EngineURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/games/%s/events"
	cfg.Logger = quietLogger()
	return cfg
}

func TestDownload(t *testing.T) {
	info, frames := twoTurnGame()
	msgs := [][]byte{event(t, "game_info", info), []byte("not json")}
	for _, f := range frames {
		msgs = append(msgs, event(t, "frame", f))
	}
	msgs = append(msgs, event(t, "game_end", struct{}{}))

	srv := engineServer(t, msgs, false)
	g, err := Download(context.Background(), "g-1", testConfig(srv))
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if g.Info.Game.Width != 11 || g.Info.Ruleset.Name != "standard" {
		t.Fatalf("info=%+v", g.Info)
	}
	if len(g.Frames) != 3 {
		t.Fatalf("frames=%d want=3", len(g.Frames))
	}
	if g.Winner != "snek" {
		t.Fatalf("winner=%q want=snek", g.Winner)
	}
}

func TestDownload_NormalCloseWithoutGameEnd(t *testing.T) {
	info, frames := twoTurnGame()
	msgs := [][]byte{event(t, "game_info", info), event(t, "frame", frames[0])}

	srv := engineServer(t, msgs, true)
	g, err := Download(context.Background(), "g-1", testConfig(srv))
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(g.Frames) != 1 || g.Winner != "draw" {
		t.Fatalf("frames=%d winner=%q", len(g.Frames), g.Winner)
	}
}

func TestDownload_NoFrames(t *testing.T) {
	info, _ := twoTurnGame()
	srv := engineServer(t, [][]byte{event(t, "game_info", info)}, true)
	if _, err := Download(context.Background(), "g-1", testConfig(srv)); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("err=%v want ErrNoFrames", err)
	}
}

func TestDownload_DialFailure(t *testing.T) {
	srv := engineServer(t, nil, true)
	if _, err := Download(context.Background(), "unknown", testConfig(srv)); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestParseGameIDs(t *testing.T) {
	html := `<html><body>
		<a href="/game/0f1e2d3c-aaaa-bbbb-cccc-000000000001">game</a>
		<a href="https://play.battlesnake.com/game/0f1e2d3c-aaaa-bbbb-cccc-000000000002?turn=3">game</a>
		<a href="/game/0f1e2d3c-aaaa-bbbb-cccc-000000000001">again</a>
		<a href="/leaderboard/standard">board</a>
	</body></html>`
	ids, err := parseGameIDs(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parseGameIDs: %v", err)
	}
	want := []string{"0f1e2d3c-aaaa-bbbb-cccc-000000000001", "0f1e2d3c-aaaa-bbbb-cccc-000000000002"}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("ids=%v want=%v", ids, want)
	}
}

func TestPlayerGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/leaderboard/standard/snek/stats" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `<a href="/game/abc-123">x</a>`)
	}))
	defer srv.Close()

	ids, err := PlayerGames(context.Background(), srv.URL+"/leaderboard/standard/snek/stats")
	if err != nil {
		t.Fatalf("PlayerGames: %v", err)
	}
	if len(ids) != 1 || ids[0] != "abc-123" {
		t.Fatalf("ids=%v", ids)
	}

	if _, err := PlayerGames(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestFrameState(t *testing.T) {
	info, frames := twoTurnGame()

	state, err := FrameState(info, frames[0], "me")
	if err != nil {
		t.Fatalf("FrameState: %v", err)
	}
	if state.Width != 11 || state.Height != 11 || state.Turn != 0 {
		t.Fatalf("state=%+v", state)
	}
	if state.You.Head() != (game.Point{X: 5, Y: 5}) || state.You.Length != 3 || len(state.Snakes) != 2 {
		t.Fatalf("you=%+v snakes=%d", state.You, len(state.Snakes))
	}

	// "them" is dead on the last frame and is left off the board.
	state, err = FrameState(info, frames[2], "me")
	if err != nil {
		t.Fatalf("FrameState: %v", err)
	}
	if len(state.Snakes) != 1 {
		t.Fatalf("snakes=%d want=1", len(state.Snakes))
	}
	if _, err := FrameState(info, frames[2], "them"); !errors.Is(err, ErrSnakeNotFound) {
		t.Fatalf("err=%v want ErrSnakeNotFound", err)
	}
}

func TestFrameState_DimensionFallback(t *testing.T) {
	_, frames := twoTurnGame()
	state, err := FrameState(GameInfo{}, frames[0], "me")
	if err != nil {
		t.Fatalf("FrameState: %v", err)
	}
	if state.Width != 11 || state.Height != 11 {
		t.Fatalf("dims=%dx%d want=11x11", state.Width, state.Height)
	}

	frames[0].Board = BoardData{Width: 7, Height: 7}
	state, err = FrameState(GameInfo{}, frames[0], "me")
	if err != nil {
		t.Fatalf("FrameState: %v", err)
	}
	if state.Width != 7 {
		t.Fatalf("width=%d want=7", state.Width)
	}
}

func TestAnalyze(t *testing.T) {
	info, frames := twoTurnGame()
	g := &Game{ID: "g-1", Info: info, Frames: frames}
	strat := strategy.NewBasic(strategy.DefaultConfig(), quietLogger())

	turns, err := Analyze(context.Background(), g, "me", strat)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("turns=%d want=3", len(turns))
	}

	first := turns[0]
	if first.Decision.Move != game.MoveUp || !first.HasActual || first.Actual != game.MoveUp || !first.Agrees {
		t.Fatalf("turn0 decision=%v actual=%v agrees=%v", first.Decision.Move, first.Actual, first.Agrees)
	}
	if !turns[1].HasActual || turns[1].Actual != game.MoveLeft {
		t.Fatalf("turn1 actual=%v has=%v", turns[1].Actual, turns[1].HasActual)
	}
	if turns[2].HasActual || turns[2].Agrees {
		t.Fatalf("last turn should have no actual move")
	}

	agree, known := Agreement(turns)
	if known != 2 || agree < 1 {
		t.Fatalf("agreement=%d/%d", agree, known)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	info, frames := twoTurnGame()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	strat := strategy.NewBasic(strategy.DefaultConfig(), quietLogger())
	if _, err := Analyze(ctx, &Game{Info: info, Frames: frames}, "me", strat); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestElimination(t *testing.T) {
	info, frames := twoTurnGame()
	g := &Game{ID: "g-1", Info: info, Frames: frames}

	turn, cause, ok := Elimination(g, "them")
	if !ok || turn != 2 || cause != "head-collision" {
		t.Fatalf("turn=%d cause=%q ok=%v want=2,head-collision,true", turn, cause, ok)
	}
	if _, _, ok := Elimination(g, "me"); ok {
		t.Fatalf("ok=%v want=false for a survivor", ok)
	}
}

func TestFrameData_EngineFields(t *testing.T) {
	// The engine sends more than the replay reads; the extra fields are ignored.
	raw := `{"turn":3,"food":[{"x":1,"y":1}],"snakes":[` +
		`{"id":"a","name":"snek","health":0,"author":"x","body":[{"x":2,"y":2}],"death":{"cause":"wall-collision","turn":3}}]}`
	var frame FrameData
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame.Turn != 3 || len(frame.Snakes) != 1 || frame.Snakes[0].Death == nil {
		t.Fatalf("frame=%+v", frame)
	}
	if got := frame.Snakes[0].Death.Cause; got != "wall-collision" {
		t.Fatalf("cause=%q want=wall-collision", got)
	}

	var info GameInfo
	if err := json.Unmarshal([]byte(`{"game":{"id":"g","width":7,"height":7,"timeout":500,"map":"standard"},"ruleset":{"name":"royale","version":"v1","settings":{"foodSpawnChance":15}}}`), &info); err != nil {
		t.Fatalf("unmarshal info: %v", err)
	}
	if info.Game.Width != 7 || info.Ruleset.Name != "royale" {
		t.Fatalf("info=%+v", info)
	}
}

func TestResolveSnake(t *testing.T) {
	info, frames := twoTurnGame()
	g := &Game{Info: info, Frames: frames}
	for _, in := range []string{"me", "snek"} {
		id, err := ResolveSnake(g, in)
		if err != nil || id != "me" {
			t.Fatalf("ResolveSnake(%q)=%q,%v", in, id, err)
		}
	}
	if _, err := ResolveSnake(g, "ghost"); !errors.Is(err, ErrSnakeNotFound) {
		t.Fatalf("err=%v want ErrSnakeNotFound", err)
	}
}

func TestViewer(t *testing.T) {
	info, frames := twoTurnGame()
	strat := strategy.NewBasic(strategy.DefaultConfig(), quietLogger())
	turns, err := Analyze(context.Background(), &Game{Info: info, Frames: frames}, "me", strat)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var m tea.Model = NewViewer("g-1", turns)
	if !strings.Contains(m.View(), "turn 0") {
		t.Fatalf("view missing turn 0:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.(Viewer).Index() != 1 {
		t.Fatalf("index=%d want=1", m.(Viewer).Index())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	if m.(Viewer).Index() != 2 {
		t.Fatalf("index=%d want=2", m.(Viewer).Index())
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.(Viewer).Index() != 2 {
		t.Fatalf("stepped past the end")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.(Viewer).Index() != 1 {
		t.Fatalf("index=%d want=1", m.(Viewer).Index())
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatalf("q should quit")
	}
}

func TestRenderBoard(t *testing.T) {
	state := &game.GameState{
		Width: 3, Height: 2, YouId: "me",
		You:    game.Snake{Id: "me", Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		Food:   []game.Point{{X: 2, Y: 1}},
		Snakes: []game.Snake{{Id: "me", Body: []game.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}}},
	}
	out := RenderBoard(state)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d want=2:\n%s", len(lines), out)
	}
	// Top row is y=1 and holds the food; the head is on the bottom row.
	if !strings.Contains(lines[0], "●") || !strings.Contains(lines[1], "@") {
		t.Fatalf("board:\n%s", out)
	}
}
