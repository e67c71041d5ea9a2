package replay

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/snekbasic/game"
	"github.com/brensch/snekbasic/strategy"
)

var (
	youStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	otherStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	foodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	boardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	panelStyle    = lipgloss.NewStyle().Padding(0, 2)
	agreeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	disagreeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// Viewer is a bubbletea model stepping through analyzed turns.
type Viewer struct {
	gameID string
	turns  []Turn
	idx    int
}

func NewViewer(gameID string, turns []Turn) Viewer {
	return Viewer{gameID: gameID, turns: turns}
}

func (v Viewer) Index() int { return v.idx }

func (v Viewer) Init() tea.Cmd { return nil }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return v, tea.Quit
	case "right", "l", "n", " ":
		if v.idx < len(v.turns)-1 {
			v.idx++
		}
	case "left", "h", "p":
		if v.idx > 0 {
			v.idx--
		}
	case "home", "g":
		v.idx = 0
	case "end", "G":
		if len(v.turns) > 0 {
			v.idx = len(v.turns) - 1
		}
	case "d":
		// jump to the next disagreement
		for i := v.idx + 1; i < len(v.turns); i++ {
			if v.turns[i].HasActual && !v.turns[i].Agrees {
				v.idx = i
				break
			}
		}
	}
	return v, nil
}

func (v Viewer) View() string {
	if len(v.turns) == 0 {
		return "no turns to show\n\nPress q to quit.\n"
	}
	t := v.turns[v.idx]
	agree, known := Agreement(v.turns)

	title := titleStyle.Render(fmt.Sprintf("game %s  turn %d  (%d/%d)  agreement %d/%d",
		v.gameID, t.Turn, v.idx+1, len(v.turns), agree, known))
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		boardStyle.Render(RenderBoard(t.State)),
		panelStyle.Render(renderDecision(t)),
	)
	help := helpStyle.Render("←/→ step  g/G first/last  d next disagreement  q quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help) + "\n"
}

// RenderBoard draws the board with (0,0) at the bottom-left.
func RenderBoard(state *game.GameState) string {
	cells := make([][]string, state.Height)
	for y := range cells {
		cells[y] = make([]string, state.Width)
		for x := range cells[y] {
			cells[y][x] = emptyStyle.Render("·")
		}
	}
	set := func(p game.Point, s string) {
		if state.IsOutside(p) {
			return
		}
		cells[p.Y][p.X] = s
	}

	for _, f := range state.Food {
		set(f, foodStyle.Render("●"))
	}
	for _, s := range state.Snakes {
		style := otherStyle
		if s.Id == state.YouId {
			style = youStyle
		}
		for i := len(s.Body) - 1; i >= 0; i-- {
			glyph := "o"
			if i == 0 {
				glyph = "@"
			}
			set(s.Body[i], style.Render(glyph))
		}
	}

	var b strings.Builder
	for y := len(cells) - 1; y >= 0; y-- {
		b.WriteString(strings.Join(cells[y], " "))
		if y > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderDecision(t Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "health %d  length %d\n\n", t.State.You.Health, t.State.You.Length)

	rank := make(map[game.Move]int, len(t.Decision.Candidates))
	for i, c := range t.Decision.Candidates {
		rank[c.Move] = i + 1
	}
	for _, r := range t.Decision.Results {
		fmt.Fprintf(&b, "%-5s %s\n", r.Move, candidateLine(r, rank[r.Move]))
	}

	b.WriteString("\nchose  ")
	b.WriteString(t.Decision.Move.String())
	if t.Decision.NoSafeMove {
		b.WriteString(" (no safe move)")
	}
	b.WriteString("\nactual ")
	switch {
	case !t.HasActual:
		b.WriteString("-")
	case t.Agrees:
		b.WriteString(agreeStyle.Render(t.Actual.String()))
	default:
		b.WriteString(disagreeStyle.Render(t.Actual.String()))
	}
	return b.String()
}

func candidateLine(r strategy.DirectionResult, rank int) string {
	if r.Outcome == strategy.Dead {
		return "dead"
	}
	dist := "-"
	if !math.IsInf(r.DistanceToFood, 1) {
		dist = fmt.Sprintf("%d", int(r.DistanceToFood))
	}
	line := fmt.Sprintf("#%d food=%g dist=%s", rank, r.FoodScore, dist)
	if r.CanTouchHead {
		line += " kill"
	}
	return line
}
