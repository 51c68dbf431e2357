// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/stats"
)

const (
	ioTimeout   = 5 * time.Second
	levelBarLen = 20
)

// RoundRecorder stores completed sentence and paragraph rounds.
type RoundRecorder interface {
	InsertRound(ctx context.Context, r model.Round) (int64, error)
}

type (
	tickMsg         struct{}
	persistMsg      struct{ gen uint64 }
	flushedMsg      struct{ result engine.FlushResult }
	toastExpiredMsg struct{ gen uint64 }
	roundSavedMsg   struct{ err error }
	describedMsg    struct {
		userID  string
		ids     []string
		details []model.Achievement
	}
)

// Model implements the Bubble Tea typing UI.
type Model struct {
	engine   *engine.Engine
	syncer   *engine.Syncer
	rounds   RoundRecorder
	username string

	width  int
	height int

	ticking   bool
	notice    string
	lastRound *model.Round

	gate flushGate
}

// flushGate serializes writes and drops any older than the last one written,
// so a slow debounced flush cannot overwrite the final one on quit.
type flushGate struct {
	mu   sync.Mutex
	last time.Time
}

func (g *flushGate) flush(syncer *engine.Syncer, w engine.Write) (engine.FlushResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if w.Progress.UpdatedAt.Before(g.last) {
		return engine.FlushResult{}, false
	}
	g.last = w.Progress.UpdatedAt
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	return syncer.Flush(ctx, w), true
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	activeModeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	levelFillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB069"))
	toastStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(0, 1)
)

// NewModel wraps an attached engine. The engine must not be driven by anyone
// else while the program runs.
func NewModel(eng *engine.Engine, syncer *engine.Syncer, rounds RoundRecorder, username string) *Model {
	return &Model{
		engine:   eng,
		syncer:   syncer,
		rounds:   rounds,
		username: username,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tickMsg:
		if !m.engine.Tick() {
			m.ticking = false
			return m, nil
		}
		return m, tickCmd()
	case persistMsg:
		if w, ok := m.engine.PersistDue(msg.gen); ok {
			return m, m.flushCmd(w)
		}
		return m, nil
	case flushedMsg:
		ids := m.engine.ApplyFlush(msg.result)
		if len(ids) == 0 {
			return m, nil
		}
		return m, m.describeCmd(msg.result.Write.UserID, ids)
	case describedMsg:
		ids := m.engine.CommitUnlocked(msg.userID, msg.ids)
		a, ok := engine.FirstUnlock(ids, msg.details)
		if !ok {
			return m, nil
		}
		gen := m.engine.ShowAchievement(a)
		return m, tea.Tick(m.engine.ToastDuration(), func(time.Time) tea.Msg {
			return toastExpiredMsg{gen: gen}
		})
	case toastExpiredMsg:
		m.engine.DismissToast(msg.gen)
		return m, nil
	case roundSavedMsg:
		if msg.err != nil {
			logging.Errorf("Failed to save round: %v", msg.err)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	state := m.engine.State()
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m.quitCmd()
	case tea.KeyTab:
		return m.switchMode(state.Mode.Next())
	case tea.KeyEnter:
		if !state.Completed {
			return nil
		}
		if err := m.engine.RequestNewText(); err != nil {
			m.notice = err.Error()
		}
		return nil
	case tea.KeyBackspace, tea.KeyDelete:
		runes := []rune(state.Input)
		if len(runes) == 0 {
			return nil
		}
		return m.input(string(runes[:len(runes)-1]))
	case tea.KeySpace:
		return m.input(state.Input + " ")
	case tea.KeyRunes:
		return m.input(state.Input + string(msg.Runes))
	default:
		return nil
	}
}

func (m *Model) switchMode(mode model.Mode) tea.Cmd {
	if err := m.engine.SelectMode(mode); err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	m.lastRound = nil
	return nil
}

func (m *Model) input(value string) tea.Cmd {
	res, err := m.engine.Input(value)
	if err != nil {
		m.notice = err.Error()
	}
	var cmds []tea.Cmd
	if m.engine.TickActive() && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tickCmd())
	}
	if res.LevelUps > 0 {
		m.notice = fmt.Sprintf("Level up! You reached level %d", m.engine.Progress().Level)
	}
	if res.Round != nil {
		m.lastRound = res.Round
		cmds = append(cmds, m.saveRoundCmd(*res.Round))
	}
	if res.PersistGen != 0 {
		gen := res.PersistGen
		cmds = append(cmds, tea.Tick(m.engine.QuietPeriod(), func(time.Time) tea.Msg {
			return persistMsg{gen: gen}
		}))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) flushCmd(w engine.Write) tea.Cmd {
	syncer, gate := m.syncer, &m.gate
	return func() tea.Msg {
		res, ok := gate.flush(syncer, w)
		if !ok {
			return nil
		}
		return flushedMsg{result: res}
	}
}

func (m *Model) describeCmd(userID string, ids []string) tea.Cmd {
	syncer := m.syncer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		details, err := syncer.Describe(ctx, userID, ids)
		if err != nil {
			return nil
		}
		return describedMsg{userID: userID, ids: ids, details: details}
	}
}

func (m *Model) saveRoundCmd(r model.Round) tea.Cmd {
	if m.rounds == nil {
		return nil
	}
	rounds := m.rounds
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		_, err := rounds.InsertRound(ctx, r)
		return roundSavedMsg{err: err}
	}
}

// quitCmd tears the engine down and quits once pending progress is written.
func (m *Model) quitCmd() tea.Cmd {
	w, ok := m.engine.Teardown()
	if !ok {
		return tea.Quit
	}
	syncer, gate := m.syncer, &m.gate
	return func() tea.Msg {
		gate.flush(syncer, w)
		return tea.Quit()
	}
}

// Close flushes whatever the program left behind, for exits that bypass the
// quit keys.
func (m *Model) Close() {
	if w, ok := m.engine.Teardown(); ok {
		m.gate.flush(m.syncer, w)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	state := m.engine.State()
	if state.Target == "" {
		return ""
	}
	sections := []string{m.renderModes(), m.renderStatus(), ""}

	contentWidth := m.width * 7 / 10
	sections = append(sections, wrapStyled(m.targetView(state).styled(), contentWidth), "")
	sections = append(sections, m.renderProgressLine(state))
	if a, ok := m.engine.CurrentToast(); ok {
		sections = append(sections, "", toastStyle.Render(fmt.Sprintf("Achievement unlocked: %s\n%s", a.Name, a.Description)))
	}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	content := strings.Join(sections, "\n")
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return body + "\n" + footerLine
}

func (m *Model) targetView(state engine.SessionState) textView {
	v := textView{
		target: []rune(state.Target),
		input:  []rune(state.Input),
		cursor: len([]rune(state.Input)),
	}
	v.overflow = state.Mode == model.ModeWords
	if state.Completed || v.cursor >= len(v.target) {
		v.cursor = -1
	}
	return v
}

func (m *Model) renderModes() string {
	current := m.engine.State().Mode
	parts := make([]string, 0, len(model.Modes))
	for _, mode := range model.Modes {
		label := string(mode)
		if mode == current {
			parts = append(parts, activeModeStyle.Render("["+label+"]"))
			continue
		}
		parts = append(parts, pendingStyle.Render(" "+label+" "))
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderStatus() string {
	p := m.engine.Progress()
	return strings.Join([]string{
		fmt.Sprintf("Level %d %s %d/%d exp", p.Level, levelBar(p.Experience, p.NextLevelAt()), p.Experience, p.NextLevelAt()),
		fmt.Sprintf("Words %d", p.WordsTyped),
		fmt.Sprintf("WPM %d", p.WPM),
		fmt.Sprintf("Accuracy %d%%", p.Accuracy),
	}, "  ")
}

func levelBar(exp, next int) string {
	filled := 0
	if next > 0 {
		filled = exp * levelBarLen / next
	}
	if filled > levelBarLen {
		filled = levelBarLen
	}
	return levelFillStyle.Render(strings.Repeat("█", filled)) + pendingStyle.Render(strings.Repeat("░", levelBarLen-filled))
}

func (m *Model) renderProgressLine(state engine.SessionState) string {
	if state.Mode == model.ModeWords {
		return footerStyle.Render("Type the word exactly; it is accepted as soon as it matches.")
	}
	if state.Completed && m.lastRound != nil {
		r := m.lastRound
		return noticeStyle.Render(fmt.Sprintf("Completed! %d WPM  %d%% accuracy  %d errors  %s. Press enter for the next text.",
			r.WPM, r.Accuracy, r.Errors, stats.FormatDuration(time.Duration(r.DurationMs)*time.Millisecond)))
	}
	total := len([]rune(state.Target))
	return fmt.Sprintf("Progress %d/%d  Errors %d  Time %s",
		state.Cursor, total, state.ErrorCount, stats.FormatDuration(time.Duration(state.ElapsedSeconds)*time.Second))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.username != "" {
		segments = append(segments, m.username)
	}
	segments = append(segments, "tab mode", "enter next", "esc quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}
