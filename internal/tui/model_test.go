package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/model"
)

type fixedTexts map[model.Mode]string

func (f fixedTexts) Pick(mode model.Mode) (string, error) {
	return f[mode], nil
}

type memoryStore struct {
	mu       sync.Mutex
	progress map[string]model.UserProgress
	unlocked map[string][]string
	rounds   []model.Round
	updates  int
	// detailsErrs fail that many Details calls before succeeding.
	detailsErrs int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		progress: map[string]model.UserProgress{},
		unlocked: map[string][]string{},
	}
}

func (s *memoryStore) CurrentUser() (string, bool) { return "u1", true }

func (s *memoryStore) ReadStats(_ context.Context, userID string) (model.UserProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[userID]
	return p, ok, nil
}

func (s *memoryStore) CreateStats(_ context.Context, userID string, defaults model.UserProgress) (model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[userID] = defaults
	return defaults, nil
}

func (s *memoryStore) UpdateStats(_ context.Context, userID string, p model.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.progress[userID] = p
	if p.WordsTyped >= 1 && len(s.unlocked[userID]) == 0 {
		s.unlocked[userID] = []string{"first-steps"}
	}
	return nil
}

func (s *memoryStore) ListUnlocked(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.unlocked[userID]...), nil
}

func (s *memoryStore) Details(_ context.Context, ids []string) ([]model.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detailsErrs > 0 {
		s.detailsErrs--
		return nil, errors.New("details down")
	}
	out := make([]model.Achievement, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Achievement{ID: id, Name: "First Steps", Description: "Type your first word"})
	}
	return out, nil
}

func (s *memoryStore) InsertRound(_ context.Context, r model.Round) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, r)
	return int64(len(s.rounds)), nil
}

func newTestModel(t *testing.T, mode model.Mode) (*Model, *memoryStore, *engine.ManualClock) {
	t.Helper()
	st := newMemoryStore()
	clock := engine.NewManualClock(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	eng := engine.New(fixedTexts{
		model.ModeWords:      "go",
		model.ModeSentences:  "go now",
		model.ModeParagraphs: "go now. fast.",
	}, engine.Options{Clock: clock, QuietPeriod: time.Second})
	syncer := engine.NewSyncer(st, st, st)
	loaded, err := syncer.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := eng.Attach(loaded.UserID, loaded.Progress, loaded.Unlocked, mode); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return NewModel(eng, syncer, st, "ada"), st, clock
}

func typeText(m *Model, text string) tea.Cmd {
	var cmd tea.Cmd
	for _, r := range text {
		key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		if r == ' ' {
			key = tea.KeyMsg{Type: tea.KeySpace}
		}
		_, cmd = m.Update(key)
	}
	return cmd
}

func TestTypingWordUpdatesStatus(t *testing.T) {
	m, _, _ := newTestModel(t, model.ModeWords)
	typeText(m, "go")
	if got := m.engine.Progress().WordsTyped; got != 1 {
		t.Fatalf("expected 1 word typed, got %d", got)
	}
	if !strings.Contains(m.View(), "Words 1") {
		t.Fatalf("expected status to show the word count:\n%s", m.View())
	}
}

func TestBackspaceEditsInput(t *testing.T) {
	m, _, _ := newTestModel(t, model.ModeSentences)
	typeText(m, "gx")
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.engine.State().Input; got != "g" {
		t.Fatalf("expected input %q, got %q", "g", got)
	}
	if got := m.engine.State().ErrorCount; got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
}

func TestCompletingSentenceShowsSummary(t *testing.T) {
	m, _, clock := newTestModel(t, model.ModeSentences)
	typeText(m, "g")
	clock.Advance(15 * time.Second)
	if cmd := typeText(m, "o now"); cmd == nil {
		t.Fatalf("expected follow-up commands after completion")
	}
	if m.lastRound == nil || m.lastRound.WPM != 8 {
		t.Fatalf("expected a round at 8 WPM, got %+v", m.lastRound)
	}
	if !strings.Contains(m.View(), "Completed!") {
		t.Fatalf("expected completion summary:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.engine.State().Completed {
		t.Fatalf("expected enter to start a new text")
	}
}

func TestTabCyclesMode(t *testing.T) {
	m, _, _ := newTestModel(t, model.ModeWords)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.engine.State().Mode; got != model.ModeSentences {
		t.Fatalf("expected sentences mode, got %s", got)
	}
	if !strings.Contains(m.renderModes(), "[sentences]") {
		t.Fatalf("expected active mode marker: %s", m.renderModes())
	}
}

func TestPersistFlowRaisesToast(t *testing.T) {
	m, st, clock := newTestModel(t, model.ModeWords)
	typeText(m, "go")

	// The first completed word schedules generation 1.
	if _, cmd := m.Update(persistMsg{gen: 1}); cmd != nil {
		t.Fatalf("expected no flush before the quiet period")
	}
	clock.Advance(time.Second)
	_, cmd := m.Update(persistMsg{gen: 1})
	if cmd == nil {
		t.Fatalf("expected a flush command")
	}
	flushed := cmd()
	if st.updates != 1 {
		t.Fatalf("expected 1 update, got %d", st.updates)
	}
	_, cmd = m.Update(flushed)
	if cmd == nil {
		t.Fatalf("expected a describe command for the new unlock")
	}
	_, cmd = m.Update(cmd())
	if cmd == nil {
		t.Fatalf("expected a toast expiry timer")
	}
	if !strings.Contains(m.View(), "Achievement unlocked: First Steps") {
		t.Fatalf("expected toast in view:\n%s", m.View())
	}

	m.Update(toastExpiredMsg{gen: 1})
	if _, ok := m.engine.CurrentToast(); ok {
		t.Fatalf("expected toast dismissed")
	}
}

func TestQuitFlushesPendingProgress(t *testing.T) {
	m, st, _ := newTestModel(t, model.ModeWords)
	typeText(m, "go")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message after flush")
	}
	if st.updates != 1 || st.progress["u1"].WordsTyped != 1 {
		t.Fatalf("expected flushed progress, got %d updates %+v", st.updates, st.progress["u1"])
	}
	if m.engine.UserID() != "" {
		t.Fatalf("expected user cleared on teardown")
	}

	m.Close()
	if st.updates != 1 {
		t.Fatalf("expected close after quit to write nothing, got %d updates", st.updates)
	}
}

func TestCloseFlushesWithoutQuit(t *testing.T) {
	m, st, _ := newTestModel(t, model.ModeWords)
	typeText(m, "go")
	m.Close()
	if st.updates != 1 {
		t.Fatalf("expected 1 update, got %d", st.updates)
	}
}

func TestRenderFooterSegments(t *testing.T) {
	m, _, _ := newTestModel(t, model.ModeWords)
	out := m.renderFooter()
	for _, want := range []string{"ada", "tab mode", "enter next", "esc quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestLevelBar(t *testing.T) {
	bar := levelBar(50, 100)
	if strings.Count(bar, "█") != levelBarLen/2 {
		t.Fatalf("expected half-filled bar: %s", bar)
	}
	if strings.Count(levelBar(500, 100), "█") != levelBarLen {
		t.Fatalf("expected bar capped at full")
	}
}

func TestFlushGateDropsStaleWrites(t *testing.T) {
	st := newMemoryStore()
	syncer := engine.NewSyncer(st, st, st)
	var gate flushGate
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	if _, ok := gate.flush(syncer, engine.Write{UserID: "u1", Progress: model.UserProgress{WordsTyped: 5, UpdatedAt: at}}); !ok {
		t.Fatalf("expected first write to run")
	}
	if _, ok := gate.flush(syncer, engine.Write{UserID: "u1", Progress: model.UserProgress{WordsTyped: 3, UpdatedAt: at.Add(-time.Second)}}); ok {
		t.Fatalf("expected older write to be dropped")
	}
	if st.progress["u1"].WordsTyped != 5 || st.updates != 1 {
		t.Fatalf("expected newest progress kept, got %+v after %d updates", st.progress["u1"], st.updates)
	}
}

func TestToastRetriedAfterDetailsFailure(t *testing.T) {
	m, st, clock := newTestModel(t, model.ModeWords)
	st.detailsErrs = 1

	typeText(m, "go")
	clock.Advance(time.Second)
	_, cmd := m.Update(persistMsg{gen: 1})
	_, cmd = m.Update(cmd())
	if cmd == nil {
		t.Fatalf("expected a describe command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("expected failed describe to report nothing, got %T", msg)
	}
	if _, ok := m.engine.CurrentToast(); ok {
		t.Fatalf("expected no toast while details are unavailable")
	}

	typeText(m, "go")
	clock.Advance(time.Second)
	_, cmd = m.Update(persistMsg{gen: 2})
	if cmd == nil {
		t.Fatalf("expected a flush command")
	}
	_, cmd = m.Update(cmd())
	if cmd == nil {
		t.Fatalf("expected the unlock to be offered again")
	}
	m.Update(cmd())
	if a, ok := m.engine.CurrentToast(); !ok || a.ID != "first-steps" {
		t.Fatalf("expected first-steps toast after retry, got %+v", a)
	}
}
