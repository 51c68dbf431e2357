package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typequest/internal/model"
)

type seqSource struct {
	texts map[model.Mode][]string
	next  map[model.Mode]int
}

func newSeqSource(texts map[model.Mode][]string) *seqSource {
	return &seqSource{texts: texts, next: map[model.Mode]int{}}
}

func (s *seqSource) Pick(mode model.Mode) (string, error) {
	list := s.texts[mode]
	if len(list) == 0 {
		return "", errors.New("pool is empty")
	}
	text := list[s.next[mode]%len(list)]
	s.next[mode]++
	return text, nil
}

func newTestEngine(t *testing.T, mode model.Mode, texts map[model.Mode][]string) (*Engine, *ManualClock) {
	t.Helper()
	clock := NewManualClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	e := New(newSeqSource(texts), Options{Clock: clock})
	require.NoError(t, e.Attach("user-1", model.DefaultProgress(), nil, mode))
	return e, clock
}

func typeSequence(t *testing.T, e *Engine, inputs ...string) Result {
	t.Helper()
	var last Result
	for _, in := range inputs {
		res, err := e.Input(in)
		require.NoError(t, err)
		last = res
	}
	return last
}

func TestWordsModeCompletion(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"the", "next"},
	})
	require.Equal(t, "the", e.State().Target)

	completions := 0
	var last Result
	for _, in := range []string{"t", "th", "the"} {
		res, err := e.Input(in)
		require.NoError(t, err)
		if res.WordCompleted {
			completions++
		}
		last = res
	}

	assert.Equal(t, 1, completions)
	assert.NotZero(t, last.PersistGen)
	p := e.Progress()
	assert.Equal(t, 1, p.WordsTyped)
	assert.Equal(t, WordExperience, p.Experience)
	assert.Equal(t, 33, p.Accuracy, "one correct word over three input growths")
	assert.Equal(t, "", e.State().Input)
	assert.Equal(t, "next", e.State().Target)
}

func TestWordsModeIsCaseSensitive(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"I"},
	})
	res := typeSequence(t, e, "i")
	assert.False(t, res.WordCompleted)
	assert.Equal(t, 0, e.Progress().WordsTyped)
}

func TestWordsModeDoesNotStartTimer(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"go"},
	})
	typeSequence(t, e, "g")
	assert.False(t, e.TickActive())
	assert.False(t, e.Tick())
}

func TestSentenceCompletion(t *testing.T) {
	e, clock := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences: {"go now"},
	})

	res := typeSequence(t, e, "g")
	assert.Equal(t, PhaseInProgress, e.State().Phase())
	for _, in := range []string{"go", "go ", "go n", "go no", "go now"} {
		clock.Advance(3 * time.Second)
		res = typeSequence(t, e, in)
	}

	require.True(t, res.Completed)
	require.NotNil(t, res.Round)
	assert.Equal(t, 8, res.Round.WPM, "2 tokens in 15 seconds")
	assert.Equal(t, 100, res.Round.Accuracy)
	assert.Equal(t, 2, res.Round.Tokens)
	assert.Equal(t, 6, res.Round.Chars)
	assert.Equal(t, int64(15000), res.Round.DurationMs)

	p := e.Progress()
	assert.Equal(t, 2, p.WordsTyped)
	assert.Equal(t, 4, p.WPM, "smoothed with the previous 0")
	assert.Equal(t, 100, p.Accuracy)
	assert.Equal(t, 10, p.Experience)
	assert.Equal(t, PhaseCompleted, e.State().Phase())
	assert.False(t, e.TickActive())
}

func TestSentenceRejectedInputKeepsBuffer(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences: {"go now"},
	})

	typeSequence(t, e, "g")
	res := typeSequence(t, e, "gx")
	assert.True(t, res.Rejected)

	st := e.State()
	assert.Equal(t, 1, st.ErrorCount)
	assert.Equal(t, 1, st.Cursor)
	assert.Equal(t, "gx", st.Input)

	res = typeSequence(t, e, "g", "go now")
	require.True(t, res.Completed)
	assert.Equal(t, 83, res.Round.Accuracy)
	assert.Equal(t, 92, e.Progress().Accuracy, "round((100+83)/2)")
}

func TestSentenceAccuracyClampedWithManyErrors(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences: {"ab"},
	})
	for i := 0; i < 50; i++ {
		typeSequence(t, e, "x")
	}
	res := typeSequence(t, e, "ab")
	require.True(t, res.Completed)
	assert.Equal(t, 0, res.Round.Accuracy)
	assert.Equal(t, 0, res.LevelUps)
	assert.Equal(t, 50, e.Progress().Accuracy)
}

func TestCompletedTextIgnoresInputUntilNewText(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences: {"hi", "yo"},
	})
	typeSequence(t, e, "h", "hi")
	words := e.Progress().WordsTyped

	res := typeSequence(t, e, "hix")
	assert.Equal(t, Result{}, res)
	assert.Equal(t, words, e.Progress().WordsTyped)

	require.NoError(t, e.RequestNewText())
	st := e.State()
	assert.Equal(t, "yo", st.Target)
	assert.Equal(t, PhaseIdle, st.Phase())
	assert.Equal(t, model.ModeSentences, st.Mode)
}

func TestModeSwitchResets(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences:  {"go now"},
		model.ModeParagraphs: {"A long paragraph."},
	})
	typeSequence(t, e, "g", "gx")
	require.NotZero(t, e.State().ErrorCount)

	require.NoError(t, e.SelectMode(model.ModeParagraphs))
	st := e.State()
	assert.Equal(t, model.ModeParagraphs, st.Mode)
	assert.Equal(t, "", st.Input)
	assert.Equal(t, 0, st.Cursor)
	assert.Equal(t, 0, st.ErrorCount)
	assert.False(t, st.Completed)
	assert.False(t, st.Started)
	assert.Equal(t, "A long paragraph.", st.Target)
}

func TestEmptyPoolIsConfigurationError(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"go"},
	})
	err := e.SelectMode(model.ModeParagraphs)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, model.ModeParagraphs, cfgErr.Mode)
	assert.Equal(t, "go", e.State().Target, "state kept on failure")
}

func TestAttachRequiresUser(t *testing.T) {
	e := New(newSeqSource(map[model.Mode][]string{model.ModeWords: {"go"}}), Options{})
	assert.ErrorIs(t, e.Attach("", model.DefaultProgress(), nil, model.ModeWords), ErrNotAuthenticated)
}

func TestInputBeforeText(t *testing.T) {
	e := New(newSeqSource(nil), Options{})
	_, err := e.Input("a")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestAttachNormalizesProgress(t *testing.T) {
	e := New(newSeqSource(map[model.Mode][]string{model.ModeWords: {"go"}}), Options{})
	require.NoError(t, e.Attach("u", model.UserProgress{Level: 1, Experience: 250, Accuracy: 140}, nil, model.ModeWords))
	p := e.Progress()
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 150, p.Experience)
	assert.Equal(t, 100, p.Accuracy)
}

func TestTickLiveWPM(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeSentences, map[model.Mode][]string{
		model.ModeSentences: {"go now"},
	})
	assert.False(t, e.Tick(), "idle before the first keystroke")

	typeSequence(t, e, "g")
	for i := 0; i < 30; i++ {
		require.True(t, e.Tick())
	}
	assert.Equal(t, 30, e.State().ElapsedSeconds)
	assert.Equal(t, 30, e.Progress().TimeSpentSeconds)
	assert.Equal(t, 0, e.Progress().WPM, "skipped while no words typed")
}

func TestTickUsesCumulativeWords(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	e := New(newSeqSource(map[model.Mode][]string{model.ModeSentences: {"go now"}}), Options{Clock: clock})
	require.NoError(t, e.Attach("u", model.UserProgress{Level: 1, WordsTyped: 20, TimeSpentSeconds: 59, Accuracy: 100}, nil, model.ModeSentences))
	typeSequence(t, e, "g")
	require.True(t, e.Tick())
	assert.Equal(t, 20, e.Progress().WPM)
}

func TestDebouncedWritesCollapse(t *testing.T) {
	e, clock := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})

	var gens []uint64
	for i := 0; i < 5; i++ {
		res := typeSequence(t, e, "a")
		require.True(t, res.WordCompleted)
		gens = append(gens, res.PersistGen)
		clock.Advance(500 * time.Millisecond)
	}
	clock.Advance(e.QuietPeriod())

	var writes []Write
	for _, g := range gens {
		if w, ok := e.PersistDue(g); ok {
			writes = append(writes, w)
		}
	}
	require.Len(t, writes, 1)
	assert.Equal(t, "user-1", writes[0].UserID)
	assert.Equal(t, 5, writes[0].Progress.WordsTyped)
	assert.Equal(t, clock.Now(), writes[0].Progress.UpdatedAt)
}

func TestPersistDueBeforeQuietPeriod(t *testing.T) {
	e, clock := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	res := typeSequence(t, e, "a")
	clock.Advance(time.Second)
	_, ok := e.PersistDue(res.PersistGen)
	assert.False(t, ok)
	clock.Advance(time.Second)
	_, ok = e.PersistDue(res.PersistGen)
	assert.True(t, ok)
}

func TestAchievementDeltaIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	require.NoError(t, e.Attach("user-1", model.DefaultProgress(), []string{"first-steps"}, model.ModeWords))

	fresh := e.ObserveUnlocked("user-1", []string{"first-steps", "level-2"})
	assert.Equal(t, []string{"level-2"}, fresh)
	assert.Equal(t, fresh, e.ObserveUnlocked("user-1", []string{"first-steps", "level-2"}), "uncommitted ids stay new")

	assert.Equal(t, []string{"level-2"}, e.CommitUnlocked("user-1", fresh))
	assert.Empty(t, e.CommitUnlocked("user-1", fresh), "second commit of the same delta shows nothing")
	assert.Empty(t, e.ObserveUnlocked("user-1", []string{"first-steps", "level-2"}))
	assert.Empty(t, e.ObserveUnlocked("user-1", []string{"first-steps", "level-2"}))
}

func TestApplyFlushFailureKeepsUnlockSet(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	w := Write{UserID: "user-1"}

	assert.Nil(t, e.ApplyFlush(FlushResult{Write: w, Err: errors.New("down")}))
	retry, ok := e.FlushNow()
	require.True(t, ok, "failed write is retried on the next flush")
	assert.Equal(t, "user-1", retry.UserID)

	assert.Nil(t, e.ApplyFlush(FlushResult{Write: w, ListErr: errors.New("down")}))
	assert.Equal(t, []string{"x"}, e.ApplyFlush(FlushResult{Write: w, Unlocked: []string{"x"}}))
}

func TestTeardownFlushesAndClearsUser(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	res := typeSequence(t, e, "a")
	require.NotZero(t, res.PersistGen)

	w, ok := e.Teardown()
	require.True(t, ok)
	assert.Equal(t, 1, w.Progress.WordsTyped)
	assert.Equal(t, "", e.UserID())

	_, ok = e.PersistDue(res.PersistGen)
	assert.False(t, ok, "debounce cleared")
	assert.Nil(t, e.ObserveUnlocked("user-1", []string{"late"}), "follow-up no-ops without a user")
	assert.Nil(t, e.CommitUnlocked("user-1", []string{"late"}))

	_, ok = e.Teardown()
	assert.False(t, ok)
}

func TestTeardownWithNothingPending(t *testing.T) {
	e, _ := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	_, ok := e.Teardown()
	assert.False(t, ok)
}

func TestToastLifecycle(t *testing.T) {
	e, clock := newTestEngine(t, model.ModeWords, map[model.Mode][]string{
		model.ModeWords: {"a"},
	})
	gen := e.ShowAchievement(model.Achievement{ID: "x", Name: "First Steps"})

	a, ok := e.CurrentToast()
	require.True(t, ok)
	assert.Equal(t, "First Steps", a.Name)
	require.NotNil(t, e.Snapshot().Toast)

	clock.Advance(DefaultToastDuration)
	_, ok = e.CurrentToast()
	assert.False(t, ok, "auto-dismissed after the toast duration")

	gen2 := e.ShowAchievement(model.Achievement{ID: "y"})
	assert.False(t, e.DismissToast(gen), "stale generation")
	assert.True(t, e.DismissToast(gen2))
}

func TestFirstUnlockShowsOnlyOne(t *testing.T) {
	details := []model.Achievement{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}}
	a, ok := FirstUnlock([]string{"a", "b"}, details)
	require.True(t, ok)
	assert.Equal(t, "A", a.Name)

	_, ok = FirstUnlock([]string{"c"}, details)
	assert.False(t, ok)
}

func TestProgressInvariantsUnderRandomInput(t *testing.T) {
	texts := map[model.Mode][]string{
		model.ModeWords:      {"a", "be", "cat"},
		model.ModeSentences:  {"go now", "to be or not"},
		model.ModeParagraphs: {"One two three. Four five six."},
	}
	e, clock := newTestEngine(t, model.ModeWords, texts)
	rnd := rand.New(rand.NewSource(7))

	prev := e.Progress()
	for i := 0; i < 3000; i++ {
		switch op := rnd.Intn(10); {
		case op == 0:
			require.NoError(t, e.SelectMode(model.Modes[rnd.Intn(len(model.Modes))]))
		case op == 1:
			e.Tick()
		case op == 2:
			_, err := e.Input("zz")
			require.NoError(t, err)
		default:
			target := []rune(e.State().Target)
			n := len([]rune(e.State().Input)) + 1
			if n > len(target) {
				n = len(target)
			}
			_, err := e.Input(string(target[:n]))
			require.NoError(t, err)
			if e.State().Completed {
				require.NoError(t, e.RequestNewText())
			}
		}
		clock.Advance(time.Duration(rnd.Intn(800)) * time.Millisecond)

		p := e.Progress()
		require.GreaterOrEqual(t, p.WordsTyped, prev.WordsTyped)
		require.GreaterOrEqual(t, p.TimeSpentSeconds, prev.TimeSpentSeconds)
		require.GreaterOrEqual(t, p.Level, prev.Level)
		require.GreaterOrEqual(t, p.Experience, 0)
		require.Less(t, p.Experience, p.Level*100)
		require.GreaterOrEqual(t, p.Accuracy, 0)
		require.LessOrEqual(t, p.Accuracy, 100)
		st := e.State()
		require.NotEmpty(t, st.Target)
		require.LessOrEqual(t, st.Cursor, CharCount(st.Target))
		prev = p
	}
}
