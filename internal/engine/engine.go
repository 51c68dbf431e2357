// Package engine implements the typing-session scoring and progression engine.
//
// An Engine is owned by a single event loop (the play TUI or a WebSocket
// connection) and is not safe for concurrent use. Store I/O happens outside
// the engine: the loop takes a Write from PersistDue, flushes it with a
// Syncer off-loop, and hands the FlushResult back through ApplyFlush.
package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/verte-zerg/typequest/internal/model"
)

// DefaultToastDuration is how long an unlocked achievement stays visible.
const DefaultToastDuration = 5 * time.Second

// ErrNoText is returned when input arrives before any text was assigned.
var ErrNoText = errors.New("no target text assigned")

var errBlankText = errors.New("text source returned an empty text")

// TextSource draws target texts for a mode.
type TextSource interface {
	Pick(mode model.Mode) (string, error)
}

// Phase is the matching state of the current text.
type Phase int

// Phases of the keystroke state machine.
const (
	PhaseIdle Phase = iota
	PhaseInProgress
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// SessionState is the per-text measurement state.
type SessionState struct {
	Mode           model.Mode
	Target         string
	Input          string
	Cursor         int
	ErrorCount     int
	Started        bool
	Completed      bool
	ElapsedSeconds int
	StartedAt      time.Time
}

// Phase derives the state machine phase from the flags.
func (s SessionState) Phase() Phase {
	switch {
	case s.Completed:
		return PhaseCompleted
	case s.Started:
		return PhaseInProgress
	default:
		return PhaseIdle
	}
}

// Options tunes an Engine. Zero values pick the defaults.
type Options struct {
	Clock         Clock
	QuietPeriod   time.Duration
	ToastDuration time.Duration
}

// Result describes what a single input event changed.
type Result struct {
	// Rejected is set when sentence/paragraph input is not a prefix of the target.
	Rejected      bool
	WordCompleted bool
	// Completed is set when a sentence or paragraph was fully matched.
	Completed  bool
	Round      *model.Round
	LevelUps   int
	PersistGen uint64
}

// Write is a progress snapshot to flush for one user.
type Write struct {
	UserID   string
	Progress model.UserProgress
}

// Toast is the transient unlocked-achievement notification.
type Toast struct {
	Achievement model.Achievement
	Expires     time.Time
	gen         uint64
}

// Engine owns session and progress state for one user.
type Engine struct {
	texts    TextSource
	clock    Clock
	toastTTL time.Duration

	userID   string
	state    SessionState
	progress model.UserProgress

	correctAttempts int
	totalAttempts   int

	unlocks  *Unlocks
	debounce *Debouncer
	dirty    bool

	toast    *Toast
	toastGen uint64
}

// New creates an Engine with no user attached, in words mode.
func New(texts TextSource, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	ttl := opts.ToastDuration
	if ttl <= 0 {
		ttl = DefaultToastDuration
	}
	return &Engine{
		texts:    texts,
		clock:    clock,
		toastTTL: ttl,
		state:    SessionState{Mode: model.ModeWords},
		progress: model.DefaultProgress(),
		unlocks:  NewUnlocks(nil),
		debounce: NewDebouncer(opts.QuietPeriod),
	}
}

// Attach binds a loaded user to the engine and draws the first text for mode.
func (e *Engine) Attach(userID string, progress model.UserProgress, unlocked []string, mode model.Mode) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	e.userID = userID
	e.progress = normalizeProgress(progress)
	e.unlocks = NewUnlocks(unlocked)
	e.correctAttempts = 0
	e.totalAttempts = 0
	e.dirty = false
	e.debounce.Cancel()
	return e.SelectMode(mode)
}

// UserID returns the attached user, or "" after teardown.
func (e *Engine) UserID() string {
	return e.userID
}

// SelectMode switches mode, resetting the session and drawing a new text.
// On error the previous state is kept.
func (e *Engine) SelectMode(mode model.Mode) error {
	text, err := e.draw(mode)
	if err != nil {
		return err
	}
	e.state = SessionState{Mode: mode, Target: text}
	return nil
}

// RequestNewText draws a new text in the current mode.
func (e *Engine) RequestNewText() error {
	return e.SelectMode(e.state.Mode)
}

func (e *Engine) draw(mode model.Mode) (string, error) {
	text, err := e.texts.Pick(mode)
	if err != nil {
		return "", &ConfigurationError{Mode: mode, Err: err}
	}
	if text == "" {
		return "", &ConfigurationError{Mode: mode, Err: errBlankText}
	}
	return text, nil
}

// Input applies the full current value of the input buffer.
func (e *Engine) Input(value string) (Result, error) {
	if e.state.Target == "" {
		return Result{}, ErrNoText
	}
	if e.state.Mode == model.ModeWords {
		return e.inputWord(value)
	}
	return e.inputText(value), nil
}

func (e *Engine) inputWord(value string) (Result, error) {
	if CharCount(value) > CharCount(e.state.Input) {
		e.totalAttempts++
	}
	e.state.Input = value
	if value != e.state.Target {
		return Result{}, nil
	}

	res := Result{WordCompleted: true}
	e.correctAttempts++
	if acc, ok := WordsAccuracy(e.correctAttempts, e.totalAttempts); ok {
		e.progress.Accuracy = acc
	}
	e.progress.WordsTyped++
	res.LevelUps = e.gainExperience(WordExperience)
	res.PersistGen = e.schedulePersist()

	e.state.Input = ""
	if err := e.RequestNewText(); err != nil {
		return res, err
	}
	return res, nil
}

func (e *Engine) inputText(value string) Result {
	if e.state.Completed {
		return Result{}
	}
	if !e.state.Started {
		e.state.Started = true
		e.state.StartedAt = e.clock.Now()
	}
	e.state.Input = value

	if !strings.HasPrefix(e.state.Target, value) {
		e.state.ErrorCount++
		return Result{Rejected: true}
	}
	e.state.Cursor = CharCount(value)
	if value != e.state.Target {
		return Result{}
	}
	return e.complete()
}

func (e *Engine) complete() Result {
	now := e.clock.Now()
	target := e.state.Target
	tokens := CountTokens(target)
	chars := CharCount(target)
	elapsed := now.Sub(e.state.StartedAt)

	sessionWPM := SessionWPM(tokens, elapsed)
	sessionAcc := TextAccuracy(chars, e.state.ErrorCount)

	e.progress.WordsTyped += tokens
	e.progress.WPM = Smooth(e.progress.WPM, sessionWPM)
	e.progress.Accuracy = ClampPercent(Smooth(e.progress.Accuracy, sessionAcc))

	res := Result{Completed: true}
	res.LevelUps = e.gainExperience(TextExperience(tokens, sessionAcc))
	e.state.Completed = true
	res.Round = &model.Round{
		UserID:     e.userID,
		Mode:       e.state.Mode,
		Tokens:     tokens,
		Chars:      chars,
		Errors:     e.state.ErrorCount,
		WPM:        sessionWPM,
		Accuracy:   sessionAcc,
		DurationMs: elapsed.Milliseconds(),
		EndedAt:    now,
	}
	res.PersistGen = e.schedulePersist()
	return res
}

func (e *Engine) gainExperience(gained int) int {
	level, exp, ups := ApplyExperience(e.progress.Level, e.progress.Experience, gained)
	e.progress.Level = level
	e.progress.Experience = exp
	return ups
}

// TickActive reports whether the one-second timer should be running.
func (e *Engine) TickActive() bool {
	return e.state.Started && !e.state.Completed
}

// Tick advances elapsed time by one second and refreshes live WPM. It is a
// no-op unless an attempt is in progress.
func (e *Engine) Tick() bool {
	if !e.TickActive() {
		return false
	}
	e.state.ElapsedSeconds++
	e.progress.TimeSpentSeconds++
	if wpm, ok := LiveWPM(e.progress.WordsTyped, e.progress.TimeSpentSeconds); ok {
		e.progress.WPM = wpm
	}
	return true
}

func (e *Engine) schedulePersist() uint64 {
	e.dirty = true
	if e.userID == "" {
		return 0
	}
	return e.debounce.Schedule(e.clock.Now())
}

// QuietPeriod is the debounce window drivers must wait before PersistDue.
func (e *Engine) QuietPeriod() time.Duration {
	return e.debounce.Quiet()
}

// PersistDue is called when the debounce timer for gen fires. It returns the
// write to flush when gen is still the pending one.
func (e *Engine) PersistDue(gen uint64) (Write, bool) {
	if e.userID == "" {
		return Write{}, false
	}
	if !e.debounce.Fire(gen, e.clock.Now()) {
		return Write{}, false
	}
	return e.takeWrite(), true
}

// FlushNow empties the pending slot and returns unflushed progress, if any.
func (e *Engine) FlushNow() (Write, bool) {
	if e.userID == "" {
		return Write{}, false
	}
	if !e.dirty && !e.debounce.Pending() {
		return Write{}, false
	}
	e.debounce.Cancel()
	return e.takeWrite(), true
}

func (e *Engine) takeWrite() Write {
	e.dirty = false
	p := e.progress
	p.UpdatedAt = e.clock.Now()
	return Write{UserID: e.userID, Progress: p}
}

// ApplyFlush folds a flush outcome back into the engine and returns the
// achievement ids unlocked since the last successful check.
func (e *Engine) ApplyFlush(r FlushResult) []string {
	if r.Err != nil {
		if r.Write.UserID != "" && r.Write.UserID == e.userID {
			e.dirty = true
		}
		return nil
	}
	if r.ListErr != nil {
		return nil
	}
	return e.ObserveUnlocked(r.Write.UserID, r.Unlocked)
}

// ObserveUnlocked diffs the store's unlocked ids for userID against the cache.
// The cache is not updated until CommitUnlocked, so a delta whose details
// could not be loaded shows up again after the next successful write.
// It no-ops once the user context has been cleared or replaced.
func (e *Engine) ObserveUnlocked(userID string, current []string) []string {
	if userID == "" || userID != e.userID {
		return nil
	}
	return e.unlocks.Delta(current)
}

// CommitUnlocked marks ids as seen once their details are in hand and returns
// the ones not seen before. Overlapping flushes may report the same id twice;
// only the first commit returns it.
func (e *Engine) CommitUnlocked(userID string, ids []string) []string {
	if userID == "" || userID != e.userID {
		return nil
	}
	return e.unlocks.Commit(ids)
}

// ShowAchievement raises the unlock notification and returns the generation
// the dismiss timer must present to DismissToast.
func (e *Engine) ShowAchievement(a model.Achievement) uint64 {
	e.toastGen++
	e.toast = &Toast{
		Achievement: a,
		Expires:     e.clock.Now().Add(e.toastTTL),
		gen:         e.toastGen,
	}
	return e.toastGen
}

// ToastDuration is how long notifications stay up.
func (e *Engine) ToastDuration() time.Duration {
	return e.toastTTL
}

// DismissToast hides the notification raised with gen.
func (e *Engine) DismissToast(gen uint64) bool {
	if e.toast == nil || e.toast.gen != gen {
		return false
	}
	e.toast = nil
	return true
}

// CurrentToast returns the visible notification, if any.
func (e *Engine) CurrentToast() (model.Achievement, bool) {
	if e.toast == nil {
		return model.Achievement{}, false
	}
	if !e.clock.Now().Before(e.toast.Expires) {
		e.toast = nil
		return model.Achievement{}, false
	}
	return e.toast.Achievement, true
}

// Teardown stops the timers, returns any unflushed progress, and clears the
// user context so late achievement follow-ups no-op.
func (e *Engine) Teardown() (Write, bool) {
	w, ok := e.FlushNow()
	e.debounce.Cancel()
	e.state.Started = false
	e.toast = nil
	e.userID = ""
	return w, ok
}

// State returns a copy of the session state.
func (e *Engine) State() SessionState {
	return e.state
}

// Progress returns a copy of the cached progress.
func (e *Engine) Progress() model.UserProgress {
	return e.progress
}

// Snapshot is a read-only view for renderers and transports.
type Snapshot struct {
	UserID         string             `json:"user_id"`
	Mode           model.Mode         `json:"mode"`
	Phase          string             `json:"phase"`
	Target         string             `json:"target"`
	Input          string             `json:"input"`
	Cursor         int                `json:"cursor"`
	Errors         int                `json:"errors"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Progress       model.UserProgress `json:"progress"`
	PersistPending bool               `json:"persist_pending"`
	Toast          *model.Achievement `json:"toast,omitempty"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		UserID:         e.userID,
		Mode:           e.state.Mode,
		Phase:          e.state.Phase().String(),
		Target:         e.state.Target,
		Input:          e.state.Input,
		Cursor:         e.state.Cursor,
		Errors:         e.state.ErrorCount,
		ElapsedSeconds: e.state.ElapsedSeconds,
		Progress:       e.progress,
		PersistPending: e.debounce.Pending(),
	}
	if a, ok := e.CurrentToast(); ok {
		s.Toast = &a
	}
	return s
}

func normalizeProgress(p model.UserProgress) model.UserProgress {
	if p.WordsTyped < 0 {
		p.WordsTyped = 0
	}
	if p.TimeSpentSeconds < 0 {
		p.TimeSpentSeconds = 0
	}
	if p.WPM < 0 {
		p.WPM = 0
	}
	p.Accuracy = ClampPercent(p.Accuracy)
	p.Level, p.Experience, _ = ApplyExperience(p.Level, p.Experience, 0)
	return p
}
