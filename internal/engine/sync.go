package engine

import (
	"context"

	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
)

// Identity reports the signed-in user.
type Identity interface {
	CurrentUser() (string, bool)
}

// StatsStore persists UserProgress rows.
type StatsStore interface {
	ReadStats(ctx context.Context, userID string) (model.UserProgress, bool, error)
	CreateStats(ctx context.Context, userID string, defaults model.UserProgress) (model.UserProgress, error)
	UpdateStats(ctx context.Context, userID string, progress model.UserProgress) error
}

// AchievementStore lists unlocks and resolves achievement details.
type AchievementStore interface {
	ListUnlocked(ctx context.Context, userID string) ([]string, error)
	Details(ctx context.Context, ids []string) ([]model.Achievement, error)
}

// Syncer performs the engine's store I/O. It holds no engine state and is
// safe to call from a goroutine other than the engine's owner.
type Syncer struct {
	identity     Identity
	stats        StatsStore
	achievements AchievementStore
}

// NewSyncer wires the external collaborators.
func NewSyncer(identity Identity, stats StatsStore, achievements AchievementStore) *Syncer {
	return &Syncer{
		identity:     identity,
		stats:        stats,
		achievements: achievements,
	}
}

// Loaded is the startup state for Engine.Attach.
type Loaded struct {
	UserID   string
	Progress model.UserProgress
	Unlocked []string
}

// Load resolves the current user and reads (or creates) their progress and
// unlock set. A failed unlock listing is logged and yields an empty set.
func (s *Syncer) Load(ctx context.Context) (Loaded, error) {
	userID, ok := s.identity.CurrentUser()
	if !ok || userID == "" {
		return Loaded{}, ErrNotAuthenticated
	}
	progress, found, err := s.stats.ReadStats(ctx, userID)
	if err != nil {
		return Loaded{}, &PersistenceError{Op: "read stats", UserID: userID, Err: err}
	}
	if !found {
		progress, err = s.stats.CreateStats(ctx, userID, model.DefaultProgress())
		if err != nil {
			return Loaded{}, &PersistenceError{Op: "create stats", UserID: userID, Err: err}
		}
		logging.Infof("Created initial stats for user %s", userID)
	}
	unlocked, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		logging.Warnf("%v", &PersistenceError{Op: "list unlocked achievements", UserID: userID, Err: err})
		unlocked = nil
	}
	return Loaded{UserID: userID, Progress: progress, Unlocked: unlocked}, nil
}

// FlushResult is the outcome of one debounced write.
type FlushResult struct {
	Write    Write
	Err      error
	Unlocked []string
	ListErr  error
}

// Flush writes progress and, on success, lists the user's unlocked ids.
// Failures are logged; the write is not retried here.
func (s *Syncer) Flush(ctx context.Context, w Write) FlushResult {
	if err := s.stats.UpdateStats(ctx, w.UserID, w.Progress); err != nil {
		perr := &PersistenceError{Op: "update stats", UserID: w.UserID, Err: err}
		logging.Errorf("%v", perr)
		return FlushResult{Write: w, Err: perr}
	}
	ids, err := s.achievements.ListUnlocked(ctx, w.UserID)
	if err != nil {
		perr := &PersistenceError{Op: "list unlocked achievements", UserID: w.UserID, Err: err}
		logging.Warnf("%v", perr)
		return FlushResult{Write: w, ListErr: perr}
	}
	return FlushResult{Write: w, Unlocked: ids}
}

// Describe resolves achievement details for ids unlocked by userID.
func (s *Syncer) Describe(ctx context.Context, userID string, ids []string) ([]model.Achievement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	details, err := s.achievements.Details(ctx, ids)
	if err != nil {
		perr := &PersistenceError{Op: "load achievement details", UserID: userID, Err: err}
		logging.Warnf("%v", perr)
		return nil, perr
	}
	return details, nil
}
