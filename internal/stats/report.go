package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
)

// Source is the read side of the store used for reports.
type Source interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
	Stats(ctx context.Context, userID string) (model.UserProgress, error)
	ListRounds(ctx context.Context, userID string, cfg model.StatsConfig) ([]model.Round, error)
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	UnlockedWithTimes(ctx context.Context, userID string) ([]model.UnlockedAchievement, error)
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Profile     model.Profile
	Progress    model.UserProgress
	Rounds      []model.Round
	Catalog     []model.Achievement
	Unlocked    []model.UnlockedAchievement
	Leaderboard []model.LeaderboardEntry
}

// BuildReport loads and prepares data for stats rendering. A user without a
// stats row gets the defaults.
func BuildReport(ctx context.Context, src Source, userID string, cfg model.StatsConfig) (Report, error) {
	profile, err := src.Profile(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	progress, err := src.Stats(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		progress, err = model.DefaultProgress(), nil
	}
	if err != nil {
		return Report{}, err
	}
	rounds, err := src.ListRounds(ctx, userID, cfg)
	if err != nil {
		return Report{}, err
	}
	catalog, err := src.ListAchievements(ctx)
	if err != nil {
		return Report{}, err
	}
	unlocked, err := src.UnlockedWithTimes(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	board, err := src.Leaderboard(ctx, store.DefaultLeaderboardLimit)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Profile:     profile,
		Progress:    progress,
		Rounds:      rounds,
		Catalog:     catalog,
		Unlocked:    unlocked,
		Leaderboard: board,
	}, nil
}

// UnlockedAt maps unlocked achievement ids to their unlock time.
func (r Report) UnlockedAt() map[string]time.Time {
	return lo.SliceToMap(r.Unlocked, func(u model.UnlockedAchievement) (string, time.Time) {
		return u.ID, u.UnlockedAt
	})
}

// Recent returns up to n most recent unlocks.
func (r Report) Recent(n int) []model.UnlockedAchievement {
	if n <= 0 || len(r.Unlocked) <= n {
		return r.Unlocked
	}
	return r.Unlocked[:n]
}

// Rank returns the user's leaderboard position, or 0 when not listed.
func (r Report) Rank() int {
	entry, ok := lo.Find(r.Leaderboard, func(e model.LeaderboardEntry) bool {
		return e.Username == r.Profile.Username
	})
	if !ok {
		return 0
	}
	return entry.Rank
}

// RelativeDay describes t relative to now: Today, Yesterday, N days ago, or a date.
func RelativeDay(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
