package store

import (
	"context"

	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

// DefaultLeaderboardLimit caps leaderboard queries without an explicit limit.
const DefaultLeaderboardLimit = 100

type leaderRow struct {
	Username   string `db:"username"`
	Level      int    `db:"level"`
	WordsTyped int    `db:"words_typed"`
}

// Leaderboard returns the top visible profiles by level, then words typed.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 || limit > DefaultLeaderboardLimit {
		limit = DefaultLeaderboardLimit
	}
	var rows []leaderRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT p.username, st.level, st.words_typed
		 FROM user_stats st
		 JOIN profiles p ON p.user_id = st.user_id
		 WHERE p.show_on_leaderboard = 1
		 ORDER BY st.level DESC, st.words_typed DESC, p.username ASC
		 LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r leaderRow, i int) model.LeaderboardEntry {
		return model.LeaderboardEntry{Rank: i + 1, Username: r.Username, Level: r.Level, WordsTyped: r.WordsTyped}
	}), nil
}
