package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

// SeedAchievements inserts or refreshes the catalog rows.
func (s *Store) SeedAchievements(ctx context.Context, catalog []model.Achievement) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, a := range catalog {
			_, err := tx.NamedExecContext(ctx,
				`INSERT INTO achievements (id, name, description, icon, requirement_type, requirement_value)
				 VALUES (:id, :name, :description, :icon, :requirement_type, :requirement_value)
				 ON CONFLICT (id) DO UPDATE SET
					name = excluded.name,
					description = excluded.description,
					icon = excluded.icon,
					requirement_type = excluded.requirement_type,
					requirement_value = excluded.requirement_value`, a)
			if err != nil {
				return fmt.Errorf("seed %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// ListAchievements returns the catalog ordered by requirement value.
func (s *Store) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	var catalog []model.Achievement
	err := s.db.SelectContext(ctx, &catalog,
		`SELECT id, name, description, icon, requirement_type, requirement_value
		 FROM achievements
		 ORDER BY requirement_value ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// ListUnlocked returns the achievement ids userID holds, oldest first.
func (s *Store) ListUnlocked(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, s.db.Rebind(
		`SELECT ua.achievement_id
		 FROM user_achievements ua
		 LEFT JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.unlocked_at ASC, a.requirement_value ASC, ua.achievement_id ASC`), userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Details resolves catalog entries for ids, ordered by requirement value.
func (s *Store) Details(ctx context.Context, ids []string) ([]model.Achievement, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, name, description, icon, requirement_type, requirement_value
		 FROM achievements
		 WHERE id IN (?)
		 ORDER BY requirement_value ASC, id ASC`, ids)
	if err != nil {
		return nil, err
	}
	var details []model.Achievement
	if err := s.db.SelectContext(ctx, &details, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return details, nil
}

type unlockedRow struct {
	model.Achievement
	UnlockedAt string `db:"unlocked_at"`
}

// UnlockedWithTimes returns userID's unlocks with details, newest first.
func (s *Store) UnlockedWithTimes(ctx context.Context, userID string) ([]model.UnlockedAchievement, error) {
	var rows []unlockedRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT a.id, a.name, a.description, a.icon, a.requirement_type, a.requirement_value, ua.unlocked_at
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.unlocked_at DESC, a.requirement_value DESC, a.id DESC`), userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.UnlockedAchievement, 0, len(rows))
	for _, r := range rows {
		at, err := parseTime(r.UnlockedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, model.UnlockedAchievement{Achievement: r.Achievement, UnlockedAt: at})
	}
	return out, nil
}
