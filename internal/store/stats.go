package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/typequest/internal/achievements"
	"github.com/verte-zerg/typequest/internal/model"
)

type statsRow struct {
	Level      int    `db:"level"`
	Exp        int    `db:"exp"`
	WordsTyped int    `db:"words_typed"`
	TimeSpent  int    `db:"time_spent"`
	WPM        int    `db:"wpm"`
	Accuracy   int    `db:"accuracy"`
	UpdatedAt  string `db:"updated_at"`
}

func (r statsRow) progress() (model.UserProgress, error) {
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return model.UserProgress{}, err
	}
	return model.UserProgress{
		Level:            r.Level,
		Experience:       r.Exp,
		WordsTyped:       r.WordsTyped,
		TimeSpentSeconds: r.TimeSpent,
		WPM:              r.WPM,
		Accuracy:         r.Accuracy,
		UpdatedAt:        updated,
	}, nil
}

// Stats returns the stats row of userID, or ErrNotFound.
func (s *Store) Stats(ctx context.Context, userID string) (model.UserProgress, error) {
	var row statsRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT level, exp, words_typed, time_spent, wpm, accuracy, updated_at FROM user_stats WHERE user_id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserProgress{}, ErrNotFound
		}
		return model.UserProgress{}, err
	}
	return row.progress()
}

// ReadStats is Stats with absence reported as found=false.
func (s *Store) ReadStats(ctx context.Context, userID string) (model.UserProgress, bool, error) {
	p, err := s.Stats(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.UserProgress{}, false, nil
	}
	if err != nil {
		return model.UserProgress{}, false, err
	}
	return p, true, nil
}

// CreateStats inserts defaults for userID. An existing row is kept and returned.
func (s *Store) CreateStats(ctx context.Context, userID string, defaults model.UserProgress) (model.UserProgress, error) {
	if defaults.UpdatedAt.IsZero() {
		defaults.UpdatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO user_stats (user_id, level, exp, words_typed, time_spent, wpm, accuracy, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`),
		userID, defaults.Level, defaults.Experience, defaults.WordsTyped, defaults.TimeSpentSeconds,
		defaults.WPM, defaults.Accuracy, formatTime(defaults.UpdatedAt))
	if err != nil {
		return model.UserProgress{}, fmt.Errorf("create stats: %w", err)
	}
	return s.Stats(ctx, userID)
}

// UpdateStats writes the full stats row and, in the same transaction, unlocks
// every catalog achievement the new values satisfy.
func (s *Store) UpdateStats(ctx context.Context, userID string, p model.UserProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO user_stats (user_id, level, exp, words_typed, time_spent, wpm, accuracy, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (user_id) DO UPDATE SET
				level = excluded.level,
				exp = excluded.exp,
				words_typed = excluded.words_typed,
				time_spent = excluded.time_spent,
				wpm = excluded.wpm,
				accuracy = excluded.accuracy,
				updated_at = excluded.updated_at`),
			userID, p.Level, p.Experience, p.WordsTyped, p.TimeSpentSeconds, p.WPM, p.Accuracy, formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
		return unlockSatisfied(ctx, tx, userID, p)
	})
}

func unlockSatisfied(ctx context.Context, tx *sqlx.Tx, userID string, p model.UserProgress) error {
	var catalog []model.Achievement
	if err := tx.SelectContext(ctx, &catalog,
		`SELECT id, name, description, icon, requirement_type, requirement_value FROM achievements`); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	var held []string
	if err := tx.SelectContext(ctx, &held, tx.Rebind(
		`SELECT achievement_id FROM user_achievements WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("load unlocks: %w", err)
	}
	achievements.Sort(catalog)
	for _, a := range achievements.Newly(catalog, p, held) {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, achievement_id) DO NOTHING`),
			userID, a.ID, formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("unlock %s: %w", a.ID, err)
		}
	}
	return nil
}
