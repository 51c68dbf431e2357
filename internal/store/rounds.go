package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/typequest/internal/model"
)

type roundRow struct {
	ID         int64  `db:"id"`
	UserID     string `db:"user_id"`
	Mode       string `db:"mode"`
	Tokens     int    `db:"tokens"`
	Chars      int    `db:"chars"`
	Errors     int    `db:"errors"`
	WPM        int    `db:"wpm"`
	Accuracy   int    `db:"accuracy"`
	DurationMs int64  `db:"duration_ms"`
	EndedAt    string `db:"ended_at"`
}

// InsertRound stores a completed sentence or paragraph and returns its id.
func (s *Store) InsertRound(ctx context.Context, r model.Round) (int64, error) {
	var id int64
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO rounds (user_id, mode, tokens, chars, errors, wpm, accuracy, duration_ms, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		r.UserID, string(r.Mode), r.Tokens, r.Chars, r.Errors, r.WPM, r.Accuracy, r.DurationMs, formatTime(r.EndedAt),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert round: %w", err)
	}
	return id, nil
}

// ListRounds returns userID's rounds filtered by cfg, oldest first. With
// cfg.Last > 0 only the most recent Last rounds are returned.
func (s *Store) ListRounds(ctx context.Context, userID string, cfg model.StatsConfig) ([]model.Round, error) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, user_id, mode, tokens, chars, errors, wpm, accuracy, duration_ms, ended_at
		FROM rounds
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	var rows []roundRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	rounds := make([]model.Round, len(rows))
	for i, r := range rows {
		ended, err := parseTime(r.EndedAt)
		if err != nil {
			return nil, err
		}
		rounds[len(rows)-1-i] = model.Round{
			ID:         r.ID,
			UserID:     r.UserID,
			Mode:       model.Mode(r.Mode),
			Tokens:     r.Tokens,
			Chars:      r.Chars,
			Errors:     r.Errors,
			WPM:        r.WPM,
			Accuracy:   r.Accuracy,
			DurationMs: r.DurationMs,
			EndedAt:    ended,
		}
	}
	return rounds, nil
}

// PruneRounds deletes rounds that ended before the cutoff.
func (s *Store) PruneRounds(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rounds WHERE ended_at < ?`), formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune rounds: %w", err)
	}
	return res.RowsAffected()
}
