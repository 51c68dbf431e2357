package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/typequest/internal/model"
)

type profileRow struct {
	UserID            string `db:"user_id"`
	Username          string `db:"username"`
	ShowOnLeaderboard int    `db:"show_on_leaderboard"`
	CreatedAt         string `db:"created_at"`
}

func (r profileRow) profile() (model.Profile, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		UserID:            r.UserID,
		Username:          r.Username,
		ShowOnLeaderboard: r.ShowOnLeaderboard != 0,
		CreatedAt:         created,
	}, nil
}

// CreateProfile registers a new user under username with a fresh id.
func (s *Store) CreateProfile(ctx context.Context, username string) (model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.Profile{}, errors.New("username is required")
	}
	if _, err := s.ProfileByName(ctx, username); err == nil {
		return model.Profile{}, ErrNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return model.Profile{}, err
	}
	p := model.Profile{
		UserID:            uuid.NewString(),
		Username:          username,
		ShowOnLeaderboard: true,
		CreatedAt:         s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO profiles (user_id, username, show_on_leaderboard, created_at) VALUES (?, ?, ?, ?)`),
		p.UserID, p.Username, boolToInt(p.ShowOnLeaderboard), formatTime(p.CreatedAt))
	if err != nil {
		return model.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// Profile returns the profile for userID.
func (s *Store) Profile(ctx context.Context, userID string) (model.Profile, error) {
	return s.getProfile(ctx, s.db, `SELECT user_id, username, show_on_leaderboard, created_at FROM profiles WHERE user_id = ?`, userID)
}

// ProfileByName returns the profile registered under username.
func (s *Store) ProfileByName(ctx context.Context, username string) (model.Profile, error) {
	return s.getProfile(ctx, s.db, `SELECT user_id, username, show_on_leaderboard, created_at FROM profiles WHERE username = ?`, strings.TrimSpace(username))
}

func (s *Store) getProfile(ctx context.Context, q sqlx.QueryerContext, query string, arg any) (model.Profile, error) {
	var row profileRow
	if err := sqlx.GetContext(ctx, q, &row, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	return row.profile()
}

// UpdateProfile changes the username and leaderboard visibility of p.UserID.
func (s *Store) UpdateProfile(ctx context.Context, p model.Profile) error {
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" {
		return errors.New("username is required")
	}
	if other, err := s.ProfileByName(ctx, p.Username); err == nil && other.UserID != p.UserID {
		return ErrNameTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE profiles SET username = ?, show_on_leaderboard = ? WHERE user_id = ?`),
		p.Username, boolToInt(p.ShowOnLeaderboard), p.UserID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
