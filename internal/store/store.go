// Package store handles SQL persistence for profiles, stats, achievements and rounds.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Postgres driver.
	_ "modernc.org/sqlite" // SQLite driver.
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrNameTaken is returned when a username already belongs to another profile.
var ErrNameTaken = errors.New("username already taken")

// timeLayout sorts lexicographically for UTC values, so range filters work on TEXT columns.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store wraps SQL access for the game data.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// Open connects to the database and applies migrations. For SQLite the dsn is
// a file path whose directory is created on demand.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q (want sqlite or postgres)", driver)
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	store := &Store{db: db, driver: driver, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	roundID := "INTEGER PRIMARY KEY"
	if s.driver == DriverPostgres {
		roundID = "BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			show_on_leaderboard INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY,
			level INTEGER NOT NULL DEFAULT 1,
			exp INTEGER NOT NULL DEFAULT 0,
			words_typed INTEGER NOT NULL DEFAULT 0,
			time_spent INTEGER NOT NULL DEFAULT 0,
			wpm INTEGER NOT NULL DEFAULT 0,
			accuracy INTEGER NOT NULL DEFAULT 100,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			icon TEXT NOT NULL,
			requirement_type TEXT NOT NULL,
			requirement_value INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			unlocked_at TEXT NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rounds (
			id %s,
			user_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			chars INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			ended_at TEXT NOT NULL
		);`, roundID),
		`CREATE INDEX IF NOT EXISTS idx_rounds_user_ended ON rounds(user_id, ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_user_stats_rank ON user_stats(level, words_typed);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, rolling back when fn fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
