// Package identity tracks the signed-in user for the local CLI.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/typequest/internal/config"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
)

// Profiles is the subset of the store identity needs.
type Profiles interface {
	CreateProfile(ctx context.Context, username string) (model.Profile, error)
	ProfileByName(ctx context.Context, username string) (model.Profile, error)
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

// Session is the persisted sign-in record.
type Session struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	SignedIn time.Time `json:"signed_in"`
}

// FileSession stores the current user in a JSON file.
type FileSession struct {
	path string
}

// NewFileSession uses the session file at path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Login finds or creates the profile for username and records it as current.
func (s *FileSession) Login(ctx context.Context, profiles Profiles, username string) (model.Profile, bool, error) {
	created := false
	p, err := profiles.ProfileByName(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		p, err = profiles.CreateProfile(ctx, username)
		created = true
	}
	if err != nil {
		return model.Profile{}, false, err
	}
	if err := s.write(Session{UserID: p.UserID, Username: p.Username, SignedIn: time.Now().UTC()}); err != nil {
		return model.Profile{}, false, err
	}
	return p, created, nil
}

// Current returns the recorded session, if any.
func (s *FileSession) Current() (Session, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("failed to read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	if sess.UserID == "" {
		return Session{}, false, nil
	}
	return sess, true, nil
}

// CurrentUser implements engine.Identity. A broken session file counts as
// signed out.
func (s *FileSession) CurrentUser() (string, bool) {
	sess, ok, err := s.Current()
	if err != nil || !ok {
		return "", false
	}
	return sess.UserID, true
}

// SignOut removes the session file.
func (s *FileSession) SignOut() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (s *FileSession) write(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Resolver picks the current user: the TYPEQUEST_USER username when set,
// otherwise the session file.
type Resolver struct {
	session  *FileSession
	profiles Profiles
}

// NewResolver builds a Resolver.
func NewResolver(session *FileSession, profiles Profiles) *Resolver {
	return &Resolver{session: session, profiles: profiles}
}

// CurrentUser implements engine.Identity.
func (r *Resolver) CurrentUser() (string, bool) {
	if name, ok := config.EnvString(config.EnvUser); ok {
		p, err := r.profiles.ProfileByName(context.Background(), name)
		if err != nil {
			return "", false
		}
		return p.UserID, true
	}
	return r.session.CurrentUser()
}

// CurrentProfile resolves the current user to a profile.
func (r *Resolver) CurrentProfile(ctx context.Context) (model.Profile, error) {
	id, ok := r.CurrentUser()
	if !ok {
		return model.Profile{}, ErrSignedOut
	}
	return r.profiles.Profile(ctx, id)
}

// ErrSignedOut is returned when nobody is signed in.
var ErrSignedOut = errors.New("not signed in (run: typequest login NAME)")
