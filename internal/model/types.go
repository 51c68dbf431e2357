// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the text source and the matching strategy of a session.
type Mode string

// Supported modes.
const (
	ModeWords      Mode = "words"
	ModeSentences  Mode = "sentences"
	ModeParagraphs Mode = "paragraphs"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeWords, ModeSentences, ModeParagraphs}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWords:
		return ModeWords, nil
	case ModeSentences:
		return ModeSentences, nil
	case ModeParagraphs:
		return ModeParagraphs, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want words, sentences or paragraphs)", s)
	}
}

// Next returns the mode after m, wrapping around.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeWords
}

// Config defines play settings.
type Config struct {
	Mode          Mode
	WordsFile     string
	QuietPeriod   time.Duration
	ToastDuration time.Duration
}

// StatsConfig defines filters and options for the dashboard.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// UserProgress mirrors the durable per-user stats row.
type UserProgress struct {
	Level            int       `json:"level"`
	Experience       int       `json:"exp"`
	WordsTyped       int       `json:"words_typed"`
	TimeSpentSeconds int       `json:"time_spent"`
	WPM              int       `json:"wpm"`
	Accuracy         int       `json:"accuracy"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultProgress returns the stats a new user starts with.
func DefaultProgress() UserProgress {
	return UserProgress{
		Level:    1,
		Accuracy: 100,
	}
}

// NextLevelAt is the experience needed to leave the current level.
func (p UserProgress) NextLevelAt() int {
	return p.Level * 100
}

// Requirement names a UserProgress field an achievement is gated on.
type Requirement string

// Supported achievement requirements.
const (
	RequireWordsTyped Requirement = "words_typed"
	RequireLevel      Requirement = "level"
	RequireWPM        Requirement = "wpm"
	RequireAccuracy   Requirement = "accuracy"
	RequireTimeSpent  Requirement = "time_spent"
)

// Achievement describes an unlockable badge.
type Achievement struct {
	ID               string      `json:"id" yaml:"id" db:"id"`
	Name             string      `json:"name" yaml:"name" db:"name"`
	Description      string      `json:"description" yaml:"description" db:"description"`
	Icon             string      `json:"icon" yaml:"icon" db:"icon"`
	RequirementType  Requirement `json:"requirement_type" yaml:"requirement_type" db:"requirement_type"`
	RequirementValue int         `json:"requirement_value" yaml:"requirement_value" db:"requirement_value"`
}

// UnlockedAchievement pairs an achievement with its unlock time.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Profile holds the public identity of a user.
type Profile struct {
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	ShowOnLeaderboard bool      `json:"show_on_leaderboard"`
	CreatedAt         time.Time `json:"created_at"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	Username   string `json:"username"`
	Level      int    `json:"level"`
	WordsTyped int    `json:"words_typed"`
}

// Round captures one completed sentence or paragraph.
type Round struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	Mode       Mode      `json:"mode"`
	Tokens     int       `json:"tokens"`
	Chars      int       `json:"chars"`
	Errors     int       `json:"errors"`
	WPM        int       `json:"wpm"`
	Accuracy   int       `json:"accuracy"`
	DurationMs int64     `json:"duration_ms"`
	EndedAt    time.Time `json:"ended_at"`
}
