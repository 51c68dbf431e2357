package engine

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// WordExperience is awarded for every completed word in words mode.
	WordExperience = 10
	// experiencePerToken scales sentence/paragraph experience by token count.
	experiencePerToken = 5
	// minSessionElapsed floors the duration used for session WPM.
	minSessionElapsed = time.Second
)

// CountTokens counts space-delimited tokens the way completions are scored.
func CountTokens(text string) int {
	return len(strings.Split(text, " "))
}

// CharCount counts characters (runes) in text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// LiveWPM derives words per minute from cumulative words and seconds.
// It reports false while there is nothing to divide.
func LiveWPM(wordsTyped, seconds int) (int, bool) {
	if wordsTyped <= 0 || seconds <= 0 {
		return 0, false
	}
	minutes := float64(seconds) / 60.0
	return round(float64(wordsTyped) / minutes), true
}

// SessionWPM derives words per minute for one completed text.
func SessionWPM(tokens int, elapsed time.Duration) int {
	if tokens <= 0 {
		return 0
	}
	if elapsed < minSessionElapsed {
		elapsed = minSessionElapsed
	}
	return round(float64(tokens) / elapsed.Minutes())
}

// Smooth merges a session value into a running value: round((old+session)/2).
func Smooth(old, session int) int {
	return round(float64(old+session) / 2.0)
}

// WordsAccuracy is the correct-to-attempted ratio as a percentage.
func WordsAccuracy(correct, total int) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	return ClampPercent(round(float64(correct) / float64(total) * 100)), true
}

// TextAccuracy is the share of characters not offset by errors.
func TextAccuracy(chars, errors int) int {
	if chars <= 0 {
		return 0
	}
	return ClampPercent(round(float64(chars-errors) / float64(chars) * 100))
}

// TextExperience is the accuracy-weighted experience for a completed text.
func TextExperience(tokens, accuracy int) int {
	if tokens <= 0 || accuracy <= 0 {
		return 0
	}
	return round(float64(tokens*experiencePerToken) * (float64(accuracy) / 100.0))
}

// ApplyExperience adds gained experience and performs every level-up it pays for.
func ApplyExperience(level, exp, gained int) (newLevel, newExp, levelUps int) {
	if level < 1 {
		level = 1
	}
	if exp < 0 {
		exp = 0
	}
	if gained > 0 {
		exp += gained
	}
	for exp >= level*100 {
		exp -= level * 100
		level++
		levelUps++
	}
	return level, exp, levelUps
}

// ClampPercent bounds v to [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
