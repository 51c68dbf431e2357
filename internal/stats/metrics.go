// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a list of rounds.
type Summary struct {
	Rounds      int
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	Tokens      int
	Errors      int
	Duration    time.Duration
}

// Summarize aggregates rounds.
func Summarize(rounds []model.Round) Summary {
	if len(rounds) == 0 {
		return Summary{}
	}
	s := Summary{Rounds: len(rounds)}
	var wpm, acc float64
	for _, r := range rounds {
		wpm += float64(r.WPM)
		acc += float64(r.Accuracy)
		if r.WPM > s.BestWPM {
			s.BestWPM = r.WPM
		}
		s.Tokens += r.Tokens
		s.Errors += r.Errors
		s.Duration += time.Duration(r.DurationMs) * time.Millisecond
	}
	count := float64(len(rounds))
	s.AvgWPM = wpm / count
	s.AvgAccuracy = acc / count
	return s
}

// Curves returns the per-round WPM and accuracy series smoothed over window.
func Curves(rounds []model.Round, window int) (wpm, accuracy []float64) {
	wpm = lo.Map(rounds, func(r model.Round, _ int) float64 { return float64(r.WPM) })
	accuracy = lo.Map(rounds, func(r model.Round, _ int) float64 { return float64(r.Accuracy) })
	return MovingAverage(wpm, window), MovingAverage(accuracy, window)
}

// LevelProgress is the fraction of the current level already earned.
func LevelProgress(p model.UserProgress) float64 {
	next := p.NextLevelAt()
	if next <= 0 {
		return 0
	}
	return lo.Clamp(float64(p.Experience)/float64(next), 0, 1)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := lo.Min(values), lo.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[lo.Clamp(idx, 0, len(sparkChars)-1)])
	}
	return b.String()
}

// FormatDuration renders d as "1h 02m", "3m 05s" or "42s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
