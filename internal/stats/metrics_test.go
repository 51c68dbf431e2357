package stats

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/typequest/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
	if len(MovingAverage(nil, 3)) != 0 {
		t.Fatalf("expected empty output")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Round{
		{WPM: 30, Accuracy: 90, Tokens: 4, Errors: 2, DurationMs: 1500},
		{WPM: 50, Accuracy: 100, Tokens: 6, DurationMs: 2500},
	})
	if s.Rounds != 2 || s.BestWPM != 50 || s.Tokens != 10 || s.Errors != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.AvgWPM != 40 || s.AvgAccuracy != 95 {
		t.Fatalf("unexpected averages: %+v", s)
	}
	if s.Duration != 4*time.Second {
		t.Fatalf("unexpected duration: %v", s.Duration)
	}
	if (Summarize(nil) != Summary{}) {
		t.Fatalf("expected zero summary")
	}
}

func TestLevelProgress(t *testing.T) {
	if got := LevelProgress(model.UserProgress{Level: 2, Experience: 50}); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		42 * time.Second:                          "42s",
		3*time.Minute + 5*time.Second:             "3m 05s",
		time.Hour + 2*time.Minute + 9*time.Second: "1h 02m",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestByMode(t *testing.T) {
	modes := ByMode([]model.Round{
		{Mode: model.ModeParagraphs, WPM: 10},
		{Mode: model.ModeSentences, WPM: 20},
		{Mode: model.ModeSentences, WPM: 40},
	})
	if len(modes) != 2 || modes[0].Mode != model.ModeSentences || modes[0].Summary.AvgWPM != 30 {
		t.Fatalf("unexpected modes: %+v", modes)
	}
}
