package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/typequest/internal/achievements"
	"github.com/verte-zerg/typequest/internal/model"
)

// RenderSummary prints the profile card, round aggregates and the per-mode table.
func RenderSummary(w io.Writer, r Report) error {
	p := r.Progress
	lines := []string{
		fmt.Sprintf("Summary for %s", r.Profile.Username),
		fmt.Sprintf("Level: %d (%d/%d exp)", p.Level, p.Experience, p.NextLevelAt()),
		fmt.Sprintf("Words typed: %d", p.WordsTyped),
		fmt.Sprintf("Time spent: %s", FormatDuration(time.Duration(p.TimeSpentSeconds)*time.Second)),
		fmt.Sprintf("WPM: %d", p.WPM),
		fmt.Sprintf("Accuracy: %d%%", p.Accuracy),
		fmt.Sprintf("Achievements: %d/%d", len(r.Unlocked), len(r.Catalog)),
	}
	if rank := r.Rank(); rank > 0 {
		lines = append(lines, fmt.Sprintf("Leaderboard rank: #%d", rank))
	}
	if len(r.Rounds) == 0 {
		lines = append(lines, "Rounds: none yet")
	} else {
		s := Summarize(r.Rounds)
		lines = append(lines, fmt.Sprintf("Rounds: %d (avg %.1f WPM, best %d, avg accuracy %.1f%%)",
			s.Rounds, s.AvgWPM, s.BestWPM, s.AvgAccuracy))
	}
	if err := writeLines(w, lines); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	if len(r.Rounds) == 0 {
		return nil
	}
	return renderModeTable(w, r.Rounds)
}

func renderModeTable(w io.Writer, rounds []model.Round) error {
	if _, err := fmt.Fprintln(w, "By Mode"); err != nil {
		return err
	}
	headers := []string{"Mode", "Rounds", "Avg WPM", "Best WPM", "Avg Accuracy", "Time"}
	modes := ByMode(rounds)
	rows := make([][]string, 0, len(modes))
	for _, m := range modes {
		rows = append(rows, []string{
			string(m.Mode),
			fmt.Sprintf("%d", m.Summary.Rounds),
			fmt.Sprintf("%.1f", m.Summary.AvgWPM),
			fmt.Sprintf("%d", m.Summary.BestWPM),
			fmt.Sprintf("%.1f%%", m.Summary.AvgAccuracy),
			FormatDuration(m.Summary.Duration),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves plots WPM and accuracy per round, smoothed over window.
func RenderCurves(w io.Writer, rounds []model.Round, window int, plot Plot) error {
	if len(rounds) == 0 {
		return nil
	}
	wpm, acc := Curves(rounds, window)
	if plot.Title == "" {
		plot.Title = "Learning Curves"
	}
	return plot.Render(w,
		Series{Name: "WPM", Values: wpm},
		Series{Name: "Accuracy", Values: acc},
	)
}

// RenderAchievements lists the catalog with unlock dates, or progress toward
// locked entries.
func RenderAchievements(w io.Writer, r Report) error {
	if len(r.Catalog) == 0 {
		_, err := fmt.Fprintln(w, "No achievements defined.")
		return err
	}
	unlockedAt := r.UnlockedAt()
	if _, err := fmt.Fprintf(w, "Achievements (%d/%d unlocked)\n", len(unlockedAt), len(r.Catalog)); err != nil {
		return err
	}
	headers := []string{"", "Name", "Description", "Status"}
	rows := make([][]string, 0, len(r.Catalog))
	for _, a := range r.Catalog {
		mark, status := "[ ]", fmt.Sprintf("%.0f%%", achievements.Progress(a, r.Progress)*100)
		if at, ok := unlockedAt[a.ID]; ok {
			mark, status = "[x]", at.Format("2006-01-02")
		}
		rows = append(rows, []string{mark, a.Name, a.Description, status})
	}
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{3: true})); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecent lists the latest unlocks relative to now.
func RenderRecent(w io.Writer, r Report, n int, now time.Time) error {
	recent := r.Recent(n)
	if _, err := fmt.Fprintln(w, "Recent Activity"); err != nil {
		return err
	}
	if len(recent) == 0 {
		_, err := fmt.Fprintln(w, "Nothing yet. Finish a round to earn your first achievement.")
		return err
	}
	for _, u := range recent {
		if _, err := fmt.Fprintf(w, "- Unlocked %s (%s)\n", u.Name, RelativeDay(u.UnlockedAt, now)); err != nil {
			return err
		}
	}
	return nil
}

// RenderLeaderboard prints ranked players; highlight marks one username.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry, highlight string) error {
	if _, err := fmt.Fprintln(w, "Leaderboard"); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No players on the leaderboard yet.")
		return err
	}
	headers := []string{"Rank", "Player", "Level", "Words"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		name := e.Username
		if highlight != "" && e.Username == highlight {
			name += " (you)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("#%d", e.Rank),
			name,
			fmt.Sprintf("%d", e.Level),
			fmt.Sprintf("%d", e.WordsTyped),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
