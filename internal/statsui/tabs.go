package statsui

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/stats"
)

func renderOverview(r stats.Report, window, width int, now time.Time) string {
	sections := []string{renderCards(r, width)}
	if len(r.Rounds) == 0 {
		sections = append(sections, "No rounds yet. Finish a sentence or paragraph to see curves.")
	} else {
		var buf bytes.Buffer
		plot := stats.Plot{Width: stats.PlotWidthFor(width), Height: plotHeight, Color: true}
		if err := stats.RenderCurves(&buf, r.Rounds, window, plot); err != nil {
			sections = append(sections, fmt.Sprintf("Failed to render curves: %v", err))
		} else {
			sections = append(sections, strings.TrimRight(buf.String(), "\n"))
		}
	}
	var recent bytes.Buffer
	if err := stats.RenderRecent(&recent, r, recentLimit, now); err == nil {
		sections = append(sections, strings.TrimRight(recent.String(), "\n"))
	}
	var preview bytes.Buffer
	top := r.Leaderboard[:min(previewLimit, len(r.Leaderboard))]
	if err := stats.RenderLeaderboard(&preview, top, r.Profile.Username); err == nil {
		sections = append(sections, strings.TrimRight(preview.String(), "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func renderCards(r stats.Report, width int) string {
	p := r.Progress
	cards := []string{
		metricCard("Level", fmt.Sprintf("%d (%d/%d exp)", p.Level, p.Experience, p.NextLevelAt())),
		metricCard("Words", fmt.Sprintf("%d", p.WordsTyped)),
		metricCard("Time", stats.FormatDuration(time.Duration(p.TimeSpentSeconds)*time.Second)),
		metricCard("WPM", fmt.Sprintf("%d", p.WPM)),
		metricCard("Accuracy", fmt.Sprintf("%d%%", p.Accuracy)),
		metricCard("Achievements", fmt.Sprintf("%d/%d", len(r.Unlocked), len(r.Catalog))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderAchievements(r stats.Report, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderAchievements(&buf, r); err != nil {
		return fmt.Sprintf("Failed to render achievements: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = truncateLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func newBoardTable() table.Model {
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 24},
			{Title: "Level", Width: 6},
			{Title: "Words", Width: 10},
		}),
		table.WithStyles(boardStyles()),
	)
}

func boardStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func boardRows(entries []model.LeaderboardEntry, you string) []table.Row {
	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		name := e.Username
		if you != "" && name == you {
			name += " (you)"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("#%d", e.Rank),
			name,
			fmt.Sprintf("%d", e.Level),
			fmt.Sprintf("%d", e.WordsTyped),
		})
	}
	return rows
}
