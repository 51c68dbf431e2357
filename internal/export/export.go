// Package export writes a player's report to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/typequest/internal/stats"
)

// Sheet names, in workbook order.
const (
	SheetStats        = "Stats"
	SheetRounds       = "Rounds"
	SheetAchievements = "Achievements"
	SheetLeaderboard  = "Leaderboard"
)

const timeLayout = "2006-01-02 15:04:05"

// Write renders r as an xlsx workbook to w.
func Write(w io.Writer, r stats.Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile renders r as an xlsx workbook at path.
func WriteFile(path string, r stats.Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(r stats.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	b := &builder{f: f, header: header}

	p := r.Progress
	b.sheet(SheetStats, []any{"Field", "Value"}, [][]any{
		{"User", r.Profile.Username},
		{"User ID", r.Profile.UserID},
		{"Level", p.Level},
		{"Experience", p.Experience},
		{"Next level at", p.NextLevelAt()},
		{"Words typed", p.WordsTyped},
		{"Time spent", stats.FormatDuration(time.Duration(p.TimeSpentSeconds) * time.Second)},
		{"WPM", p.WPM},
		{"Accuracy %", p.Accuracy},
		{"Leaderboard rank", r.Rank()},
		{"Updated", formatTime(p.UpdatedAt)},
	})

	rounds := make([][]any, 0, len(r.Rounds))
	for _, rd := range r.Rounds {
		rounds = append(rounds, []any{
			formatTime(rd.EndedAt), string(rd.Mode), rd.Tokens, rd.Chars, rd.Errors,
			rd.WPM, rd.Accuracy, float64(rd.DurationMs) / 1000,
		})
	}
	b.sheet(SheetRounds, []any{"Ended", "Mode", "Words", "Chars", "Errors", "WPM", "Accuracy %", "Seconds"}, rounds)

	at := r.UnlockedAt()
	achievements := make([][]any, 0, len(r.Catalog))
	for _, a := range r.Catalog {
		unlocked := ""
		if t, ok := at[a.ID]; ok {
			unlocked = formatTime(t)
		}
		achievements = append(achievements, []any{
			a.Name, a.Description, string(a.RequirementType), a.RequirementValue, unlocked,
		})
	}
	b.sheet(SheetAchievements, []any{"Name", "Description", "Requirement", "Target", "Unlocked"}, achievements)

	board := make([][]any, 0, len(r.Leaderboard))
	for _, e := range r.Leaderboard {
		board = append(board, []any{e.Rank, e.Username, e.Level, e.WordsTyped})
	}
	b.sheet(SheetLeaderboard, []any{"Rank", "User", "Level", "Words"}, board)

	if b.err != nil {
		return nil, b.err
	}
	f.DeleteSheet("Sheet1")
	idx, err := f.GetSheetIndex(SheetStats)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

// builder keeps the first error so sheet calls can be chained.
type builder struct {
	f      *excelize.File
	header int
	err    error
}

func (b *builder) sheet(name string, header []any, rows [][]any) {
	if b.err != nil {
		return
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = fmt.Errorf("sheet %s: %w", name, err)
		return
	}
	if err := b.f.SetSheetRow(name, "A1", &header); err != nil {
		b.err = err
		return
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetCellStyle(name, "A1", last, b.header); err != nil {
		b.err = err
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			b.err = err
			return
		}
		if err := b.f.SetSheetRow(name, cell, &row); err != nil {
			b.err = fmt.Errorf("sheet %s row %d: %w", name, i+2, err)
			return
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetColWidth(name, "A", lastCol, 16); err != nil {
		b.err = err
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}
