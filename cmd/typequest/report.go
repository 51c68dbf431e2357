package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typequest/internal/export"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/stats"
	"github.com/verte-zerg/typequest/internal/statsui"
	"github.com/verte-zerg/typequest/internal/store"
)

const (
	defaultCurveWindow = 5
	defaultBoardLimit  = 10
	recentUnlocks      = 3
	plotHeight         = 10
)

var (
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	boardLimit int

	exportOut string
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
}

func reportConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the dashboard")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := reportConfig()
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	p, err := currentProfile(st)
	if err != nil {
		return err
	}

	if statsPlain {
		return printReport(cmd, st, p.UserID, cfg)
	}

	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			_ = cerr
		}
	}()
	program := tea.NewProgram(statsui.NewModel(st, p.UserID, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printReport(cmd *cobra.Command, st *store.Store, userID string, cfg model.StatsConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	report, err := stats.BuildReport(ctx, st, userID, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	plot := stats.Plot{
		Width:  stats.PlotWidthFor(stats.TerminalWidth()),
		Height: plotHeight,
		Color:  stats.ColorFor(out),
	}
	if err := stats.RenderCurves(out, report.Rounds, cfg.CurveWindow, plot); err != nil {
		return err
	}
	if err := stats.RenderRecent(out, report, recentUnlocks, time.Now()); err != nil {
		return err
	}
	return stats.RenderAchievements(out, report)
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().IntVar(&boardLimit, "limit", defaultBoardLimit, fmt.Sprintf("number of players (max %d)", store.DefaultLeaderboardLimit))
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if boardLimit < 1 {
		return fmt.Errorf("--limit must be > 0")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	entries, err := st.Leaderboard(ctx, boardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	highlight := ""
	if p, err := currentProfile(st); err == nil {
		highlight = p.Username
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), entries, highlight)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stats, rounds and achievements to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	addReportFlags(cmd)
	cmd.Flags().StringVar(&exportOut, "out", "typequest.xlsx", "output .xlsx path")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := reportConfig()
	if err != nil {
		return err
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)
	p, err := currentProfile(st)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	report, err := stats.BuildReport(ctx, st, p.UserID, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if exportOut == "-" {
		return export.Write(os.Stdout, report)
	}
	if err := export.WriteFile(exportOut, report); err != nil {
		return err
	}
	logErrf("Wrote %s\n", exportOut)
	return nil
}
