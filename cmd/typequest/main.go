// Package main provides the CLI entrypoint for typequest.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typequest/internal/achievements"
	"github.com/verte-zerg/typequest/internal/config"
	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/identity"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
	"github.com/verte-zerg/typequest/internal/texts"
	"github.com/verte-zerg/typequest/internal/tui"
)

const (
	defaultMode = string(model.ModeWords)
	ioTimeout   = 10 * time.Second
)

var (
	playMode      string
	playWordsFile string
	playDebounce  time.Duration
	playToast     time.Duration

	storeDriver string
	storeDSN    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typequest",
		Short:         "Typing trainer with levels and achievements",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadDotenv(".env", filepath.Join(config.DataDir(), ".env"))
		},
		RunE: runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playMode, "mode", defaultMode, "typing mode: words, sentences or paragraphs")
	rootCmd.Flags().StringVar(&playWordsFile, "words-file", "", "file with one word per line for words mode")
	rootCmd.Flags().DurationVar(&playDebounce, "debounce", engine.DefaultQuietPeriod, "quiet period before progress is saved (minimum 2s)")
	rootCmd.Flags().DurationVar(&playToast, "toast", engine.DefaultToastDuration, "how long achievement toasts stay visible")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "db-driver", store.DriverSQLite, "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "db", "", "database DSN (default: sqlite file in the data dir)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// openStore resolves the database from flags, the environment and the config
// file, in that order, and seeds the achievement catalog.
func openStore(cmd *cobra.Command, fileCfg config.FileConfig) (*store.Store, error) {
	if v, ok := config.EnvString(config.EnvDBDriver); ok && !cmd.Flags().Changed("db-driver") {
		fileCfg.Store.Driver = &v
	}
	if v, ok := config.EnvString(config.EnvDBDSN); ok && !cmd.Flags().Changed("db") {
		fileCfg.Store.DSN = &v
	}
	applyStringConfig(cmd, "db-driver", &storeDriver, fileCfg.Store.Driver)
	applyStringConfig(cmd, "db", &storeDSN, fileCfg.Store.DSN)

	dsn := storeDSN
	if dsn == "" {
		if storeDriver != "" && storeDriver != store.DriverSQLite {
			return nil, fmt.Errorf("--db is required for driver %q", storeDriver)
		}
		dsn = config.DefaultDBPath()
	}
	st, err := store.Open(storeDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if err := st.SeedAchievements(ctx, achievements.Builtin()); err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to seed achievements: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newSession() *identity.FileSession {
	return identity.NewFileSession(config.DefaultSessionPath())
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "mode", &playMode, fileCfg.Play.Mode)
	applyStringConfig(cmd, "words-file", &playWordsFile, fileCfg.Play.WordsFile)
	applyDurationConfig(cmd, "debounce", &playDebounce, fileCfg.Play.Debounce)
	applyDurationConfig(cmd, "toast", &playToast, fileCfg.Play.Toast)

	mode, err := model.ParseMode(playMode)
	if err != nil {
		return fmt.Errorf("invalid --mode: %w", err)
	}
	if err := validateTimings(playDebounce, playToast); err != nil {
		return err
	}
	pools, err := loadPools(playWordsFile)
	if err != nil {
		return err
	}

	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	resolver := identity.NewResolver(newSession(), st)
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	profile, err := resolver.CurrentProfile(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return identity.ErrSignedOut
		}
		return err
	}
	syncer := engine.NewSyncer(resolver, st, st)
	loaded, err := syncer.Load(ctx)
	if errors.Is(err, engine.ErrNotAuthenticated) {
		return identity.ErrSignedOut
	}
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	eng := engine.New(texts.NewPicker(pools), engine.Options{
		QuietPeriod:   playDebounce,
		ToastDuration: playToast,
	})
	if err := eng.Attach(loaded.UserID, loaded.Progress, loaded.Unlocked, mode); err != nil {
		return err
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

	m := tui.NewModel(eng, syncer, st, profile.Username)
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// validateTimings checks the play timers. The debounce may be raised but never
// shortened below the default quiet period.
func validateTimings(debounce, toast time.Duration) error {
	if debounce < engine.DefaultQuietPeriod {
		return fmt.Errorf("--debounce must be at least %s, got %s", engine.DefaultQuietPeriod, debounce)
	}
	if toast <= 0 {
		return fmt.Errorf("--toast must be > 0")
	}
	return nil
}

func loadPools(wordsFile string) (texts.Pools, error) {
	pools := texts.Builtin()
	if wordsFile == "" {
		return pools, nil
	}
	lines, err := texts.LoadLines(wordsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load words file: %w", err)
	}
	words := texts.Filter(lines, texts.SingleWord)
	if len(words) == 0 {
		return nil, fmt.Errorf("words file %s has no single-word entries", wordsFile)
	}
	return pools.With(model.ModeWords, words), nil
}

// openLogFile sends log output to a file while a TUI owns the terminal.
func openLogFile() (*os.File, error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "typequest")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logging.Infof("Logging to %s", path)
	return f, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# typequest configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# mode = %q           # words, sentences or paragraphs
# words-file = ""         # One word per line, replaces the built-in word pool
# debounce = %q          # Quiet period before progress is saved (minimum %s)
# toast = %q             # How long achievement toasts stay visible

[store]
# driver = %q        # sqlite or postgres
# dsn = ""                # SQLite path or Postgres URL (default: %s)

[server]
# addr = %q          # Listen address for typequest serve
# rate-rps = %.1f          # Requests per second per client
# rate-burst = %d         # Burst size per client
# prune-days = %d          # Drop round history older than this (0 keeps everything)
# allowed-origins = []    # Extra browser origins allowed on /ws/play (same host is always allowed)
`,
		defaultMode,
		engine.DefaultQuietPeriod.String(),
		engine.DefaultQuietPeriod.String(),
		engine.DefaultToastDuration.String(),
		store.DriverSQLite,
		config.DefaultDBPath(),
		defaultServeAddr,
		float64(defaultRateRPS),
		defaultRateBurst,
		defaultPruneDays,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
