package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/scheduler"
	"github.com/verte-zerg/typequest/internal/server"
	"github.com/verte-zerg/typequest/internal/texts"
)

const (
	defaultServeAddr = server.DefaultAddr
	defaultRateRPS   = server.DefaultRateRPS
	defaultRateBurst = server.DefaultRateBurst
	defaultPruneDays = 90
)

var (
	serveAddr      string
	serveRateRPS   float64
	serveRateBurst int
	servePruneDays int
	serveOrigins   []string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the progress API and live play over WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().Float64Var(&serveRateRPS, "rate-rps", defaultRateRPS, "requests per second per client")
	cmd.Flags().IntVar(&serveRateBurst, "rate-burst", defaultRateBurst, "burst size per client")
	cmd.Flags().IntVar(&servePruneDays, "prune-days", defaultPruneDays, "drop round history older than this many days (0 keeps everything)")
	cmd.Flags().StringSliceVar(&serveOrigins, "allow-origin", nil, "extra browser origin allowed to open /ws/play (repeatable)")
	cmd.Flags().StringVar(&playWordsFile, "words-file", "", "file with one word per line for words mode")
	cmd.Flags().DurationVar(&playDebounce, "debounce", engine.DefaultQuietPeriod, "quiet period before progress is saved (minimum 2s)")
	cmd.Flags().DurationVar(&playToast, "toast", engine.DefaultToastDuration, "how long achievement toasts stay visible")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyFloatConfig(cmd, "rate-rps", &serveRateRPS, fileCfg.Server.RateRPS)
	applyIntConfig(cmd, "rate-burst", &serveRateBurst, fileCfg.Server.RateBurst)
	applyIntConfig(cmd, "prune-days", &servePruneDays, fileCfg.Server.PruneDays)
	if !cmd.Flags().Changed("allow-origin") && fileCfg.Server.AllowedOrigins != nil {
		serveOrigins = fileCfg.Server.AllowedOrigins
	}
	applyStringConfig(cmd, "words-file", &playWordsFile, fileCfg.Play.WordsFile)
	applyDurationConfig(cmd, "debounce", &playDebounce, fileCfg.Play.Debounce)
	applyDurationConfig(cmd, "toast", &playToast, fileCfg.Play.Toast)

	if serveRateRPS <= 0 || serveRateBurst <= 0 {
		return fmt.Errorf("--rate-rps and --rate-burst must be > 0")
	}
	if servePruneDays < 0 {
		return fmt.Errorf("--prune-days must be >= 0")
	}
	if err := validateTimings(playDebounce, playToast); err != nil {
		return err
	}
	pools, err := loadPools(playWordsFile)
	if err != nil {
		return err
	}
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStore(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	jobs := scheduler.New(st, servePruneDays)
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	srv := server.New(server.Config{
		Addr:      serveAddr,
		RateRPS:   serveRateRPS,
		RateBurst: serveRateBurst,
		Texts: func() engine.TextSource {
			return texts.NewPicker(pools)
		},
		QuietPeriod:    playDebounce,
		ToastDuration:  playToast,
		AllowedOrigins: serveOrigins,
	}, st)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		logging.Errorf("Server stopped: %v", err)
		return err
	}
	return nil
}
