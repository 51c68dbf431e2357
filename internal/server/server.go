// Package server exposes progress over HTTP and live play over WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/typequest/internal/engine"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/stats"
	"github.com/verte-zerg/typequest/internal/texts"
)

// Defaults for Config fields left zero.
const (
	DefaultAddr      = ":8080"
	DefaultRateRPS   = 5
	DefaultRateBurst = 10
)

// limiterTTL is how long an idle client's limiter is kept.
const limiterTTL = 10 * time.Minute

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Store is everything the handlers and play sessions read or write.
type Store interface {
	stats.Source
	engine.StatsStore
	engine.AchievementStore
	ProfileByName(ctx context.Context, username string) (model.Profile, error)
	InsertRound(ctx context.Context, r model.Round) (int64, error)
	Ping(ctx context.Context) error
}

// Config tunes the server.
type Config struct {
	Addr      string
	RateRPS   float64
	RateBurst int
	// Texts builds one text source per play connection.
	Texts         func() engine.TextSource
	QuietPeriod   time.Duration
	ToastDuration time.Duration
	// AllowedOrigins lists extra browser origins (scheme://host[:port])
	// allowed to open /ws/play. Same-host origins are always allowed.
	AllowedOrigins []string
}

// Server holds the HTTP router and per-client limiters.
type Server struct {
	cfg      Config
	store    Store
	router   *gin.Engine
	upgrader *websocket.Upgrader
	started  time.Time

	limiterMu  sync.Mutex
	limiters   map[string]*visitor
	lastPruned time.Time

	stopping chan struct{}
	stopOnce sync.Once
	sessions sync.WaitGroup
}

// New builds the router. Call Run to listen.
func New(cfg Config, store Store) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateRPS <= 0 {
		cfg.RateRPS = DefaultRateRPS
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.Texts == nil {
		cfg.Texts = func() engine.TextSource {
			return texts.NewPicker(texts.Builtin())
		}
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		upgrader: newUpgrader(cfg.AllowedOrigins),
		started:  time.Now(),
		limiters: make(map[string]*visitor),
		stopping: make(chan struct{}),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware())
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logging.Warnf("Failed to set trusted proxies: %v", err)
	}
	noStore := cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})

	router.GET("/healthz", noStore, s.healthHandler)

	api := router.Group("/api", ginGzip.Gzip(ginGzip.DefaultCompression), s.rateLimitMiddleware())
	api.GET("/leaderboard", cachecontrol.New(cachecontrol.Config{
		Public: true,
		MaxAge: cachecontrol.Duration(10 * time.Second),
	}), s.leaderboardHandler)
	users := api.Group("/users/:id", noStore)
	users.GET("/stats", s.statsHandler)
	users.GET("/achievements", s.achievementsHandler)
	users.GET("/rounds", s.roundsHandler)

	router.GET("/ws/play", s.rateLimitMiddleware(), s.playHandler)
	return router
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(s.stopSessions)
	errCh := make(chan error, 1)
	go func() {
		logging.Infof("Server listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logging.Infof("Shutdown signal received, shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.stopSessions()
	s.sessions.Wait()
	if err != nil {
		return err
	}
	logging.Infof("Server shutdown complete")
	return nil
}

// stopSessions tells open play sessions to flush and close.
func (s *Server) stopSessions() {
	s.stopOnce.Do(func() { close(s.stopping) })
}

func (s *Server) limiter(key string) *rate.Limiter {
	return s.limiterAt(key, time.Now())
}

func (s *Server) limiterAt(key string, now time.Time) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	if now.Sub(s.lastPruned) >= limiterTTL {
		s.pruneLimitersLocked(now)
	}
	if v, ok := s.limiters[key]; ok {
		v.lastSeen = now
		return v.lim
	}
	if strings.TrimSpace(key) == "" {
		logging.Warnf("Rate limiter key is empty")
	}
	v := &visitor{
		lim:      rate.NewLimiter(rate.Limit(s.cfg.RateRPS), s.cfg.RateBurst),
		lastSeen: now,
	}
	s.limiters[key] = v
	return v.lim
}

// pruneLimitersLocked drops limiters idle for longer than limiterTTL.
func (s *Server) pruneLimitersLocked(now time.Time) {
	for key, v := range s.limiters {
		if now.Sub(v.lastSeen) > limiterTTL {
			delete(s.limiters, key)
		}
	}
	s.lastPruned = now
}

func (s *Server) limiterCount() int {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	return len(s.limiters)
}
