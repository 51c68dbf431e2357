package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/verte-zerg/typequest/internal/achievements"
	"github.com/verte-zerg/typequest/internal/logging"
	"github.com/verte-zerg/typequest/internal/model"
	"github.com/verte-zerg/typequest/internal/store"
)

type statsResponse struct {
	Profile     model.Profile      `json:"profile"`
	Stats       model.UserProgress `json:"stats"`
	NextLevelAt int                `json:"next_level_at"`
}

type achievementView struct {
	model.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Progress   float64    `json:"progress"`
}

func (s *Server) healthHandler(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if err := s.store.Ping(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
		logging.Warnf("Health check failed: %v", err)
	}
	c.JSON(status, body)
}

func (s *Server) leaderboardHandler(c *gin.Context) {
	limit := store.DefaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.fail(c, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, store.DefaultLeaderboardLimit)
	}
	entries, err := s.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) statsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	profile, ok := s.profileParam(c)
	if !ok {
		return
	}
	progress, err := s.store.Stats(ctx, profile.UserID)
	if errors.Is(err, store.ErrNotFound) {
		progress, err = model.DefaultProgress(), nil
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{Profile: profile, Stats: progress, NextLevelAt: progress.NextLevelAt()})
}

func (s *Server) achievementsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	profile, ok := s.profileParam(c)
	if !ok {
		return
	}
	catalog, err := s.store.ListAchievements(ctx)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	unlocked, err := s.store.UnlockedWithTimes(ctx, profile.UserID)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	progress, err := s.store.Stats(ctx, profile.UserID)
	if errors.Is(err, store.ErrNotFound) {
		progress, err = model.DefaultProgress(), nil
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	at := lo.SliceToMap(unlocked, func(u model.UnlockedAchievement) (string, time.Time) {
		return u.ID, u.UnlockedAt
	})
	views := lo.Map(catalog, func(a model.Achievement, _ int) achievementView {
		v := achievementView{Achievement: a, Progress: achievements.Progress(a, progress)}
		if t, ok := at[a.ID]; ok {
			v.Unlocked, v.UnlockedAt, v.Progress = true, &t, 1
		}
		return v
	})
	c.JSON(http.StatusOK, gin.H{"unlocked": len(unlocked), "total": len(catalog), "achievements": views})
}

func (s *Server) roundsHandler(c *gin.Context) {
	profile, ok := s.profileParam(c)
	if !ok {
		return
	}
	var cfg model.StatsConfig
	if raw := c.Query("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(c, http.StatusBadRequest, errors.New("last must be a non-negative integer"))
			return
		}
		cfg.Last = n
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.fail(c, http.StatusBadRequest, errors.New("since must be YYYY-MM-DD"))
			return
		}
		cfg.Since = &since
	}
	rounds, err := s.store.ListRounds(c.Request.Context(), profile.UserID, cfg)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if rounds == nil {
		rounds = []model.Round{}
	}
	c.JSON(http.StatusOK, gin.H{"rounds": rounds})
}

// profileParam resolves :id as a user id, then as a username.
func (s *Server) profileParam(c *gin.Context) (model.Profile, bool) {
	profile, err := s.resolveProfile(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.fail(c, http.StatusNotFound, errors.New("user not found"))
		return model.Profile{}, false
	case err != nil:
		s.fail(c, http.StatusInternalServerError, err)
		return model.Profile{}, false
	}
	return profile, true
}

func (s *Server) resolveProfile(ctx context.Context, key string) (model.Profile, error) {
	if key == "" {
		return model.Profile{}, store.ErrNotFound
	}
	profile, err := s.store.Profile(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return s.store.ProfileByName(ctx, key)
	}
	return profile, err
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.Errorf("[%s] %s %s: %v", RequestID(c.Request.Context()), c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
