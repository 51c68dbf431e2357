// Package scheduler runs housekeeping jobs for the server.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/verte-zerg/typequest/internal/logging"
)

// PruneAt is the UTC time of day the prune job runs.
const PruneAt = "03:00"

const pruneTag = "prune-rounds"

// Pruner deletes round history older than a cutoff.
type Pruner interface {
	PruneRounds(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler manages scheduled tasks for the server.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	keep      time.Duration
	now       func() time.Time
}

// New creates a scheduler that keeps pruneDays of round history.
// pruneDays <= 0 disables pruning.
func New(pruner Pruner, pruneDays int) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		keep:      time.Duration(pruneDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.keep > 0 {
		if _, err := s.scheduler.Every(1).Day().At(PruneAt).Tag(pruneTag).Do(s.prune); err != nil {
			return fmt.Errorf("schedule prune: %w", err)
		}
		logging.Infof("Pruning rounds older than %s daily at %s UTC", s.keep, PruneAt)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return s.scheduler.Len()
}

func (s *Scheduler) prune() {
	if _, err := s.PruneNow(context.Background()); err != nil {
		logging.Errorf("Prune rounds failed: %v", err)
	}
}

// PruneNow deletes rounds that ended before the retention window.
func (s *Scheduler) PruneNow(ctx context.Context) (int64, error) {
	if s.keep <= 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	cutoff := s.now().UTC().Add(-s.keep)
	n, err := s.pruner.PruneRounds(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Infof("Pruned %d rounds ended before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}
