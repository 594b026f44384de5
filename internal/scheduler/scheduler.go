// Package scheduler runs periodic maintenance for the back office.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	reapSpec    = "@every 5m"
	pruneSpec   = "@daily"
	cleanupSpec = "@every 1m"
)

// SessionReaper drops idle workbench sessions.
type SessionReaper interface {
	Reap(idle time.Duration) int
}

// ActivityPruner deletes activity entries older than a cutoff.
type ActivityPruner interface {
	PruneActivities(ctx context.Context, before time.Time) (int64, error)
}

// LimiterCleaner forgets expired rate limiter windows.
type LimiterCleaner interface {
	Cleanup() int
}

type Config struct {
	Sessions          SessionReaper
	SessionIdle       time.Duration
	Activities        ActivityPruner
	ActivityRetention time.Duration
	Limiter           LimiterCleaner
}

type Scheduler struct {
	cfg  Config
	cron *cron.Cron
	now  func() time.Time
}

// New registers every task whose collaborator is set and whose window is
// positive. Nothing runs until Start.
func New(cfg Config) (*Scheduler, error) {
	s := &Scheduler{cfg: cfg, cron: cron.New(), now: time.Now}

	if cfg.Sessions != nil && cfg.SessionIdle > 0 {
		if _, err := s.cron.AddFunc(reapSpec, s.ReapSessions); err != nil {
			return nil, err
		}
	}
	if cfg.Activities != nil && cfg.ActivityRetention > 0 {
		if _, err := s.cron.AddFunc(pruneSpec, func() { s.PruneActivities(context.Background()) }); err != nil {
			return nil, err
		}
	}
	if cfg.Limiter != nil {
		if _, err := s.cron.AddFunc(cleanupSpec, s.CleanupLimiter); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Tasks returns the number of registered tasks.
func (s *Scheduler) Tasks() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	log.Printf("[scheduler] starting with %d tasks", s.Tasks())
	s.cron.Start()
}

// Stop waits for running tasks to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("[scheduler] stop timed out")
	}
}

func (s *Scheduler) ReapSessions() {
	s.cfg.Sessions.Reap(s.cfg.SessionIdle)
}

func (s *Scheduler) PruneActivities(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ActivityRetention)
	n, err := s.cfg.Activities.PruneActivities(ctx, cutoff)
	if err != nil {
		log.Printf("[scheduler] prune activities: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[scheduler] pruned %d activities older than %s", n, cutoff.Format(time.RFC3339))
	}
}

func (s *Scheduler) CleanupLimiter() {
	s.cfg.Limiter.Cleanup()
}
