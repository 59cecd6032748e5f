package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/leca/photo-editor/internal/model"
	"github.com/robfig/cron/v3"
)

// Purger drops expired entries and returns how many were removed.
type Purger interface {
	Purge() int
}

// StatsSource reports the aggregate usage counters.
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// Scheduler runs periodic housekeeping: purging the on-disk photo cache and
// logging daily usage totals.
type Scheduler struct {
	cron   *cron.Cron
	cache  Purger
	stats  StatsSource
	logger *slog.Logger
}

// NewScheduler builds a scheduler. cache may be nil when photos live in a
// store that expires entries itself (memory, redis). Jobs run in loc.
func NewScheduler(cache Purger, stats StatsSource, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		cache:  cache,
		stats:  stats,
		logger: logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cache != nil {
		if _, err := s.cron.AddFunc("0 * * * * *", s.purgeCache); err != nil {
			return err
		}
	}
	if s.stats != nil {
		// just before the day rolls over, so today_edits covers the whole day
		if _, err := s.cron.AddFunc("0 59 23 * * *", s.logStats); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits up to five seconds for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeCache() {
	if n := s.cache.Purge(); n > 0 {
		s.logger.Info("purged expired photos", "count", n)
	}
}

func (s *Scheduler) logStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := s.stats.Stats(ctx)
	if err != nil {
		s.logger.Error("daily stats failed", "error", err)
		return
	}
	s.logger.Info("daily stats",
		"total_users", st.TotalUsers,
		"premium_users", st.PremiumUsers,
		"total_edits", st.TotalEdits,
		"today_edits", st.TodayEdits,
	)
}
