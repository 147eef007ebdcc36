package habits

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const rolloverTimeout = 30 * time.Second

// Scheduler runs the midnight habit rollover.
type Scheduler struct {
	cron   *cron.Cron
	store  *Store
	logger *slog.Logger
}

// NewScheduler creates a Scheduler bound to the given store. A nil
// logger falls back to slog.Default().
func NewScheduler(store *Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cron: cron.New(), store: store, logger: logger}
}

// Start schedules the rollover at local midnight and begins running.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@midnight", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rolloverTimeout)
		defer cancel()

		if err := s.store.Rollover(ctx, time.Now()); err != nil {
			s.logger.Error("habit rollover failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Debug("habit scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Debug("habit scheduler stopped")
}
