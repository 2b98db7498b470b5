package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
)

// Sweeper runs one global sync
type Sweeper interface {
	SyncAll(ctx context.Context) (*domain.SweepResult, error)
}

// Scheduler triggers the global MyFxBook sweep in-process
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewScheduler creates a scheduler for a six-field cron schedule. An empty
// schedule leaves the scheduler disabled. timeout bounds a single sweep, 0 means none.
func NewScheduler(sweeper Sweeper, schedule string, timeout time.Duration, log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cronLog := cronLogger{log: log}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  timeout,
		log:      log,
	}
}

// Enabled reports whether a schedule is configured
func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// Start registers the sweep job and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.log.Info().Msg("MyFxBook sweep schedule not configured, in-process sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Scheduled MyFxBook sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	s.log.Info().Msg("Stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
		s.log.Info().Msg("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn().Msg("Scheduler stop timed out with a sweep still running")
	}
}

// RunNow runs one sweep synchronously
func (s *Scheduler) RunNow(ctx context.Context) (*domain.SweepResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.sweeper.SyncAll(ctx)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("users_synced", result.UsersSynced).
		Int("total_imported", result.TotalImported).
		Int("failed_users", result.FailedUsers()).
		Dur("elapsed", time.Since(start)).
		Msg("Scheduled MyFxBook sweep finished")
	return result, nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
