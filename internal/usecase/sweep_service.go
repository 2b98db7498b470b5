package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pipaura/internal/domain"
	"pipaura/internal/metrics"
)

// SweepService syncs every active linked account, one user after another
type SweepService struct {
	linkedRepo domain.LinkedAccountRepository
	syncer     domain.UserSyncer
	sessions   domain.SessionProvider
	notifier   domain.SweepNotifier
	log        zerolog.Logger
}

// NewSweepService creates a new SweepService. notifier may be nil.
func NewSweepService(
	linkedRepo domain.LinkedAccountRepository,
	syncer domain.UserSyncer,
	sessions domain.SessionProvider,
	notifier domain.SweepNotifier,
	log zerolog.Logger,
) *SweepService {
	return &SweepService{
		linkedRepo: linkedRepo,
		syncer:     syncer,
		sessions:   sessions,
		notifier:   notifier,
		log:        log.With().Str("component", "sweep").Logger(),
	}
}

// SyncAll syncs all linked accounts whose status is active. A failing user is
// marked as errored and the sweep moves on to the next one. Accounts already in
// error are left out until the user reconnects or syncs manually.
func (s *SweepService) SyncAll(ctx context.Context) (*domain.SweepResult, error) {
	if err := s.sessions.Ready(); err != nil {
		return nil, err
	}

	start := time.Now()

	accounts, err := s.linkedRepo.GetSweepCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch linked accounts: %w", err)
	}

	s.log.Info().Int("accounts", len(accounts)).Msg("Starting MyFxBook sweep")

	result := &domain.SweepResult{Results: make([]domain.SyncResult, 0, len(accounts))}

	for _, linked := range accounts {
		res, err := s.syncer.SyncUser(ctx, linked)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", linked.UserID.String()).Msg("Failed to sync user")
			metrics.UserSyncs.WithLabelValues("sweep", "error").Inc()

			if markErr := s.linkedRepo.MarkError(ctx, linked.ID, err.Error()); markErr != nil {
				s.log.Error().Err(markErr).Str("user_id", linked.UserID.String()).Msg("Failed to record sync error")
			}

			result.Results = append(result.Results, domain.SyncResult{
				UserID: linked.UserID,
				Error:  err.Error(),
			})
			continue
		}

		metrics.UserSyncs.WithLabelValues("sweep", "success").Inc()
		result.Results = append(result.Results, *res)
		result.TotalImported += res.Imported
	}

	result.UsersSynced = len(accounts)

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.SweepLastSuccess.SetToCurrentTime()

	s.log.Info().
		Int("users", result.UsersSynced).
		Int("failed", result.FailedUsers()).
		Int("imported", result.TotalImported).
		Dur("elapsed", time.Since(start)).
		Msg("MyFxBook sweep complete")

	if s.notifier != nil && result.FailedUsers() > 0 {
		if err := s.notifier.NotifySweep(ctx, result); err != nil {
			s.log.Warn().Err(err).Msg("Failed to send sweep notification")
		}
	}

	return result, nil
}
