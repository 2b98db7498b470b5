package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
	"pipaura/internal/metrics"
)

// SyncService imports new MyFxBook trades for one user at a time
type SyncService struct {
	linkedRepo     domain.LinkedAccountRepository
	brokerAccounts domain.BrokerAccountRepository
	trades         domain.TradeRepository
	broker         domain.BrokerClient
	sessions       domain.SessionProvider
	discovery      *AccountDiscovery
	now            domain.Clock
	log            zerolog.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	linkedRepo domain.LinkedAccountRepository,
	brokerAccounts domain.BrokerAccountRepository,
	trades domain.TradeRepository,
	broker domain.BrokerClient,
	sessions domain.SessionProvider,
	discovery *AccountDiscovery,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		linkedRepo:     linkedRepo,
		brokerAccounts: brokerAccounts,
		trades:         trades,
		broker:         broker,
		sessions:       sessions,
		discovery:      discovery,
		now:            time.Now,
		log:            log.With().Str("component", "sync").Logger(),
	}
}

// SyncUserByID runs a user-triggered sync. When refreshAccounts is set the
// sub-account list is re-read from MyFxBook first. A failed sync is recorded on
// the linked account before the error is returned.
func (s *SyncService) SyncUserByID(ctx context.Context, userID uuid.UUID, refreshAccounts bool) (*domain.SyncResult, error) {
	if err := s.sessions.Ready(); err != nil {
		return nil, err
	}

	linked, err := s.linkedRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if refreshAccounts && s.discovery != nil {
		if _, err := s.discovery.Refresh(ctx, linked); err != nil {
			if isFatalSyncError(err) {
				s.markFailed(ctx, linked, err)
				metrics.UserSyncs.WithLabelValues("user", "error").Inc()
				return nil, err
			}
			s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Could not refresh MyFxBook accounts, syncing known accounts")
		}
	}

	result, err := s.SyncUser(ctx, linked)
	if err != nil {
		s.markFailed(ctx, linked, err)
		metrics.UserSyncs.WithLabelValues("user", "error").Inc()
		return nil, err
	}

	metrics.UserSyncs.WithLabelValues("user", "success").Inc()
	return result, nil
}

// SyncUser imports new trades for every syncable sub-account of the linked login.
// A failing sub-account is logged and skipped. Only session and configuration
// failures abort the whole sync.
func (s *SyncService) SyncUser(ctx context.Context, linked *domain.LinkedAccount) (*domain.SyncResult, error) {
	sessionID, err := s.sessions.EnsureFreshSession(ctx, linked)
	if err != nil {
		return nil, err
	}

	subAccounts, err := s.brokerAccounts.GetSyncable(ctx, linked.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load MyFxBook accounts: %w", err)
	}

	result := &domain.SyncResult{UserID: linked.UserID}
	if len(subAccounts) == 0 {
		return result, nil
	}

	for _, sub := range subAccounts {
		imported, err := s.syncSubAccount(ctx, linked, sub, &sessionID)
		if err != nil {
			if isFatalSyncError(err) {
				return nil, err
			}
			metrics.SubAccountFailures.Inc()
			s.log.Error().Err(err).
				Str("user_id", linked.UserID.String()).
				Str("account_id", sub.BrokerAccountID).
				Msg("Failed to sync MyFxBook account")
			continue
		}

		result.Imported += imported
		result.Accounts++
	}

	now := s.now()
	if err := s.linkedRepo.MarkSynced(ctx, linked.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update sync status: %w", err)
	}
	linked.SyncStatus = domain.SyncStatusActive
	linked.SyncErrorMessage = nil
	linked.LastSyncAt = &now

	s.log.Info().
		Str("user_id", linked.UserID.String()).
		Int("imported", result.Imported).
		Int("accounts", result.Accounts).
		Msg("MyFxBook sync complete")

	return result, nil
}

// syncSubAccount fetches trades after the stored cursor, inserts the new ones and
// advances the cursor to the highest broker ticket seen
func (s *SyncService) syncSubAccount(ctx context.Context, linked *domain.LinkedAccount, sub *domain.BrokerSubAccount, sessionID *string) (int, error) {
	trades, err := s.fetchTrades(ctx, linked, sub, sessionID)
	if err != nil {
		return 0, err
	}
	if len(trades) == 0 {
		return 0, nil
	}

	cursor := sub.Cursor()
	imported := 0

	for i := range trades {
		bt := &trades[i]

		if id := BrokerTicketID(bt); id != "" {
			cursor = MaxTicketID(cursor, id)
		}

		if IsBalanceOperation(bt) {
			continue
		}

		trade := MapTrade(bt, linked.UserID, sub.PipAuraAccountID)
		inserted, err := s.trades.InsertIgnoreDuplicate(ctx, trade)
		if err != nil {
			return imported, fmt.Errorf("failed to insert trade %s: %w", trade.TicketID, err)
		}
		if inserted {
			imported++
			metrics.TradesImported.Inc()
		}
	}

	if cursor != "" && cursor != sub.Cursor() {
		if err := s.brokerAccounts.UpdateCursor(ctx, sub.ID, cursor); err != nil {
			return imported, fmt.Errorf("failed to update cursor: %w", err)
		}
		sub.LastTradeID = &cursor
	}

	return imported, nil
}

// fetchTrades retries once with a new session when MyFxBook rejects the current one
func (s *SyncService) fetchTrades(ctx context.Context, linked *domain.LinkedAccount, sub *domain.BrokerSubAccount, sessionID *string) ([]domain.BrokerTrade, error) {
	trades, err := s.broker.ListTrades(ctx, *sessionID, sub.BrokerAccountID, sub.Cursor())
	if !errors.Is(err, domain.ErrSessionInvalid) {
		return trades, err
	}

	fresh, err := s.sessions.ForceRefresh(ctx, linked)
	if err != nil {
		return nil, err
	}
	*sessionID = fresh

	return s.broker.ListTrades(ctx, fresh, sub.BrokerAccountID, sub.Cursor())
}

func (s *SyncService) markFailed(ctx context.Context, linked *domain.LinkedAccount, cause error) {
	if err := s.linkedRepo.MarkError(ctx, linked.ID, cause.Error()); err != nil {
		s.log.Error().Err(err).Str("user_id", linked.UserID.String()).Msg("Failed to record sync error")
	}
}

// isFatalSyncError reports errors that affect every sub-account of the user alike
func isFatalSyncError(err error) bool {
	return domain.IsDecryptionError(err) || domain.IsConfigurationError(err) || domain.IsAuthenticationError(err)
}

// MaxTicketID returns the later of two ticket ids. Integer ids compare numerically,
// anything else compares lexically. An empty id is always the smaller one.
func MaxTicketID(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}

	ai, aErr := strconv.ParseUint(a, 10, 64)
	bi, bErr := strconv.ParseUint(b, 10, 64)
	if aErr == nil && bErr == nil {
		if bi > ai {
			return b
		}
		return a
	}

	if b > a {
		return b
	}
	return a
}
