package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"pipaura/internal/domain"
	"pipaura/internal/metrics"
)

// SessionManager keeps each linked account's MyFxBook session usable.
// Concurrent refreshes for one user inside this process collapse into a single login.
// Across processes the stored session is last-write-wins.
type SessionManager struct {
	linkedRepo domain.LinkedAccountRepository
	broker     domain.BrokerClient
	vault      domain.CredentialVault
	refreshes  singleflight.Group
	now        domain.Clock
	log        zerolog.Logger
}

// NewSessionManager creates a new SessionManager. vault may be nil when no
// passphrase is configured; refreshes then fail with a ConfigurationError.
func NewSessionManager(
	linkedRepo domain.LinkedAccountRepository,
	broker domain.BrokerClient,
	vault domain.CredentialVault,
	log zerolog.Logger,
) *SessionManager {
	return &SessionManager{
		linkedRepo: linkedRepo,
		broker:     broker,
		vault:      vault,
		now:        time.Now,
		log:        log.With().Str("component", "session_manager").Logger(),
	}
}

// Ready reports whether credentials can be decrypted for a re-login
func (m *SessionManager) Ready() error {
	if m.vault == nil {
		return &domain.ConfigurationError{Setting: "ENC_PASSPHRASE"}
	}
	return nil
}

// EnsureFreshSession returns the stored session while it is valid and performs
// no remote call in that case
func (m *SessionManager) EnsureFreshSession(ctx context.Context, account *domain.LinkedAccount) (string, error) {
	if account.HasValidSession(m.now()) {
		return *account.SessionID, nil
	}
	return m.refresh(ctx, account, "", "expired")
}

// ForceRefresh logs in again after the broker rejected the current session
func (m *SessionManager) ForceRefresh(ctx context.Context, account *domain.LinkedAccount) (string, error) {
	rejected := ""
	if account.SessionID != nil {
		rejected = *account.SessionID
	}
	return m.refresh(ctx, account, rejected, "invalid")
}

func (m *SessionManager) refresh(ctx context.Context, account *domain.LinkedAccount, rejected, reason string) (string, error) {
	v, err, _ := m.refreshes.Do(account.UserID.String(), func() (interface{}, error) {
		// another request may have stored a new session while this one was waiting
		if stored := m.reloadSession(ctx, account); stored != nil && stored.HasValidSession(m.now()) && *stored.SessionID != rejected {
			return &domain.BrokerSession{SessionID: *stored.SessionID, ExpiresAt: *stored.SessionExpiresAt}, nil
		}
		return m.login(ctx, account, reason)
	})
	if err != nil {
		return "", err
	}

	session := v.(*domain.BrokerSession)
	account.SetSession(session)
	return session.SessionID, nil
}

func (m *SessionManager) reloadSession(ctx context.Context, account *domain.LinkedAccount) *domain.LinkedAccount {
	stored, err := m.linkedRepo.GetActiveByUserID(ctx, account.UserID)
	if err != nil {
		m.log.Debug().Err(err).Str("user_id", account.UserID.String()).Msg("Could not reload linked account before refresh")
		return nil
	}
	return stored
}

func (m *SessionManager) login(ctx context.Context, account *domain.LinkedAccount, reason string) (*domain.BrokerSession, error) {
	if err := m.Ready(); err != nil {
		return nil, err
	}

	password, err := m.vault.Decrypt(account.EncryptedPassword)
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("user_id", account.UserID.String()).Str("reason", reason).Msg("Refreshing MyFxBook session")

	session, err := m.broker.Login(ctx, account.Email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh MyFxBook session: %w", err)
	}

	if err := m.linkedRepo.UpdateSession(ctx, account.ID, session.SessionID, session.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store MyFxBook session: %w", err)
	}

	metrics.SessionRefreshes.WithLabelValues(reason).Inc()
	return session, nil
}
