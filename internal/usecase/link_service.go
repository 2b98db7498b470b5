package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
)

// LinkService connects, inspects and disconnects a user's MyFxBook login
type LinkService struct {
	linkedRepo     domain.LinkedAccountRepository
	brokerAccounts domain.BrokerAccountRepository
	broker         domain.BrokerClient
	vault          domain.CredentialVault
	discovery      *AccountDiscovery
	now            domain.Clock
	log            zerolog.Logger
}

// NewLinkService creates a new LinkService. vault may be nil when no passphrase
// is configured; Connect then fails with a ConfigurationError.
func NewLinkService(
	linkedRepo domain.LinkedAccountRepository,
	brokerAccounts domain.BrokerAccountRepository,
	broker domain.BrokerClient,
	vault domain.CredentialVault,
	discovery *AccountDiscovery,
	log zerolog.Logger,
) *LinkService {
	return &LinkService{
		linkedRepo:     linkedRepo,
		brokerAccounts: brokerAccounts,
		broker:         broker,
		vault:          vault,
		discovery:      discovery,
		now:            time.Now,
		log:            log.With().Str("component", "link").Logger(),
	}
}

// Connect verifies the credentials with MyFxBook, stores them encrypted and
// discovers the login's trading accounts
func (s *LinkService) Connect(ctx context.Context, userID uuid.UUID, email, password string) (*domain.ConnectResult, error) {
	if s.vault == nil {
		return nil, &domain.ConfigurationError{Setting: "ENC_PASSPHRASE"}
	}

	s.log.Info().Str("user_id", userID.String()).Msg("Connecting MyFxBook account")

	session, err := s.broker.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.vault.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	now := s.now()
	linked := &domain.LinkedAccount{
		UserID:            userID,
		Email:             email,
		EncryptedPassword: encrypted,
		SyncStatus:        domain.SyncStatusActive,
		LastSyncAt:        &now,
		IsActive:          true,
	}
	linked.SetSession(session)

	if err := s.linkedRepo.Upsert(ctx, linked); err != nil {
		return nil, fmt.Errorf("failed to create linked account: %w", err)
	}

	accounts, err := s.discovery.Refresh(ctx, linked)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID.String()).Int("accounts", len(accounts)).Msg("MyFxBook account connected")

	return &domain.ConnectResult{
		LinkedAccountID: linked.ID,
		Accounts:        accounts,
	}, nil
}

// Status reports the user's active link and how many sub-accounts are active under it
func (s *LinkService) Status(ctx context.Context, userID uuid.UUID) (*domain.LinkStatus, error) {
	linked, err := s.linkedRepo.GetActiveByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNotLinked) {
		return &domain.LinkStatus{Linked: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MyFxBook status: %w", err)
	}

	count, err := s.brokerAccounts.CountActive(ctx, linked.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to count MyFxBook accounts")
		count = 0
	}

	return &domain.LinkStatus{
		Linked:       true,
		Account:      linked,
		AccountCount: count,
	}, nil
}

// Disconnect deactivates the link and every sub-account under it. Disconnecting
// a user without a link is not an error.
func (s *LinkService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.linkedRepo.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to disconnect account: %w", err)
	}

	if err := s.brokerAccounts.DeactivateAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate MyFxBook accounts: %w", err)
	}

	s.log.Info().Str("user_id", userID.String()).Msg("MyFxBook account disconnected")
	return nil
}
