package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LinkedAccountRepository defines the interface for linked MyFxBook login operations
type LinkedAccountRepository interface {
	// Upsert creates or replaces the user's linked account (one row per user) and fills in ID
	Upsert(ctx context.Context, account *LinkedAccount) error

	// GetActiveByUserID returns the user's active linked account or ErrNotLinked
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*LinkedAccount, error)

	// GetSweepCandidates returns active linked accounts whose sync status is active
	GetSweepCandidates(ctx context.Context) ([]*LinkedAccount, error)

	// UpdateSession stores a new broker session
	UpdateSession(ctx context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error

	// MarkSynced stamps a successful sync and clears any previous error
	MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkError records a failed sync attempt
	MarkError(ctx context.Context, id uuid.UUID, message string) error

	// Deactivate disconnects the user's linked account
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

// BrokerAccountRepository defines the interface for MyFxBook sub-account operations
type BrokerAccountRepository interface {
	// Upsert creates or updates a sub-account keyed by its MyFxBook account id
	Upsert(ctx context.Context, account *BrokerSubAccount) error

	// GetByBrokerAccountID returns a sub-account by MyFxBook id or ErrNotFound
	GetByBrokerAccountID(ctx context.Context, brokerAccountID string) (*BrokerSubAccount, error)

	// GetSyncable returns the user's sub-accounts that are active with auto-sync enabled
	GetSyncable(ctx context.Context, userID uuid.UUID) ([]*BrokerSubAccount, error)

	// CountActive counts active sub-accounts under a linked account
	CountActive(ctx context.Context, linkedAccountID uuid.UUID) (int, error)

	// UpdateCursor moves the import cursor of a sub-account
	UpdateCursor(ctx context.Context, id uuid.UUID, lastTradeID string) error

	// DeactivateMissing deactivates the linked account's sub-accounts not in keep
	DeactivateMissing(ctx context.Context, linkedAccountID uuid.UUID, keep []string) (int64, error)

	// DeactivateAllForUser deactivates every sub-account of the user and disables auto-sync
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error
}

// TradeRepository defines the interface for journal trade operations
type TradeRepository interface {
	// InsertIgnoreDuplicate inserts a trade unless (user_id, ticket_id) already exists.
	// inserted reports whether a new row was written.
	InsertIgnoreDuplicate(ctx context.Context, trade *Trade) (inserted bool, err error)
}

// TradeAccountRepository defines the interface for PipAura trading accounts
type TradeAccountRepository interface {
	// Create inserts a new trading account and fills in ID
	Create(ctx context.Context, account *TradeAccount) error
}
