package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pipaura/internal/domain"
)

const brokerAccountColumns = `
	id, linked_account_id, user_id, myfxbook_account_id, account_name, broker, currency,
	balance, equity, gain, pipaura_account_id, auto_sync_enabled, last_trade_id, is_active,
	created_at, updated_at`

// BrokerAccountRepositoryImpl implements the BrokerAccountRepository interface
type BrokerAccountRepositoryImpl struct {
	db *sql.DB
}

// NewBrokerAccountRepository creates a new BrokerAccountRepository
func NewBrokerAccountRepository(db *sql.DB) *BrokerAccountRepositoryImpl {
	return &BrokerAccountRepositoryImpl{db: db}
}

// Upsert creates or updates a sub-account keyed by its MyFxBook id. The import
// cursor is never touched, and an existing PipAura account link is kept when
// the new row carries none.
func (r *BrokerAccountRepositoryImpl) Upsert(ctx context.Context, a *domain.BrokerSubAccount) error {
	query := `
		INSERT INTO myfxbook_accounts (
			linked_account_id, user_id, myfxbook_account_id, account_name, broker, currency,
			balance, equity, gain, pipaura_account_id, auto_sync_enabled, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (myfxbook_account_id) DO UPDATE SET
			linked_account_id = EXCLUDED.linked_account_id,
			user_id = EXCLUDED.user_id,
			account_name = EXCLUDED.account_name,
			broker = EXCLUDED.broker,
			currency = EXCLUDED.currency,
			balance = EXCLUDED.balance,
			equity = EXCLUDED.equity,
			gain = EXCLUDED.gain,
			pipaura_account_id = COALESCE(EXCLUDED.pipaura_account_id, myfxbook_accounts.pipaura_account_id),
			auto_sync_enabled = EXCLUDED.auto_sync_enabled,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, last_trade_id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.LinkedAccountID,
		a.UserID,
		a.BrokerAccountID,
		a.AccountName,
		a.Broker,
		a.Currency,
		a.Balance,
		a.Equity,
		a.Gain,
		a.PipAuraAccountID,
		a.AutoSyncEnabled,
		a.IsActive,
	).Scan(&a.ID, &a.LastTradeID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert MyFxBook account: %w", err)
	}

	return nil
}

// GetByBrokerAccountID retrieves a sub-account by its MyFxBook id
func (r *BrokerAccountRepositoryImpl) GetByBrokerAccountID(ctx context.Context, brokerAccountID string) (*domain.BrokerSubAccount, error) {
	query := `SELECT ` + brokerAccountColumns + `
		FROM myfxbook_accounts
		WHERE myfxbook_account_id = $1
	`

	account, err := scanBrokerAccount(r.db.QueryRowContext(ctx, query, brokerAccountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get MyFxBook account: %w", err)
	}

	return account, nil
}

// GetSyncable retrieves the user's active sub-accounts with auto-sync enabled
func (r *BrokerAccountRepositoryImpl) GetSyncable(ctx context.Context, userID uuid.UUID) ([]*domain.BrokerSubAccount, error) {
	query := `SELECT ` + brokerAccountColumns + `
		FROM myfxbook_accounts
		WHERE user_id = $1 AND is_active = TRUE AND auto_sync_enabled = TRUE
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get syncable accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.BrokerSubAccount
	for rows.Next() {
		account, err := scanBrokerAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan MyFxBook account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating MyFxBook accounts: %w", err)
	}

	return accounts, nil
}

// CountActive counts active sub-accounts under a linked account
func (r *BrokerAccountRepositoryImpl) CountActive(ctx context.Context, linkedAccountID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM myfxbook_accounts
		WHERE linked_account_id = $1 AND is_active = TRUE
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, linkedAccountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count MyFxBook accounts: %w", err)
	}

	return count, nil
}

// UpdateCursor moves the import cursor
func (r *BrokerAccountRepositoryImpl) UpdateCursor(ctx context.Context, id uuid.UUID, lastTradeID string) error {
	query := `
		UPDATE myfxbook_accounts
		SET last_trade_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, lastTradeID); err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	return nil
}

// DeactivateMissing deactivates the linked account's sub-accounts whose MyFxBook id is not in keep
func (r *BrokerAccountRepositoryImpl) DeactivateMissing(ctx context.Context, linkedAccountID uuid.UUID, keep []string) (int64, error) {
	query := `
		UPDATE myfxbook_accounts
		SET is_active = FALSE, updated_at = NOW()
		WHERE linked_account_id = $1 AND is_active = TRUE`

	args := []interface{}{linkedAccountID}
	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, id := range keep {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", i+2)
		}
		query += ` AND myfxbook_account_id NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate MyFxBook accounts: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return n, nil
}

// DeactivateAllForUser deactivates every sub-account of the user and disables auto-sync
func (r *BrokerAccountRepositoryImpl) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE myfxbook_accounts
		SET is_active = FALSE, auto_sync_enabled = FALSE, updated_at = NOW()
		WHERE user_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to deactivate MyFxBook accounts: %w", err)
	}

	return nil
}

func scanBrokerAccount(row rowScanner) (*domain.BrokerSubAccount, error) {
	a := &domain.BrokerSubAccount{}
	var appAccountID uuid.NullUUID

	err := row.Scan(
		&a.ID,
		&a.LinkedAccountID,
		&a.UserID,
		&a.BrokerAccountID,
		&a.AccountName,
		&a.Broker,
		&a.Currency,
		&a.Balance,
		&a.Equity,
		&a.Gain,
		&appAccountID,
		&a.AutoSyncEnabled,
		&a.LastTradeID,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if appAccountID.Valid {
		id := appAccountID.UUID
		a.PipAuraAccountID = &id
	}
	return a, nil
}
