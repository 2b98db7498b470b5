package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pipaura/internal/domain"
)

const linkedAccountColumns = `
	id, user_id, email, encrypted_password, session_id, session_expires_at,
	sync_status, sync_error_message, last_sync_at, is_active, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// LinkedAccountRepositoryImpl implements the LinkedAccountRepository interface
type LinkedAccountRepositoryImpl struct {
	db *sql.DB
}

// NewLinkedAccountRepository creates a new LinkedAccountRepository
func NewLinkedAccountRepository(db *sql.DB) *LinkedAccountRepositoryImpl {
	return &LinkedAccountRepositoryImpl{db: db}
}

// Upsert creates or replaces the user's linked account
func (r *LinkedAccountRepositoryImpl) Upsert(ctx context.Context, a *domain.LinkedAccount) error {
	query := `
		INSERT INTO myfxbook_linked_accounts (
			user_id, email, encrypted_password, session_id, session_expires_at,
			sync_status, sync_error_message, last_sync_at, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			encrypted_password = EXCLUDED.encrypted_password,
			session_id = EXCLUDED.session_id,
			session_expires_at = EXCLUDED.session_expires_at,
			sync_status = EXCLUDED.sync_status,
			sync_error_message = EXCLUDED.sync_error_message,
			last_sync_at = EXCLUDED.last_sync_at,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.UserID,
		a.Email,
		a.EncryptedPassword,
		a.SessionID,
		a.SessionExpiresAt,
		a.SyncStatus,
		a.SyncErrorMessage,
		a.LastSyncAt,
		a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert linked account: %w", err)
	}

	return nil
}

// GetActiveByUserID retrieves the user's active linked account
func (r *LinkedAccountRepositoryImpl) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.LinkedAccount, error) {
	query := `SELECT ` + linkedAccountColumns + `
		FROM myfxbook_linked_accounts
		WHERE user_id = $1 AND is_active = TRUE
	`

	account, err := scanLinkedAccount(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}

	return account, nil
}

// GetSweepCandidates retrieves active linked accounts whose last sync succeeded
func (r *LinkedAccountRepositoryImpl) GetSweepCandidates(ctx context.Context) ([]*domain.LinkedAccount, error) {
	query := `SELECT ` + linkedAccountColumns + `
		FROM myfxbook_linked_accounts
		WHERE is_active = TRUE AND sync_status = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.SyncStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep candidates: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.LinkedAccount
	for rows.Next() {
		account, err := scanLinkedAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating linked accounts: %w", err)
	}

	return accounts, nil
}

// UpdateSession stores a new broker session
func (r *LinkedAccountRepositoryImpl) UpdateSession(ctx context.Context, id uuid.UUID, sessionID string, expiresAt time.Time) error {
	query := `
		UPDATE myfxbook_linked_accounts
		SET session_id = $2, session_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, sessionID, expiresAt); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// MarkSynced stamps a successful sync
func (r *LinkedAccountRepositoryImpl) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE myfxbook_linked_accounts
		SET last_sync_at = $2, sync_status = $3, sync_error_message = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, at, domain.SyncStatusActive); err != nil {
		return fmt.Errorf("failed to mark linked account synced: %w", err)
	}

	return nil
}

// MarkError records a failed sync
func (r *LinkedAccountRepositoryImpl) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE myfxbook_linked_accounts
		SET sync_status = $2, sync_error_message = $3, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, domain.SyncStatusError, message); err != nil {
		return fmt.Errorf("failed to mark linked account error: %w", err)
	}

	return nil
}

// Deactivate disconnects the user's linked account
func (r *LinkedAccountRepositoryImpl) Deactivate(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE myfxbook_linked_accounts
		SET is_active = FALSE, sync_status = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, userID, domain.SyncStatusDisconnected); err != nil {
		return fmt.Errorf("failed to deactivate linked account: %w", err)
	}

	return nil
}

func scanLinkedAccount(row rowScanner) (*domain.LinkedAccount, error) {
	a := &domain.LinkedAccount{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Email,
		&a.EncryptedPassword,
		&a.SessionID,
		&a.SessionExpiresAt,
		&a.SyncStatus,
		&a.SyncErrorMessage,
		&a.LastSyncAt,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
