package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pipaura/internal/domain"
)

// TradeAccountRepositoryImpl implements the TradeAccountRepository interface
type TradeAccountRepositoryImpl struct {
	db *sql.DB
}

// NewTradeAccountRepository creates a new TradeAccountRepository
func NewTradeAccountRepository(db *sql.DB) *TradeAccountRepositoryImpl {
	return &TradeAccountRepositoryImpl{db: db}
}

// Create inserts a trading account
func (r *TradeAccountRepositoryImpl) Create(ctx context.Context, a *domain.TradeAccount) error {
	query := `
		INSERT INTO trade_accounts (
			user_id, account_name, broker_name, account_type, market_type,
			starting_balance, current_balance, currency
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		a.UserID,
		a.AccountName,
		a.BrokerName,
		a.AccountType,
		a.MarketType,
		a.StartingBalance,
		a.CurrentBalance,
		a.Currency,
	).Scan(&a.ID, &a.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create trade account: %w", err)
	}

	return nil
}
