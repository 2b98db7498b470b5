package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pipaura/internal/domain"
)

// TradeRepositoryImpl implements the TradeRepository interface
type TradeRepositoryImpl struct {
	db *sql.DB
}

// NewTradeRepository creates a new TradeRepository
func NewTradeRepository(db *sql.DB) *TradeRepositoryImpl {
	return &TradeRepositoryImpl{db: db}
}

// InsertIgnoreDuplicate inserts a trade unless the user already has one with the same ticket id
func (r *TradeRepositoryImpl) InsertIgnoreDuplicate(ctx context.Context, t *domain.Trade) (bool, error) {
	query := `
		INSERT INTO trades (
			id, user_id, account_id, ticket_id, instrument, instrument_type, trade_type,
			position_size, entry_price, exit_price, stop_loss, take_profit,
			pnl, swap, commission, currency, status, entry_date, exit_date,
			upload_source, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (user_id, ticket_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.AccountID,
		t.TicketID,
		t.Instrument,
		t.InstrumentType,
		t.TradeType,
		t.PositionSize,
		t.EntryPrice,
		t.ExitPrice,
		t.StopLoss,
		t.TakeProfit,
		t.PnL,
		t.Swap,
		t.Commission,
		t.Currency,
		t.Status,
		t.EntryDate,
		t.ExitDate,
		t.UploadSource,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert trade: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return n > 0, nil
}
