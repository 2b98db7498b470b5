package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipaura/internal/domain"
)

func TestTradeAccountRepository_Create(t *testing.T) {
	userID := uuid.New()
	newID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "created",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trade_accounts .+ RETURNING id, created_at`).
					WithArgs(userID, "MyFxBook #101", domain.DefaultBrokerName, domain.AccountTypeLivePersonal,
						domain.MarketTypeForex, sqlmock.AnyArg(), sqlmock.AnyArg(), "USD").
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(newID.String(), now))
			},
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO trade_accounts`).
					WillReturnError(errors.New("foreign key violation"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockSetup(mock)
			repo := NewTradeAccountRepository(db)

			account := &domain.TradeAccount{
				UserID:          userID,
				AccountName:     "MyFxBook #101",
				BrokerName:      domain.DefaultBrokerName,
				AccountType:     domain.AccountTypeLivePersonal,
				MarketType:      domain.MarketTypeForex,
				StartingBalance: decimal.RequireFromString("1000"),
				CurrentBalance:  decimal.RequireFromString("1000"),
				Currency:        "USD",
			}

			err = repo.Create(context.Background(), account)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "failed to create trade account")
			} else {
				require.NoError(t, err)
				assert.Equal(t, newID, account.ID)
				assert.Equal(t, now, account.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
