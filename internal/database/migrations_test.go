package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "fresh database",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS myfxbook_linked_accounts`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name: "already migrated",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
		},
		{
			name: "check fails",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("permission denied"))
			},
			expectError: true,
		},
		{
			name: "schema fails",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectExec(`CREATE`).WillReturnError(errors.New("syntax error"))
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

			err = RunMigrations(context.Background(), db, zerolog.Nop())
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrationSQLDefinesSyncTables(t *testing.T) {
	for _, table := range []string{"trade_accounts", "trades", "myfxbook_linked_accounts", "myfxbook_accounts"} {
		assert.Contains(t, migrationSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, migrationSQL, "UNIQUE (user_id, ticket_id)")
}
