package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BrokerSubAccount is one MyFxBook trading account discovered under a linked login.
// BrokerAccountID is unique across all users.
type BrokerSubAccount struct {
	ID               uuid.UUID       `json:"id"`
	LinkedAccountID  uuid.UUID       `json:"linked_account_id"`
	UserID           uuid.UUID       `json:"user_id"`
	BrokerAccountID  string          `json:"myfxbook_account_id"`
	AccountName      string          `json:"account_name"`
	Broker           *string         `json:"broker,omitempty"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	Equity           decimal.Decimal `json:"equity"`
	Gain             decimal.Decimal `json:"gain"`
	PipAuraAccountID *uuid.UUID      `json:"pipaura_account_id,omitempty"`
	AutoSyncEnabled  bool            `json:"auto_sync_enabled"`
	LastTradeID      *string         `json:"last_trade_id,omitempty"` // import cursor
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Cursor returns the stored import cursor, or "" for a full-history fetch
func (a *BrokerSubAccount) Cursor() string {
	if a.LastTradeID == nil {
		return ""
	}
	return *a.LastTradeID
}

// TradeAccount is PipAura's own trading-account entity that imported trades are attached to
type TradeAccount struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	AccountName     string          `json:"account_name"`
	BrokerName      string          `json:"broker_name"`
	AccountType     string          `json:"account_type"`
	MarketType      string          `json:"market_type"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TradeAccount defaults for accounts created from a MyFxBook link
const (
	AccountTypeLivePersonal = "live_personal"
	MarketTypeForex         = "forex"
	DefaultBrokerName       = "Unknown Broker"
	DefaultCurrency         = "USD"
)
