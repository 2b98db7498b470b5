package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is PipAura's canonical journal trade. (UserID, TicketID) is unique.
type Trade struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	AccountID      *uuid.UUID          `json:"account_id,omitempty"`
	TicketID       string              `json:"ticket_id"`
	Instrument     string              `json:"instrument"`
	InstrumentType string              `json:"instrument_type"`
	TradeType      string              `json:"trade_type"`
	PositionSize   decimal.Decimal     `json:"position_size"`
	EntryPrice     decimal.Decimal     `json:"entry_price"`
	ExitPrice      decimal.NullDecimal `json:"exit_price"`
	StopLoss       decimal.NullDecimal `json:"stop_loss"`
	TakeProfit     decimal.NullDecimal `json:"take_profit"`
	PnL            decimal.Decimal     `json:"pnl"`
	Swap           decimal.Decimal     `json:"swap"`
	Commission     decimal.Decimal     `json:"commission"`
	Currency       string              `json:"currency"`
	Status         string              `json:"status"`
	EntryDate      *time.Time          `json:"entry_date,omitempty"`
	ExitDate       *time.Time          `json:"exit_date,omitempty"`
	UploadSource   string              `json:"upload_source"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// InstrumentType constants
const (
	InstrumentForex   = "FOREX"
	InstrumentIndices = "INDICES"
	InstrumentCrypto  = "CRYPTO"
	InstrumentFutures = "FUTURES"
	InstrumentStocks  = "STOCKS"
)

// TradeType constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// TradeStatus constants
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

// UploadSourceMyFxBook tags trades ingested by the sync subsystem
const UploadSourceMyFxBook = "myfxbook"
