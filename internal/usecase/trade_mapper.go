package usecase

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pipaura/internal/domain"
	"pipaura/internal/utils"
)

var (
	nonTicketCharacter = regexp.MustCompile(`[^a-zA-Z0-9_]`)

	cryptoMarkers = []string{"BTC", "ETH", "USDT"}
	indexMarkers  = []string{"US30", "NAS100", "SPX500", "UK100"}
)

// brokerTimeFormats lists the timestamp layouts MyFxBook has been seen to emit
var brokerTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"2006-01-02T15:04:05",
	time.DateTime,
}

// InferInstrumentType classifies a symbol. Crypto markers win over index markers.
// Six-letter currency pairs and anything unrecognised are forex.
func InferInstrumentType(symbol string) string {
	sym := strings.ToUpper(symbol)

	for _, marker := range cryptoMarkers {
		if strings.Contains(sym, marker) {
			return domain.InstrumentCrypto
		}
	}

	for _, marker := range indexMarkers {
		if strings.Contains(sym, marker) {
			return domain.InstrumentIndices
		}
	}

	return domain.InstrumentForex
}

// IsBalanceOperation reports history rows that are cash movements rather than trades
func IsBalanceOperation(trade *domain.BrokerTrade) bool {
	if strings.TrimSpace(trade.Symbol) == "" {
		return true
	}
	action := strings.ToLower(strings.TrimSpace(trade.Action))
	return action == "deposit" || action == "withdrawal"
}

// BrokerTicketID returns the identifier MyFxBook assigned to the trade, or "" when it sent none
func BrokerTicketID(trade *domain.BrokerTrade) string {
	for _, id := range []domain.FlexString{trade.HistoryID, trade.Ticket, trade.ID} {
		if id != "" {
			return id.String()
		}
	}
	return ""
}

// TicketID returns the broker identifier or a deterministic one built from the trade's fields
func TicketID(trade *domain.BrokerTrade) string {
	if id := BrokerTicketID(trade); id != "" {
		return id
	}

	raw := strings.Join([]string{
		"myfxbook",
		trade.Symbol,
		trade.OpenTime,
		trade.CloseTime,
		trade.OpenPrice.String(),
		trade.ClosePrice.String(),
	}, "_")
	return nonTicketCharacter.ReplaceAllString(raw, "_")
}

// MapTrade projects a MyFxBook history row onto a journal trade
func MapTrade(bt *domain.BrokerTrade, userID uuid.UUID, accountID *uuid.UUID) *domain.Trade {
	instrument := strings.TrimSpace(bt.Symbol)
	if instrument == "" {
		instrument = "UNKNOWN"
	}

	tradeType := domain.TradeTypeSell
	if strings.EqualFold(strings.TrimSpace(bt.Action), "buy") {
		tradeType = domain.TradeTypeBuy
	}

	currency := bt.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	status := domain.TradeStatusOpen
	if strings.TrimSpace(bt.CloseTime) != "" {
		status = domain.TradeStatusClosed
	}

	now := time.Now().UTC()

	return &domain.Trade{
		ID:             uuid.New(),
		UserID:         userID,
		AccountID:      accountID,
		TicketID:       TicketID(bt),
		Instrument:     instrument,
		InstrumentType: InferInstrumentType(instrument),
		TradeType:      tradeType,
		PositionSize:   positionSize(bt),
		EntryPrice:     decimalOrZero(bt.OpenPrice),
		ExitPrice:      nonZeroOrNull(bt.ClosePrice),
		StopLoss:       nonZeroOrNull(bt.StopLoss),
		TakeProfit:     nonZeroOrNull(bt.TakeProfit),
		PnL:            decimalOrZero(bt.Profit),
		Swap:           decimalOrZero(bt.Swap),
		Commission:     decimalOrZero(bt.Commission),
		Currency:       currency,
		Status:         status,
		EntryDate:      parseBrokerTime(bt.OpenTime),
		ExitDate:       parseBrokerTime(bt.CloseTime),
		UploadSource:   domain.UploadSourceMyFxBook,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// positionSize takes the first non-zero of sizing.value, lots and volume
func positionSize(bt *domain.BrokerTrade) decimal.Decimal {
	for _, v := range []domain.FlexString{bt.Sizing.Value, bt.Lots, bt.Volume} {
		if d, ok := v.Decimal(); ok && !d.IsZero() {
			return d
		}
	}
	return decimal.Zero
}

func decimalOrZero(v domain.FlexString) decimal.Decimal {
	d, _ := v.Decimal()
	return d
}

func nonZeroOrNull(v domain.FlexString) decimal.NullDecimal {
	d, ok := v.Decimal()
	if !ok || d.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseBrokerTime returns nil for empty or unparseable timestamps
func parseBrokerTime(s string) *time.Time {
	return utils.ParseUTC(s, brokerTimeFormats...)
}
