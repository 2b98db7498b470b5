package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BrokerClient is the remote MyFxBook API
type BrokerClient interface {
	// Login authenticates and returns a session. ExpiresAt is computed client-side.
	Login(ctx context.Context, email, password string) (*BrokerSession, error)

	// ListAccounts returns the trading accounts visible to the session
	ListAccounts(ctx context.Context, sessionID string) ([]BrokerAccount, error)

	// ListTrades returns trade history for one account. An empty sinceTicketID
	// requests the full history.
	ListTrades(ctx context.Context, sessionID, brokerAccountID, sinceTicketID string) ([]BrokerTrade, error)
}

// BrokerSession is an authenticated MyFxBook session
type BrokerSession struct {
	SessionID string
	ExpiresAt time.Time
}

// BrokerAccount is an account entry from get-my-accounts
type BrokerAccount struct {
	ID       FlexString `json:"id"`
	Name     string     `json:"name"`
	Broker   string     `json:"broker"`
	Currency string     `json:"currency"`
	Balance  FlexString `json:"balance"`
	Equity   FlexString `json:"equity"`
	Gain     FlexString `json:"gain"`
	Deposits FlexString `json:"deposits"`
}

// BrokerTrade is a history entry from get-history
type BrokerTrade struct {
	HistoryID  FlexString   `json:"historyId"`
	Ticket     FlexString   `json:"ticket"`
	ID         FlexString   `json:"id"`
	Symbol     string       `json:"symbol"`
	Action     string       `json:"action"`
	Sizing     BrokerSizing `json:"sizing"`
	Lots       FlexString   `json:"lots"`
	Volume     FlexString   `json:"volume"`
	OpenTime   string       `json:"openTime"`
	CloseTime  string       `json:"closeTime"`
	OpenPrice  FlexString   `json:"openPrice"`
	ClosePrice FlexString   `json:"closePrice"`
	StopLoss   FlexString   `json:"sl"`
	TakeProfit FlexString   `json:"tp"`
	Profit     FlexString   `json:"profit"`
	Swap       FlexString   `json:"swap"`
	Interest   FlexString   `json:"interest"`
	Commission FlexString   `json:"commission"`
	Currency   string       `json:"currency"`
}

// BrokerSizing accepts both {"type":"lots","value":"0.10"} and a bare number
type BrokerSizing struct {
	Type  string
	Value FlexString
}

// UnmarshalJSON implements json.Unmarshaler
func (s *BrokerSizing) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw struct {
			Type  string     `json:"type"`
			Value FlexString `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		s.Type = raw.Type
		s.Value = raw.Value
		return nil
	}
	return s.Value.UnmarshalJSON(trimmed)
}

// FlexString holds a JSON scalar that MyFxBook sends either as a string or as a number
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "" || s == "null":
		*f = ""
	case s[0] == '"':
		var v string
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(v))
	case s[0] == '{' || s[0] == '[':
		*f = ""
	default:
		*f = FlexString(s)
	}
	return nil
}

// String returns the raw value
func (f FlexString) String() string {
	return string(f)
}

// Decimal parses the value. ok is false when the value is empty or not numeric.
func (f FlexString) Decimal() (d decimal.Decimal, ok bool) {
	if f == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(string(f))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
