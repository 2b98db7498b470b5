package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
	"pipaura/internal/metrics"
)

var errAppAccountCreate = errors.New("failed to create PipAura account")

// AccountDiscovery mirrors the broker's account list into myfxbook_accounts,
// creating a PipAura trading account for every sub-account that has none
type AccountDiscovery struct {
	broker         domain.BrokerClient
	sessions       domain.SessionProvider
	brokerAccounts domain.BrokerAccountRepository
	tradeAccounts  domain.TradeAccountRepository
	log            zerolog.Logger
}

// NewAccountDiscovery creates a new AccountDiscovery
func NewAccountDiscovery(
	broker domain.BrokerClient,
	sessions domain.SessionProvider,
	brokerAccounts domain.BrokerAccountRepository,
	tradeAccounts domain.TradeAccountRepository,
	log zerolog.Logger,
) *AccountDiscovery {
	return &AccountDiscovery{
		broker:         broker,
		sessions:       sessions,
		brokerAccounts: brokerAccounts,
		tradeAccounts:  tradeAccounts,
		log:            log.With().Str("component", "account_discovery").Logger(),
	}
}

// Refresh lists the linked login's accounts, upserts each one and deactivates
// sub-accounts the broker no longer reports
func (d *AccountDiscovery) Refresh(ctx context.Context, linked *domain.LinkedAccount) ([]domain.BrokerAccount, error) {
	sessionID, err := d.sessions.EnsureFreshSession(ctx, linked)
	if err != nil {
		return nil, err
	}

	accounts, err := d.broker.ListAccounts(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionInvalid) {
		if sessionID, err = d.sessions.ForceRefresh(ctx, linked); err != nil {
			return nil, err
		}
		accounts, err = d.broker.ListAccounts(ctx, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch MyFxBook accounts: %w", err)
	}

	keep := make([]string, 0, len(accounts))
	saved := make([]domain.BrokerAccount, 0, len(accounts))
	for i := range accounts {
		acc := &accounts[i]
		if acc.ID == "" {
			d.log.Warn().Str("name", acc.Name).Msg("Skipping MyFxBook account without id")
			continue
		}

		// the broker still reports the account, so a skipped one is kept out of deactivation
		keep = append(keep, acc.ID.String())

		if err := d.saveAccount(ctx, linked, acc); err != nil {
			if !errors.Is(err, errAppAccountCreate) {
				return nil, err
			}
			d.log.Error().Err(err).Str("user_id", linked.UserID.String()).Msg("Skipping MyFxBook account")
			metrics.SubAccountFailures.Inc()
			continue
		}
		saved = append(saved, *acc)
	}

	// an empty list is more likely a broker hiccup than every account being removed
	if len(keep) == 0 {
		d.log.Warn().Str("user_id", linked.UserID.String()).Msg("MyFxBook returned no accounts, keeping existing sub-accounts")
		return saved, nil
	}

	deactivated, err := d.brokerAccounts.DeactivateMissing(ctx, linked.ID, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate removed MyFxBook accounts: %w", err)
	}
	if deactivated > 0 {
		d.log.Info().Int64("count", deactivated).Str("user_id", linked.UserID.String()).Msg("Deactivated MyFxBook accounts no longer reported by broker")
	}

	return saved, nil
}

func (d *AccountDiscovery) saveAccount(ctx context.Context, linked *domain.LinkedAccount, acc *domain.BrokerAccount) error {
	brokerAccountID := acc.ID.String()

	var appAccountID *uuid.UUID
	existing, err := d.brokerAccounts.GetByBrokerAccountID(ctx, brokerAccountID)
	switch {
	case err == nil:
		appAccountID = existing.PipAuraAccountID
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("failed to look up MyFxBook account %s: %w", brokerAccountID, err)
	}

	if appAccountID == nil {
		tradeAccount := newTradeAccount(linked.UserID, acc)
		if err := d.tradeAccounts.Create(ctx, tradeAccount); err != nil {
			return fmt.Errorf("%w for MyFxBook account %s: %w", errAppAccountCreate, brokerAccountID, err)
		}
		appAccountID = &tradeAccount.ID
	}

	var broker *string
	if acc.Broker != "" {
		b := acc.Broker
		broker = &b
	}

	sub := &domain.BrokerSubAccount{
		LinkedAccountID:  linked.ID,
		UserID:           linked.UserID,
		BrokerAccountID:  brokerAccountID,
		AccountName:      acc.Name,
		Broker:           broker,
		Currency:         currencyOrDefault(acc.Currency),
		Balance:          decimalOrZero(acc.Balance),
		Equity:           decimalOrZero(acc.Equity),
		Gain:             decimalOrZero(acc.Gain),
		PipAuraAccountID: appAccountID,
		AutoSyncEnabled:  true,
		IsActive:         true,
	}

	if err := d.brokerAccounts.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to save MyFxBook account %s: %w", brokerAccountID, err)
	}
	return nil
}

func newTradeAccount(userID uuid.UUID, acc *domain.BrokerAccount) *domain.TradeAccount {
	name := acc.Name
	if name == "" {
		name = fmt.Sprintf("MyFxBook #%s", acc.ID)
	}

	brokerName := acc.Broker
	if brokerName == "" {
		brokerName = domain.DefaultBrokerName
	}

	balance := decimalOrZero(acc.Balance)
	starting := decimalOrZero(acc.Deposits)
	if starting.IsZero() {
		starting = balance
	}

	return &domain.TradeAccount{
		UserID:          userID,
		AccountName:     name,
		BrokerName:      brokerName,
		AccountType:     domain.AccountTypeLivePersonal,
		MarketType:      domain.MarketTypeForex,
		StartingBalance: starting,
		CurrentBalance:  balance,
		Currency:        currencyOrDefault(acc.Currency),
		CreatedAt:       time.Now().UTC(),
	}
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return domain.DefaultCurrency
	}
	return currency
}
