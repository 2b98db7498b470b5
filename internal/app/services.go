// Package app assembles repositories, the broker client and the sync use cases
// from configuration. Both the HTTP server and the operator CLI build on it.
package app

import (
	"database/sql"

	"github.com/rs/zerolog"

	"pipaura/configs"
	"pipaura/internal/adapter/myfxbook"
	"pipaura/internal/adapter/telegram"
	"pipaura/internal/domain"
	"pipaura/internal/repository"
	"pipaura/internal/usecase"
	"pipaura/internal/utils"
	"pipaura/internal/vault"
)

// Services holds the wired use cases
type Services struct {
	Vault    domain.CredentialVault
	Sessions *usecase.SessionManager
	Sync     *usecase.SyncService
	Sweep    *usecase.SweepService
	Links    *usecase.LinkService
	Notifier *telegram.NotificationService
}

// NewServices wires every sync component against db
func NewServices(cfg *configs.Config, db *sql.DB, log zerolog.Logger) *Services {
	// Initialize repositories
	linkedRepo := repository.NewLinkedAccountRepository(db)
	brokerAccountRepo := repository.NewBrokerAccountRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	tradeAccountRepo := repository.NewTradeAccountRepository(db)

	// Initialize broker client
	broker := myfxbook.NewClient(myfxbook.Config{
		BaseURL:    cfg.MyFxBook.BaseURL,
		SessionTTL: cfg.MyFxBook.SessionTTL,
		Timeout:    cfg.MyFxBook.RequestTimeout,
		RateLimit:  cfg.MyFxBook.RateLimit,
	}, log)

	credentialVault := NewVault(cfg.Vault.Passphrase, log)

	notifier := telegram.NewNotificationService(
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		utils.LoadLocation(cfg.Telegram.Timezone),
		log,
	)
	if !notifier.Enabled() {
		log.Info().Msg("Telegram not configured, sweep notifications disabled")
	}

	// Initialize use cases
	sessions := usecase.NewSessionManager(linkedRepo, broker, credentialVault, log)
	discovery := usecase.NewAccountDiscovery(broker, sessions, brokerAccountRepo, tradeAccountRepo, log)
	syncService := usecase.NewSyncService(linkedRepo, brokerAccountRepo, tradeRepo, broker, sessions, discovery, log)

	return &Services{
		Vault:    credentialVault,
		Sessions: sessions,
		Sync:     syncService,
		Sweep:    usecase.NewSweepService(linkedRepo, syncService, sessions, notifier, log),
		Links:    usecase.NewLinkService(linkedRepo, brokerAccountRepo, broker, credentialVault, discovery, log),
		Notifier: notifier,
	}
}

// NewVault derives the credential vault from passphrase. It returns a nil
// interface when the passphrase is missing so callers see a configuration error
// on first use instead of at startup.
func NewVault(passphrase string, log zerolog.Logger) domain.CredentialVault {
	if passphrase == "" {
		log.Warn().Msg("ENC_PASSPHRASE not set, MyFxBook linking and sync are unavailable")
		return nil
	}

	v, err := vault.New(passphrase)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize credential vault")
		return nil
	}
	return v
}
