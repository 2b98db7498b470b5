package domain

import (
	"context"

	"github.com/google/uuid"
)

// CredentialVault encrypts broker passwords at rest
type CredentialVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenVerifier validates a bearer token and returns the authenticated user id
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// SweepNotifier reports sweep outcomes to operators
type SweepNotifier interface {
	NotifySweep(ctx context.Context, result *SweepResult) error
}

// SessionProvider hands out usable broker sessions for a linked account
type SessionProvider interface {
	// Ready fails with a ConfigurationError when stored credentials cannot be decrypted at all
	Ready() error

	// EnsureFreshSession returns the stored session when still valid, otherwise logs in again
	EnsureFreshSession(ctx context.Context, account *LinkedAccount) (string, error)

	// ForceRefresh logs in again regardless of the stored expiry
	ForceRefresh(ctx context.Context, account *LinkedAccount) (string, error)
}

// UserSyncer syncs one user's linked account
type UserSyncer interface {
	SyncUser(ctx context.Context, account *LinkedAccount) (*SyncResult, error)
}
