package domain

import (
	"time"

	"github.com/google/uuid"
)

// LinkedAccount is a user's connected MyFxBook login. There is at most one active row per user.
type LinkedAccount struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	Email             string     `json:"email"`
	EncryptedPassword string     `json:"-"` // hex(iv):hex(ciphertext)
	SessionID         *string    `json:"-"`
	SessionExpiresAt  *time.Time `json:"-"`
	SyncStatus        string     `json:"sync_status"`
	SyncErrorMessage  *string    `json:"sync_error_message,omitempty"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SyncStatus constants
const (
	SyncStatusConnected    = "connected"
	SyncStatusActive       = "active"
	SyncStatusSynced       = "synced"
	SyncStatusError        = "error"
	SyncStatusDisconnected = "disconnected"
)

// HasValidSession reports whether the stored session can be used at the given time
// without logging in again
func (a *LinkedAccount) HasValidSession(now time.Time) bool {
	if a.SessionID == nil || *a.SessionID == "" || a.SessionExpiresAt == nil {
		return false
	}
	return now.Before(*a.SessionExpiresAt)
}

// SetSession stores a freshly issued broker session on the account
func (a *LinkedAccount) SetSession(session *BrokerSession) {
	id := session.SessionID
	expiresAt := session.ExpiresAt
	a.SessionID = &id
	a.SessionExpiresAt = &expiresAt
}
