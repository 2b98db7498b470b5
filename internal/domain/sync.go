package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncResult summarizes one user's sync
type SyncResult struct {
	UserID   uuid.UUID `json:"userId"`
	Imported int       `json:"imported"`
	Accounts int       `json:"accounts"`
	Error    string    `json:"error,omitempty"`
}

// SweepResult summarizes a global sync across all linked accounts
type SweepResult struct {
	TotalImported int          `json:"totalImported"`
	UsersSynced   int          `json:"usersSynced"`
	Results       []SyncResult `json:"results"`
}

// FailedUsers counts results that carry an error
func (r *SweepResult) FailedUsers() int {
	failed := 0
	for _, res := range r.Results {
		if res.Error != "" {
			failed++
		}
	}
	return failed
}

// ConnectResult is returned after linking a MyFxBook login
type ConnectResult struct {
	LinkedAccountID uuid.UUID
	Accounts        []BrokerAccount
}

// LinkStatus reports whether a user has an active MyFxBook link
type LinkStatus struct {
	Linked       bool
	Account      *LinkedAccount
	AccountCount int
}

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time
