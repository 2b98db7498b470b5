package dto

import (
	"github.com/google/uuid"

	"pipaura/internal/domain"
)

// ConnectRequest represents the connect request payload
type ConnectRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountOutput is a MyFxBook trading account as shown after connecting
type AccountOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Broker   string `json:"broker"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// ConnectResponse represents the connect response
type ConnectResponse struct {
	Success         bool            `json:"success"`
	LinkedAccountID uuid.UUID       `json:"linkedAccountId"`
	AccountCount    int             `json:"accountCount"`
	Accounts        []AccountOutput `json:"accounts"`
}

// StatusResponse represents the link status response
type StatusResponse struct {
	Linked       bool                  `json:"linked"`
	Account      *domain.LinkedAccount `json:"account"`
	AccountCount int                   `json:"accountCount"`
}

// SyncUserResponse represents the user-triggered sync response
type SyncUserResponse struct {
	Success           bool `json:"success"`
	ImportedCount     int  `json:"importedCount"`
	AccountsProcessed int  `json:"accountsProcessed"`
}

// MessageResponse is a success flag with a human-readable message
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SweepResponse represents the global sync response
type SweepResponse struct {
	Success       bool                `json:"success"`
	Message       string              `json:"message,omitempty"`
	TotalImported int                 `json:"totalImported"`
	UsersSynced   int                 `json:"usersSynced"`
	Results       []domain.SyncResult `json:"results"`
}

// ToConnectResponse converts a connect result to its response
func ToConnectResponse(result *domain.ConnectResult) ConnectResponse {
	accounts := make([]AccountOutput, 0, len(result.Accounts))
	for _, acc := range result.Accounts {
		accounts = append(accounts, AccountOutput{
			ID:       acc.ID.String(),
			Name:     acc.Name,
			Broker:   acc.Broker,
			Balance:  acc.Balance.String(),
			Currency: acc.Currency,
		})
	}

	return ConnectResponse{
		Success:         true,
		LinkedAccountID: result.LinkedAccountID,
		AccountCount:    len(accounts),
		Accounts:        accounts,
	}
}

// ToSweepResponse converts a sweep result to its response
func ToSweepResponse(result *domain.SweepResult) SweepResponse {
	resp := SweepResponse{
		Success:       true,
		TotalImported: result.TotalImported,
		UsersSynced:   result.UsersSynced,
		Results:       result.Results,
	}
	if resp.Results == nil {
		resp.Results = []domain.SyncResult{}
	}
	if result.UsersSynced == 0 {
		resp.Message = "No accounts to sync"
	}
	return resp
}
