package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"pipaura/internal/delivery/http/dto"
	"pipaura/internal/domain"
	"pipaura/internal/middleware"
)

// LinkManager connects, inspects and disconnects a user's MyFxBook login
type LinkManager interface {
	Connect(ctx context.Context, userID uuid.UUID, email, password string) (*domain.ConnectResult, error)
	Status(ctx context.Context, userID uuid.UUID) (*domain.LinkStatus, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

// UserSyncTrigger runs a sync for one user on demand
type UserSyncTrigger interface {
	SyncUserByID(ctx context.Context, userID uuid.UUID, refreshAccounts bool) (*domain.SyncResult, error)
}

// MyFxBookHandler handles the user-facing MyFxBook endpoints
type MyFxBookHandler struct {
	links LinkManager
	sync  UserSyncTrigger
	log   zerolog.Logger
}

// NewMyFxBookHandler creates a new MyFxBookHandler
func NewMyFxBookHandler(links LinkManager, sync UserSyncTrigger, log zerolog.Logger) *MyFxBookHandler {
	return &MyFxBookHandler{
		links: links,
		sync:  sync,
		log:   log.With().Str("component", "myfxbook_handler").Logger(),
	}
}

// Connect links a MyFxBook login to the caller
// POST /api/myfxbook/connect
func (h *MyFxBookHandler) Connect(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.ConnectRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Missing required fields: email, password")
	}

	result, err := h.links.Connect(c.Request().Context(), userID, req.Email, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID.String()).Msg("MyFxBook connect failed")
		return err
	}

	return c.JSON(http.StatusOK, dto.ToConnectResponse(result))
}

// Status reports whether the caller has an active link
// GET /api/myfxbook/status
func (h *MyFxBookHandler) Status(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	status, err := h.links.Status(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.StatusResponse{
		Linked:       status.Linked,
		Account:      status.Account,
		AccountCount: status.AccountCount,
	})
}

// SyncUser imports new trades for the caller right away
// POST /api/myfxbook/sync-user
func (h *MyFxBookHandler) SyncUser(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	result, err := h.sync.SyncUserByID(c.Request().Context(), userID, true)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID.String()).Msg("MyFxBook sync failed")
		return err
	}

	return c.JSON(http.StatusOK, dto.SyncUserResponse{
		Success:           true,
		ImportedCount:     result.Imported,
		AccountsProcessed: result.Accounts,
	})
}

// Disconnect deactivates the caller's link
// POST /api/myfxbook/disconnect
func (h *MyFxBookHandler) Disconnect(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.links.Disconnect(c.Request().Context(), userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "MyFxBook account disconnected successfully",
	})
}
