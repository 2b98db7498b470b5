package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"pipaura/internal/delivery/http/dto"
	"pipaura/internal/domain"
)

// SweepRunner runs one global sync
type SweepRunner interface {
	SyncAll(ctx context.Context) (*domain.SweepResult, error)
}

// CronHandler handles scheduler-triggered endpoints
type CronHandler struct {
	sweeper SweepRunner
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(sweeper SweepRunner) *CronHandler {
	return &CronHandler{sweeper: sweeper}
}

// SyncAll syncs every active linked account
// POST /api/cron/myfxbook-sync
func (h *CronHandler) SyncAll(c echo.Context) error {
	result, err := h.sweeper.SyncAll(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ToSweepResponse(result))
}
