package api

import (
	"context"
	"log/slog"

	"github.com/bingospaces/gatekeeper/internal/audit"
	"github.com/bingospaces/gatekeeper/internal/credentials"
	"github.com/gofiber/fiber/v2"
)

type Refresher interface {
	RunSweep(ctx context.Context) (*credentials.SweepSummary, error)
}

type RefreshHandler struct {
	refresher Refresher
}

func NewRefreshHandler(refresher Refresher) *RefreshHandler {
	return &RefreshHandler{
		refresher: refresher,
	}
}

// PostRefreshTokens runs one credential refresh sweep. Per-item failures are
// part of the 200 summary; the only 5xx here is a sweep that could not start.
func (h *RefreshHandler) PostRefreshTokens(ctx *fiber.Ctx) error {
	summary, err := h.refresher.RunSweep(ctx.Context())
	if err != nil {
		slog.Error("Refresh sweep could not start", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "refresh sweep could not start"),
		)
	}
	_ = audit.RecordSweep(ctx.Context(), audit.SweepRecord{
		Total:     summary.Total,
		Refreshed: summary.Refreshed,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
	})
	return ctx.Status(fiber.StatusOK).JSON(summary)
}
