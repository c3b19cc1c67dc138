package api

import (
	"context"

	"github.com/bingospaces/gatekeeper/internal/audit"
	"github.com/bingospaces/gatekeeper/internal/gatekeeper"
	"github.com/gofiber/fiber/v2"
)

type GateEvaluator interface {
	Evaluate(ctx context.Context, rule gatekeeper.Rule, userID string, email string) gatekeeper.Result
}

type GateHandler struct {
	evaluator GateEvaluator
}

type gateEvaluateRequest struct {
	UserID  string          `json:"userId"`
	Email   string          `json:"email"`
	SpaceID string          `json:"spaceId"`
	Rule    gatekeeper.Rule `json:"rule"`
}

func NewGateHandler(evaluator GateEvaluator) *GateHandler {
	return &GateHandler{
		evaluator: evaluator,
	}
}

// PostEvaluate decides join eligibility for one user against one space rule.
// The decision itself always comes back 200; denial reasons live in the body.
func (h *GateHandler) PostEvaluate(ctx *fiber.Ctx) error {
	var req gateEvaluateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "malformed request body"),
		)
	}
	if req.UserID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "userId is required"),
		)
	}

	result := h.evaluator.Evaluate(ctx.Context(), req.Rule, req.UserID, req.Email)
	_ = audit.RecordGateDecision(ctx.Context(), audit.GateDecisionRecord{
		UserID:     req.UserID,
		SpaceID:    req.SpaceID,
		Allowed:    result.Allowed,
		ReasonCode: string(result.ReasonCode),
		Details:    result.Details,
		IP:         ctx.IP(),
	})
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(result))
}
