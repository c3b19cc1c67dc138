package api

import (
	"errors"
	"log/slog"

	"github.com/bingospaces/gatekeeper/internal/audit"
	"github.com/bingospaces/gatekeeper/internal/webhook"
	"github.com/gofiber/fiber/v2"
)

const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

type WebhookHandler struct {
	verifier   *webhook.Verifier
	dispatcher *webhook.Dispatcher
	replay     *webhook.ReplayGuard
	secretForm string
}

func NewWebhookHandler(verifier *webhook.Verifier, dispatcher *webhook.Dispatcher, replay *webhook.ReplayGuard, secretForm string) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		replay:     replay,
		secretForm: secretForm,
	}
}

// PostAuthEmail handles one signed auth-email event: 401 for anything wrong
// with authentication, 400 for a payload we cannot act on, 500 only when the
// outbound send failed.
func (h *WebhookHandler) PostAuthEmail(ctx *fiber.Ctx) error {
	webhookID := ctx.Get(HeaderWebhookID)
	timestamp := ctx.Get(HeaderWebhookTimestamp)
	signature := ctx.Get(HeaderWebhookSignature)
	for header, value := range map[string]string{
		HeaderWebhookID:        webhookID,
		HeaderWebhookTimestamp: timestamp,
		HeaderWebhookSignature: signature,
	} {
		if value == "" {
			return h.reject(ctx, "missing_header", header)
		}
	}

	body := ctx.Body()
	if err := h.verifier.Verify(webhookID, timestamp, signature, body); err != nil {
		return h.reject(ctx, "signature_invalid", err.Error())
	}

	seen, err := h.replay.Seen(ctx.Context(), webhookID)
	if err != nil {
		slog.Warn("Webhook replay guard unavailable", "error", err)
	}
	if seen {
		return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{"deduped": true}))
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		if errors.Is(err, webhook.ErrUnknownAction) || errors.Is(err, webhook.ErrPayloadInvalid) {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, err.Error()),
			)
		}
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "malformed payload"),
		)
	}

	if err := h.dispatcher.Dispatch(ctx.Context(), event); err != nil {
		slog.Error("Failed to send auth email", "action", event.Email.ActionType, "error", err)
		// Release the id so the sender's retry is not answered as a replay.
		if forgetErr := h.replay.Forget(ctx.Context(), webhookID); forgetErr != nil {
			slog.Warn("Could not release webhook id after failed send", "error", forgetErr)
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(
			NewErrorResponse(fiber.StatusInternalServerError, "failed to send email"),
		)
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{"sent": true}))
}

// reject logs what went wrong with authentication without ever touching
// secret material: only the missing header name and the secret form class.
func (h *WebhookHandler) reject(ctx *fiber.Ctx, reasonCode string, reason string) error {
	slog.Warn("Rejected auth-email webhook",
		"reasonCode", reasonCode, "reason", reason, "secretForm", h.secretForm, "ip", ctx.IP())
	_ = audit.RecordWebhookRejected(ctx.Context(), audit.WebhookRejectedRecord{
		ReasonCode: reasonCode,
		Reason:     reason,
		IP:         ctx.IP(),
	})
	return ctx.Status(fiber.StatusUnauthorized).JSON(
		NewErrorResponse(fiber.StatusUnauthorized, "webhook verification failed"),
	)
}
