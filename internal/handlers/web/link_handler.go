package web

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bingospaces/gatekeeper/internal/audit"
	"github.com/bingospaces/gatekeeper/internal/credentials"
	"github.com/bingospaces/gatekeeper/internal/oauth"
	"github.com/bingospaces/gatekeeper/model"
	"github.com/bingospaces/gatekeeper/params"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// linkStateClaims ride through the provider consent screen in the OAuth state
// parameter, signed so the callback can trust who started the link.
type linkStateClaims struct {
	UserID     string `json:"uid"`
	Provider   string `json:"prv"`
	RedirectTo string `json:"rdr"`
	jwt.RegisteredClaims
}

type LinkHandler struct {
	exchanger *oauth.Exchanger
	store     credentials.CredentialStore
	masterKey string
}

func NewLinkHandler(exchanger *oauth.Exchanger, store credentials.CredentialStore, masterKey string) *LinkHandler {
	return &LinkHandler{
		exchanger: exchanger,
		store:     store,
		masterKey: masterKey,
	}
}

// GetLink starts the account-link flow: sign the state, send the user to the
// provider consent screen.
func (h *LinkHandler) GetLink(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")
	provider, err := h.exchanger.Provider(providerName)
	if err != nil {
		return fiber.ErrNotFound
	}
	userID := ctx.Query("uid")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "uid is required")
	}

	claims := linkStateClaims{
		UserID:     userID,
		Provider:   providerName,
		RedirectTo: sanitizeRedirect(ctx.Query("redirect")),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(params.LinkStateExpiration)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.masterKey))
	if err != nil {
		return err
	}
	return ctx.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// GetCallback finishes the link: verify the state, run the interactive code
// exchange with its retry budget, store the credential. A failed exchange
// never leaves a partial credential behind.
func (h *LinkHandler) GetCallback(ctx *fiber.Ctx) error {
	providerName := ctx.Params("provider")
	if _, err := h.exchanger.Provider(providerName); err != nil {
		return fiber.ErrNotFound
	}

	claims, err := h.parseState(ctx.Query("state"))
	if err != nil || claims.Provider != providerName {
		return fiber.ErrUnauthorized
	}

	if providerErr := ctx.Query("error"); providerErr != "" {
		// User declined consent at the provider.
		return redirectWithStatus(ctx, claims.RedirectTo, "declined")
	}

	token, err := h.exchanger.ExchangeCode(ctx.Context(), providerName, ctx.Query("code"))
	if err != nil {
		slog.Warn("Interactive code exchange failed",
			"provider", providerName, "user", claims.UserID, "error", err)
		return redirectWithStatus(ctx, claims.RedirectTo, "failed")
	}

	upsert := credentials.UpsertParams{
		UserID:      claims.UserID,
		Provider:    model.Provider(providerName),
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
	}
	if token.RefreshToken != "" {
		upsert.RefreshToken = &token.RefreshToken
	}
	if err := h.store.Upsert(ctx.Context(), upsert); err != nil {
		slog.Error("Failed to store linked credential",
			"provider", providerName, "user", claims.UserID, "error", err)
		return redirectWithStatus(ctx, claims.RedirectTo, "failed")
	}

	_ = audit.RecordCredentialLinked(ctx.Context(), audit.CredentialLinkedRecord{
		UserID:   claims.UserID,
		Provider: providerName,
		IP:       ctx.IP(),
	})
	return redirectWithStatus(ctx, claims.RedirectTo, "linked")
}

func (h *LinkHandler) parseState(state string) (*linkStateClaims, error) {
	if state == "" {
		return nil, errors.New("state is empty")
	}
	var claims linkStateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.masterKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("state token invalid")
	}
	return &claims, nil
}

// sanitizeRedirect keeps link redirects on-site: relative paths only.
func sanitizeRedirect(redirect string) string {
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		return "/"
	}
	return redirect
}

func redirectWithStatus(ctx *fiber.Ctx, redirectTo string, status string) error {
	if redirectTo == "" {
		redirectTo = "/"
	}
	separator := "?"
	if strings.Contains(redirectTo, "?") {
		separator = "&"
	}
	return ctx.Redirect(redirectTo+separator+"link="+status, fiber.StatusFound)
}
