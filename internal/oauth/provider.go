package oauth

import (
	"context"
	"net/http"
	"time"

	"github.com/bingospaces/gatekeeper/params"
	"golang.org/x/oauth2"
)

// Token is a provider-issued access/refresh pair. ExpiresAt is absolute,
// computed from the provider's expires_in at the moment the response arrived,
// nil when the provider reported no expiry.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Provider exchanges authorization codes and refresh tokens for one OAuth
// provider. Refresh returns the refresh token that must be persisted next:
// providers that rotate hand back a new one, providers that do not carry the
// supplied token through unchanged.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

// withCallTimeout pins every token-endpoint call to the provider call budget.
func withCallTimeout(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Timeout: params.ProviderCallTimeout,
	})
}

func fromOAuth2Token(tok *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		expiresAt := tok.Expiry.UTC()
		out.ExpiresAt = &expiresAt
	}
	return out
}
