package oauth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// TwitchProvider drives Twitch's token endpoint. Twitch rotates the refresh
// token on every use: the token returned by Refresh must replace the stored
// one, the old token is dead after a successful exchange.
type TwitchProvider struct {
	config *oauth2.Config
}

func NewTwitchProvider(callbackURL string, clientID string, clientSecret string, scopes []string) *TwitchProvider {
	if len(scopes) == 0 {
		scopes = []string{"user:read:follows", "user:read:subscriptions"}
	}
	return &TwitchProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       scopes,
			Endpoint:     endpoints.Twitch,
		},
	}
}

func (p *TwitchProvider) Name() string {
	return "twitch"
}

func (p *TwitchProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

func (p *TwitchProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, ErrCodeEmpty
	}
	tok, err := p.config.Exchange(withCallTimeout(ctx), code)
	if err != nil {
		return nil, err
	}
	return fromOAuth2Token(tok), nil
}

func (p *TwitchProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenEmpty
	}
	src := p.config.TokenSource(withCallTimeout(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, err
	}
	return fromOAuth2Token(tok), nil
}
