package oauth

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider drives Google's token endpoint. Google only issues a refresh
// token on the initial consent (hence AccessTypeOffline + prompt=consent) and
// does not rotate it on refresh: when a refresh response omits the token, the
// one supplied in the request is carried through to the result.
type GoogleProvider struct {
	config *oauth2.Config
}

func NewGoogleProvider(callbackURL string, clientID string, clientSecret string, scopes []string) *GoogleProvider {
	if len(scopes) == 0 {
		scopes = []string{
			"https://www.googleapis.com/auth/youtube.readonly",
		}
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, ErrCodeEmpty
	}
	tok, err := p.config.Exchange(withCallTimeout(ctx), code)
	if err != nil {
		return nil, err
	}
	return fromOAuth2Token(tok), nil
}

func (p *GoogleProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
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
