package verify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/bingospaces/gatekeeper/params"
)

const twitchAPIBase = "https://api.twitch.tv/helix"

var ErrNoTwitchUser = errors.New("token resolves to no twitch user")

// TwitchVerifier answers follower and subscriber relationship checks against
// the Twitch Helix API. Helix requires the app client id alongside the user
// token on every call.
type TwitchVerifier struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

func NewTwitchVerifier(clientID string) *TwitchVerifier {
	return &TwitchVerifier{
		baseURL:  twitchAPIBase,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: params.ProviderCallTimeout,
		},
	}
}

type twitchUserList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type twitchFollowList struct {
	Data []struct {
		BroadcasterID string `json:"broadcaster_id"`
	} `json:"data"`
}

type twitchSubscriptionList struct {
	Data []struct {
		BroadcasterID string `json:"broadcaster_id"`
		Tier          string `json:"tier"`
	} `json:"data"`
}

// CheckFollow reports whether the token's owner follows the broadcaster.
func (v *TwitchVerifier) CheckFollow(ctx context.Context, accessToken string, broadcasterID string) (bool, error) {
	if accessToken == "" || broadcasterID == "" {
		return false, ErrMissingParameters
	}
	userID, err := v.tokenUserID(ctx, accessToken)
	if err != nil {
		return false, err
	}
	query := url.Values{
		"user_id":        {userID},
		"broadcaster_id": {broadcasterID},
	}
	var list twitchFollowList
	status, err := v.getJSON(ctx, "/channels/followed", query, accessToken, &list)
	if err != nil {
		return false, err
	}
	return status == http.StatusOK && len(list.Data) > 0, nil
}

// CheckSubscription reports whether the token's owner is subscribed to the
// broadcaster. Helix answers 404 for "not subscribed", which is a negative
// result here, not an error.
func (v *TwitchVerifier) CheckSubscription(ctx context.Context, accessToken string, broadcasterID string) (bool, error) {
	if accessToken == "" || broadcasterID == "" {
		return false, ErrMissingParameters
	}
	userID, err := v.tokenUserID(ctx, accessToken)
	if err != nil {
		return false, err
	}
	query := url.Values{
		"broadcaster_id": {broadcasterID},
		"user_id":        {userID},
	}
	var list twitchSubscriptionList
	status, err := v.getJSON(ctx, "/subscriptions/user", query, accessToken, &list)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(list.Data) > 0, nil
}

func (v *TwitchVerifier) tokenUserID(ctx context.Context, accessToken string) (string, error) {
	var list twitchUserList
	if _, err := v.getJSON(ctx, "/users", nil, accessToken, &list); err != nil {
		return "", err
	}
	if len(list.Data) == 0 {
		return "", ErrNoTwitchUser
	}
	return list.Data[0].ID, nil
}

func (v *TwitchVerifier) getJSON(ctx context.Context, path string, query url.Values, accessToken string, out any) (int, error) {
	endpoint := v.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Client-Id", v.clientID)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, classifyResponse("twitch", resp)
	}
	return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
}
