package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bingospaces/gatekeeper/params"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

var ErrNoOwnChannel = errors.New("token owner has no youtube channel")

// YouTubeVerifier answers subscriber and member relationship checks against
// the YouTube Data API.
type YouTubeVerifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewYouTubeVerifier() *YouTubeVerifier {
	return &YouTubeVerifier{
		baseURL: youtubeAPIBase,
		httpClient: &http.Client{
			Timeout: params.ProviderCallTimeout,
		},
	}
}

type youtubeSubscriptionList struct {
	Items []struct {
		Snippet struct {
			ResourceID struct {
				ChannelID string `json:"channelId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeChannelList struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

type youtubeMemberList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			MemberDetails struct {
				ChannelID string `json:"channelId"`
			} `json:"memberDetails"`
		} `json:"snippet"`
	} `json:"items"`
}

// CheckSubscription reports whether the token's owner is subscribed to
// channelID.
func (v *YouTubeVerifier) CheckSubscription(ctx context.Context, accessToken string, channelID string) (bool, error) {
	if accessToken == "" || channelID == "" {
		return false, ErrMissingParameters
	}
	query := url.Values{
		"part":         {"snippet"},
		"mine":         {"true"},
		"forChannelId": {channelID},
		"maxResults":   {"1"},
	}
	var list youtubeSubscriptionList
	if err := v.getJSON(ctx, "/subscriptions", query, accessToken, &list); err != nil {
		return false, err
	}
	return len(list.Items) > 0, nil
}

// CheckMembership reports whether the member token's owner appears in the
// channel owner's membership list. Memberships are only listable by the
// channel owner, so this is the one check that needs two tokens: the member
// token to resolve the member's own channel id, the owner token to walk the
// members list.
func (v *YouTubeVerifier) CheckMembership(ctx context.Context, ownerToken string, memberToken string) (bool, error) {
	if ownerToken == "" || memberToken == "" {
		return false, ErrMissingParameters
	}
	memberChannelID, err := v.ownChannelID(ctx, memberToken)
	if err != nil {
		return false, err
	}

	// Natural termination is an empty nextPageToken; the page ceiling only
	// guards against a provider response that never stops paginating.
	pageToken := ""
	for page := 0; page < params.MemberPageCeiling; page++ {
		query := url.Values{
			"part":       {"snippet"},
			"maxResults": {strconv.Itoa(params.MemberPageSize)},
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		var list youtubeMemberList
		if err := v.getJSON(ctx, "/members", query, ownerToken, &list); err != nil {
			return false, err
		}
		for _, item := range list.Items {
			if item.Snippet.MemberDetails.ChannelID == memberChannelID {
				return true, nil
			}
		}
		if list.NextPageToken == "" {
			return false, nil
		}
		pageToken = list.NextPageToken
	}
	return false, fmt.Errorf("youtube members list exceeded %d pages", params.MemberPageCeiling)
}

func (v *YouTubeVerifier) ownChannelID(ctx context.Context, accessToken string) (string, error) {
	query := url.Values{
		"part": {"id"},
		"mine": {"true"},
	}
	var list youtubeChannelList
	if err := v.getJSON(ctx, "/channels", query, accessToken, &list); err != nil {
		return "", err
	}
	if len(list.Items) == 0 {
		return "", ErrNoOwnChannel
	}
	return list.Items[0].ID, nil
}

func (v *YouTubeVerifier) getJSON(ctx context.Context, path string, query url.Values, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return classifyResponse("youtube", resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
