package gatekeeper

import (
	"context"
	"errors"
	"strings"

	"github.com/bingospaces/gatekeeper/internal/common"
	"github.com/bingospaces/gatekeeper/internal/credentials"
	"github.com/bingospaces/gatekeeper/internal/store"
	"github.com/bingospaces/gatekeeper/internal/verify"
	"github.com/bingospaces/gatekeeper/model"
	"github.com/bingospaces/gatekeeper/params"
)

type CredentialSource interface {
	Get(ctx context.Context, userID string, provider model.Provider) (*credentials.Credential, error)
}

type YouTubeChecker interface {
	CheckSubscription(ctx context.Context, accessToken string, channelID string) (bool, error)
	CheckMembership(ctx context.Context, ownerToken string, memberToken string) (bool, error)
}

type TwitchChecker interface {
	CheckFollow(ctx context.Context, accessToken string, broadcasterID string) (bool, error)
	CheckSubscription(ctx context.Context, accessToken string, broadcasterID string) (bool, error)
}

// Evaluator decides join eligibility for one user against one space's rule.
// It is pure given its collaborators: no side effects beyond the provider
// calls they make.
type Evaluator struct {
	credentials CredentialSource
	youtube     YouTubeChecker
	twitch      TwitchChecker
	decisions   store.Storage // optional cache for positive decisions
}

func NewEvaluator(credentialSource CredentialSource, youtube YouTubeChecker, twitch TwitchChecker, decisions store.Storage) *Evaluator {
	return &Evaluator{
		credentials: credentialSource,
		youtube:     youtube,
		twitch:      twitch,
		decisions:   decisions,
	}
}

// Evaluate runs every active check in the rule and combines them with
// CombineAll. Verifier failures surface as their own reason codes; "cannot
// verify right now" is never collapsed into "not eligible".
func (e *Evaluator) Evaluate(ctx context.Context, rule Rule, userID string, email string) Result {
	cacheKey := decisionCacheKey(rule, userID, email)
	if e.decisions != nil {
		var cached Result
		if err := e.decisions.Get(ctx, cacheKey, &cached); err == nil && cached.Allowed {
			return cached
		}
	}

	var results []Result
	if rule.Email.Active() {
		results = append(results, e.checkEmail(rule.Email, email))
	}
	if rule.YouTube.Active() {
		results = append(results, e.checkYouTube(ctx, rule, userID))
	}
	if rule.Twitch.Active() {
		results = append(results, e.checkTwitch(ctx, rule.Twitch, userID))
	}
	result := CombineAll(results...)

	// Only positive decisions are cached: a denial must clear the moment the
	// user links an account or subscribes.
	if result.Allowed && e.decisions != nil {
		_ = e.decisions.Set(ctx, cacheKey, result, params.GateDecisionCacheTTL)
	}
	return result
}

func (e *Evaluator) checkEmail(rule *EmailRule, email string) Result {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return deny(ReasonEmailNotAllowed)
	}
	for _, entry := range rule.Allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		// Entries with an @ match one address, anything else matches a domain.
		if strings.Contains(entry, "@") {
			if email == entry {
				return allow()
			}
		} else if strings.HasSuffix(email, "@"+entry) {
			return allow()
		}
	}
	return deny(ReasonEmailNotAllowed)
}

func (e *Evaluator) checkYouTube(ctx context.Context, rule Rule, userID string) Result {
	credential, err := e.credentials.Get(ctx, userID, model.ProviderGoogle)
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		return deny(ReasonYouTubeVerificationRequired)
	}
	if err != nil {
		return denyWithDetails(ReasonYouTubeVerificationFailed, err.Error())
	}

	var passed bool
	switch rule.YouTube.Requirement {
	case RequirementSubscriber:
		passed, err = e.youtube.CheckSubscription(ctx, credential.AccessToken, rule.YouTube.ChannelID)
	case RequirementMember:
		ownerCredential, ownerErr := e.credentials.Get(ctx, rule.OwnerID, model.ProviderGoogle)
		if ownerErr != nil {
			return denyWithDetails(ReasonYouTubeVerificationFailed, "space owner has no usable google credential")
		}
		passed, err = e.youtube.CheckMembership(ctx, ownerCredential.AccessToken, credential.AccessToken)
	default:
		return denyWithDetails(ReasonYouTubeVerificationFailed, "unknown youtube requirement "+string(rule.YouTube.Requirement))
	}
	if err != nil {
		return classifyVerifierError(err, ReasonYouTubeTokenExpired, ReasonYouTubeVerificationFailed)
	}
	if !passed {
		if rule.YouTube.Requirement == RequirementMember {
			return deny(ReasonYouTubeNotMember)
		}
		return deny(ReasonYouTubeNotSubscribed)
	}
	return allow()
}

func (e *Evaluator) checkTwitch(ctx context.Context, rule *TwitchRule, userID string) Result {
	credential, err := e.credentials.Get(ctx, userID, model.ProviderTwitch)
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		return deny(ReasonTwitchVerificationRequired)
	}
	if err != nil {
		return denyWithDetails(ReasonTwitchVerificationFailed, err.Error())
	}

	var passed bool
	switch rule.Requirement {
	case RequirementFollower:
		passed, err = e.twitch.CheckFollow(ctx, credential.AccessToken, rule.BroadcasterID)
	case RequirementSubscriber:
		passed, err = e.twitch.CheckSubscription(ctx, credential.AccessToken, rule.BroadcasterID)
	default:
		return denyWithDetails(ReasonTwitchVerificationFailed, "unknown twitch requirement "+string(rule.Requirement))
	}
	if err != nil {
		return classifyVerifierError(err, ReasonTwitchTokenExpired, ReasonTwitchVerificationFailed)
	}
	if !passed {
		if rule.Requirement == RequirementFollower {
			return deny(ReasonTwitchNotFollowing)
		}
		return deny(ReasonTwitchNotSubscribed)
	}
	return allow()
}

func classifyVerifierError(err error, expiredCode ReasonCode, failedCode ReasonCode) Result {
	if errors.Is(err, verify.ErrTokenExpired) {
		return deny(expiredCode)
	}
	return denyWithDetails(failedCode, err.Error())
}

func decisionCacheKey(rule Rule, userID string, email string) string {
	var youtubePart, twitchPart, emailPart string
	if rule.YouTube.Active() {
		youtubePart = rule.YouTube.ChannelID + ":" + string(rule.YouTube.Requirement)
	}
	if rule.Twitch.Active() {
		twitchPart = rule.Twitch.BroadcasterID + ":" + string(rule.Twitch.Requirement)
	}
	if rule.Email.Active() {
		emailPart = strings.Join(rule.Email.Allowed, ",")
	}
	return common.CalculateHash(userID, email, rule.OwnerID, emailPart, youtubePart, twitchPart)
}
