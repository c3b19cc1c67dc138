package gatekeeper

// ReasonCode is the closed set of explanations a gate decision can carry.
// Denials stay specific so the caller can offer the right remediation: link
// an account, re-authenticate, or accept that the user does not qualify.
type ReasonCode string

const (
	ReasonOK              ReasonCode = "OK"
	ReasonEmailNotAllowed ReasonCode = "EMAIL_NOT_ALLOWED"

	ReasonYouTubeVerificationRequired ReasonCode = "YOUTUBE_VERIFICATION_REQUIRED"
	ReasonYouTubeTokenExpired         ReasonCode = "YOUTUBE_TOKEN_EXPIRED"
	ReasonYouTubeNotSubscribed        ReasonCode = "YOUTUBE_NOT_SUBSCRIBED"
	ReasonYouTubeNotMember            ReasonCode = "YOUTUBE_NOT_MEMBER"
	ReasonYouTubeVerificationFailed   ReasonCode = "YOUTUBE_VERIFICATION_FAILED"

	ReasonTwitchVerificationRequired ReasonCode = "TWITCH_VERIFICATION_REQUIRED"
	ReasonTwitchTokenExpired         ReasonCode = "TWITCH_TOKEN_EXPIRED"
	ReasonTwitchNotFollowing         ReasonCode = "TWITCH_NOT_FOLLOWING"
	ReasonTwitchNotSubscribed        ReasonCode = "TWITCH_NOT_SUBSCRIBED"
	ReasonTwitchVerificationFailed   ReasonCode = "TWITCH_VERIFICATION_FAILED"
)

type Result struct {
	Allowed    bool       `json:"allowed"`
	ReasonCode ReasonCode `json:"reasonCode"`
	Details    string     `json:"details,omitempty"`
}

func allow() Result {
	return Result{Allowed: true, ReasonCode: ReasonOK}
}

func deny(code ReasonCode) Result {
	return Result{Allowed: false, ReasonCode: code}
}

func denyWithDetails(code ReasonCode, details string) Result {
	return Result{Allowed: false, ReasonCode: code, Details: details}
}
