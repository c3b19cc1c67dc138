package gatekeeper

// Requirement names the relationship a space demands from a joining user.
type Requirement string

const (
	RequirementNone       Requirement = "none"
	RequirementSubscriber Requirement = "subscriber"
	RequirementMember     Requirement = "member"
	RequirementFollower   Requirement = "follower"
)

type EmailRule struct {
	Allowed []string `json:"allowed"`
}

type YouTubeRule struct {
	ChannelID   string      `json:"channelId"`
	Requirement Requirement `json:"requirement"`
}

type TwitchRule struct {
	BroadcasterID string      `json:"broadcasterId"`
	Requirement   Requirement `json:"requirement"`
}

// Rule is the declarative access policy attached to a space. OwnerID is the
// space owner's user id; membership checks need the owner's credential
// because membership lists are only visible to the channel owner.
type Rule struct {
	OwnerID string       `json:"ownerId"`
	Email   *EmailRule   `json:"email,omitempty"`
	YouTube *YouTubeRule `json:"youtube,omitempty"`
	Twitch  *TwitchRule  `json:"twitch,omitempty"`
}

// A requirement of "none" is equivalent to no rule at all and never blocks;
// same for an email rule with an empty allowlist.
func (r *EmailRule) Active() bool {
	return r != nil && len(r.Allowed) > 0
}

func (r *YouTubeRule) Active() bool {
	return r != nil && r.Requirement != "" && r.Requirement != RequirementNone
}

func (r *TwitchRule) Active() bool {
	return r != nil && r.Requirement != "" && r.Requirement != RequirementNone
}
