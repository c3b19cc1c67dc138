package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrPayloadInvalid = errors.New("webhook payload invalid")
	ErrUnknownAction  = errors.New("unknown email action type")
)

// ActionType is the closed set of auth-email actions the identity backend
// emits. Anything else is a 400, never a silent no-op.
type ActionType string

const (
	ActionSignup          ActionType = "signup"
	ActionInvite          ActionType = "invite"
	ActionMagicLink       ActionType = "magiclink"
	ActionRecovery        ActionType = "recovery"
	ActionEmailChange     ActionType = "email_change"
	ActionEmailChanged    ActionType = "email_changed"
	ActionPasswordChanged ActionType = "password_changed"
)

var knownActions = map[ActionType]struct{}{
	ActionSignup:          {},
	ActionInvite:          {},
	ActionMagicLink:       {},
	ActionRecovery:        {},
	ActionEmailChange:     {},
	ActionEmailChanged:    {},
	ActionPasswordChanged: {},
}

type EventUser struct {
	Email    string         `json:"email"`
	NewEmail string         `json:"new_email"`
	Metadata map[string]any `json:"metadata"`
}

type EventEmail struct {
	ActionType   ActionType `json:"email_action_type"`
	Token        string     `json:"token"`
	TokenHash    string     `json:"token_hash"`
	TokenNew     string     `json:"token_new"`
	TokenHashNew string     `json:"token_hash_new"`
	RedirectTo   string     `json:"redirect_to"`
	SiteURL      string     `json:"site_url"`
}

// Event is the normalized auth-email payload.
type Event struct {
	User  EventUser  `json:"user"`
	Email EventEmail `json:"email"`
}

func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	if event.User.Email == "" {
		return nil, fmt.Errorf("%w: user email is missing", ErrPayloadInvalid)
	}
	if event.Email.ActionType == "" {
		return nil, fmt.Errorf("%w: email_action_type is missing", ErrPayloadInvalid)
	}
	if _, ok := knownActions[event.Email.ActionType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, event.Email.ActionType)
	}
	return &event, nil
}
