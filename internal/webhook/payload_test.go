package webhook

import (
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"user": {"email": "alice@example.com", "metadata": {"display_name": "Alice"}},
		"email": {"email_action_type": "signup", "token": "123456", "token_hash": "hash", "redirect_to": "https://app.test/welcome"}
	}`)
	event, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if event.User.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", event.User.Email)
	}
	if event.Email.ActionType != ActionSignup {
		t.Errorf("unexpected action %q", event.Email.ActionType)
	}
	if event.Email.RedirectTo != "https://app.test/welcome" {
		t.Errorf("unexpected redirect %q", event.Email.RedirectTo)
	}
}

func TestParseEventInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"malformed json", `{not json`, ErrPayloadInvalid},
		{"missing email", `{"email":{"email_action_type":"signup"}}`, ErrPayloadInvalid},
		{"missing action", `{"user":{"email":"a@b.com"}}`, ErrPayloadInvalid},
		{"unknown action", `{"user":{"email":"a@b.com"},"email":{"email_action_type":"teleport"}}`, ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseEvent([]byte(tc.body)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
