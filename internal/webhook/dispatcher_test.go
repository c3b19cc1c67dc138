package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bingospaces/gatekeeper/internal/mail"
	"github.com/bingospaces/gatekeeper/internal/render"
)

type captureSender struct {
	messages []*mail.Message
	err      error
}

func (s *captureSender) Send(message *mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

func initTestRender(t *testing.T) {
	t.Helper()
	if err := render.Initialize(map[string]interface{}{"siteName": "Bingo Spaces"}, ""); err != nil {
		t.Fatalf("render.Initialize failed: %v", err)
	}
}

func TestDispatchSignup(t *testing.T) {
	initTestRender(t)
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender, "https://app.test")

	event := &Event{
		User: EventUser{Email: "alice@example.com", Metadata: map[string]any{"display_name": "Alice"}},
		Email: EventEmail{
			ActionType: ActionSignup,
			Token:      "123456",
			TokenHash:  "abcdef",
			RedirectTo: "https://app.test/welcome",
		},
	}
	if err := dispatcher.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.messages))
	}

	msg := sender.messages[0]
	if msg.To[0] != "alice@example.com" {
		t.Errorf("unexpected recipient %v", msg.To)
	}
	if !msg.IsHTML {
		t.Error("expected HTML body")
	}
	if msg.Subject != "Confirm your email address" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"token_hash=abcdef", "type=signup", "Alice"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

// email_change verifies the incoming address, so the link carries the new
// token hash when present.
func TestDispatchEmailChangeUsesNewHash(t *testing.T) {
	initTestRender(t)
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender, "https://app.test")

	event := &Event{
		User: EventUser{Email: "alice@example.com", NewEmail: "alice@new.test"},
		Email: EventEmail{
			ActionType:   ActionEmailChange,
			TokenHash:    "old-hash",
			TokenHashNew: "new-hash",
		},
	}
	if err := dispatcher.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	body := sender.messages[0].Body
	if !strings.Contains(body, "token_hash=new-hash") {
		t.Errorf("expected new token hash in link, body: %s", body)
	}
	if strings.Contains(body, "old-hash") {
		t.Errorf("old token hash leaked into body: %s", body)
	}
}

// Notice-only actions inform the user; they carry no verification link.
func TestDispatchNoticeHasNoLink(t *testing.T) {
	initTestRender(t)
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender, "https://app.test")

	event := &Event{
		User:  EventUser{Email: "alice@example.com"},
		Email: EventEmail{ActionType: ActionPasswordChanged},
	}
	if err := dispatcher.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if strings.Contains(sender.messages[0].Body, "/auth/confirm") {
		t.Errorf("notice must not contain a verification link: %s", sender.messages[0].Body)
	}
}

func TestDispatchDisplayNameFallback(t *testing.T) {
	initTestRender(t)
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender, "https://app.test")

	event := &Event{
		User:  EventUser{Email: "bob@example.com"},
		Email: EventEmail{ActionType: ActionMagicLink, TokenHash: "hash"},
	}
	if err := dispatcher.Dispatch(context.Background(), event); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !strings.Contains(sender.messages[0].Body, "bob@example.com") {
		t.Error("expected email address as display name fallback")
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	initTestRender(t)
	dispatcher := NewDispatcher(&captureSender{}, "https://app.test")

	event := &Event{
		User:  EventUser{Email: "alice@example.com"},
		Email: EventEmail{ActionType: ActionType("teleport")},
	}
	if err := dispatcher.Dispatch(context.Background(), event); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestDispatchSenderFailure(t *testing.T) {
	initTestRender(t)
	dispatcher := NewDispatcher(&captureSender{err: errors.New("smtp: connection refused")}, "https://app.test")

	event := &Event{
		User:  EventUser{Email: "alice@example.com"},
		Email: EventEmail{ActionType: ActionSignup, TokenHash: "hash"},
	}
	if err := dispatcher.Dispatch(context.Background(), event); err == nil {
		t.Fatal("expected send error to surface")
	}
}

func TestEmailTableCoversAllActions(t *testing.T) {
	for action := range knownActions {
		if _, ok := emailTable[action]; !ok {
			t.Errorf("action %q has no email spec", action)
		}
	}
}
