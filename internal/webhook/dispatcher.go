package webhook

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bingospaces/gatekeeper/internal/mail"
	"github.com/bingospaces/gatekeeper/internal/render"
	"github.com/spf13/cast"
)

// emailSpec is one row of the static action table: which template renders the
// body, the subject line, and how the verification link is built. Notice-only
// actions carry no link.
type emailSpec struct {
	Template    string
	Subject     string
	VerifyType  string // ?type= value in the verification link, empty for notices
	UsesNewHash bool   // email_change verifies the incoming address
}

var emailTable = map[ActionType]emailSpec{
	ActionSignup:          {Template: "mail/confirm-signup", Subject: "Confirm your email address", VerifyType: "signup"},
	ActionInvite:          {Template: "mail/invite", Subject: "You have been invited", VerifyType: "invite"},
	ActionMagicLink:       {Template: "mail/magic-link", Subject: "Your sign-in link", VerifyType: "magiclink"},
	ActionRecovery:        {Template: "mail/reset-password", Subject: "Reset your password", VerifyType: "recovery"},
	ActionEmailChange:     {Template: "mail/change-email", Subject: "Confirm your new email address", VerifyType: "email_change", UsesNewHash: true},
	ActionEmailChanged:    {Template: "mail/email-changed-notice", Subject: "Your email address was changed"},
	ActionPasswordChanged: {Template: "mail/password-changed-notice", Subject: "Your password was changed"},
}

// Dispatcher turns a verified auth-email event into exactly one outbound
// message.
type Dispatcher struct {
	sender  mail.MailSender
	siteURL string
}

func NewDispatcher(sender mail.MailSender, siteURL string) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		siteURL: siteURL,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	spec, ok := emailTable[event.Email.ActionType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, event.Email.ActionType)
	}

	displayName := cast.ToString(event.User.Metadata["display_name"])
	if displayName == "" {
		displayName = event.User.Email
	}
	vars := map[string]interface{}{
		"displayName": displayName,
		"otpCode":     event.Email.Token,
		"newEmail":    event.User.NewEmail,
	}
	if spec.VerifyType != "" {
		vars["verifyURL"] = d.verifyURL(spec, &event.Email)
	}

	body, err := render.RenderHTML(spec.Template, vars)
	if err != nil {
		return err
	}
	return d.sender.Send(&mail.Message{
		To:      []string{event.User.Email},
		Subject: spec.Subject,
		Body:    body,
		IsHTML:  true,
	})
}

func (d *Dispatcher) verifyURL(spec emailSpec, email *EventEmail) string {
	tokenHash := email.TokenHash
	if spec.UsesNewHash && email.TokenHashNew != "" {
		tokenHash = email.TokenHashNew
	}
	query := url.Values{
		"token_hash": {tokenHash},
		"type":       {spec.VerifyType},
	}
	if email.RedirectTo != "" {
		query.Set("redirect_to", email.RedirectTo)
	}
	return d.siteURL + "/auth/confirm?" + query.Encode()
}
