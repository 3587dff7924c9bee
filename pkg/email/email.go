// Package email sends transactional mail through the Resend API. Handlers
// depend on the Sender interface so tests and keyless dev setups can swap
// the implementation.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// Sender delivers the mail the auth flows need.
type Sender interface {
	// SendPasswordReset mails a reset link carrying the plaintext token.
	// Only the token's hash is ever stored server-side.
	SendPasswordReset(ctx context.Context, to, token string) error
}

type resendSender struct {
	client *resend.Client
	from   string
	appURL string
}

// NewResendSender builds a Sender backed by Resend. from must be an address
// under a domain verified in the Resend dashboard; appURL is the public
// frontend URL reset links point at.
func NewResendSender(apiKey, from, appURL string) Sender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		appURL: appURL,
	}
}

func (s *resendSender) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)

	html := fmt.Sprintf(`<p>We received a request to reset your docman password.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link expires in 20 minutes. If you didn't ask for this, ignore this email.</p>`, link)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("docman <%s>", s.from),
		To:      []string{to},
		Subject: "Reset your docman password",
		Html:    html,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

// NopSender drops all mail. Used when no API key is configured and in tests.
type NopSender struct{}

func (NopSender) SendPasswordReset(context.Context, string, string) error { return nil }
