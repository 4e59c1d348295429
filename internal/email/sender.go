// Package email delivers transactional notifications. Every send in this
// app is best-effort: callers log failures and move on, they never roll
// back state because a mail bounced.
package email

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Options selects the sender implementation.
type Options struct {
	ResendAPIKey string
	From         string
}

// NewSender returns the Resend-backed sender when a key is configured and a
// log-only sender otherwise, so development environments work without one.
func NewSender(opts Options) Sender {
	if opts.ResendAPIKey == "" {
		return &LogSender{}
	}
	return NewResendSender(opts.ResendAPIKey, opts.From)
}

// LogSender logs instead of delivering. Used when no email API key is set.
type LogSender struct{}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email delivery disabled, logging only")
	return nil
}
