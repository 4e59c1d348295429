package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	resendEmailsURL = "https://api.resend.com/emails"
	resendTimeout   = 10 * time.Second
)

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	apiKey string
	from   string
	client *http.Client

	// baseURL is overridable for tests.
	baseURL string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: resendTimeout},
		baseURL: resendEmailsURL,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Str("to", msg.To).Dur("elapsed", elapsed).Msg("email send failed")
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().
			Int("status", resp.StatusCode).
			Str("to", msg.To).
			Str("detail", string(detail)).
			Dur("elapsed", elapsed).
			Msg("email send rejected")
		return fmt.Errorf("email API error: status %d", resp.StatusCode)
	}

	log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Dur("elapsed", elapsed).Msg("email sent")
	return nil
}
