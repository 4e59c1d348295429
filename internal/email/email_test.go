package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSender(t *testing.T) {
	t.Run("posts the message to the API", func(t *testing.T) {
		var got resendRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"id":"1"}`))
		}))
		defer server.Close()

		s := NewResendSender("test-key", "MYC <hello@myc-roast.com>")
		s.baseURL = server.URL

		err := s.Send(context.Background(), Message{
			To:      "founder@example.com",
			Subject: "hello",
			HTML:    "<p>hi</p>",
		})
		require.NoError(t, err)

		assert.Equal(t, "MYC <hello@myc-roast.com>", got.From)
		assert.Equal(t, []string{"founder@example.com"}, got.To)
		assert.Equal(t, "hello", got.Subject)
	})

	t.Run("returns error on API rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		s := NewResendSender("test-key", "MYC <hello@myc-roast.com>")
		s.baseURL = server.URL

		err := s.Send(context.Background(), Message{To: "x@example.com"})
		assert.Error(t, err)
	})
}

func TestLogSender(t *testing.T) {
	t.Run("never fails", func(t *testing.T) {
		s := &LogSender{}
		assert.NoError(t, s.Send(context.Background(), Message{To: "x@example.com"}))
	})
}

func TestNewSender(t *testing.T) {
	t.Run("log sender without key", func(t *testing.T) {
		_, ok := NewSender(Options{}).(*LogSender)
		assert.True(t, ok)
	})

	t.Run("resend sender with key", func(t *testing.T) {
		_, ok := NewSender(Options{ResendAPIKey: "k", From: "f"}).(*ResendSender)
		assert.True(t, ok)
	})
}

func TestTemplates(t *testing.T) {
	t.Run("your turn mentions the 2 minute window", func(t *testing.T) {
		msg := YourTurn("a@example.com", "Ada", "https://meet.jit.si/x")
		assert.Contains(t, msg.HTML, "2 minutes")
		assert.Contains(t, msg.HTML, "https://meet.jit.si/x")
	})

	t.Run("your turn falls back to neutral greeting", func(t *testing.T) {
		msg := YourTurn("a@example.com", "", "link")
		assert.Contains(t, msg.HTML, "Hi there")
	})

	t.Run("templates escape html in names", func(t *testing.T) {
		msg := NewRequest("r@example.com", "R", "<script>", "", "Pitch Deck")
		assert.NotContains(t, msg.HTML, "<script>")
	})
}
