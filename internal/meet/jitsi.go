package meet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// JitsiProvider builds links to public meet.jit.si rooms. No API key, no
// server-side state: the room exists once anyone opens the URL.
type JitsiProvider struct{}

func NewJitsiProvider() *JitsiProvider {
	return &JitsiProvider{}
}

func (p *JitsiProvider) Name() string {
	return "jitsi"
}

func (p *JitsiProvider) CreateRoom(_ context.Context) (string, error) {
	return fmt.Sprintf("https://meet.jit.si/MYC-Roast-%s", uuid.NewString()), nil
}

// fallbackProvider tries the primary and falls back on error.
type fallbackProvider struct {
	primary  Provider
	fallback Provider
}

func withFallback(primary, fallback Provider) Provider {
	return &fallbackProvider{primary: primary, fallback: fallback}
}

func (p *fallbackProvider) Name() string {
	return p.primary.Name()
}

func (p *fallbackProvider) CreateRoom(ctx context.Context) (string, error) {
	url, err := p.primary.CreateRoom(ctx)
	if err == nil {
		return url, nil
	}

	log.Warn().
		Err(err).
		Str("provider", p.primary.Name()).
		Str("fallback", p.fallback.Name()).
		Msg("meeting provider failed, using fallback")

	return p.fallback.CreateRoom(ctx)
}
