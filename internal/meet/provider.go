// Package meet creates one-off video rooms for roast sessions. Providers are
// interchangeable: the rest of the app only ever needs a join URL back.
package meet

import (
	"context"
)

type Provider interface {
	// CreateRoom returns the join URL for a fresh room.
	CreateRoom(ctx context.Context) (string, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	// DailyAPIKey enables the Daily.co provider. When empty, rooms fall
	// back to keyless public Jitsi links.
	DailyAPIKey string
}

// NewProvider picks the best available provider for the given options.
// With a Daily API key the Daily provider is used, with Jitsi as a runtime
// fallback so a provider outage degrades to a public room instead of
// blocking queue advancement.
func NewProvider(opts Options) Provider {
	jitsi := NewJitsiProvider()
	if opts.DailyAPIKey == "" {
		return jitsi
	}
	return withFallback(NewDailyProvider(opts.DailyAPIKey), jitsi)
}
