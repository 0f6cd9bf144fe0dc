package discord

import (
	"context"
	"time"

	"quotecard/internal/resilience"
	"quotecard/internal/session"
)

// GuardedFetcher wraps an [session.ImageFetcher] with a circuit breaker so a
// misbehaving CDN degrades cards to text-and-gradient instead of stalling
// every session on a timing-out download.
type GuardedFetcher struct {
	inner   session.ImageFetcher
	breaker *resilience.CircuitBreaker
}

var _ session.ImageFetcher = (*GuardedFetcher)(nil)

// NewGuardedFetcher wraps inner with a breaker tuned for CDN fetches.
func NewGuardedFetcher(inner session.ImageFetcher) *GuardedFetcher {
	return &GuardedFetcher{
		inner: inner,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "image-fetch",
			MaxFailures:  5,
			ResetTimeout: time.Minute,
		}),
	}
}

// Fetch implements [session.ImageFetcher].
func (g *GuardedFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	err := g.breaker.Execute(func() error {
		var err error
		data, err = g.inner.Fetch(ctx, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
