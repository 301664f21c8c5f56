// Package throttle rate-limits calls into an offer source.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/beetlebot/rewards-cli/internal/core"
)

// Adapter wraps an OfferAdapter and waits on a token bucket before every
// search. Waiting honours the caller's context.
type Adapter struct {
	core.OfferAdapter
	limiter *rate.Limiter
}

// Wrap returns a unchanged when perSecond <= 0.
func Wrap(a core.OfferAdapter, perSecond float64, burst int) core.OfferAdapter {
	if perSecond <= 0 {
		return a
	}
	if burst < 1 {
		burst = 1
	}
	return &Adapter{OfferAdapter: a, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (a *Adapter) SearchOffers(ctx context.Context, q core.OfferQuery) ([]core.Offer, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: rate limit: %w", a.Name(), err)
	}
	return a.OfferAdapter.SearchOffers(ctx, q)
}
