package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/beetlebot/rewards-cli/internal/core"
)

// OffersAdapter serves repeated queries from a Store. Only successful
// searches are cached, so a failing provider is retried on the next run.
type OffersAdapter struct {
	core.OfferAdapter
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

func Wrap(a core.OfferAdapter, store Store, ttl time.Duration, log *slog.Logger) core.OfferAdapter {
	if store == nil || ttl <= 0 {
		return a
	}
	if log == nil {
		log = slog.Default()
	}
	return &OffersAdapter{OfferAdapter: a, store: store, ttl: ttl, log: log}
}

func (c *OffersAdapter) key(q core.OfferQuery) string {
	return CacheKey("offers", c.Name(), string(q.Origin), string(q.Destination), q.Date.Format(core.DateLayout))
}

func (c *OffersAdapter) SearchOffers(ctx context.Context, q core.OfferQuery) ([]core.Offer, error) {
	key := c.key(q)
	if data, ok := c.store.Get(ctx, key); ok {
		var offers []core.Offer
		if err := json.Unmarshal(data, &offers); err == nil {
			c.log.Debug("offer cache hit", "provider", c.Name(), "query", q.String())
			return offers, nil
		}
	}

	offers, err := c.OfferAdapter.SearchOffers(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(offers); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.log.Warn("offer cache write failed", "provider", c.Name(), "error", err)
		}
	}
	return offers, nil
}
