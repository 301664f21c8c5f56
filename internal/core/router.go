package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beetlebot/rewards-cli/internal/config"
)

type Router struct {
	cfg      *config.Config
	adapters []OfferAdapter
	log      *slog.Logger
}

func NewRouter(cfg *config.Config) *Router {
	return &Router{cfg: cfg, log: slog.Default()}
}

func (r *Router) WithLogger(log *slog.Logger) *Router {
	if log != nil {
		r.log = log
	}
	return r
}

func (r *Router) Register(a OfferAdapter) {
	r.adapters = append(r.adapters, a)
}

func (r *Router) Mode() config.Mode { return r.cfg.Mode }

func (r *Router) ActiveAdapters() []OfferAdapter {
	var out []OfferAdapter
	for _, a := range r.adapters {
		if r.shouldUse(a) {
			out = append(out, a)
		}
	}
	return out
}

func (r *Router) shouldUse(a OfferAdapter) bool {
	if !r.cfg.ProviderEnabled(a.Name()) {
		return false
	}
	avail, _ := a.Available()
	switch r.cfg.Mode {
	case config.ModeMock:
		return isMockProvider(a.Name())
	case config.ModeLive:
		return !isMockProvider(a.Name()) && avail
	case config.ModeHybrid:
		if !isMockProvider(a.Name()) {
			return avail
		}
		return r.noLiveAlternative()
	}
	return false
}

func (r *Router) noLiveAlternative() bool {
	for _, a := range r.adapters {
		if isMockProvider(a.Name()) || !r.cfg.ProviderEnabled(a.Name()) {
			continue
		}
		if avail, _ := a.Available(); avail {
			return false
		}
	}
	return true
}

func isMockProvider(name string) bool {
	return strings.HasPrefix(name, "mock_")
}

func (r *Router) ProviderInfos() []ProviderInfo {
	infos := make([]ProviderInfo, 0, len(r.adapters))
	for _, a := range r.adapters {
		info := ProviderInfo{
			Name:         a.Name(),
			Capabilities: a.Capabilities(),
			Tier:         a.Tier(),
		}
		if avail, reason := a.Available(); avail {
			info.Status = "active"
		} else {
			info.Status = "no_credentials"
			info.Reason = reason
		}
		switch {
		case !r.cfg.ProviderEnabled(a.Name()):
			info.Status = "disabled"
			info.Reason = "disabled in config"
		case r.cfg.Mode == config.ModeMock && !isMockProvider(a.Name()):
			info.Status = "inactive"
			info.Reason = "mode is mock"
		case r.cfg.Mode != config.ModeMock && isMockProvider(a.Name()) && !r.shouldUse(a):
			info.Status = "inactive"
			info.Reason = fmt.Sprintf("mode is %s", r.cfg.Mode)
		}
		infos = append(infos, info)
	}
	return infos
}

// Searcher merges every active adapter into one OfferSearcher.
func (r *Router) Searcher() OfferSearcher {
	return &mergedSearcher{adapters: r.ActiveAdapters(), log: r.log}
}

type mergedSearcher struct {
	adapters []OfferAdapter
	log      *slog.Logger
}

func (m *mergedSearcher) Name() string { return "router" }

// SearchOffers fails with ErrSearchUnavailable only when no adapter answered.
// When some adapters answered and others failed, the answered offers come
// back together with an error wrapping ErrPartialResults.
func (m *mergedSearcher) SearchOffers(ctx context.Context, q OfferQuery) ([]Offer, error) {
	if len(m.adapters) == 0 {
		return nil, fmt.Errorf("%w: no active offer providers", ErrSearchUnavailable)
	}

	var (
		offers   []Offer
		errs     []error
		answered int
	)
	for _, a := range m.adapters {
		res, err := a.SearchOffers(ctx, q)
		if err != nil {
			m.log.Debug("provider search failed", "provider", a.Name(), "query", q.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Name(), err))
			continue
		}
		answered++
		offers = append(offers, res...)
	}

	if answered == 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, errors.Join(errs...))
	}
	offers = DedupeOffers(offers)
	if len(errs) > 0 {
		m.log.Warn("some providers failed",
			"query", q.String(),
			"answered", answered,
			"failed", len(errs),
			"offers", len(offers),
		)
		return offers, fmt.Errorf("%w: %w", ErrPartialResults, errors.Join(errs...))
	}
	return offers, nil
}

// DedupeOffers keeps the first offer seen per carrier, flight and departure.
func DedupeOffers(offers []Offer) []Offer {
	seen := make(map[string]bool, len(offers))
	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		key := o.Airline + o.FlightNumber + string(o.Origin) + string(o.Destination) + o.Date.Format(DateLayout)
		if o.DepartTime != nil {
			key += o.DepartTime.UTC().String()
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}
