package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxWorkers    = 5
	defaultSearchTimeout = 15 * time.Second
)

type UnknownLayoverPolicy string

const (
	UnknownLayoverInclude UnknownLayoverPolicy = "include"
	UnknownLayoverExclude UnknownLayoverPolicy = "exclude"
)

type SynthesizerOptions struct {
	MaxWorkers       int
	SearchTimeout    time.Duration
	MaxLayoverHours  float64
	LayoverDayOffset int
	UnknownLayover   UnknownLayoverPolicy
	// MaxLegOptions keeps the N cheapest offers per searched pair; 0 keeps all.
	MaxLegOptions int
	Observer      SearchObserver
	Logger        *slog.Logger
}

type Synthesizer struct {
	searcher  OfferSearcher
	estimator *DistanceEstimator
	opts      SynthesizerOptions
	log       *slog.Logger
}

func NewSynthesizer(searcher OfferSearcher, estimator *DistanceEstimator, opts SynthesizerOptions) *Synthesizer {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = defaultSearchTimeout
	}
	if opts.UnknownLayover == "" {
		opts.UnknownLayover = UnknownLayoverInclude
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{searcher: searcher, estimator: estimator, opts: opts, log: log}
}

type SynthesisRequest struct {
	Origin      AirportCode
	Destination AirportCode
	Date        time.Time
	Hubs        []AirportCode
}

type Synthesis struct {
	Routes     []Route
	Searches   []SearchOutcome
	Exclusions []Exclusion
	// Complete is false when at least one pair search did not finish cleanly.
	Complete bool
}

type pairResult struct {
	query   OfferQuery
	offers  []Offer
	outcome SearchOutcome
}

func (s *Synthesizer) Synthesize(ctx context.Context, req SynthesisRequest) (*Synthesis, error) {
	if req.Origin == "" || req.Destination == "" {
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidAirport)
	}
	if req.Origin == req.Destination {
		return nil, fmt.Errorf("%w: origin equals destination %s", ErrInvalidAirport, req.Origin)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}

	hubs := validHubs(req)
	layoverDate := req.Date.AddDate(0, 0, s.opts.LayoverDayOffset)

	queries := []OfferQuery{{Origin: req.Origin, Destination: req.Destination, Date: req.Date}}
	for _, hub := range hubs {
		queries = append(queries,
			OfferQuery{Origin: req.Origin, Destination: hub, Date: req.Date},
			OfferQuery{Origin: hub, Destination: req.Destination, Date: layoverDate},
		)
	}

	results := s.searchAll(ctx, queries)

	out := &Synthesis{Complete: true}
	for _, r := range results {
		out.Searches = append(out.Searches, r.outcome)
		switch r.outcome.Status {
		case SearchOK, SearchEmpty:
		default:
			out.Complete = false
		}
	}

	direct := s.legs(results[0], &out.Exclusions)
	for _, offer := range direct {
		route, err := NewRoute(offer)
		if err != nil {
			out.Exclusions = append(out.Exclusions, Exclusion{Reason: ExcludeLegMismatch, Detail: err.Error()})
			continue
		}
		out.Routes = append(out.Routes, route.withDistance(s.estimator))
	}

	for i := range hubs {
		first := s.legs(results[1+2*i], &out.Exclusions)
		second := s.legs(results[2+2*i], &out.Exclusions)
		for _, leg1 := range first {
			for _, leg2 := range second {
				route, excl := s.connect(leg1, leg2)
				if excl != nil {
					out.Exclusions = append(out.Exclusions, *excl)
					continue
				}
				out.Routes = append(out.Routes, route.withDistance(s.estimator))
			}
		}
	}

	SortRoutes(out.Routes)

	s.log.Debug("routes synthesized",
		"origin", req.Origin,
		"destination", req.Destination,
		"hubs", len(hubs),
		"routes", len(out.Routes),
		"exclusions", len(out.Exclusions),
		"complete", out.Complete,
	)
	return out, nil
}

func validHubs(req SynthesisRequest) []AirportCode {
	seen := make(map[AirportCode]bool, len(req.Hubs))
	hubs := make([]AirportCode, 0, len(req.Hubs))
	for _, h := range req.Hubs {
		if h == "" || h == req.Origin || h == req.Destination || seen[h] {
			continue
		}
		seen[h] = true
		hubs = append(hubs, h)
	}
	return hubs
}

// searchAll runs every query on a bounded pool. Slot i always holds the
// result for queries[i], whatever order the searches complete in.
func (s *Synthesizer) searchAll(ctx context.Context, queries []OfferQuery) []pairResult {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	results := make([]pairResult, len(queries))
	g := new(errgroup.Group)
	g.SetLimit(s.opts.MaxWorkers)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results[i] = s.searchOne(ctx, q)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Synthesizer) searchOne(ctx context.Context, q OfferQuery) pairResult {
	start := time.Now()
	res := pairResult{query: q, outcome: SearchOutcome{
		Origin:      q.Origin,
		Destination: q.Destination,
		Date:        q.Date.Format(DateLayout),
	}}

	type reply struct {
		offers []Offer
		err    error
	}
	done := make(chan reply, 1)

	if ctx.Err() == nil {
		go func() {
			offers, err := s.searcher.SearchOffers(ctx, q)
			done <- reply{offers: offers, err: err}
		}()
	}

	select {
	case r := <-done:
		res.offers = r.offers
		switch {
		case r.err == nil && len(r.offers) == 0:
			res.outcome.Status = SearchEmpty
		case r.err == nil:
			res.outcome.Status = SearchOK
		case errors.Is(r.err, ErrPartialResults):
			res.outcome.Status = SearchPartial
			res.outcome.Reason = r.err.Error()
		case errors.Is(r.err, context.DeadlineExceeded):
			res.outcome.Status = SearchTimeout
			res.outcome.Reason = r.err.Error()
			res.offers = nil
		case errors.Is(r.err, ErrSearchUnavailable):
			res.outcome.Status = SearchUnavailable
			res.outcome.Reason = r.err.Error()
			res.offers = nil
		default:
			res.outcome.Status = SearchFailed
			res.outcome.Reason = r.err.Error()
			res.offers = nil
		}
	case <-ctx.Done():
		res.outcome.Status = SearchTimeout
		res.outcome.Reason = "search did not finish before the deadline"
	}
	res.outcome.Offers = len(res.offers)
	res.outcome.Elapsed = time.Since(start)

	switch res.outcome.Status {
	case SearchOK, SearchEmpty:
	case SearchPartial:
		s.log.Warn("offer search partial",
			"query", q.String(),
			"offers", len(res.offers),
			"reason", res.outcome.Reason,
		)
	default:
		s.log.Warn("offer search skipped",
			"query", q.String(),
			"status", res.outcome.Status,
			"reason", res.outcome.Reason,
		)
	}
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveSearch(res.outcome)
	}
	return res
}

// legs drops offers that do not match the searched pair and keeps the
// cheapest MaxLegOptions of the rest.
func (s *Synthesizer) legs(r pairResult, excl *[]Exclusion) []Offer {
	legs := make([]Offer, 0, len(r.offers))
	for _, o := range r.offers {
		if o.Origin != r.query.Origin || o.Destination != r.query.Destination {
			*excl = append(*excl, Exclusion{
				Reason: ExcludeLegMismatch,
				Detail: fmt.Sprintf("offer %s is %s-%s, searched %s", o.ID, o.Origin, o.Destination, r.query),
			})
			continue
		}
		legs = append(legs, o)
	}
	sortOffers(legs)
	if s.opts.MaxLegOptions > 0 && len(legs) > s.opts.MaxLegOptions {
		legs = legs[:s.opts.MaxLegOptions]
	}
	return legs
}

func (s *Synthesizer) connect(leg1, leg2 Offer) (Route, *Exclusion) {
	if leg1.Price.Currency != leg2.Price.Currency {
		return Route{}, &Exclusion{
			Reason: ExcludeCurrencyMismatch,
			Detail: fmt.Sprintf("%s in %s, %s in %s", leg1.ID, leg1.Price.Currency, leg2.ID, leg2.Price.Currency),
		}
	}

	route, err := NewRoute(leg1, leg2)
	if err != nil {
		return Route{}, &Exclusion{Reason: ExcludeLegMismatch, Detail: err.Error()}
	}

	if leg1.ArriveTime == nil || leg2.DepartTime == nil {
		if s.opts.UnknownLayover == UnknownLayoverExclude {
			return Route{}, &Exclusion{
				Reason: ExcludeLayoverUnknown,
				Detail: fmt.Sprintf("%s+%s via %s: missing arrival or departure time", leg1.ID, leg2.ID, route.Hub),
			}
		}
		route.Layover = LayoverUnknown
		return route, nil
	}

	hours := leg2.DepartTime.Sub(*leg1.ArriveTime).Hours()
	if hours < 0 {
		return Route{}, &Exclusion{
			Reason: ExcludeLayoverNegative,
			Detail: fmt.Sprintf("%s+%s via %s: departs %.1fh before arrival", leg1.ID, leg2.ID, route.Hub, -hours),
		}
	}
	if s.opts.MaxLayoverHours > 0 && hours > s.opts.MaxLayoverHours {
		return Route{}, &Exclusion{
			Reason: ExcludeLayoverExceeded,
			Detail: fmt.Sprintf("%s+%s via %s: layover %.1fh exceeds %.1fh", leg1.ID, leg2.ID, route.Hub, hours, s.opts.MaxLayoverHours),
		}
	}
	hours = round2(hours)
	route.LayoverHours = &hours
	route.Layover = LayoverOK
	return route, nil
}

func sortOffers(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if a.Price.Cents != b.Price.Cents {
			return a.Price.Cents < b.Price.Cents
		}
		if a.Airline != b.Airline {
			return a.Airline < b.Airline
		}
		if a.FlightNumber != b.FlightNumber {
			return a.FlightNumber < b.FlightNumber
		}
		return a.ID < b.ID
	})
}

// SortRoutes orders by total price, then first-leg airline, then hub, then
// the legs themselves.
func SortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.TotalPrice.Cents != b.TotalPrice.Cents {
			return a.TotalPrice.Cents < b.TotalPrice.Cents
		}
		if a.TotalPrice.Currency != b.TotalPrice.Currency {
			return a.TotalPrice.Currency < b.TotalPrice.Currency
		}
		if a.Legs[0].Airline != b.Legs[0].Airline {
			return a.Legs[0].Airline < b.Legs[0].Airline
		}
		if a.Hub != b.Hub {
			return a.Hub < b.Hub
		}
		return a.Key() < b.Key()
	})
}
