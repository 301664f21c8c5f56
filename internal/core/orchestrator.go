package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrchestratorOptions struct {
	Synthesizer SynthesizerOptions
	// FeeEstimateRate estimates flight fees as a share of the cash price when
	// an offer carries no taxes figure. 0 leaves such fees unknown.
	FeeEstimateRate float64
	Limit           int
	Logger          *slog.Logger
}

type Orchestrator struct {
	router     *Router
	ref        ReferenceData
	estimator  *DistanceEstimator
	classifier *TierClassifier
	opts       OrchestratorOptions
	log        *slog.Logger
}

func NewOrchestrator(router *Router, ref ReferenceData, opts OrchestratorOptions) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Synthesizer.Logger == nil {
		opts.Synthesizer.Logger = log
	}
	estimator := NewDistanceEstimator(ref.Airports)
	return &Orchestrator{
		router:     router,
		ref:        ref,
		estimator:  estimator,
		classifier: NewTierClassifier(estimator, ref.Chart),
		opts:       opts,
		log:        log,
	}
}

type validatedRequest struct {
	origin      AirportCode
	destination AirportCode
	date        time.Time
	preference  Preference
	hubs        []AirportCode
	limit       int
}

func (o *Orchestrator) validate(req OptimizeRequest) (validatedRequest, error) {
	var v validatedRequest
	var err error

	if req.Balance < 0 {
		return v, fmt.Errorf("%w: %d", ErrNegativeBalance, req.Balance)
	}
	if v.origin, err = ParseAirportCode(req.Origin); err != nil {
		return v, fmt.Errorf("origin: %w", err)
	}
	if v.destination, err = ParseAirportCode(req.Destination); err != nil {
		return v, fmt.Errorf("destination: %w", err)
	}
	if v.origin == v.destination {
		return v, fmt.Errorf("%w: origin and destination are both %s", ErrInvalidAirport, v.origin)
	}
	if v.date, err = ParseDate(req.Date); err != nil {
		return v, err
	}
	if v.preference, err = ParsePreference(req.Preference); err != nil {
		return v, err
	}

	v.hubs = o.ref.Hubs
	if len(req.Hubs) > 0 {
		v.hubs = make([]AirportCode, 0, len(req.Hubs))
		for _, h := range req.Hubs {
			code, err := ParseAirportCode(h)
			if err != nil {
				return v, fmt.Errorf("hub: %w", err)
			}
			v.hubs = append(v.hubs, code)
		}
	}

	v.limit = o.opts.Limit
	if req.Limit > 0 {
		v.limit = req.Limit
	}
	return v, nil
}

// Optimize validates req, synthesizes routes, prices them in miles and ranks
// them together with the catalog. Validation errors are returned before any
// search starts; search failures only shrink the candidate set.
func (o *Orchestrator) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	v, err := o.validate(req)
	if err != nil {
		return nil, err
	}

	synth := NewSynthesizer(o.router.Searcher(), o.estimator, o.opts.Synthesizer)
	synthesis, err := synth.Synthesize(ctx, SynthesisRequest{
		Origin:      v.origin,
		Destination: v.destination,
		Date:        v.date,
		Hubs:        v.hubs,
	})
	if err != nil {
		return nil, err
	}

	exclusions := append([]Exclusion(nil), synthesis.Exclusions...)
	candidates := make([]Candidate, 0, len(synthesis.Routes)+len(o.ref.Catalog))
	for _, route := range synthesis.Routes {
		c, excl := o.flightCandidate(route)
		if excl != nil {
			exclusions = append(exclusions, *excl)
			continue
		}
		candidates = append(candidates, c)
	}
	if !req.SkipCatalog {
		for _, item := range o.ref.Catalog {
			candidates = append(candidates, item.Candidate(o.ref.Valuations))
		}
	}

	ranking, err := Rank(candidates, req.Balance, v.preference, v.limit)
	if err != nil {
		return nil, err
	}
	exclusions = append(exclusions, ranking.Exclusions...)

	o.log.Info("optimization complete",
		"origin", v.origin,
		"destination", v.destination,
		"date", v.date.Format(DateLayout),
		"preference", v.preference,
		"candidates", len(candidates),
		"affordable", ranking.Affordable,
		"relaxed", ranking.PreferenceRelaxed,
		"complete", synthesis.Complete,
	)

	return &OptimizeResult{
		RequestID:         uuid.NewString(),
		Query:             req,
		Mode:              o.router.Mode(),
		Preference:        v.preference,
		PreferenceRelaxed: ranking.PreferenceRelaxed,
		Complete:          synthesis.Complete,
		Recommendations:   ranking.Recommendations,
		TotalCandidates:   len(candidates),
		Affordable:        ranking.Affordable,
		Searches:          synthesis.Searches,
		Exclusions:        exclusions,
		FetchedAt:         time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) flightCandidate(route Route) (Candidate, *Exclusion) {
	miles, _, err := o.classifier.RouteMiles(route)
	if err != nil {
		return Candidate{}, &Exclusion{Reason: ExcludeTierUndeterminable, Detail: err.Error()}
	}

	program := route.Legs[0].Airline
	c := Candidate{
		ID:             "flight:" + route.Key(),
		Kind:           KindFlight,
		Name:           o.routeName(route),
		Program:        program,
		Route:          &route,
		CashValue:      route.TotalPrice,
		Fees:           route.Fees(),
		PointsRequired: miles,
		Baseline:       o.ref.Valuations.Baseline(KindFlight, program),
	}
	if c.Fees == nil && o.opts.FeeEstimateRate > 0 {
		est := Money{
			Cents:    int64(math.Round(float64(route.TotalPrice.Cents) * o.opts.FeeEstimateRate)),
			Currency: route.TotalPrice.Currency,
		}
		c.Fees = &est
		c.FeesEstimated = true
	}
	return c, nil
}

func (o *Orchestrator) routeName(r Route) string {
	stops := []string{string(r.Origin)}
	if r.Hub != "" {
		stops = append(stops, string(r.Hub))
	}
	stops = append(stops, string(r.Destination))

	flights := make([]string, 0, len(r.Legs))
	for _, leg := range r.Legs {
		label := leg.FlightNumber
		if label == "" {
			label = leg.Airline
			if name, ok := o.ref.Carriers[leg.Airline]; ok {
				label = name
			}
		}
		flights = append(flights, label)
	}
	return strings.Join(stops, "-") + " " + strings.Join(flights, "+")
}

// Distance serves the distance command outside of a full optimization.
func (o *Orchestrator) Distance(a, b AirportCode) (float64, bool) {
	return o.estimator.Distance(a, b)
}

func (o *Orchestrator) ClassifyLeg(a, b AirportCode) (TierAssignment, error) {
	return o.classifier.ClassifyLeg(a, b)
}
