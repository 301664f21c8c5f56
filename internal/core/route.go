package core

import (
	"fmt"
	"strings"
)

type LayoverStatus string

const (
	LayoverNone    LayoverStatus = "none"
	LayoverOK      LayoverStatus = "ok"
	LayoverUnknown LayoverStatus = "unknown"
)

// Route is a direct (one leg) or synthetic (two legs joined at Hub) itinerary.
type Route struct {
	Origin        AirportCode   `json:"origin"`
	Destination   AirportCode   `json:"destination"`
	Hub           AirportCode   `json:"hub,omitempty"`
	Legs          []Offer       `json:"legs"`
	TotalPrice    Money         `json:"totalPrice"`
	DistanceMiles *float64      `json:"distanceMiles"`
	LayoverHours  *float64      `json:"layoverHours"`
	Layover       LayoverStatus `json:"layover"`
}

func (r Route) LegCount() int { return len(r.Legs) }

func (r Route) IsDirect() bool { return len(r.Legs) == 1 }

// Key identifies the route by its legs, for tie-breaks and candidate IDs.
func (r Route) Key() string {
	parts := make([]string, 0, len(r.Legs))
	for _, leg := range r.Legs {
		parts = append(parts, leg.Airline+leg.FlightNumber+"/"+leg.ID)
	}
	return strings.Join(parts, "+")
}

// NewRoute chains legs into a route. A synthetic route must have exactly two
// legs meeting at a hub distinct from both ends, all in one currency.
func NewRoute(legs ...Offer) (Route, error) {
	switch len(legs) {
	case 1, 2:
	default:
		return Route{}, fmt.Errorf("%w: %d legs", ErrInvalidRoute, len(legs))
	}

	r := Route{
		Origin:      legs[0].Origin,
		Destination: legs[len(legs)-1].Destination,
		Legs:        append([]Offer(nil), legs...),
		Layover:     LayoverNone,
	}
	if r.Origin == r.Destination {
		return Route{}, fmt.Errorf("%w: origin equals destination %s", ErrInvalidRoute, r.Origin)
	}

	if len(legs) == 2 {
		if legs[0].Destination != legs[1].Origin {
			return Route{}, fmt.Errorf("%w: %s does not connect to %s", ErrInvalidRoute, legs[0].Destination, legs[1].Origin)
		}
		r.Hub = legs[0].Destination
		if r.Hub == r.Origin || r.Hub == r.Destination {
			return Route{}, fmt.Errorf("%w: hub %s is an endpoint", ErrInvalidRoute, r.Hub)
		}
	}

	total := Money{Currency: legs[0].Price.Currency}
	for _, leg := range legs {
		sum, err := total.Add(leg.Price)
		if err != nil {
			return Route{}, err
		}
		total = sum
	}
	r.TotalPrice = total
	return r, nil
}

// Fees sums leg taxes. It returns nil when any leg lacks a taxes figure.
func (r Route) Fees() *Money {
	total := Money{Currency: r.TotalPrice.Currency}
	for _, leg := range r.Legs {
		if leg.Taxes == nil {
			return nil
		}
		sum, err := total.Add(*leg.Taxes)
		if err != nil {
			return nil
		}
		total = sum
	}
	return &total
}

func (r Route) withDistance(e *DistanceEstimator) Route {
	total := 0.0
	for _, leg := range r.Legs {
		d, ok := e.Distance(leg.Origin, leg.Destination)
		if !ok {
			r.DistanceMiles = nil
			return r
		}
		total += d
	}
	total = round2(total)
	r.DistanceMiles = &total
	return r
}
