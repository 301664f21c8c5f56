package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testAirports = AirportTable{
	"JFK": {Code: "JFK", Coordinate: Coordinate{Lat: 40.6413, Lon: -73.7781}, Country: "US", Region: RegionNorthAmerica},
	"LAX": {Code: "LAX", Coordinate: Coordinate{Lat: 33.9416, Lon: -118.4085}, Country: "US", Region: RegionNorthAmerica},
	"ORD": {Code: "ORD", Coordinate: Coordinate{Lat: 41.9786, Lon: -87.9048}, Country: "US", Region: RegionNorthAmerica},
	"DEN": {Code: "DEN", Coordinate: Coordinate{Lat: 39.8561, Lon: -104.6737}, Country: "US", Region: RegionNorthAmerica},
	"LHR": {Code: "LHR", Coordinate: Coordinate{Lat: 51.4700, Lon: -0.4543}, Country: "GB", Region: RegionEurope},
	"NRT": {Code: "NRT", Coordinate: Coordinate{Lat: 35.6762, Lon: 139.6503}, Country: "JP", Region: RegionAsia},
	"YYZ": {Code: "YYZ", Coordinate: Coordinate{Lat: 43.6777, Lon: -79.6248}, Country: "CA", Region: RegionNorthAmerica},
}

var testChart = AwardChart{
	TierShortHaul:    7500,
	TierMediumHaul:   12500,
	TierLongHaul:     25000,
	TierNorthAmerica: 25000,
	TierEurope:       30000,
	TierAsia:         35000,
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func offer(id string, origin, destination AirportCode, airline string, usd float64, date time.Time) Offer {
	return Offer{
		ID:           id,
		Source:       "stub",
		Origin:       origin,
		Destination:  destination,
		Date:         date,
		Airline:      airline,
		FlightNumber: airline + id,
		Price:        NewMoney(usd, "USD"),
	}
}

func timed(o Offer, depart, arrive time.Time) Offer {
	o.DepartTime = &depart
	o.ArriveTime = &arrive
	return o
}

type stubResult struct {
	offers []Offer
	err    error
	block  bool
}

// stubSearcher answers by origin-destination pair and records every query.
type stubSearcher struct {
	name    string
	results map[string]stubResult

	mu    sync.Mutex
	calls []OfferQuery
}

func newStub(results map[string]stubResult) *stubSearcher {
	return &stubSearcher{name: "stub", results: results}
}

func (s *stubSearcher) Name() string { return s.name }

func (s *stubSearcher) SearchOffers(ctx context.Context, q OfferQuery) ([]Offer, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()

	r, ok := s.results[string(q.Origin)+"-"+string(q.Destination)]
	if !ok {
		return nil, nil
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.offers, r.err
}

func (s *stubSearcher) queries() []OfferQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OfferQuery(nil), s.calls...)
}

// stubAdapter makes a stubSearcher registrable with a Router.
type stubAdapter struct {
	*stubSearcher
	avail bool
}

func newStubAdapter(name string, avail bool, results map[string]stubResult) *stubAdapter {
	s := newStub(results)
	s.name = name
	return &stubAdapter{stubSearcher: s, avail: avail}
}

func (a *stubAdapter) Tier() ProviderTier         { return TierEasySignup }
func (a *stubAdapter) Capabilities() []Capability { return []Capability{CapOfferSearch} }
func (a *stubAdapter) Available() (bool, string) {
	if a.avail {
		return true, ""
	}
	return false, "no credentials"
}
