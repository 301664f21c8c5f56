package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synth(s OfferSearcher, opts SynthesizerOptions) *Synthesizer {
	return NewSynthesizer(s, NewDistanceEstimator(testAirports), opts)
}

func statuses(out *Synthesis) map[string]SearchStatus {
	m := make(map[string]SearchStatus, len(out.Searches))
	for _, s := range out.Searches {
		m[string(s.Origin)+"-"+string(s.Destination)] = s.Status
	}
	return m
}

func reasons(out *Synthesis) []ExclusionReason {
	var r []ExclusionReason
	for _, e := range out.Exclusions {
		r = append(r, e.Reason)
	}
	return r
}

func TestSynthesize_ConnectsThroughHub(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-ORD": {offers: []Offer{offer("1", "JFK", "ORD", "AA", 150, d)}},
		"ORD-LAX": {offers: []Offer{offer("2", "ORD", "LAX", "UA", 180, d.AddDate(0, 0, 1))}},
	})

	out, err := synth(stub, SynthesizerOptions{LayoverDayOffset: 1}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)

	require.Len(t, out.Routes, 1)
	r := out.Routes[0]
	assert.Equal(t, 2, r.LegCount())
	assert.Equal(t, AirportCode("ORD"), r.Hub)
	assert.Equal(t, int64(33000), r.TotalPrice.Cents)
	assert.Equal(t, LayoverUnknown, r.Layover)
	assert.Nil(t, r.LayoverHours)
	require.NotNil(t, r.DistanceMiles)

	assert.True(t, out.Complete)
	assert.Equal(t, SearchEmpty, statuses(out)["JFK-LAX"])
	assert.Equal(t, SearchOK, statuses(out)["JFK-ORD"])
}

func TestSynthesize_SecondLegSearchesLayoverDate(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(nil)

	_, err := synth(stub, SynthesizerOptions{LayoverDayOffset: 1}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)

	dates := map[string]string{}
	for _, q := range stub.queries() {
		dates[string(q.Origin)+"-"+string(q.Destination)] = q.Date.Format(DateLayout)
	}
	assert.Equal(t, map[string]string{
		"JFK-LAX": "2026-07-01",
		"JFK-ORD": "2026-07-01",
		"ORD-LAX": "2026-07-02",
	}, dates)
}

func TestSynthesize_SkipsEndpointAndDuplicateHubs(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(nil)

	out, err := synth(stub, SynthesizerOptions{}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"JFK", "ORD", "LAX", "ORD"},
	})
	require.NoError(t, err)
	assert.Len(t, out.Searches, 3)
	assert.Len(t, stub.queries(), 3)
}

func TestSynthesize_RecordsFailuresDistinctly(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-LAX": {offers: []Offer{offer("1", "JFK", "LAX", "AA", 300, d)}},
		"JFK-ORD": {err: fmt.Errorf("%w: provider down", ErrSearchUnavailable)},
		"ORD-LAX": {err: errors.New("boom")},
	})

	out, err := synth(stub, SynthesizerOptions{}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD", "DEN"},
	})
	require.NoError(t, err)

	st := statuses(out)
	assert.Equal(t, SearchOK, st["JFK-LAX"])
	assert.Equal(t, SearchUnavailable, st["JFK-ORD"])
	assert.Equal(t, SearchFailed, st["ORD-LAX"])
	assert.Equal(t, SearchEmpty, st["JFK-DEN"])
	assert.False(t, out.Complete)

	require.Len(t, out.Routes, 1)
	assert.True(t, out.Routes[0].IsDirect())
}

func TestSynthesize_PartialSearchKeepsOffers(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-LAX": {
			offers: []Offer{offer("1", "JFK", "LAX", "AA", 300, d)},
			err:    fmt.Errorf("%w: b: boom", ErrPartialResults),
		},
		"JFK-ORD": {err: fmt.Errorf("%w: b: boom", ErrPartialResults)},
	})

	out, err := synth(stub, SynthesizerOptions{}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)

	st := statuses(out)
	assert.Equal(t, SearchPartial, st["JFK-LAX"])
	assert.Equal(t, SearchPartial, st["JFK-ORD"])
	assert.False(t, out.Complete)
	require.Len(t, out.Routes, 1)
	assert.True(t, out.Routes[0].IsDirect())
}

func TestSynthesize_TimeoutKeepsFinishedSearches(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-LAX": {offers: []Offer{offer("1", "JFK", "LAX", "AA", 300, d)}},
		"JFK-ORD": {block: true},
	})

	start := time.Now()
	out, err := synth(stub, SynthesizerOptions{SearchTimeout: 50 * time.Millisecond}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, SearchTimeout, statuses(out)["JFK-ORD"])
	assert.False(t, out.Complete)
	require.Len(t, out.Routes, 1)
	assert.Equal(t, "1", out.Routes[0].Legs[0].ID)
}

func TestSynthesize_LayoverLimits(t *testing.T) {
	d := day(t, "2026-07-01")
	leg1 := timed(offer("1", "JFK", "ORD", "AA", 150, d),
		time.Date(2026, 7, 1, 7, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))
	leg2 := timed(offer("2", "ORD", "LAX", "UA", 180, d.AddDate(0, 0, 1)),
		time.Date(2026, 7, 2, 12, 30, 0, 0, time.UTC), time.Date(2026, 7, 2, 15, 0, 0, 0, time.UTC))
	stub := newStub(map[string]stubResult{
		"JFK-ORD": {offers: []Offer{leg1}},
		"ORD-LAX": {offers: []Offer{leg2}},
	})
	req := SynthesisRequest{Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"}}

	out, err := synth(stub, SynthesizerOptions{LayoverDayOffset: 1, MaxLayoverHours: 24}).Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, out.Routes)
	assert.Equal(t, []ExclusionReason{ExcludeLayoverExceeded}, reasons(out))

	out, err = synth(stub, SynthesizerOptions{LayoverDayOffset: 1, MaxLayoverHours: 30}).Synthesize(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out.Routes, 1)
	assert.Equal(t, LayoverOK, out.Routes[0].Layover)
	require.NotNil(t, out.Routes[0].LayoverHours)
	assert.Equal(t, 26.5, *out.Routes[0].LayoverHours)
}

func TestSynthesize_NegativeLayoverExcluded(t *testing.T) {
	d := day(t, "2026-07-01")
	leg1 := timed(offer("1", "JFK", "ORD", "AA", 150, d),
		time.Date(2026, 7, 1, 7, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC))
	leg2 := timed(offer("2", "ORD", "LAX", "UA", 180, d),
		time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	stub := newStub(map[string]stubResult{
		"JFK-ORD": {offers: []Offer{leg1}},
		"ORD-LAX": {offers: []Offer{leg2}},
	})

	out, err := synth(stub, SynthesizerOptions{}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Routes)
	assert.Equal(t, []ExclusionReason{ExcludeLayoverNegative}, reasons(out))
}

func TestSynthesize_UnknownLayoverPolicy(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-ORD": {offers: []Offer{offer("1", "JFK", "ORD", "AA", 150, d)}},
		"ORD-LAX": {offers: []Offer{offer("2", "ORD", "LAX", "UA", 180, d)}},
	})
	req := SynthesisRequest{Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"}}

	out, err := synth(stub, SynthesizerOptions{UnknownLayover: UnknownLayoverExclude}).Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, out.Routes)
	assert.Equal(t, []ExclusionReason{ExcludeLayoverUnknown}, reasons(out))
}

func TestSynthesize_CurrencyAndLegMismatch(t *testing.T) {
	d := day(t, "2026-07-01")
	eur := offer("2", "ORD", "LAX", "LH", 180, d)
	eur.Price = NewMoney(180, "EUR")
	stub := newStub(map[string]stubResult{
		"JFK-LAX": {offers: []Offer{offer("9", "JFK", "SFO", "AA", 100, d)}},
		"JFK-ORD": {offers: []Offer{offer("1", "JFK", "ORD", "AA", 150, d)}},
		"ORD-LAX": {offers: []Offer{eur}},
	})

	out, err := synth(stub, SynthesizerOptions{}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Routes)
	assert.ElementsMatch(t, []ExclusionReason{ExcludeLegMismatch, ExcludeCurrencyMismatch}, reasons(out))
}

func TestSynthesize_CapsLegOptions(t *testing.T) {
	d := day(t, "2026-07-01")
	var first []Offer
	for i, price := range []float64{400, 150, 300, 200, 250} {
		first = append(first, offer(fmt.Sprint(i), "JFK", "ORD", "AA", price, d))
	}
	stub := newStub(map[string]stubResult{
		"JFK-ORD": {offers: first},
		"ORD-LAX": {offers: []Offer{offer("x", "ORD", "LAX", "UA", 100, d)}},
	})

	out, err := synth(stub, SynthesizerOptions{MaxLegOptions: 3}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)
	require.Len(t, out.Routes, 3)
	assert.Equal(t, int64(25000), out.Routes[0].TotalPrice.Cents)
	assert.Equal(t, int64(30000), out.Routes[1].TotalPrice.Cents)
	assert.Equal(t, int64(35000), out.Routes[2].TotalPrice.Cents)
}

func TestSynthesize_DeterministicAcrossWorkerCounts(t *testing.T) {
	d := day(t, "2026-07-01")
	stub := newStub(map[string]stubResult{
		"JFK-LAX": {offers: []Offer{
			offer("b", "JFK", "LAX", "UA", 300, d),
			offer("a", "JFK", "LAX", "AA", 300, d),
		}},
		"JFK-ORD": {offers: []Offer{offer("1", "JFK", "ORD", "AA", 100, d)}},
		"ORD-LAX": {offers: []Offer{offer("2", "ORD", "LAX", "AA", 200, d)}},
		"JFK-DEN": {offers: []Offer{offer("3", "JFK", "DEN", "AA", 100, d)}},
		"DEN-LAX": {offers: []Offer{offer("4", "DEN", "LAX", "AA", 200, d)}},
	})
	req := SynthesisRequest{Origin: "JFK", Destination: "LAX", Date: d, Hubs: []AirportCode{"ORD", "DEN"}}

	keys := func(workers int) []string {
		out, err := synth(stub, SynthesizerOptions{MaxWorkers: workers}).Synthesize(context.Background(), req)
		require.NoError(t, err)
		var k []string
		for _, r := range out.Routes {
			k = append(k, r.Key())
		}
		return k
	}

	serial := keys(1)
	assert.Equal(t, serial, keys(5))
	assert.Equal(t, []string{"AAAAa/a", "AAAA3/3+AAAA4/4", "AAAA1/1+AAAA2/2", "UAUAb/b"}, serial)
}

func TestSynthesize_RejectsBadInput(t *testing.T) {
	s := synth(newStub(nil), SynthesizerOptions{})
	_, err := s.Synthesize(context.Background(), SynthesisRequest{Origin: "JFK", Destination: "JFK", Date: day(t, "2026-07-01")})
	assert.ErrorIs(t, err, ErrInvalidAirport)

	_, err = s.Synthesize(context.Background(), SynthesisRequest{Origin: "JFK", Destination: "LAX"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

type recordingObserver struct {
	outcomes []SearchOutcome
}

func (r *recordingObserver) ObserveSearch(o SearchOutcome) { r.outcomes = append(r.outcomes, o) }

func TestSynthesize_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	_, err := synth(newStub(nil), SynthesizerOptions{MaxWorkers: 1, Observer: obs}).Synthesize(context.Background(), SynthesisRequest{
		Origin: "JFK", Destination: "LAX", Date: day(t, "2026-07-01"), Hubs: []AirportCode{"ORD"},
	})
	require.NoError(t, err)
	assert.Len(t, obs.outcomes, 3)
}
