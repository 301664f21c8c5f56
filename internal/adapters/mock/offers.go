package mock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/beetlebot/rewards-cli/internal/core"
)

// OffersAdapter fabricates deterministic offers: the same query always yields
// the same list, so mock runs are reproducible.
type OffersAdapter struct{}

func NewOffersAdapter() *OffersAdapter {
	return &OffersAdapter{}
}

func (a *OffersAdapter) Name() string            { return "mock_offers" }
func (a *OffersAdapter) Tier() core.ProviderTier { return core.TierEasySignup }
func (a *OffersAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapOfferSearch, core.CapTaxes}
}
func (a *OffersAdapter) Available() (bool, string) { return true, "" }

var mockAirlines = []string{"AA", "UA", "DL", "B6", "AS", "AC", "BA", "LH"}

func (a *OffersAdapter) SearchOffers(ctx context.Context, q core.OfferQuery) ([]core.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Origin == "" || q.Destination == "" || q.Date.IsZero() {
		return nil, fmt.Errorf("%w: incomplete query %s", core.ErrInvalidRoute, q)
	}

	date := q.Date.Format(core.DateLayout)
	rng := rand.New(rand.NewSource(hashSeed(string(q.Origin) + string(q.Destination) + date)))
	count := 3 + rng.Intn(4)

	offers := make([]core.Offer, 0, count)
	for i := 0; i < count; i++ {
		airline := mockAirlines[rng.Intn(len(mockAirlines))]
		stops := rng.Intn(2)
		durationMin := 75 + rng.Intn(540) + stops*90
		departTime := q.Date.Add(time.Duration(6+rng.Intn(14)) * time.Hour).Add(time.Duration(rng.Intn(4)*15) * time.Minute)
		arriveTime := departTime.Add(time.Duration(durationMin) * time.Minute)

		price := 150 + float64(rng.Intn(1200)) - float64(stops)*50
		if price < 150 {
			price = 150
		}
		taxes := core.NewMoney(5.60+float64(rng.Intn(60)), "USD")

		offers = append(offers, core.Offer{
			ID:           fmt.Sprintf("m_%s_%s%s_%d", date, q.Origin, q.Destination, 1000+i),
			Source:       a.Name(),
			Origin:       q.Origin,
			Destination:  q.Destination,
			Date:         q.Date,
			Airline:      airline,
			FlightNumber: fmt.Sprintf("%s%d", airline, 100+rng.Intn(900)),
			Price:        core.NewMoney(price, "USD"),
			Taxes:        &taxes,
			Duration:     time.Duration(durationMin) * time.Minute,
			Stops:        stops,
			DepartTime:   &departTime,
			ArriveTime:   &arriveTime,
		})
	}
	return offers, nil
}

func hashSeed(s string) int64 {
	var h int64
	for _, c := range s {
		h = h*31 + int64(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
