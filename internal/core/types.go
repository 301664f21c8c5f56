package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/beetlebot/rewards-cli/internal/config"
)

const DateLayout = "2006-01-02"

var (
	ErrSearchUnavailable  = errors.New("offer search unavailable")
	ErrPartialResults     = errors.New("offer search partially failed")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAirport     = errors.New("invalid airport code")
	ErrNegativeBalance    = errors.New("available balance must not be negative")
	ErrUnknownPreference  = errors.New("unknown preference")
	ErrInvalidValuation   = errors.New("invalid valuation input")
	ErrTierUndeterminable = errors.New("award tier undeterminable")
	ErrInvalidRoute       = errors.New("invalid route")
)

type Capability string

const (
	CapOfferSearch  Capability = "offers.search"
	CapStoredOffers Capability = "offers.stored"
	CapTaxes        Capability = "offers.taxes"
)

type ProviderTier string

const (
	TierEasySignup      ProviderTier = "easySignup"
	TierPartnerRequired ProviderTier = "partnerRequired"
	TierSelfHosted      ProviderTier = "selfHosted"
)

// AirportCode is an IATA/ICAO style identifier, upper-cased at the boundary.
type AirportCode string

func ParseAirportCode(s string) (AirportCode, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) < 3 || len(code) > 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAirport, s)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidAirport, s)
		}
	}
	return AirportCode(code), nil
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return d, nil
}

// Money is an amount in minor units (cents) of a single ISO currency.
type Money struct {
	Cents    int64
	Currency string
}

func NewMoney(amount float64, currency string) Money {
	return Money{Cents: int64(math.Round(amount * 100)), Currency: strings.ToUpper(currency)}
}

func (m Money) Amount() float64 { return float64(m.Cents) / 100 }

func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Cents: m.Cents + o.Cents, Currency: m.Currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount(), m.Currency)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}{m.Amount(), m.Currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = NewMoney(v.Amount, v.Currency)
	return nil
}

type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

type Region string

const (
	RegionNorthAmerica Region = "north_america"
	RegionEurope       Region = "europe"
	RegionAsia         Region = "asia"
	RegionSouthAmerica Region = "south_america"
	RegionAfrica       Region = "africa"
	RegionAustralia    Region = "australia"
)

type Airport struct {
	Code       AirportCode
	Coordinate Coordinate
	Country    string
	Region     Region
}

// AirportTable is read-only after load.
type AirportTable map[AirportCode]Airport

type OfferQuery struct {
	Origin      AirportCode
	Destination AirportCode
	Date        time.Time
}

func (q OfferQuery) String() string {
	return fmt.Sprintf("%s-%s@%s", q.Origin, q.Destination, q.Date.Format(DateLayout))
}

// Offer is one priced leg returned by an OfferSearcher.
type Offer struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Origin       AirportCode    `json:"origin"`
	Destination  AirportCode    `json:"destination"`
	Date         time.Time      `json:"date"`
	Airline      string         `json:"airline"`
	FlightNumber string         `json:"flightNumber"`
	Price        Money          `json:"price"`
	Taxes        *Money         `json:"taxes,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	Stops        int            `json:"stops"`
	DepartTime   *time.Time     `json:"departTime,omitempty"`
	ArriveTime   *time.Time     `json:"arriveTime,omitempty"`
	Raw          map[string]any `json:"-"`
}

type OfferSearcher interface {
	Name() string
	SearchOffers(ctx context.Context, q OfferQuery) ([]Offer, error)
}

// OfferAdapter is an OfferSearcher that can be registered with a Router.
type OfferAdapter interface {
	OfferSearcher
	Tier() ProviderTier
	Capabilities() []Capability
	Available() (bool, string)
}

type SearchStatus string

const (
	SearchOK          SearchStatus = "ok"
	SearchEmpty       SearchStatus = "empty"
	SearchPartial     SearchStatus = "partial"
	SearchUnavailable SearchStatus = "unavailable"
	SearchTimeout     SearchStatus = "timeout"
	SearchFailed      SearchStatus = "error"
)

type SearchOutcome struct {
	Origin      AirportCode   `json:"origin"`
	Destination AirportCode   `json:"destination"`
	Date        string        `json:"date"`
	Status      SearchStatus  `json:"status"`
	Offers      int           `json:"offers"`
	Reason      string        `json:"reason,omitempty"`
	Elapsed     time.Duration `json:"-"`
}

// SearchObserver receives one outcome per pair search.
type SearchObserver interface {
	ObserveSearch(SearchOutcome)
}

type ExclusionReason string

const (
	ExcludeCurrencyMismatch   ExclusionReason = "currency_mismatch"
	ExcludeLegMismatch        ExclusionReason = "leg_mismatch"
	ExcludeLayoverNegative    ExclusionReason = "layover_negative"
	ExcludeLayoverExceeded    ExclusionReason = "layover_exceeded"
	ExcludeLayoverUnknown     ExclusionReason = "layover_unknown"
	ExcludeTierUndeterminable ExclusionReason = "tier_undeterminable"
	ExcludeInvalidValuation   ExclusionReason = "invalid_valuation"
)

type Exclusion struct {
	Reason ExclusionReason `json:"reason"`
	Detail string          `json:"detail"`
}

type CandidateKind string

const (
	KindFlight   CandidateKind = "flight"
	KindHotel    CandidateKind = "hotel"
	KindGiftCard CandidateKind = "gift_card"
)

// Candidate is a redemption option; Route is set only for flights.
type Candidate struct {
	ID             string        `json:"id"`
	Kind           CandidateKind `json:"kind"`
	Name           string        `json:"name"`
	Program        string        `json:"program"`
	Route          *Route        `json:"route,omitempty"`
	CashValue      Money         `json:"cashValue"`
	Fees           *Money        `json:"fees,omitempty"`
	FeesEstimated  bool          `json:"feesEstimated,omitempty"`
	PointsRequired int           `json:"pointsRequired"`
	Baseline       float64       `json:"baseline"`
}

func (c Candidate) IsDirectFlight() bool {
	return c.Kind == KindFlight && c.Route != nil && c.Route.LegCount() == 1
}

type ValueScore struct {
	ValuePerUnit      float64 `json:"valuePerUnit"`
	Baseline          float64 `json:"baseline"`
	SavingsPercentage float64 `json:"savingsPercentage"`
	IsGoodValue       bool    `json:"isGoodValue"`
	exact             float64
}

// Exact is the unrounded cents-per-point figure used for ranking.
func (v ValueScore) Exact() float64 { return v.exact }

type Recommendation struct {
	Rank      int        `json:"rank"`
	Candidate Candidate  `json:"candidate"`
	Score     ValueScore `json:"score"`
}

type OptimizeRequest struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Date        string   `json:"date"`
	Balance     int      `json:"balance"`
	Preference  string   `json:"preference"`
	Hubs        []string `json:"hubs,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	SkipCatalog bool     `json:"skipCatalog,omitempty"`
}

type OptimizeResult struct {
	RequestID         string           `json:"requestId"`
	Query             OptimizeRequest  `json:"query"`
	Mode              config.Mode      `json:"mode"`
	Preference        Preference       `json:"preference"`
	PreferenceRelaxed bool             `json:"preferenceRelaxed"`
	Complete          bool             `json:"complete"`
	Recommendations   []Recommendation `json:"recommendations"`
	TotalCandidates   int              `json:"totalCandidates"`
	Affordable        int              `json:"affordable"`
	Searches          []SearchOutcome  `json:"searches"`
	Exclusions        []Exclusion      `json:"exclusions,omitempty"`
	FetchedAt         time.Time        `json:"fetchedAt"`
}

type ProviderInfo struct {
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
	Tier         ProviderTier `json:"tier"`
	Status       string       `json:"status"`
	Reason       string       `json:"reason,omitempty"`
}

type DoctorReport struct {
	Mode      config.Mode    `json:"mode"`
	Providers []ProviderInfo `json:"providers"`
	Airports  int            `json:"airports"`
	Hubs      int            `json:"hubs"`
	Healthy   bool           `json:"healthy"`
	Summary   string         `json:"summary"`
}
