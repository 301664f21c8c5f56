package core

import "fmt"

type AwardTier string

const (
	TierShortHaul    AwardTier = "short_haul"
	TierMediumHaul   AwardTier = "medium_haul"
	TierLongHaul     AwardTier = "long_haul"
	TierNorthAmerica AwardTier = "north_america"
	TierEurope       AwardTier = "europe"
	TierAsia         AwardTier = "asia"
	TierSouthAmerica AwardTier = "south_america"
	TierAfrica       AwardTier = "africa"
	TierAustralia    AwardTier = "australia"
)

// Domestic band edges in miles. A distance equal to an edge belongs to the
// higher band.
const (
	MediumHaulFromMiles = 500.0
	LongHaulFromMiles   = 1150.0
)

// AwardChart maps each tier to the miles one award on that tier costs.
type AwardChart map[AwardTier]int

type TierAssignment struct {
	Tier          AwardTier `json:"tier"`
	Miles         int       `json:"miles"`
	DistanceMiles float64   `json:"distanceMiles"`
	International bool      `json:"international"`
}

type TierClassifier struct {
	estimator *DistanceEstimator
	chart     AwardChart
}

func NewTierClassifier(estimator *DistanceEstimator, chart AwardChart) *TierClassifier {
	return &TierClassifier{estimator: estimator, chart: chart}
}

// Classify maps a distance to a tier. Domestic legs use the distance bands;
// international legs are priced by the destination region.
func Classify(distance float64, known bool, international bool, region Region) (AwardTier, error) {
	if !known {
		return "", fmt.Errorf("%w: distance unknown", ErrTierUndeterminable)
	}
	if !international {
		switch {
		case distance >= LongHaulFromMiles:
			return TierLongHaul, nil
		case distance >= MediumHaulFromMiles:
			return TierMediumHaul, nil
		default:
			return TierShortHaul, nil
		}
	}
	switch region {
	case RegionNorthAmerica, RegionEurope, RegionAsia, RegionSouthAmerica, RegionAfrica, RegionAustralia:
		return AwardTier(region), nil
	}
	return "", fmt.Errorf("%w: no award region for %q", ErrTierUndeterminable, region)
}

func (c *TierClassifier) MilesRequired(tier AwardTier) (int, error) {
	miles, ok := c.chart[tier]
	if !ok {
		return 0, fmt.Errorf("%w: tier %q missing from award chart", ErrTierUndeterminable, tier)
	}
	return miles, nil
}

// ClassifyLeg resolves distance, country and region from the airport table.
func (c *TierClassifier) ClassifyLeg(origin, destination AirportCode) (TierAssignment, error) {
	distance, known := c.estimator.Distance(origin, destination)
	if !known {
		return TierAssignment{}, fmt.Errorf("%w: no coordinates for %s-%s", ErrTierUndeterminable, origin, destination)
	}

	from, _ := c.estimator.Lookup(origin)
	to, _ := c.estimator.Lookup(destination)
	international := from.Country != "" && to.Country != "" && from.Country != to.Country

	tier, err := Classify(distance, known, international, to.Region)
	if err != nil {
		return TierAssignment{}, fmt.Errorf("%s-%s: %w", origin, destination, err)
	}
	miles, err := c.MilesRequired(tier)
	if err != nil {
		return TierAssignment{}, err
	}
	return TierAssignment{Tier: tier, Miles: miles, DistanceMiles: distance, International: international}, nil
}

// RouteMiles prices a route leg by leg: one award per leg.
func (c *TierClassifier) RouteMiles(r Route) (int, []TierAssignment, error) {
	total := 0
	assignments := make([]TierAssignment, 0, r.LegCount())
	for _, leg := range r.Legs {
		a, err := c.ClassifyLeg(leg.Origin, leg.Destination)
		if err != nil {
			return 0, nil, err
		}
		total += a.Miles
		assignments = append(assignments, a)
	}
	return total, assignments, nil
}
