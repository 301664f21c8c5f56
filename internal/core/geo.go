package core

import "math"

// EarthRadiusMiles is the mean radius used by every distance in this package.
const EarthRadiusMiles = 3959.0

type DistanceEstimator struct {
	airports AirportTable
}

func NewDistanceEstimator(airports AirportTable) *DistanceEstimator {
	return &DistanceEstimator{airports: airports}
}

// Distance returns the great-circle distance in miles, or false when either
// airport has no coordinates.
func (e *DistanceEstimator) Distance(a, b AirportCode) (float64, bool) {
	pa, ok := e.airports[a]
	if !ok {
		return 0, false
	}
	pb, ok := e.airports[b]
	if !ok {
		return 0, false
	}
	if a == b {
		return 0, true
	}
	return haversine(pa.Coordinate, pb.Coordinate), true
}

func (e *DistanceEstimator) Lookup(code AirportCode) (Airport, bool) {
	a, ok := e.airports[code]
	return a, ok
}

func haversine(p, q Coordinate) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := (q.Lat - p.Lat) * math.Pi / 180
	dLon := (q.Lon - p.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}
