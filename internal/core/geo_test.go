package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_KnownPairs(t *testing.T) {
	e := NewDistanceEstimator(testAirports)

	d, ok := e.Distance("JFK", "LAX")
	require.True(t, ok)
	assert.InDelta(t, 2469.69, d, 0.01)

	d, ok = e.Distance("JFK", "LHR")
	require.True(t, ok)
	assert.InDelta(t, 3442.62, d, 0.01)
}

func TestDistance_Symmetric(t *testing.T) {
	e := NewDistanceEstimator(testAirports)
	ab, _ := e.Distance("ORD", "NRT")
	ba, _ := e.Distance("NRT", "ORD")
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestDistance_SameAirportIsZero(t *testing.T) {
	d, ok := NewDistanceEstimator(testAirports).Distance("JFK", "JFK")
	assert.True(t, ok)
	assert.Zero(t, d)
}

func TestDistance_UnknownAirport(t *testing.T) {
	e := NewDistanceEstimator(testAirports)
	_, ok := e.Distance("JFK", "ZZZ")
	assert.False(t, ok)
	_, ok = e.Distance("ZZZ", "JFK")
	assert.False(t, ok)
}

func TestHaversine_Antipodal(t *testing.T) {
	d := haversine(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 180})
	assert.InDelta(t, 3.141592653589793*EarthRadiusMiles, d, 1e-6)
}
