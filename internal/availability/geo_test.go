package availability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}

	assert.InDelta(t, 111194.93, DistanceMeters(origin, Point{Latitude: 1, Longitude: 0}), 1)
	assert.InDelta(t, 111194.93, DistanceMeters(origin, Point{Latitude: 0, Longitude: 1}), 1)
	assert.Zero(t, DistanceMeters(origin, origin))

	cbd := Point{Latitude: -1.2864, Longitude: 36.8172}
	westlands := Point{Latitude: -1.2676, Longitude: 36.8108}
	d := DistanceMeters(cbd, westlands)
	assert.InDelta(t, DistanceMeters(westlands, cbd), d, 1e-6)
	assert.Greater(t, d, 2000.0)
	assert.Less(t, d, 2400.0)
}

func TestDistanceMetersAcrossAntimeridian(t *testing.T) {
	a := Point{Latitude: 0, Longitude: 179.9}
	b := Point{Latitude: 0, Longitude: -179.9}
	assert.InDelta(t, 22239, DistanceMeters(a, b), 5)
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	origin := Point{Latitude: -1.2864, Longitude: 36.8172}
	radius := 10000.0
	b := BoundingBox(origin, radius)

	assert.False(t, b.WrapsLongitude)
	for _, bearing := range []float64{0, 45, 90, 135, 180, 225, 270, 315} {
		p := destination(origin, bearing, radius*0.999)
		assert.GreaterOrEqual(t, p.Latitude, b.MinLatitude)
		assert.LessOrEqual(t, p.Latitude, b.MaxLatitude)
		assert.GreaterOrEqual(t, p.Longitude, b.MinLongitude)
		assert.LessOrEqual(t, p.Longitude, b.MaxLongitude)
	}
}

func TestBoundingBoxWraps(t *testing.T) {
	assert.True(t, BoundingBox(Point{Latitude: 0, Longitude: 179.99}, 10000).WrapsLongitude)

	polar := BoundingBox(Point{Latitude: 89.99, Longitude: 0}, 10000)
	assert.True(t, polar.WrapsLongitude)
	assert.Equal(t, 90.0, polar.MaxLatitude)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(-1.28, 36.82))
	assert.True(t, ValidCoordinates(90, 180))
	assert.False(t, ValidCoordinates(91, 0))
	assert.False(t, ValidCoordinates(0, -181))
	assert.False(t, ValidCoordinates(math.NaN(), 0))
}

// destination walks distance meters from p along a bearing in degrees.
func destination(p Point, bearing, distance float64) Point {
	angular := distance / EarthRadiusMeters
	theta := toRadians(bearing)
	lat1 := toRadians(p.Latitude)
	lon1 := toRadians(p.Longitude)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) + math.Cos(lat1)*math.Sin(angular)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(angular)*math.Cos(lat1), math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Latitude: toDegrees(lat2), Longitude: toDegrees(lon2)}
}
