package availability

import (
	"math"

	"medassist/internal/models"
)

// EarthRadiusMeters is the mean radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

func PointOf(loc models.Location) Point {
	return Point{Latitude: loc.Latitude(), Longitude: loc.Longitude()}
}

// DistanceMeters is the haversine distance between a and b on a spherical earth.
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox returns a lat/lon box that contains every point within radius
// meters of origin. It is a coarse prefilter; callers still apply DistanceMeters.
func BoundingBox(origin Point, radius float64) *models.GeoBounds {
	angular := radius / EarthRadiusMeters
	latDelta := toDegrees(angular)

	b := &models.GeoBounds{
		MinLatitude: origin.Latitude - latDelta,
		MaxLatitude: origin.Latitude + latDelta,
	}

	// Near a pole, or when the box crosses the antimeridian, leave longitude open.
	if b.MinLatitude <= -90 || b.MaxLatitude >= 90 {
		b.MinLatitude = math.Max(b.MinLatitude, -90)
		b.MaxLatitude = math.Min(b.MaxLatitude, 90)
		b.WrapsLongitude = true
		return b
	}

	lonDelta := toDegrees(math.Asin(math.Min(1, math.Sin(angular)/math.Cos(toRadians(origin.Latitude)))))
	b.MinLongitude = origin.Longitude - lonDelta
	b.MaxLongitude = origin.Longitude + lonDelta
	if b.MinLongitude < -180 || b.MaxLongitude > 180 {
		b.WrapsLongitude = true
	}
	return b
}

// ValidCoordinates reports whether lat/lon are within WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 &&
		!math.IsNaN(lat) && !math.IsNaN(lon)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
