package geo

import (
	"math"

	"crop-health-monitor/pkg/models"
)

const (
	earthRadiusKm = 6371.0
	// KmPerDegree is the flat approximation used for degree to distance conversions
	KmPerDegree = 111.0
	// MetersPerDegree converts a radius in degrees to meters
	MetersPerDegree = KmPerDegree * 1000
)

// Calculator does the geographic arithmetic behind region resolution
type Calculator struct{}

// NewCalculator creates a calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// DistanceMeters returns the great-circle distance between two points (haversine)
func (c *Calculator) DistanceMeters(point1, point2 models.Coordinates) float64 {
	lat1Rad := point1.Lat * math.Pi / 180
	lon1Rad := point1.Lon * math.Pi / 180
	lat2Rad := point2.Lat * math.Pi / 180
	lon2Rad := point2.Lon * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	chord := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * chord * 1000
}

// ApproxAreaKm2 returns the area of a lat/lon box: 111 km per degree of latitude and
// 111*cos(centerLat) km per degree of longitude.
func (c *Calculator) ApproxAreaKm2(latSpan, lonSpan, centerLat float64) float64 {
	latKm := math.Abs(latSpan) * KmPerDegree
	lonKm := math.Abs(lonSpan) * KmPerDegree * math.Cos(centerLat*math.Pi/180)
	return math.Abs(latKm * lonKm)
}

// CircleAreaKm2 returns the area of a circle with the given radius in meters
func (c *Calculator) CircleAreaKm2(radiusMeters float64) float64 {
	r := radiusMeters / 1000
	return math.Pi * r * r
}

// RoundTo rounds v to the given number of decimals
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
