package geo

import (
	"errors"
	"fmt"
	"strings"

	"crop-health-monitor/pkg/models"
)

// ErrUnknownLocation is returned for names that match no predefined location
var ErrUnknownLocation = errors.New("unknown location")

// Location is a predefined agricultural region
type Location struct {
	Name   string
	Center models.Coordinates
	Zoom   int
}

var predefinedLocations = []Location{
	{Name: "Punjab (Wheat Belt)", Center: models.Coordinates{Lat: 30.9010, Lon: 75.8573}, Zoom: 8},
	{Name: "Karnataka (Coffee Region)", Center: models.Coordinates{Lat: 12.9716, Lon: 75.6099}, Zoom: 9},
	{Name: "Maharashtra (Cotton Belt)", Center: models.Coordinates{Lat: 20.7128, Lon: 77.0020}, Zoom: 8},
	{Name: "Tamil Nadu (Rice Fields)", Center: models.Coordinates{Lat: 11.1271, Lon: 78.6569}, Zoom: 8},
	{Name: "Uttar Pradesh (Sugarcane Region)", Center: models.Coordinates{Lat: 28.0, Lon: 79.0}, Zoom: 8},
}

var defaultLocation = Location{Name: "India", Center: models.Coordinates{Lat: 20.5937, Lon: 78.9629}, Zoom: 5}

// Locations returns the predefined locations in display order
func Locations() []Location {
	return append([]Location(nil), predefinedLocations...)
}

// DefaultLocation is the country overview used when no area was chosen
func DefaultLocation() Location {
	return defaultLocation
}

// LookupLocation finds a predefined location by its full name or by the region part of the
// name ("punjab", "tamil-nadu"), case-insensitively.
func LookupLocation(name string) (Location, error) {
	key := normalizeName(name)
	if key == "" {
		return Location{}, fmt.Errorf("%w: empty name", ErrUnknownLocation)
	}
	for _, loc := range predefinedLocations {
		if key == normalizeName(loc.Name) || key == normalizeName(shortName(loc.Name)) {
			return loc, nil
		}
	}
	if key == normalizeName(defaultLocation.Name) {
		return defaultLocation, nil
	}
	return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
}

func shortName(name string) string {
	if i := strings.Index(name, " ("); i > 0 {
		return name[:i]
	}
	return name
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

// AreaSize is a selectable analysis radius around a predefined location
type AreaSize struct {
	Key           string
	Label         string
	RadiusDegrees float64
}

// RadiusMeters converts the radius with 111 km per degree
func (a AreaSize) RadiusMeters() float64 {
	return a.RadiusDegrees * MetersPerDegree
}

var areaSizes = []AreaSize{
	{Key: "small", Label: "Small (1 hectare)", RadiusDegrees: 0.01},
	{Key: "medium", Label: "Medium (10 hectares)", RadiusDegrees: 0.03},
	{Key: "large", Label: "Large (100 hectares)", RadiusDegrees: 0.1},
	{Key: "very_large", Label: "Very Large (1000 hectares)", RadiusDegrees: 0.3},
}

// AreaSizes returns the selectable area sizes from smallest to largest
func AreaSizes() []AreaSize {
	return append([]AreaSize(nil), areaSizes...)
}

// ParseAreaSize accepts a key or a label. An empty string selects the smallest size.
func ParseAreaSize(s string) (AreaSize, error) {
	key := normalizeName(s)
	if key == "" {
		return areaSizes[0], nil
	}
	for _, a := range areaSizes {
		if key == normalizeName(a.Key) || key == normalizeName(a.Label) {
			return a, nil
		}
	}
	return AreaSize{}, fmt.Errorf("%w: unknown area size %q", ErrInvalidGeometry, s)
}
