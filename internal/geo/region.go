package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"crop-health-monitor/pkg/models"
)

// ErrInvalidGeometry is returned for drawn shapes that cannot be analysed
var ErrInvalidGeometry = errors.New("invalid geometry")

// Region kinds
const (
	KindLocation = "location"
	KindPoint    = "point"
	KindCircle   = "circle"
	KindPolygon  = "polygon"
)

// drawnZoom is the map zoom used for drawn shapes
const drawnZoom = 10

// Region is a resolved area of interest
type Region struct {
	Name          string
	Kind          string
	Center        models.Coordinates
	Zoom          int
	AreaSize      string
	RadiusDegrees float64
	RadiusMeters  float64
	// AreaKm2 is the flat lat/lon box approximation
	AreaKm2 float64
	// GeodesicKm2 is the area on the sphere, zero for points
	GeodesicKm2 float64
	Bound       orb.Bound
}

// Info converts the region into its API representation
func (r Region) Info() models.RegionInfo {
	return models.RegionInfo{
		Name:          r.Name,
		Kind:          r.Kind,
		Center:        r.Center,
		Zoom:          r.Zoom,
		AreaSize:      r.AreaSize,
		RadiusDegrees: r.RadiusDegrees,
		RadiusMeters:  RoundTo(r.RadiusMeters, 1),
		AreaKm2:       RoundTo(r.AreaKm2, 4),
		GeodesicKm2:   RoundTo(r.GeodesicKm2, 4),
	}
}

// ResolveLocation builds the circular region of a predefined location
func (c *Calculator) ResolveLocation(loc Location, size AreaSize) Region {
	center := orb.Point{loc.Center.Lon, loc.Center.Lat}
	radiusMeters := size.RadiusMeters()
	return Region{
		Name:          loc.Name,
		Kind:          KindLocation,
		Center:        loc.Center,
		Zoom:          loc.Zoom,
		AreaSize:      size.Label,
		RadiusDegrees: size.RadiusDegrees,
		RadiusMeters:  radiusMeters,
		AreaKm2:       c.ApproxAreaKm2(2*size.RadiusDegrees, 2*size.RadiusDegrees, loc.Center.Lat),
		GeodesicKm2:   c.CircleAreaKm2(radiusMeters),
		Bound:         orbgeo.NewBoundAroundPoint(center, radiusMeters),
	}
}

// ResolveGeometry parses a drawn shape given as a GeoJSON geometry, Feature or
// FeatureCollection (first feature). Point features carrying a "radius" property in meters
// are treated as circles, as map drawing tools export them.
func (c *Calculator) ResolveGeometry(raw []byte) (Region, error) {
	var probe struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
		Radius      float64         `json:"radius"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Region{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	var (
		g      orb.Geometry
		radius float64
	)
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return Region{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if len(fc.Features) == 0 {
			return Region{}, fmt.Errorf("%w: empty feature collection", ErrInvalidGeometry)
		}
		g = fc.Features[0].Geometry
		if radius, err = radiusProperty(fc.Features[0].Properties); err != nil {
			return Region{}, err
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return Region{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		g = f.Geometry
		if radius, err = radiusProperty(f.Properties); err != nil {
			return Region{}, err
		}
	case "Circle":
		// Not GeoJSON, but some drawing tools emit it
		var p orb.Point
		if err := json.Unmarshal(probe.Coordinates, &p); err != nil {
			return Region{}, fmt.Errorf("%w: circle: %v", ErrInvalidGeometry, err)
		}
		g, radius = p, probe.Radius
	default:
		geom, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return Region{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		g = geom.Geometry()
	}

	return c.regionFromGeometry(g, radius)
}

func (c *Calculator) regionFromGeometry(g orb.Geometry, radiusMeters float64) (Region, error) {
	if g == nil {
		return Region{}, fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	}
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return Region{}, fmt.Errorf("%w: negative radius", ErrInvalidGeometry)
	}

	switch geom := g.(type) {
	case orb.Point:
		if err := checkPoint(geom); err != nil {
			return Region{}, err
		}
		r := Region{
			Name:   fmt.Sprintf("Point %.4f, %.4f", geom.Lat(), geom.Lon()),
			Kind:   KindPoint,
			Center: toCoordinates(geom),
			Zoom:   drawnZoom,
			Bound:  geom.Bound(),
		}
		if radiusMeters > 0 {
			r.Name = fmt.Sprintf("Circle %.4f, %.4f", geom.Lat(), geom.Lon())
			r.Kind = KindCircle
			r.RadiusMeters = radiusMeters
			r.RadiusDegrees = radiusMeters / MetersPerDegree
			r.AreaKm2 = c.ApproxAreaKm2(2*r.RadiusDegrees, 2*r.RadiusDegrees, geom.Lat())
			r.GeodesicKm2 = c.CircleAreaKm2(radiusMeters)
			r.Bound = orbgeo.NewBoundAroundPoint(geom, radiusMeters)
		}
		return r, nil
	case orb.Polygon:
		return c.polygonRegion(orb.MultiPolygon{geom})
	case orb.MultiPolygon:
		return c.polygonRegion(geom)
	default:
		return Region{}, fmt.Errorf("%w: unsupported geometry type %s", ErrInvalidGeometry, g.GeoJSONType())
	}
}

// polygonRegion centres the region on the mean of the outer-ring coordinates as given,
// closing vertex included, and measures both the bounding-box approximation and the
// geodesic area.
func (c *Calculator) polygonRegion(mp orb.MultiPolygon) (Region, error) {
	var (
		sumLat, sumLon float64
		n              int
	)
	for _, poly := range mp {
		if len(poly) == 0 || len(poly[0]) < 3 {
			return Region{}, fmt.Errorf("%w: polygon needs at least 3 vertices", ErrInvalidGeometry)
		}
		for _, p := range poly[0] {
			if err := checkPoint(p); err != nil {
				return Region{}, err
			}
			sumLat += p.Lat()
			sumLon += p.Lon()
			n++
		}
	}
	if n == 0 {
		return Region{}, fmt.Errorf("%w: empty polygon", ErrInvalidGeometry)
	}
	if _, area := planar.CentroidArea(mp); area == 0 {
		return Region{}, fmt.Errorf("%w: polygon has zero area", ErrInvalidGeometry)
	}

	center := models.Coordinates{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}
	bound := mp.Bound()

	// Circumscribed radius around the vertex mean
	var radius float64
	for _, poly := range mp {
		for _, p := range poly[0] {
			radius = math.Max(radius, c.DistanceMeters(center, toCoordinates(p)))
		}
	}

	return Region{
		Name:          fmt.Sprintf("Polygon %.4f, %.4f", center.Lat, center.Lon),
		Kind:          KindPolygon,
		Center:        center,
		Zoom:          drawnZoom,
		RadiusMeters:  radius,
		RadiusDegrees: radius / MetersPerDegree,
		AreaKm2:       c.ApproxAreaKm2(bound.Top()-bound.Bottom(), bound.Right()-bound.Left(), center.Lat),
		GeodesicKm2:   math.Abs(orbgeo.Area(mp)) / 1e6,
		Bound:         bound,
	}, nil
}

// radiusProperty reads the optional "radius" feature property
func radiusProperty(props geojson.Properties) (float64, error) {
	v, ok := props["radius"]
	if !ok || v == nil {
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: radius property must be a number", ErrInvalidGeometry)
	}
	return f, nil
}

func checkPoint(p orb.Point) error {
	if math.IsNaN(p.Lat()) || math.IsNaN(p.Lon()) || math.Abs(p.Lat()) > 90 || math.Abs(p.Lon()) > 180 {
		return fmt.Errorf("%w: coordinate out of range (%v, %v)", ErrInvalidGeometry, p.Lat(), p.Lon())
	}
	return nil
}

func toCoordinates(p orb.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Lat(), Lon: p.Lon()}
}
