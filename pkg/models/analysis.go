package models

import (
	"encoding/json"
	"time"
)

// Coordinates is a WGS84 point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AnalyzeRequest describes one crop health analysis.
// Either Location or Geometry selects the area; with neither the default overview of India is used.
type AnalyzeRequest struct {
	Location      string          `json:"location,omitempty" form:"location"`
	Geometry      json.RawMessage `json:"geometry,omitempty" form:"-"`
	AreaSize      string          `json:"area_size,omitempty" form:"area_size"`
	CloudsEnabled *bool           `json:"clouds_enabled,omitempty" form:"clouds_enabled"`
	CloudCoverage *float64        `json:"cloud_coverage,omitempty" form:"cloud_coverage"`
	CloudSize     int             `json:"cloud_size,omitempty" form:"cloud_size"`
	CloudHandling string          `json:"cloud_handling,omitempty" form:"cloud_handling"`
	Seed          *uint64         `json:"seed,omitempty" form:"seed"`
}

// RegionInfo describes the resolved area of interest
type RegionInfo struct {
	Name          string      `json:"name"`
	Kind          string      `json:"kind"`
	Center        Coordinates `json:"center"`
	Zoom          int         `json:"zoom"`
	AreaSize      string      `json:"area_size,omitempty"`
	RadiusDegrees float64     `json:"radius_degrees,omitempty"`
	RadiusMeters  float64     `json:"radius_meters,omitempty"`
	AreaKm2       float64     `json:"area_km2"`
	GeodesicKm2   float64     `json:"geodesic_area_km2,omitempty"`
}

// CloudInfo summarises the simulated cloud cover and how it was treated
type CloudInfo struct {
	Enabled         bool    `json:"enabled"`
	Coverage        float64 `json:"coverage"`
	ClusterSize     int     `json:"cluster_size"`
	Handling        string  `json:"handling"`
	HandlingLabel   string  `json:"handling_label"`
	CloudPercent    float64 `json:"cloud_percent"`
	AnalyzedPercent float64 `json:"analyzed_percent"`
	Warning         string  `json:"warning,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// ClassBreakdown is one vegetation class with its share of the valid pixels
type ClassBreakdown struct {
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Weight      float64 `json:"weight"`
	Percent     float64 `json:"percent"`
	Pixels      int     `json:"pixels"`
}

// HealthInfo is the weighted crop health assessment
type HealthInfo struct {
	Score           float64 `json:"score"`
	Status          string  `json:"status"`
	Message         string  `json:"message"`
	DominantClass   string  `json:"dominant_class"`
	DominantPercent float64 `json:"dominant_percent"`
}

// StatsInfo holds NDVI statistics of the valid pixels
type StatsInfo struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// HistogramBin is one bar of the NDVI histogram
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
	Color string  `json:"color"`
}

// AnalyzeResponse is the full result of an analysis
type AnalyzeResponse struct {
	ID              string            `json:"id"`
	Seed            uint64            `json:"seed"`
	Region          RegionInfo        `json:"region"`
	Clouds          CloudInfo         `json:"clouds"`
	Classes         []ClassBreakdown  `json:"classes"`
	TotalPixels     int               `json:"total_pixels"`
	ValidPixels     int               `json:"valid_pixels"`
	NoValidData     bool              `json:"no_valid_data"`
	Message         string            `json:"message,omitempty"`
	Health          *HealthInfo       `json:"health,omitempty"`
	Stats           *StatsInfo        `json:"stats,omitempty"`
	Histogram       []HistogramBin    `json:"histogram,omitempty"`
	Insights        []string          `json:"insights"`
	Recommendations []string          `json:"recommendations"`
	Images          map[string]string `json:"images,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at"`
	DurationMs      int64             `json:"duration_ms"`
}

// LocationInfo is a predefined agricultural region
type LocationInfo struct {
	Name   string      `json:"name"`
	Center Coordinates `json:"center"`
	Zoom   int         `json:"zoom"`
}

// AreaSizeInfo is a selectable analysis radius for predefined locations
type AreaSizeInfo struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	RadiusDegrees float64 `json:"radius_degrees"`
	RadiusMeters  float64 `json:"radius_meters"`
}

// LocationsResponse lists the predefined locations and area sizes
type LocationsResponse struct {
	Locations []LocationInfo `json:"locations"`
	AreaSizes []AreaSizeInfo `json:"area_sizes"`
}

// ClassesResponse is the classification legend
type ClassesResponse struct {
	Classes  []ClassBreakdown `json:"classes"`
	Policies []string         `json:"cloud_policies"`
}

// HealthResponse is the service health check answer
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
