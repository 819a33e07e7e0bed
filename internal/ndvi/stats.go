package ndvi

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// Stats summarises the valid (non-cloud) NDVI values of a raster
type Stats struct {
	Min         float64 `json:"min"`
	Mean        float64 `json:"mean"`
	Max         float64 `json:"max"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	ValidPixels int     `json:"valid_pixels"`
}

// IsValid reports whether v counts as a measurement under policy p.
// Under Hide only NaN is excluded, otherwise everything at or below the cloud sentinel.
func IsValid(v float64, p Policy) bool {
	if p == PolicyHide {
		return !math.IsNaN(v)
	}
	return v > CloudSentinel
}

// ValidValues returns the values of r that count as measurements under p
func ValidValues(r *Raster, p Policy) []float64 {
	out := make([]float64, 0, r.Len())
	for _, v := range r.values {
		if IsValid(v, p) {
			out = append(out, v)
		}
	}
	return out
}

// ComputeStats returns min/mean/max (and median/stddev) of the valid values.
// It returns ErrNoValidData when nothing is left after cloud treatment.
func ComputeStats(r *Raster, p Policy) (Stats, error) {
	values := stats.Float64Data(ValidValues(r, p))
	if values.Len() == 0 {
		return Stats{}, ErrNoValidData
	}

	var (
		s   = Stats{ValidPixels: values.Len()}
		err error
	)
	if s.Min, err = values.Min(); err != nil {
		return Stats{}, fmt.Errorf("min: %w", err)
	}
	if s.Max, err = values.Max(); err != nil {
		return Stats{}, fmt.Errorf("max: %w", err)
	}
	if s.Mean, err = values.Mean(); err != nil {
		return Stats{}, fmt.Errorf("mean: %w", err)
	}
	if s.Median, err = values.Median(); err != nil {
		return Stats{}, fmt.Errorf("median: %w", err)
	}
	if s.StdDev, err = values.StandardDeviation(); err != nil {
		return Stats{}, fmt.Errorf("std dev: %w", err)
	}
	return s, nil
}
