package ndvi

import "math"

// Classification is the per-pixel result of sweeping a masked raster through a scheme
type Classification struct {
	Height int
	Width  int
	// Colors holds one display color per pixel, row-major
	Colors []RGB
	// Counts holds the pixel count of every class, in scheme order
	Counts []int
	// ValidPixels is the number of non-cloud pixels that were classified
	ValidPixels int

	scheme Scheme
}

// ClassPercentage is the share of valid pixels falling into one class
type ClassPercentage struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Pixels  int     `json:"pixels"`
}

// ClassPercentages are the per-class shares in scheme order. When ValidPixels is zero all
// shares are zero and must not be read as measurements.
type ClassPercentages struct {
	Entries     []ClassPercentage
	ValidPixels int
}

// HasValidData reports whether at least one pixel was classified
func (p ClassPercentages) HasValidData() bool {
	return p.ValidPixels > 0
}

// Get returns the percentage for label
func (p ClassPercentages) Get(label string) float64 {
	for _, e := range p.Entries {
		if e.Label == label {
			return e.Percent
		}
	}
	return 0
}

// Total returns the sum of all percentages (100 with data, 0 without)
func (p ClassPercentages) Total() float64 {
	total := 0.0
	for _, e := range p.Entries {
		total += e.Percent
	}
	return total
}

// IsRemovedCloud reports whether v is the marker of a removed cloud pixel
func IsRemovedCloud(v float64) bool {
	return math.IsNaN(v)
}

// IsShownCloud reports whether v carries the cloud sentinel
func IsShownCloud(v float64) bool {
	return v <= CloudSentinel
}

// ClassifyRaster classifies every pixel of a masked raster exactly once. Cloud pixels get
// their cloud color and are left out of the counts.
func ClassifyRaster(r *Raster, s Scheme) *Classification {
	c := &Classification{
		Height: r.Height,
		Width:  r.Width,
		Colors: make([]RGB, r.Len()),
		Counts: make([]int, s.Len()),
		scheme: s,
	}

	bands := splitRows(r.Height)
	partial := make([][]int, len(bands))
	forEachBand(bands, func(i int, b rowBand) {
		counts := make([]int, s.Len())
		for idx := b.start * r.Width; idx < b.end*r.Width; idx++ {
			v := r.values[idx]
			switch {
			case IsRemovedCloud(v):
				c.Colors[idx] = RemovedCloudColor
			case IsShownCloud(v):
				c.Colors[idx] = ShownCloudColor
			default:
				k := s.index(v)
				c.Colors[idx] = s.bands()[k].Color
				counts[k]++
			}
		}
		partial[i] = counts
	})

	for _, counts := range partial {
		for k, n := range counts {
			c.Counts[k] += n
			c.ValidPixels += n
		}
	}
	return c
}

// HasValidData reports whether any pixel was classified
func (c *Classification) HasValidData() bool {
	return c.ValidPixels > 0
}

// Percentages converts the counts into shares of the valid pixels
func (c *Classification) Percentages() ClassPercentages {
	denominator := float64(max(c.ValidPixels, 1))
	entries := make([]ClassPercentage, len(c.Counts))
	for k, n := range c.Counts {
		entries[k] = ClassPercentage{
			Label:   c.scheme.bands()[k].Label,
			Percent: float64(n) / denominator * 100,
			Pixels:  n,
		}
	}
	return ClassPercentages{Entries: entries, ValidPixels: c.ValidPixels}
}
