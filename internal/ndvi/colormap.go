package ndvi

import (
	"math"
	"sort"
)

// Colorize maps a masked raster to the red/green NDVI view: red grows with 1-v and green
// with v. Cloud pixels keep their cloud colors.
func Colorize(r *Raster) []RGB {
	out := make([]RGB, r.Len())
	forEachBand(splitRows(r.Height), func(_ int, b rowBand) {
		for idx := b.start * r.Width; idx < b.end*r.Width; idx++ {
			out[idx] = NDVIColor(r.values[idx])
		}
	})
	return out
}

// NDVIColor returns the display color of a single masked value
func NDVIColor(v float64) RGB {
	switch {
	case IsRemovedCloud(v):
		return RemovedCloudColor
	case IsShownCloud(v):
		return ShownCloudColor
	}
	return RGB{R: channel((1 - v) * 255), G: channel(v * 255)}
}

// CloudMaskColors renders the two-tone cloud mask view
func CloudMaskColors(m *Mask) []RGB {
	out := make([]RGB, m.Len())
	for i, cloud := range m.cells {
		if cloud {
			out[i] = CloudColor
		} else {
			out[i] = ClearSkyColor
		}
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(clamp(v, 0, 255))
}

// ColorStop is a color pinned at a position in [0,1]
type ColorStop struct {
	Pos   float64
	Color RGB
}

// ColorScale is a piecewise-linear color ramp over [0,1]
type ColorScale struct {
	stops []ColorStop
}

// NewColorScale places a stop at every band boundary of the scheme, normalised over the
// scheme range. The first class color is pinned at 0 and at its upper boundary.
func NewColorScale(s Scheme) ColorScale {
	lo, hi := s.Lower(), s.Upper()
	span := hi - lo
	stops := make([]ColorStop, 0, s.Len()+1)
	for i, c := range s.bands() {
		if i == 0 {
			stops = append(stops, ColorStop{Pos: (c.Min - lo) / span, Color: c.Color})
		}
		stops = append(stops, ColorStop{Pos: (c.Max - lo) / span, Color: c.Color})
	}
	return ColorScale{stops: stops}
}

// Stops returns a copy of the color stops
func (cs ColorScale) Stops() []ColorStop {
	return append([]ColorStop(nil), cs.stops...)
}

// At returns the interpolated color at t, clamped to [0,1]
func (cs ColorScale) At(t float64) RGB {
	if len(cs.stops) == 0 {
		return RGB{}
	}
	t = clamp(t, 0, 1)
	if t <= cs.stops[0].Pos {
		return cs.stops[0].Color
	}
	last := cs.stops[len(cs.stops)-1]
	if t >= last.Pos {
		return last.Color
	}

	// First stop strictly above t
	i := sort.Search(len(cs.stops), func(i int) bool { return cs.stops[i].Pos > t })
	a, b := cs.stops[i-1], cs.stops[i]
	f := (t - a.Pos) / (b.Pos - a.Pos)
	return RGB{
		R: lerp(a.Color.R, b.Color.R, f),
		G: lerp(a.Color.G, b.Color.G, f),
		B: lerp(a.Color.B, b.Color.B, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// HistogramBin is one bar of an NDVI histogram
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
	Color RGB     `json:"color"`
}

// Histogram is an equal-width histogram of NDVI values
type Histogram struct {
	Bins []HistogramBin `json:"bins"`
}

// DefaultHistogramBins is the bin count used by the analysis report
const DefaultHistogramBins = 20

// ComputeHistogram bins values over their own [min, max] range; the last bin is closed.
// Bars are colored by the scale at the normalised bin centre, bars centred below the
// scheme range get BelowRangeColor.
func ComputeHistogram(values []float64, bins int, s Scheme) Histogram {
	if len(values) == 0 || bins < 1 {
		return Histogram{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	width := (hi - lo) / float64(bins)
	h := Histogram{Bins: make([]HistogramBin, bins)}
	for i := range h.Bins {
		h.Bins[i].Lower = lo + float64(i)*width
		h.Bins[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		h.Bins[i].Count++
	}

	scale := NewColorScale(s)
	span := s.Upper() - s.Lower()
	for i := range h.Bins {
		centre := (h.Bins[i].Lower + h.Bins[i].Upper) / 2
		t := (centre - s.Lower()) / span
		if t < 0 {
			h.Bins[i].Color = BelowRangeColor
			continue
		}
		h.Bins[i].Color = scale.At(t)
	}
	return h
}
