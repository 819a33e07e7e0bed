package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"

	"crop-health-monitor/internal/ndvi"
)

// Histogram chart geometry
const (
	ChartWidth  = 800
	ChartHeight = 360

	marginLeft   = 60.0
	marginRight  = 20.0
	marginTop    = 36.0
	marginBottom = 48.0
)

// HistogramChart draws the NDVI distribution with class threshold markers and a legend.
// With clouds set the legend gets an entry for excluded cloud pixels.
func HistogramChart(h ndvi.Histogram, s ndvi.Scheme, clouds bool) (image.Image, error) {
	if len(h.Bins) == 0 {
		return nil, ErrEmptyImage
	}

	dc := gg.NewContext(ChartWidth, ChartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotW := ChartWidth - marginLeft - marginRight
	plotH := ChartHeight - marginTop - marginBottom
	lo, hi := h.Bins[0].Lower, h.Bins[len(h.Bins)-1].Upper
	maxCount := 0
	for _, b := range h.Bins {
		maxCount = max(maxCount, b.Count)
	}
	yMax := float64(max(maxCount, 1)) * 1.1
	xOf := func(v float64) float64 { return marginLeft + (v-lo)/(hi-lo)*plotW }
	yOf := func(c float64) float64 { return marginTop + plotH - c/yMax*plotH }

	// grid
	dc.SetRGBA(0, 0, 0, 0.1)
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		y := yOf(yMax * float64(i) / 4)
		dc.DrawLine(marginLeft, y, marginLeft+plotW, y)
		dc.Stroke()
	}

	for _, b := range h.Bins {
		x0, x1 := xOf(b.Lower), xOf(b.Upper)
		y := yOf(float64(b.Count))
		dc.SetRGBA255(int(b.Color.R), int(b.Color.G), int(b.Color.B), 200)
		dc.DrawRectangle(x0, y, x1-x0, marginTop+plotH-y)
		dc.Fill()
	}

	// class thresholds, skipping the bottom of the scheme
	dc.SetRGBA(0.5, 0.5, 0.5, 0.7)
	dc.SetDash(6, 4)
	for _, c := range s.Classes()[1:] {
		if c.Min < lo || c.Min > hi {
			continue
		}
		x := xOf(c.Min)
		dc.DrawLine(x, marginTop, x, marginTop+plotH)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%g", c.Min), x+3, marginTop+10, 0, 0.5)
	}
	dc.SetDash()

	// axes
	dc.SetRGB(0, 0, 0)
	dc.DrawLine(marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)
	dc.DrawLine(marginLeft, marginTop, marginLeft, marginTop+plotH)
	dc.Stroke()
	for i := 0; i <= 4; i++ {
		v := lo + (hi-lo)*float64(i)/4
		dc.DrawStringAnchored(fmt.Sprintf("%.2f", v), xOf(v), marginTop+plotH+12, 0.5, 0.5)
		c := yMax * float64(i) / 4
		dc.DrawStringAnchored(fmt.Sprintf("%d", int(math.Round(c))), marginLeft-6, yOf(c), 1, 0.5)
	}
	dc.DrawStringAnchored("Distribution of NDVI Values (Excluding Clouds)", ChartWidth/2, marginTop/2, 0.5, 0.5)
	dc.DrawStringAnchored("NDVI Value", marginLeft+plotW/2, ChartHeight-12, 0.5, 0.5)
	dc.DrawStringAnchored("Pixel Count", 12, marginTop-10, 0, 0.5)

	drawLegend(dc, s, clouds, marginLeft+plotW-190, marginTop+6)
	return dc.Image(), nil
}

func drawLegend(dc *gg.Context, s ndvi.Scheme, clouds bool, x, y float64) {
	type entry struct {
		label string
		color ndvi.RGB
	}
	var entries []entry
	for _, c := range s.Classes() {
		entries = append(entries, entry{c.Label, c.Color})
	}
	if clouds {
		entries = append(entries, entry{"Clouds (excluded)", ndvi.BelowRangeColor})
	}

	const row = 18.0
	dc.SetRGBA(1, 1, 1, 0.85)
	dc.DrawRectangle(x-6, y-4, 190, row*float64(len(entries))+6)
	dc.Fill()
	for i, e := range entries {
		ey := y + float64(i)*row
		dc.SetRGB255(int(e.color.R), int(e.color.G), int(e.color.B))
		dc.DrawRectangle(x, ey, 12, 12)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.DrawRectangle(x, ey, 12, 12)
		dc.Stroke()
		dc.DrawStringAnchored(e.label, x+18, ey+6, 0, 0.5)
	}
}

// HistogramPNG writes the histogram chart as PNG
func (r *Renderer) HistogramPNG(w io.Writer, h ndvi.Histogram, s ndvi.Scheme, clouds bool) error {
	img, err := HistogramChart(h, s, clouds)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
