package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"crop-health-monitor/internal/ndvi"
)

// ErrEmptyImage is returned when there is nothing to draw
var ErrEmptyImage = errors.New("render: empty image")

// Renderer turns colour rasters and histograms into images
type Renderer struct {
	scale int
}

// NewRenderer creates a renderer that upscales rasters by scale (at least 1)
func NewRenderer(scale int) *Renderer {
	return &Renderer{scale: max(scale, 1)}
}

// Scale returns the upscaling factor
func (r *Renderer) Scale() int {
	return r.scale
}

// Image builds an RGBA image from row-major colours
func Image(width, height int, colors []ndvi.RGB) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}
	if len(colors) != width*height {
		return nil, fmt.Errorf("render: %d colours for a %dx%d image", len(colors), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, c := range colors {
		img.SetRGBA(i%width, i/width, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
	}
	return img, nil
}

// Upscale enlarges src by an integer factor keeping pixels sharp
func Upscale(src image.Image, scale int) image.Image {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// ColorsPNG writes the colour raster as an upscaled PNG
func (r *Renderer) ColorsPNG(w io.Writer, width, height int, colors []ndvi.RGB) error {
	img, err := Image(width, height, colors)
	if err != nil {
		return err
	}
	if err := png.Encode(w, Upscale(img, r.scale)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// NoData is the 16-bit value written for cloud pixels in NDVI exports
const NoData = 0

// NDVIGray maps a masked NDVI value to 16-bit gray: [-1,1] onto [1,65535], clouds to NoData
func NDVIGray(v float64) uint16 {
	if ndvi.IsRemovedCloud(v) || ndvi.IsShownCloud(v) {
		return NoData
	}
	t := (math.Max(-1, math.Min(1, v)) + 1) / 2
	return uint16(1 + math.Round(t*65534))
}

// NDVIValue inverts NDVIGray for non-NoData samples
func NDVIValue(g uint16) float64 {
	if g == NoData {
		return math.NaN()
	}
	return float64(g-1)/65534*2 - 1
}

// NDVITIFF exports the masked NDVI raster as a deflate-compressed 16-bit gray TIFF
func (r *Renderer) NDVITIFF(w io.Writer, raster *ndvi.Raster) error {
	img := image.NewGray16(image.Rect(0, 0, raster.Width, raster.Height))
	for y := 0; y < raster.Height; y++ {
		for x := 0; x < raster.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: NDVIGray(raster.At(y, x))})
		}
	}
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode tiff: %w", err)
	}
	return nil
}
