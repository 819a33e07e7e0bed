package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"crop-health-monitor/internal/ndvi"
)

func TestColorsPNGUpscales(t *testing.T) {
	colors := []ndvi.RGB{
		{R: 255}, {G: 255}, {B: 255},
		{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}, {R: 7, G: 8, B: 9},
	}
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(3).ColorsPNG(&buf, 3, 2, colors))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 9, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	r, g, b, _ := img.At(8, 5).RGBA()
	assert.Equal(t, []uint32{7, 8, 9}, []uint32{r >> 8, g >> 8, b >> 8})
	r, _, _, _ = img.At(2, 2).RGBA()
	assert.Equal(t, uint32(255), r>>8)
}

func TestColorsPNGRejectsBadInput(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, NewRenderer(1).ColorsPNG(&buf, 0, 2, nil), ErrEmptyImage)
	assert.Error(t, NewRenderer(1).ColorsPNG(&buf, 2, 2, make([]ndvi.RGB, 3)))
}

func TestNewRendererClampsScale(t *testing.T) {
	assert.Equal(t, 1, NewRenderer(0).Scale())
	assert.Equal(t, 4, NewRenderer(4).Scale())
}

func TestNDVIGrayRoundTrip(t *testing.T) {
	assert.Equal(t, uint16(NoData), NDVIGray(math.NaN()))
	assert.Equal(t, uint16(NoData), NDVIGray(ndvi.CloudSentinel))
	assert.Equal(t, uint16(65535), NDVIGray(1))
	for _, v := range []float64{-0.2, 0, 0.37, 0.9} {
		assert.InDelta(t, v, NDVIValue(NDVIGray(v)), 1e-4)
	}
	assert.True(t, math.IsNaN(NDVIValue(NoData)))
}

func TestNDVITIFF(t *testing.T) {
	raster, err := ndvi.RasterFromRows([][]float64{{0.5, math.NaN()}, {-0.1, 0.8}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(4).NDVITIFF(&buf, raster))

	img, err := tiff.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	y, _, _, _ := img.At(1, 0).RGBA()
	assert.Equal(t, uint32(NoData), y)
	y, _, _, _ = img.At(0, 0).RGBA()
	assert.InDelta(t, 0.5, NDVIValue(uint16(y)), 1e-4)
}

func TestHistogramPNG(t *testing.T) {
	s := ndvi.DefaultScheme()
	h := ndvi.ComputeHistogram([]float64{-0.1, 0.1, 0.3, 0.5, 0.5, 0.7}, ndvi.DefaultHistogramBins, s)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(1).HistogramPNG(&buf, h, s, true))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, ChartWidth, img.Bounds().Dx())
	assert.Equal(t, ChartHeight, img.Bounds().Dy())

	_, err = HistogramChart(ndvi.Histogram{}, s, false)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
