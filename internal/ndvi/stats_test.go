package ndvi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatsSkipsClouds(t *testing.T) {
	r, err := RasterFromRows([][]float64{
		{0.1, 0.2, CloudSentinel},
		{0.3, 0.4, 0.5},
	})
	require.NoError(t, err)

	s, err := ComputeStats(r, PolicyShow)
	require.NoError(t, err)
	assert.Equal(t, 5, s.ValidPixels)
	assert.InDelta(t, 0.1, s.Min, 1e-12)
	assert.InDelta(t, 0.5, s.Max, 1e-12)
	assert.InDelta(t, 0.3, s.Mean, 1e-12)
	assert.InDelta(t, 0.3, s.Median, 1e-12)
	assert.Positive(t, s.StdDev)
}

func TestComputeStatsHideKeepsLowValues(t *testing.T) {
	r, err := RasterFromRows([][]float64{{math.NaN(), -0.5, 0.5}})
	require.NoError(t, err)

	s, err := ComputeStats(r, PolicyHide)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ValidPixels)
	assert.InDelta(t, -0.5, s.Min, 1e-12)
	assert.InDelta(t, 0.0, s.Mean, 1e-12)
}

func TestComputeStatsNoValidData(t *testing.T) {
	hidden, err := RasterFromRows([][]float64{{math.NaN(), math.NaN()}})
	require.NoError(t, err)
	_, err = ComputeStats(hidden, PolicyHide)
	assert.ErrorIs(t, err, ErrNoValidData)

	shown := uniformRaster(t, 3, 3, CloudSentinel)
	_, err = ComputeStats(shown, PolicyShow)
	assert.ErrorIs(t, err, ErrNoValidData)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(-0.2, PolicyShow))
	assert.False(t, IsValid(CloudSentinel, PolicyShow))
	assert.False(t, IsValid(math.NaN(), PolicyHide))
	assert.True(t, IsValid(-0.4, PolicyHide))
	assert.True(t, IsValid(0.3, PolicyInterpolate))
}
