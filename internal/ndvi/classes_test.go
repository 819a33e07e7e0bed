package ndvi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemeIsValid(t *testing.T) {
	s := DefaultScheme()
	require.NoError(t, s.Validate())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, MinNDVI, s.Lower())
	assert.Equal(t, MaxNDVI, s.Upper())
}

func TestClassifyPartitionsNominalRange(t *testing.T) {
	s := DefaultScheme()
	for v := MinNDVI; v < MaxNDVI; v += 0.001 {
		matches := 0
		for _, c := range s.Classes() {
			if c.Contains(v) {
				matches++
			}
		}
		require.Equalf(t, 1, matches, "value %v must fall in exactly one band", v)
		assert.True(t, s.Classify(v).Contains(v))
	}
}

func TestClassifyBoundaries(t *testing.T) {
	s := DefaultScheme()
	tests := []struct {
		value float64
		label string
	}{
		{-0.2, LabelWater},
		{-0.0001, LabelWater},
		{0.0, LabelSparse},
		{0.2, LabelModerate},
		{0.4, LabelGood},
		{0.5, LabelGood},
		{0.6, LabelDense},
		{0.8999, LabelDense},
		{0.9, LabelDense},
		{1.5, LabelDense},
		{-0.21, LabelWater},
		{-5, LabelWater},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.label, s.Classify(tt.value).Label, "value %v", tt.value)
	}
}

func TestNewSchemeRejectsBrokenBands(t *testing.T) {
	_, err := NewScheme(nil)
	assert.Error(t, err)

	_, err = NewScheme([]VegetationClass{
		{Min: 0, Max: 0.2, Label: "a"},
		{Min: 0.3, Max: 0.5, Label: "b"},
	})
	assert.ErrorContains(t, err, "not contiguous")

	_, err = NewScheme([]VegetationClass{{Min: 0.2, Max: 0.2, Label: "empty"}})
	assert.ErrorContains(t, err, "empty interval")

	_, err = NewScheme([]VegetationClass{{Min: 0, Max: 1, Label: "heavy", Weight: 1.5}})
	assert.ErrorContains(t, err, "weight")
}

func TestSchemeClassesAreCopied(t *testing.T) {
	s := DefaultScheme()
	classes := s.Classes()
	classes[0].Label = "changed"
	assert.Equal(t, LabelWater, s.Classify(-0.1).Label)
}

func TestRGBHex(t *testing.T) {
	assert.Equal(t, "#90ee90", RGB{144, 238, 144}.Hex())
}

func TestZeroSchemeUsesDefaultBands(t *testing.T) {
	var s Scheme
	require.NoError(t, s.Validate())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, MinNDVI, s.Lower())
	assert.Equal(t, MaxNDVI, s.Upper())
	assert.Equal(t, LabelGood, s.Classify(0.45).Label)
	assert.Equal(t, LabelWater, s.Classify(-3).Label)

	r, err := RasterFromRows([][]float64{{0.1, 0.7}, {-0.1, 0.3}})
	require.NoError(t, err)
	p := ClassifyRaster(r, s).Percentages()
	assert.Equal(t, 4, p.ValidPixels)
	assert.InDelta(t, 25.0, p.Get(LabelDense), 1e-9)
}
