package ndvi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func percentages(valid int, pairs map[string]float64) ClassPercentages {
	p := ClassPercentages{ValidPixels: valid}
	for _, c := range DefaultScheme().Classes() {
		p.Entries = append(p.Entries, ClassPercentage{Label: c.Label, Percent: pairs[c.Label]})
	}
	return p
}

func TestScoreHealthAllGood(t *testing.T) {
	h, err := ScoreHealth(percentages(100, map[string]float64{LabelGood: 100}), DefaultScheme())
	require.NoError(t, err)
	assert.InDelta(t, 75.0, h.Score, 1e-9)
	assert.Equal(t, StatusExcellent, h.Status)
	assert.Equal(t, LabelGood, h.Dominant)
	assert.InDelta(t, 100.0, h.DominantPercent, 1e-9)
}

func TestScoreHealthNoData(t *testing.T) {
	_, err := ScoreHealth(percentages(0, nil), DefaultScheme())
	assert.ErrorIs(t, err, ErrNoValidData)
}

func TestScoreHealthMovingShareUpwardsNeverLowersScore(t *testing.T) {
	s := DefaultScheme()
	labels := []string{LabelWater, LabelSparse, LabelModerate, LabelGood, LabelDense}
	for i := 0; i < len(labels)-1; i++ {
		low, err := ScoreHealth(percentages(10, map[string]float64{labels[i]: 60, labels[i+1]: 40}), s)
		require.NoError(t, err)
		high, err := ScoreHealth(percentages(10, map[string]float64{labels[i]: 40, labels[i+1]: 60}), s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, high.Score, low.Score, labels[i])
	}
}

func TestScoreHealthTieGoesToFirstClass(t *testing.T) {
	h, err := ScoreHealth(percentages(10, map[string]float64{LabelSparse: 50, LabelDense: 50}), DefaultScheme())
	require.NoError(t, err)
	assert.Equal(t, LabelSparse, h.Dominant)
	assert.InDelta(t, 62.5, h.Score, 1e-9)
	assert.Equal(t, StatusGood, h.Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Status
	}{
		{100, StatusExcellent},
		{70.01, StatusExcellent},
		{70, StatusGood},
		{50.5, StatusGood},
		{50, StatusModerate},
		{30, StatusPoor},
		{0, StatusPoor},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, StatusFor(tt.score), "score %v", tt.score)
	}
}
