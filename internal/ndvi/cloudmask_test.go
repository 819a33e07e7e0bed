package ndvi

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestGenerateZeroCoverageIsClear(t *testing.T) {
	for _, size := range []int{1, 5, 10, 30} {
		m, err := NewCloudMaskGenerator(seeded(1)).Generate(20, 30, 0, size)
		require.NoError(t, err)
		assert.Equal(t, 20, m.Height)
		assert.Equal(t, 30, m.Width)
		assert.Zero(t, m.CloudCount(), "cluster size %d", size)
	}
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	a, err := NewCloudMaskGenerator(seeded(42)).Generate(100, 100, 0.3, 10)
	require.NoError(t, err)
	b, err := NewCloudMaskGenerator(seeded(42)).Generate(100, 100, 0.3, 10)
	require.NoError(t, err)
	assert.Equal(t, a.cells, b.cells)
	assert.Positive(t, a.CloudCount())
}

func TestGenerateSinglePixelClusters(t *testing.T) {
	// cluster size 1 gives radius 0, so every cluster marks exactly its centre
	m, err := NewCloudMaskGenerator(seeded(7)).Generate(10, 10, 1.0, 1)
	require.NoError(t, err)
	assert.Positive(t, m.CloudCount())
	assert.LessOrEqual(t, m.CloudCount(), 100)
}

func TestGenerateCoreAlwaysCloud(t *testing.T) {
	// One cluster of size 10 in a 10x10 grid: radius >= 5, so the centre is always cloud
	g := NewCloudMaskGenerator(seeded(3))
	m, err := g.Generate(10, 10, 1.0, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.CloudCount(), 1)
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	g := NewCloudMaskGenerator(seeded(1))
	_, err := g.Generate(10, 10, -0.1, 5)
	assert.Error(t, err)
	_, err = g.Generate(10, 10, 1.1, 5)
	assert.Error(t, err)
	_, err = g.Generate(10, 10, 0.5, 0)
	assert.Error(t, err)
	_, err = g.Generate(0, 10, 0.5, 5)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestMaskCloudPercentage(t *testing.T) {
	m, err := MaskFromRows([][]bool{{true, false}, {false, false}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.CloudCount())
	assert.InDelta(t, 25.0, m.CloudPercentage(), 1e-9)
	assert.True(t, m.Cloud(0, 0))
	assert.False(t, m.Cloud(1, 1))
}

func TestPaintClusterGeometry(t *testing.T) {
	const (
		size   = 41
		centre = 20
		radius = 10
	)
	var rim, rimCloud int
	for seed := uint64(1); seed <= 5; seed++ {
		m, err := NewMask(size, size)
		require.NoError(t, err)
		NewCloudMaskGenerator(seeded(seed)).paintCluster(m, centre, centre, radius)

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dy, dx := float64(y-centre), float64(x-centre)
				dist := math.Sqrt(dy*dy + dx*dx)
				switch {
				case dist <= radius*coreFraction:
					require.Truef(t, m.Cloud(y, x), "core pixel (%d,%d) must be cloud", y, x)
				case dist <= radius:
					rim++
					if m.Cloud(y, x) {
						rimCloud++
					}
				default:
					require.Falsef(t, m.Cloud(y, x), "pixel (%d,%d) outside the radius must be clear", y, x)
				}
			}
		}
	}
	require.Positive(t, rim)
	assert.InDelta(t, edgeProbability, float64(rimCloud)/float64(rim), 0.08)
}

func TestPaintClusterClipsAtBorder(t *testing.T) {
	m, err := NewMask(5, 5)
	require.NoError(t, err)
	NewCloudMaskGenerator(seeded(2)).paintCluster(m, 0, 0, 3)
	assert.True(t, m.Cloud(0, 0))
	assert.True(t, m.Cloud(1, 1))
	assert.False(t, m.Cloud(4, 4))
}

func TestGenerateClusterCountIsFloored(t *testing.T) {
	// 10*10*0.99/10^2 = 0.99 clusters floors to none
	m, err := NewCloudMaskGenerator(seeded(8)).Generate(10, 10, 0.99, 10)
	require.NoError(t, err)
	assert.Zero(t, m.CloudCount())

	// 20*20*0.25/10^2 = 1 cluster, radius in [5,10) always paints its core
	m, err = NewCloudMaskGenerator(seeded(8)).Generate(20, 20, 0.25, 10)
	require.NoError(t, err)
	assert.Positive(t, m.CloudCount())
}
