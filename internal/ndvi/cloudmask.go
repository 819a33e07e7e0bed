package ndvi

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	// coreFraction of the cluster radius is always cloud
	coreFraction = 0.7
	// edgeProbability of a pixel in the feathered rim being cloud
	edgeProbability = 0.7
)

// CloudMaskGenerator simulates a QA60-style cloud mask made of circular clusters
type CloudMaskGenerator struct {
	rng *rand.Rand
}

// NewCloudMaskGenerator creates a generator drawing from rng
func NewCloudMaskGenerator(rng *rand.Rand) *CloudMaskGenerator {
	return &CloudMaskGenerator{rng: rng}
}

// Generate builds a mask of height x width with roughly coverage of it under clouds.
// Overlapping clusters may push the real coverage above the nominal value.
func (g *CloudMaskGenerator) Generate(height, width int, coverage float64, clusterSize int) (*Mask, error) {
	if coverage < 0 || coverage > 1 || math.IsNaN(coverage) {
		return nil, fmt.Errorf("cloud coverage %v outside [0,1]", coverage)
	}
	if clusterSize < 1 {
		return nil, fmt.Errorf("cloud cluster size must be positive, got %d", clusterSize)
	}
	mask, err := NewMask(height, width)
	if err != nil {
		return nil, err
	}

	numClusters := int(float64(height*width) * coverage / float64(clusterSize*clusterSize))
	for i := 0; i < numClusters; i++ {
		cy := g.rng.IntN(height)
		cx := g.rng.IntN(width)
		g.paintCluster(mask, cy, cx, g.radius(clusterSize))
	}
	return mask, nil
}

// radius draws an integer radius in [size/2, size)
func (g *CloudMaskGenerator) radius(size int) int {
	lo, hi := size/2, size
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo)
}

func (g *CloudMaskGenerator) paintCluster(mask *Mask, cy, cx, radius int) {
	r := float64(radius)
	core := r * coreFraction

	// Only the bounding box of the circle can be affected
	y0, y1 := max(0, cy-radius), min(mask.Height-1, cy+radius)
	x0, x1 := max(0, cx-radius), min(mask.Width-1, cx+radius)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dy, dx := float64(y-cy), float64(x-cx)
			dist := math.Sqrt(dy*dy + dx*dx)
			switch {
			case dist <= core:
				mask.cells[y*mask.Width+x] = true
			case dist <= r:
				if g.rng.Float64() < edgeProbability {
					mask.cells[y*mask.Width+x] = true
				}
			}
		}
	}
}
