package ndvi

import (
	"math"
	"math/rand/v2"
)

// Synthesize generates a simulated NDVI field: uniform noise over the nominal range plus a
// smooth sin/cos pattern, clamped to [MinNDVI, MaxNDVI].
func Synthesize(height, width int, rng *rand.Rand) (*Raster, error) {
	r, err := NewRaster(height, width, 0)
	if err != nil {
		return nil, err
	}
	span := MaxNDVI - MinNDVI
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := MinNDVI + rng.Float64()*span
			pattern := math.Sin(float64(y)/10) * math.Cos(float64(x)/10) * 0.3
			r.values[y*width+x] = clamp(v+pattern, MinNDVI, MaxNDVI)
		}
	}
	return r, nil
}
