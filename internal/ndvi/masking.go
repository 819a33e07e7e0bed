package ndvi

import (
	"fmt"
	"math"
	"strings"
)

// Policy decides what happens to cloudy pixels
type Policy int

const (
	// PolicyShow replaces cloudy pixels with CloudSentinel
	PolicyShow Policy = iota
	// PolicyHide replaces cloudy pixels with NaN
	PolicyHide
	// PolicyInterpolate fills cloudy pixels with a local 5x5 mean
	PolicyInterpolate
)

// interpolation kernel is kernelSize x kernelSize with uniform weights
const kernelSize = 5

// String returns the canonical policy name
func (p Policy) String() string {
	switch p {
	case PolicyShow:
		return "show"
	case PolicyHide:
		return "hide"
	case PolicyInterpolate:
		return "interpolate"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Label returns the human readable name of the policy
func (p Policy) Label() string {
	switch p {
	case PolicyShow:
		return "Mask Clouds (Show)"
	case PolicyHide:
		return "Remove Clouds (Hide)"
	case PolicyInterpolate:
		return "Interpolate"
	default:
		return p.String()
	}
}

// ParsePolicy accepts the canonical names, their aliases and the display labels
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "show", "mask", "mask clouds (show)":
		return PolicyShow, nil
	case "hide", "remove", "remove clouds (hide)":
		return PolicyHide, nil
	case "interpolate", "fill":
		return PolicyInterpolate, nil
	}
	return PolicyShow, fmt.Errorf("unknown cloud handling policy %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ApplyCloudMask combines an NDVI raster with a cloud mask under the given policy and
// returns a new raster of the same shape. The input raster is left untouched.
func ApplyCloudMask(r *Raster, m *Mask, p Policy) (*Raster, error) {
	if err := checkShape(r, m); err != nil {
		return nil, err
	}

	switch p {
	case PolicyShow:
		return replaceClouds(r, m, CloudSentinel), nil
	case PolicyHide:
		return replaceClouds(r, m, math.NaN()), nil
	case PolicyInterpolate:
		return interpolateClouds(r, m), nil
	default:
		return nil, fmt.Errorf("unknown cloud handling policy %d", int(p))
	}
}

func replaceClouds(r *Raster, m *Mask, value float64) *Raster {
	out := r.clone()
	for i, cloud := range m.cells {
		if cloud {
			out.values[i] = value
		}
	}
	return out
}

// interpolateClouds fills cloudy pixels with a 5x5 mean computed over the raster with the
// cloudy pixels set to zero. Near large clusters the zeros drag the fill value down; that
// bias is part of the method.
func interpolateClouds(r *Raster, m *Mask) *Raster {
	if m.CloudCount() == 0 {
		return r.clone()
	}

	zeroFilled := r.clone()
	for i, cloud := range m.cells {
		if cloud {
			zeroFilled.values[i] = 0
		}
	}

	out := r.clone()
	half := kernelSize / 2
	weight := 1.0 / float64(kernelSize*kernelSize)
	forEachBand(splitRows(r.Height), func(_ int, b rowBand) {
		for y := b.start; y < b.end; y++ {
			for x := 0; x < r.Width; x++ {
				i := y*r.Width + x
				if !m.cells[i] {
					continue
				}
				sum := 0.0
				for ky := -half; ky <= half; ky++ {
					yy := reflectIndex(y+ky, r.Height)
					for kx := -half; kx <= half; kx++ {
						xx := reflectIndex(x+kx, r.Width)
						sum += zeroFilled.values[yy*r.Width+xx]
					}
				}
				out.values[i] = sum * weight
			}
		}
	})
	return out
}

// reflectIndex maps i into [0, n) mirroring about the edges with the edge sample repeated
// (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}
