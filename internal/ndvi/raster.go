package ndvi

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShapeMismatch is returned when a cloud mask and an NDVI raster differ in dimensions
	ErrShapeMismatch = errors.New("raster shape mismatch")
	// ErrNoValidData is returned when every pixel is cloud-covered and nothing can be measured
	ErrNoValidData = errors.New("no analyzable data: every pixel is cloud-covered")
	// ErrInvalidDimensions is returned for non-positive raster dimensions
	ErrInvalidDimensions = errors.New("raster dimensions must be positive")
)

// Raster is a row-major grid of NDVI values.
// A raster is never modified once it has been handed out; operations return new rasters.
type Raster struct {
	Height int
	Width  int
	values []float64
}

// NewRaster creates a raster filled with the given value
func NewRaster(height, width int, fill float64) (*Raster, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, height, width)
	}
	values := make([]float64, height*width)
	if fill != 0 {
		for i := range values {
			values[i] = fill
		}
	}
	return &Raster{Height: height, Width: width, values: values}, nil
}

// RasterFromRows builds a raster from a slice of equally long rows
func RasterFromRows(rows [][]float64) (*Raster, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidDimensions)
	}
	height, width := len(rows), len(rows[0])
	values := make([]float64, 0, height*width)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrShapeMismatch, y, len(row), width)
		}
		values = append(values, row...)
	}
	return &Raster{Height: height, Width: width, values: values}, nil
}

// At returns the value at row y, column x
func (r *Raster) At(y, x int) float64 {
	return r.values[y*r.Width+x]
}

// Len returns the number of pixels
func (r *Raster) Len() int {
	return len(r.values)
}

// Values returns a copy of the row-major values
func (r *Raster) Values() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

func (r *Raster) clone() *Raster {
	return &Raster{Height: r.Height, Width: r.Width, values: r.Values()}
}

// Mask is a row-major binary cloud mask (true = cloud)
type Mask struct {
	Height int
	Width  int
	cells  []bool
}

// NewMask creates an all-clear mask
func NewMask(height, width int) (*Mask, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, height, width)
	}
	return &Mask{Height: height, Width: width, cells: make([]bool, height*width)}, nil
}

// MaskFromRows builds a mask from rows of booleans
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidDimensions)
	}
	m := &Mask{Height: len(rows), Width: len(rows[0]), cells: make([]bool, 0, len(rows)*len(rows[0]))}
	for y, row := range rows {
		if len(row) != m.Width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrShapeMismatch, y, len(row), m.Width)
		}
		m.cells = append(m.cells, row...)
	}
	return m, nil
}

// Cloud reports whether the pixel at row y, column x is a cloud
func (m *Mask) Cloud(y, x int) bool {
	return m.cells[y*m.Width+x]
}

// Len returns the number of cells
func (m *Mask) Len() int {
	return len(m.cells)
}

// CloudCount returns the number of cloud cells
func (m *Mask) CloudCount() int {
	count := 0
	for _, c := range m.cells {
		if c {
			count++
		}
	}
	return count
}

// CloudPercentage returns the share of cloud cells in percent
func (m *Mask) CloudPercentage() float64 {
	if len(m.cells) == 0 {
		return 0
	}
	return float64(m.CloudCount()) / float64(len(m.cells)) * 100
}

// checkShape fails fast when the mask does not cover the raster exactly
func checkShape(r *Raster, m *Mask) error {
	if r.Height != m.Height || r.Width != m.Width {
		return fmt.Errorf("%w: raster %dx%d, mask %dx%d", ErrShapeMismatch, r.Height, r.Width, m.Height, m.Width)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
