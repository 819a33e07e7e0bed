package ndvi

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinNDVI is the lower bound of the nominal NDVI range
	MinNDVI = -0.2
	// MaxNDVI is the upper bound of the nominal NDVI range
	MaxNDVI = 0.9
	// CloudSentinel marks clouds under the Show policy. It lies below MinNDVI so that
	// "real water" and "cloud" can be told apart with v <= CloudSentinel.
	CloudSentinel = -0.3
)

// RGB is a 3-channel display color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	// RemovedCloudColor paints pixels whose value was removed (Hide policy)
	RemovedCloudColor = RGB{255, 255, 255}
	// ShownCloudColor paints pixels carrying the cloud sentinel (Show policy)
	ShownCloudColor = RGB{200, 200, 255}
	// ClearSkyColor and CloudColor paint the two-tone cloud mask view
	ClearSkyColor = RGB{240, 240, 240}
	CloudColor    = RGB{100, 149, 237}
	// BelowRangeColor paints histogram bars centred below MinNDVI
	BelowRangeColor = RGB{204, 204, 255}
)

// VegetationClass is one NDVI band [Min, Max)
type VegetationClass struct {
	Min         float64
	Max         float64
	Label       string
	Color       RGB
	Description string
	Weight      float64
}

// Contains reports whether v falls inside the half-open interval of the class
func (c VegetationClass) Contains(v float64) bool {
	return c.Min <= v && v < c.Max
}

// Scheme is an ordered, contiguous set of vegetation classes.
// Schemes are values; the classifier and aggregator receive them explicitly.
// The zero Scheme classifies with the default bands.
type Scheme struct {
	classes []VegetationClass
}

var defaultClasses = []VegetationClass{
	{Min: -0.2, Max: 0.0, Label: "Water/Non-Vegetation", Color: RGB{0, 0, 128}, Weight: 0,
		Description: "Bodies of water, bare soil, or artificial surfaces"},
	{Min: 0.0, Max: 0.2, Label: "Sparse Vegetation", Color: RGB{255, 165, 0}, Weight: 0.25,
		Description: "Very sparse vegetation, stressed crops, or barren areas"},
	{Min: 0.2, Max: 0.4, Label: "Moderate Vegetation", Color: RGB{255, 255, 0}, Weight: 0.5,
		Description: "Moderate vegetation, potentially with mild stress or early growth stages"},
	{Min: 0.4, Max: 0.6, Label: "Good Vegetation", Color: RGB{144, 238, 144}, Weight: 0.75,
		Description: "Healthy vegetation with good leaf area coverage"},
	{Min: 0.6, Max: 0.9, Label: "Dense Vegetation", Color: RGB{0, 128, 0}, Weight: 1.0,
		Description: "Very healthy, dense vegetation with optimal photosynthetic activity"},
}

// Class labels of the default scheme
const (
	LabelWater    = "Water/Non-Vegetation"
	LabelSparse   = "Sparse Vegetation"
	LabelModerate = "Moderate Vegetation"
	LabelGood     = "Good Vegetation"
	LabelDense    = "Dense Vegetation"
)

// DefaultScheme returns the five standard vegetation bands
func DefaultScheme() Scheme {
	s, _ := NewScheme(defaultClasses)
	return s
}

// NewScheme validates and copies the given classes
func NewScheme(classes []VegetationClass) (Scheme, error) {
	if len(classes) == 0 {
		return Scheme{}, errors.New("scheme has no classes")
	}
	s := Scheme{classes: append([]VegetationClass(nil), classes...)}
	if err := s.Validate(); err != nil {
		return Scheme{}, err
	}
	return s, nil
}

// Validate checks that the bands are sorted, contiguous and weighted in [0,1]
func (s Scheme) Validate() error {
	classes := s.bands()
	for i, c := range classes {
		if !(c.Min < c.Max) {
			return fmt.Errorf("class %q has empty interval [%v, %v)", c.Label, c.Min, c.Max)
		}
		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("class %q weight %v outside [0,1]", c.Label, c.Weight)
		}
		if i > 0 && math.Abs(classes[i-1].Max-c.Min) > 1e-12 {
			return fmt.Errorf("classes %q and %q are not contiguous", classes[i-1].Label, c.Label)
		}
	}
	return nil
}

// bands returns the configured classes, or the default bands for the zero Scheme
func (s Scheme) bands() []VegetationClass {
	if len(s.classes) == 0 {
		return defaultClasses
	}
	return s.classes
}

// Classes returns a copy of the ordered classes
func (s Scheme) Classes() []VegetationClass {
	return append([]VegetationClass(nil), s.bands()...)
}

// Len returns the number of classes
func (s Scheme) Len() int {
	return len(s.bands())
}

// Lower returns the bottom of the scheme range
func (s Scheme) Lower() float64 {
	return s.bands()[0].Min
}

// Upper returns the top of the scheme range
func (s Scheme) Upper() float64 {
	classes := s.bands()
	return classes[len(classes)-1].Max
}

// Classify maps an NDVI value to its class. Values at or above the top of the range fall
// into the top band and everything else unmatched into the bottom band.
func (s Scheme) Classify(v float64) VegetationClass {
	return s.bands()[s.index(v)]
}

func (s Scheme) index(v float64) int {
	for i, c := range s.bands() {
		if c.Contains(v) {
			return i
		}
	}
	if v >= s.Upper() {
		return len(s.bands()) - 1
	}
	return 0
}
