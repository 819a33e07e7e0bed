package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/insight"
	"crop-health-monitor/internal/ndvi"
	"crop-health-monitor/internal/render"
	"crop-health-monitor/pkg/models"
)

// ErrInvalidRequest is returned for requests that fail validation
var ErrInvalidRequest = errors.New("invalid request")

// MaxCloudSize bounds the simulated cloud cluster size
const MaxCloudSize = 100

// Stream ids of the two random sources derived from one seed
const (
	streamField  = 1
	streamClouds = 2
)

// Defaults are applied to request fields left empty
type Defaults struct {
	Height        int
	Width         int
	CloudCoverage float64
	CloudSize     int
	CloudHandling ndvi.Policy
}

// AnalyzerService runs crop health analyses
type AnalyzerService struct {
	geoCalc  *geo.Calculator
	renderer *render.Renderer
	scheme   ndvi.Scheme
	defaults Defaults
	logger   *logrus.Logger
}

// NewAnalyzerService creates the analyzer service
func NewAnalyzerService(geoCalc *geo.Calculator, renderer *render.Renderer, defaults Defaults, logger *logrus.Logger) *AnalyzerService {
	return &AnalyzerService{
		geoCalc:  geoCalc,
		renderer: renderer,
		scheme:   ndvi.DefaultScheme(),
		defaults: defaults,
		logger:   logger,
	}
}

// Scheme returns the classification scheme in use
func (s *AnalyzerService) Scheme() ndvi.Scheme {
	return s.scheme
}

// Resolve validates a request and fills in defaults. A missing seed is drawn at random.
func (s *AnalyzerService) Resolve(req models.AnalyzeRequest) (Params, error) {
	p := Params{
		Height:        s.defaults.Height,
		Width:         s.defaults.Width,
		CloudsEnabled: true,
		CloudCoverage: s.defaults.CloudCoverage,
		CloudSize:     s.defaults.CloudSize,
		Policy:        s.defaults.CloudHandling,
	}

	hasGeometry := len(req.Geometry) > 0 && string(req.Geometry) != "null"
	switch {
	case req.Location != "" && hasGeometry:
		return Params{}, fmt.Errorf("%w: location and geometry are mutually exclusive", ErrInvalidRequest)
	case hasGeometry:
		region, err := s.geoCalc.ResolveGeometry(req.Geometry)
		if err != nil {
			return Params{}, err
		}
		p.Region, p.Geometry = region, req.Geometry
	default:
		loc := geo.DefaultLocation()
		if req.Location != "" {
			var err error
			if loc, err = geo.LookupLocation(req.Location); err != nil {
				return Params{}, err
			}
		}
		size, err := geo.ParseAreaSize(req.AreaSize)
		if err != nil {
			return Params{}, err
		}
		p.Region = s.geoCalc.ResolveLocation(loc, size)
		p.Location, p.AreaSize = loc.Name, size.Key
	}

	if req.CloudsEnabled != nil {
		p.CloudsEnabled = *req.CloudsEnabled
	}
	if req.CloudCoverage != nil {
		p.CloudCoverage = *req.CloudCoverage
	}
	if math.IsNaN(p.CloudCoverage) || p.CloudCoverage < 0 || p.CloudCoverage > 1 {
		return Params{}, fmt.Errorf("%w: cloud_coverage %v outside [0,1]", ErrInvalidRequest, p.CloudCoverage)
	}
	if req.CloudSize != 0 {
		p.CloudSize = req.CloudSize
	}
	if p.CloudSize < 1 || p.CloudSize > MaxCloudSize {
		return Params{}, fmt.Errorf("%w: cloud_size %d outside [1,%d]", ErrInvalidRequest, p.CloudSize, MaxCloudSize)
	}
	if req.CloudHandling != "" {
		policy, err := ndvi.ParsePolicy(req.CloudHandling)
		if err != nil {
			return Params{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		p.Policy = policy
	}

	if req.Seed != nil {
		p.Seed = *req.Seed
	} else {
		// 53 bits survive a round trip through JSON numbers
		p.Seed = rand.Uint64() >> 11
	}
	return p, nil
}

// Run executes the full pipeline for a request
func (s *AnalyzerService) Run(ctx context.Context, req models.AnalyzeRequest) (*Analysis, error) {
	p, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}
	return s.RunParams(ctx, p)
}

// RunParams executes the pipeline for already resolved params
func (s *AnalyzerService) RunParams(ctx context.Context, p Params) (*Analysis, error) {
	startTime := time.Now()
	a := &Analysis{
		ID:          uuid.New().String(),
		Params:      p,
		Scheme:      s.scheme,
		GeneratedAt: startTime.UTC(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"analysis_id": a.ID,
		"region":      p.Region.Name,
		"seed":        p.Seed,
	})
	log.Info("Starting crop health analysis")

	var err error
	a.Raw, err = ndvi.Synthesize(p.Height, p.Width, newRand(p.Seed, streamField))
	if err != nil {
		return nil, fmt.Errorf("synthesize ndvi: %w", err)
	}

	if p.CloudsEnabled {
		gen := ndvi.NewCloudMaskGenerator(newRand(p.Seed, streamClouds))
		a.Mask, err = gen.Generate(p.Height, p.Width, p.CloudCoverage, p.CloudSize)
	} else {
		a.Mask, err = ndvi.NewMask(p.Height, p.Width)
	}
	if err != nil {
		return nil, fmt.Errorf("cloud mask: %w", err)
	}
	a.CloudPercent = a.Mask.CloudPercentage()
	log.WithField("cloud_percent", a.CloudPercent).Debug("Cloud mask generated")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Masked, err = ndvi.ApplyCloudMask(a.Raw, a.Mask, p.Policy)
	if err != nil {
		return nil, fmt.Errorf("apply cloud mask: %w", err)
	}
	a.Classified = ndvi.ClassifyRaster(a.Masked, s.scheme)
	a.Percentages = a.Classified.Percentages()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	health, err := ndvi.ScoreHealth(a.Percentages, s.scheme)
	switch {
	case err == nil:
		a.Health = &health
	case !errors.Is(err, ndvi.ErrNoValidData):
		return nil, fmt.Errorf("score health: %w", err)
	}

	stats, err := ndvi.ComputeStats(a.Masked, p.Policy)
	switch {
	case err == nil:
		a.Stats = &stats
		a.Histogram = ndvi.ComputeHistogram(ndvi.ValidValues(a.Masked, p.Policy), ndvi.DefaultHistogramBins, s.scheme)
	case !errors.Is(err, ndvi.ErrNoValidData):
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	var h ndvi.Health
	if a.Health != nil {
		h = *a.Health
	}
	a.Report = insight.Build(a.Percentages, h, insight.Clouds{Enabled: p.CloudsEnabled, Percent: a.CloudPercent})
	a.Duration = time.Since(startTime)

	if a.Health == nil {
		log.Warn("No analyzable data after cloud treatment")
	} else {
		log.WithFields(logrus.Fields{
			"score":    a.Health.Score,
			"status":   a.Health.Status,
			"dominant": a.Health.Dominant,
			"duration": a.Duration,
		}).Info("Analysis finished")
	}
	return a, nil
}

// Analyze runs a request and returns the API response with image links under imageBase
func (s *AnalyzerService) Analyze(ctx context.Context, req models.AnalyzeRequest, imageBase string) (*models.AnalyzeResponse, error) {
	a, err := s.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.Response(imageBase), nil
}

// WriteImage renders one view of an analysis as PNG.
// The histogram of an analysis without valid data yields ndvi.ErrNoValidData.
func (s *AnalyzerService) WriteImage(w io.Writer, a *Analysis, kind ImageKind) error {
	switch kind {
	case ImageClassified:
		return s.renderer.ColorsPNG(w, a.Masked.Width, a.Masked.Height, a.Classified.Colors)
	case ImageNDVI:
		return s.renderer.ColorsPNG(w, a.Masked.Width, a.Masked.Height, ndvi.Colorize(a.Masked))
	case ImageCloudMask:
		return s.renderer.ColorsPNG(w, a.Mask.Width, a.Mask.Height, ndvi.CloudMaskColors(a.Mask))
	case ImageHistogram:
		if len(a.Histogram.Bins) == 0 {
			return ndvi.ErrNoValidData
		}
		return s.renderer.HistogramPNG(w, a.Histogram, a.Scheme, a.Params.CloudsEnabled)
	default:
		return fmt.Errorf("%w: unknown image kind %q", ErrInvalidRequest, kind)
	}
}

// Artifact file names written by WriteArtifacts
const (
	ReportFile = "report.json"
	TIFFFile   = "ndvi.tif"
)

// WriteArtifacts writes the PNG views, the 16-bit NDVI TIFF and the JSON report into dir
// and returns the written paths.
func (s *AnalyzerService) WriteArtifacts(a *Analysis, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	writeFile := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		written = append(written, path)
		return nil
	}

	for _, kind := range ImageKinds {
		if kind == ImageHistogram && len(a.Histogram.Bins) == 0 {
			continue
		}
		err := writeFile(string(kind)+".png", func(w io.Writer) error { return s.WriteImage(w, a, kind) })
		if err != nil {
			return written, err
		}
	}
	if err := writeFile(TIFFFile, func(w io.Writer) error { return s.renderer.NDVITIFF(w, a.Masked) }); err != nil {
		return written, err
	}
	err := writeFile(ReportFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a.Response(""))
	})
	return written, err
}

// Locations lists the predefined locations and area sizes
func (s *AnalyzerService) Locations() models.LocationsResponse {
	var resp models.LocationsResponse
	for _, loc := range geo.Locations() {
		resp.Locations = append(resp.Locations, models.LocationInfo{Name: loc.Name, Center: loc.Center, Zoom: loc.Zoom})
	}
	for _, a := range geo.AreaSizes() {
		resp.AreaSizes = append(resp.AreaSizes, models.AreaSizeInfo{
			Key:           a.Key,
			Label:         a.Label,
			RadiusDegrees: a.RadiusDegrees,
			RadiusMeters:  a.RadiusMeters(),
		})
	}
	return resp
}

// Classes returns the classification legend and the accepted cloud policies
func (s *AnalyzerService) Classes() models.ClassesResponse {
	return models.ClassesResponse{
		Classes:  ClassBreakdown(s.scheme, ndvi.ClassPercentages{}),
		Policies: []string{ndvi.PolicyShow.String(), ndvi.PolicyHide.String(), ndvi.PolicyInterpolate.String()},
	}
}

// CheckHealth reports the service status
func (s *AnalyzerService) CheckHealth(version string) *models.HealthResponse {
	s.logger.Debug("Health check")
	return &models.HealthResponse{Status: "healthy", Version: version}
}

func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
