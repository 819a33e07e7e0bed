package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/ndvi"
	"crop-health-monitor/internal/render"
	"crop-health-monitor/pkg/models"
)

func newTestService() *AnalyzerService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAnalyzerService(geo.NewCalculator(), render.NewRenderer(2), Defaults{
		Height:        40,
		Width:         40,
		CloudCoverage: 0.2,
		CloudSize:     10,
		CloudHandling: ndvi.PolicyShow,
	}, logger)
}

func ptr[T any](v T) *T { return &v }

func TestResolveDefaults(t *testing.T) {
	s := newTestService()
	p, err := s.Resolve(models.AnalyzeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "India", p.Region.Name)
	assert.Equal(t, "small", p.AreaSize)
	assert.True(t, p.CloudsEnabled)
	assert.Equal(t, 0.2, p.CloudCoverage)
	assert.Equal(t, 10, p.CloudSize)
	assert.Equal(t, ndvi.PolicyShow, p.Policy)
	assert.Less(t, p.Seed, uint64(1)<<53)
}

func TestResolveRejectsInvalid(t *testing.T) {
	s := newTestService()
	tests := []struct {
		name string
		req  models.AnalyzeRequest
		want error
	}{
		{"coverage", models.AnalyzeRequest{CloudCoverage: ptr(1.2)}, ErrInvalidRequest},
		{"cloud size", models.AnalyzeRequest{CloudSize: 101}, ErrInvalidRequest},
		{"policy", models.AnalyzeRequest{CloudHandling: "blur"}, ErrInvalidRequest},
		{"both areas", models.AnalyzeRequest{Location: "punjab", Geometry: json.RawMessage(`{"type":"Point","coordinates":[1,1]}`)}, ErrInvalidRequest},
		{"location", models.AnalyzeRequest{Location: "atlantis"}, geo.ErrUnknownLocation},
		{"area size", models.AnalyzeRequest{Location: "punjab", AreaSize: "huge"}, geo.ErrInvalidGeometry},
		{"geometry", models.AnalyzeRequest{Geometry: json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)}, geo.ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Resolve(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	s := newTestService()
	req := models.AnalyzeRequest{Location: "karnataka", AreaSize: "large", CloudCoverage: ptr(0.3), Seed: ptr(uint64(99))}

	a, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	b, err := s.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Raw.Values(), b.Raw.Values())
	assert.Equal(t, a.Classified.Counts, b.Classified.Counts)
	require.NotNil(t, a.Health)
	assert.Equal(t, a.Health.Score, b.Health.Score)
	assert.Equal(t, uint64(99), a.Params.Seed)
}

func TestRunWithoutCloudsKeepsField(t *testing.T) {
	s := newTestService()
	a, err := s.Run(context.Background(), models.AnalyzeRequest{CloudsEnabled: ptr(false), Seed: ptr(uint64(5))})
	require.NoError(t, err)
	assert.Zero(t, a.CloudPercent)
	assert.Equal(t, a.Raw.Values(), a.Masked.Values())
	assert.Equal(t, a.Raw.Len(), a.Percentages.ValidPixels)
	assert.Empty(t, a.Report.Warning)
}

func TestRunHideCountsOnlyClearPixels(t *testing.T) {
	s := newTestService()
	a, err := s.Run(context.Background(), models.AnalyzeRequest{Seed: ptr(uint64(1)), CloudCoverage: ptr(0.5), CloudHandling: "hide"})
	require.NoError(t, err)
	assert.Positive(t, a.Mask.CloudCount())
	assert.Equal(t, a.Raw.Len()-a.Mask.CloudCount(), a.Percentages.ValidPixels)
	require.NotNil(t, a.Stats)
	assert.Equal(t, a.Percentages.ValidPixels, a.Stats.ValidPixels)
}

func TestResponseNoValidData(t *testing.T) {
	s := newTestService()
	a := &Analysis{
		ID:     "x",
		Params: Params{Region: geo.NewCalculator().ResolveLocation(geo.DefaultLocation(), geo.AreaSizes()[0]), CloudsEnabled: true, Policy: ndvi.PolicyHide},
		Scheme: s.Scheme(),
	}
	var err error
	a.Raw, err = ndvi.NewRaster(3, 3, 0.5)
	require.NoError(t, err)
	a.Masked, err = ndvi.NewRaster(3, 3, ndvi.CloudSentinel)
	require.NoError(t, err)
	a.Classified = ndvi.ClassifyRaster(a.Masked, a.Scheme)
	a.Percentages = a.Classified.Percentages()
	a.CloudPercent = 100

	resp := a.Response("/api/v1")
	assert.True(t, resp.NoValidData)
	assert.Nil(t, resp.Health)
	assert.Nil(t, resp.Stats)
	assert.Zero(t, resp.ValidPixels)
	assert.NotContains(t, resp.Images, string(ImageHistogram))
	assert.Contains(t, resp.Images, string(ImageClassified))
	assert.NotNil(t, resp.Insights)
}

func TestAnalyzeResponse(t *testing.T) {
	s := newTestService()
	resp, err := s.Analyze(context.Background(), models.AnalyzeRequest{Location: "punjab", AreaSize: "medium", Seed: ptr(uint64(3))}, "/api/v1")
	require.NoError(t, err)

	assert.Equal(t, uint64(3), resp.Seed)
	assert.Equal(t, "Punjab (Wheat Belt)", resp.Region.Name)
	assert.Equal(t, 1600, resp.TotalPixels)
	require.Len(t, resp.Classes, 5)
	total := 0.0
	for _, c := range resp.Classes {
		total += c.Percent
	}
	assert.InDelta(t, 100, total, 0.05)
	require.NotNil(t, resp.Health)
	assert.NotEmpty(t, resp.Health.Message)
	assert.Len(t, resp.Histogram, ndvi.DefaultHistogramBins)
	require.Len(t, resp.Images, 4)

	u, err := url.Parse(resp.Images[string(ImageNDVI)])
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/analyze/images/ndvi", u.Path)
	assert.Equal(t, "3", u.Query().Get("seed"))
	assert.Equal(t, "Punjab (Wheat Belt)", u.Query().Get("location"))
}

func TestParamsQueryRoundTrip(t *testing.T) {
	s := newTestService()
	p, err := s.Resolve(models.AnalyzeRequest{
		Geometry:      json.RawMessage(`{"type":"Polygon","coordinates":[[[75,30],[76,30],[76,31],[75,30]]]}`),
		CloudCoverage: ptr(0.35),
		CloudSize:     7,
		CloudHandling: "interpolate",
		Seed:          ptr(uint64(11)),
	})
	require.NoError(t, err)

	again, err := s.Resolve(p.Request())
	require.NoError(t, err)
	assert.Equal(t, p.Region.Center, again.Region.Center)
	assert.Equal(t, p.CloudCoverage, again.CloudCoverage)
	assert.Equal(t, p.CloudSize, again.CloudSize)
	assert.Equal(t, p.Policy, again.Policy)
	assert.Equal(t, p.Seed, again.Seed)

	q := p.Query()
	assert.Equal(t, "interpolate", q.Get("cloud_handling"))
	assert.NotEmpty(t, q.Get("geometry"))
	assert.Empty(t, q.Get("location"))
}

func TestWriteImage(t *testing.T) {
	s := newTestService()
	a, err := s.Run(context.Background(), models.AnalyzeRequest{Seed: ptr(uint64(8))})
	require.NoError(t, err)

	for _, kind := range []ImageKind{ImageClassified, ImageNDVI, ImageCloudMask} {
		var buf bytes.Buffer
		require.NoError(t, s.WriteImage(&buf, a, kind), kind)
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 80, img.Bounds().Dx(), kind)
	}

	var buf bytes.Buffer
	require.NoError(t, s.WriteImage(&buf, a, ImageHistogram))
	assert.Positive(t, buf.Len())

	assert.ErrorIs(t, s.WriteImage(&buf, a, ImageKind("x")), ErrInvalidRequest)
}

func TestWriteArtifacts(t *testing.T) {
	s := newTestService()
	a, err := s.Run(context.Background(), models.AnalyzeRequest{Location: "tamil nadu", Seed: ptr(uint64(21))})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := s.WriteArtifacts(a, dir)
	require.NoError(t, err)
	assert.Len(t, paths, 6)

	raw, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	var report models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, a.ID, report.ID)
	assert.Empty(t, report.Images)
}

func TestParseImageKind(t *testing.T) {
	k, err := ParseImageKind("cloud-mask")
	require.NoError(t, err)
	assert.Equal(t, ImageCloudMask, k)
	_, err = ParseImageKind("rgb")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestLocationsAndClasses(t *testing.T) {
	s := newTestService()
	locs := s.Locations()
	assert.Len(t, locs.Locations, 5)
	assert.Len(t, locs.AreaSizes, 4)

	classes := s.Classes()
	require.Len(t, classes.Classes, 5)
	assert.Equal(t, "#000080", classes.Classes[0].Color)
	assert.Equal(t, []string{"show", "hide", "interpolate"}, classes.Policies)
	assert.Equal(t, "healthy", s.CheckHealth("1.0.0").Status)
}
