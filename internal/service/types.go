package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/insight"
	"crop-health-monitor/internal/ndvi"
	"crop-health-monitor/pkg/models"
)

// ImageKind names one of the renderable views of an analysis
type ImageKind string

const (
	ImageClassified ImageKind = "classified"
	ImageNDVI       ImageKind = "ndvi"
	ImageCloudMask  ImageKind = "cloud-mask"
	ImageHistogram  ImageKind = "histogram"
)

// ImageKinds lists every view in display order
var ImageKinds = []ImageKind{ImageClassified, ImageNDVI, ImageCloudMask, ImageHistogram}

// ParseImageKind validates a view name
func ParseImageKind(s string) (ImageKind, error) {
	for _, k := range ImageKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown image kind %q", ErrInvalidRequest, s)
}

// Params are the resolved, validated inputs of one analysis
type Params struct {
	Region        geo.Region
	Location      string
	AreaSize      string
	Geometry      json.RawMessage
	Height        int
	Width         int
	CloudsEnabled bool
	CloudCoverage float64
	CloudSize     int
	Policy        ndvi.Policy
	Seed          uint64
}

// Query encodes the params so that the same analysis can be recomputed from a URL
func (p Params) Query() url.Values {
	q := url.Values{}
	if len(p.Geometry) > 0 {
		q.Set("geometry", string(p.Geometry))
	} else {
		q.Set("location", p.Location)
		q.Set("area_size", p.AreaSize)
	}
	q.Set("clouds_enabled", strconv.FormatBool(p.CloudsEnabled))
	q.Set("cloud_coverage", strconv.FormatFloat(p.CloudCoverage, 'f', -1, 64))
	q.Set("cloud_size", strconv.Itoa(p.CloudSize))
	q.Set("cloud_handling", p.Policy.String())
	q.Set("seed", strconv.FormatUint(p.Seed, 10))
	return q
}

// Request converts the params back into an API request
func (p Params) Request() models.AnalyzeRequest {
	enabled, coverage, seed := p.CloudsEnabled, p.CloudCoverage, p.Seed
	req := models.AnalyzeRequest{
		CloudsEnabled: &enabled,
		CloudCoverage: &coverage,
		CloudSize:     p.CloudSize,
		CloudHandling: p.Policy.String(),
		Seed:          &seed,
	}
	if len(p.Geometry) > 0 {
		req.Geometry = p.Geometry
	} else {
		req.Location = p.Location
		req.AreaSize = p.AreaSize
	}
	return req
}

// Analysis holds every intermediate product of one pipeline run
type Analysis struct {
	ID          string
	Params      Params
	Scheme      ndvi.Scheme
	Raw         *ndvi.Raster
	Mask        *ndvi.Mask
	Masked      *ndvi.Raster
	Classified  *ndvi.Classification
	Percentages ndvi.ClassPercentages
	// Health and Stats are nil when no pixel survived cloud treatment
	Health       *ndvi.Health
	Stats        *ndvi.Stats
	Histogram    ndvi.Histogram
	CloudPercent float64
	Report       insight.Report
	GeneratedAt  time.Time
	Duration     time.Duration
}

// NoValidData reports whether the clouds left nothing to analyse
func (a *Analysis) NoValidData() bool {
	return !a.Percentages.HasValidData()
}

// Response converts the analysis to its API form. With a non-empty imageBase the
// response links every view under imageBase/analyze/images/<kind>.
func (a *Analysis) Response(imageBase string) *models.AnalyzeResponse {
	resp := &models.AnalyzeResponse{
		ID:     a.ID,
		Seed:   a.Params.Seed,
		Region: a.Params.Region.Info(),
		Clouds: models.CloudInfo{
			Enabled:         a.Params.CloudsEnabled,
			Coverage:        a.Params.CloudCoverage,
			ClusterSize:     a.Params.CloudSize,
			Handling:        a.Params.Policy.String(),
			HandlingLabel:   a.Params.Policy.Label(),
			CloudPercent:    geo.RoundTo(a.CloudPercent, 2),
			AnalyzedPercent: geo.RoundTo(100-a.CloudPercent, 2),
			Warning:         a.Report.Warning,
			Note:            a.Report.Note,
		},
		Classes:         ClassBreakdown(a.Scheme, a.Percentages),
		TotalPixels:     a.Raw.Len(),
		ValidPixels:     a.Percentages.ValidPixels,
		NoValidData:     a.NoValidData(),
		Message:         a.Report.Message,
		Insights:        a.Report.Insights,
		Recommendations: a.Report.Recommendations,
		GeneratedAt:     a.GeneratedAt,
		DurationMs:      a.Duration.Milliseconds(),
	}
	if resp.Insights == nil {
		resp.Insights = []string{}
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}

	if a.Health != nil {
		resp.Health = &models.HealthInfo{
			Score:           geo.RoundTo(a.Health.Score, 2),
			Status:          string(a.Health.Status),
			Message:         a.Report.Message,
			DominantClass:   a.Health.Dominant,
			DominantPercent: geo.RoundTo(a.Health.DominantPercent, 2),
		}
	}
	if a.Stats != nil {
		resp.Stats = &models.StatsInfo{
			Min:    a.Stats.Min,
			Mean:   a.Stats.Mean,
			Max:    a.Stats.Max,
			Median: a.Stats.Median,
			StdDev: a.Stats.StdDev,
		}
	}
	for _, b := range a.Histogram.Bins {
		resp.Histogram = append(resp.Histogram, models.HistogramBin{
			Lower: b.Lower,
			Upper: b.Upper,
			Count: b.Count,
			Color: b.Color.Hex(),
		})
	}

	if imageBase != "" {
		query := a.Params.Query().Encode()
		resp.Images = make(map[string]string, len(ImageKinds))
		for _, k := range ImageKinds {
			if k == ImageHistogram && a.NoValidData() {
				continue
			}
			resp.Images[string(k)] = fmt.Sprintf("%s/analyze/images/%s?%s", imageBase, k, query)
		}
	}
	return resp
}

// ClassBreakdown lists every class of the scheme with its share; p may be empty for a legend
func ClassBreakdown(s ndvi.Scheme, p ndvi.ClassPercentages) []models.ClassBreakdown {
	classes := s.Classes()
	out := make([]models.ClassBreakdown, len(classes))
	for i, c := range classes {
		out[i] = models.ClassBreakdown{
			Label:       c.Label,
			Color:       c.Color.Hex(),
			Description: c.Description,
			Min:         c.Min,
			Max:         c.Max,
			Weight:      c.Weight,
		}
		if i < len(p.Entries) {
			out[i].Percent = geo.RoundTo(p.Entries[i].Percent, 2)
			out[i].Pixels = p.Entries[i].Pixels
		}
	}
	return out
}
