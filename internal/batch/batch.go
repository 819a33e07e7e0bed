// Package batch analyses many regions concurrently and summarises them as CSV.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/gocarina/gocsv"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/service"
	"crop-health-monitor/pkg/models"
)

// SummaryFile is the CSV written next to the per-region reports
const SummaryFile = "summary.csv"

// Job is one region to analyse
type Job struct {
	Name    string
	Request models.AnalyzeRequest
}

// SummaryRow is one line of the batch summary
type SummaryRow struct {
	Region       string  `csv:"region"`
	AnalysisID   string  `csv:"analysis_id"`
	Seed         uint64  `csv:"seed"`
	CloudPercent float64 `csv:"cloud_percent"`
	ValidPixels  int     `csv:"valid_pixels"`
	HealthScore  float64 `csv:"health_score"`
	Status       string  `csv:"status"`
	Dominant     string  `csv:"dominant_class"`
	MeanNDVI     float64 `csv:"mean_ndvi"`
	Error        string  `csv:"error"`
}

// LocationJobs creates one job per predefined location from a template request.
// A seeded template gives every job its own seed, offset by the job index.
func LocationJobs(template models.AnalyzeRequest) []Job {
	locations := geo.Locations()
	jobs := make([]Job, 0, len(locations))
	for i, loc := range locations {
		req := template
		req.Location = loc.Name
		req.Geometry = nil
		if template.Seed != nil {
			seed := *template.Seed + uint64(i)
			req.Seed = &seed
		}
		jobs = append(jobs, Job{Name: loc.Name, Request: req})
	}
	return jobs
}

// Runner fans analyses out over a worker pool
type Runner struct {
	analyzer *service.AnalyzerService
	workers  int
	progress io.Writer
	logger   *logrus.Logger
}

// NewRunner creates a runner with the given pool size. Progress is drawn on progress,
// nil disables it.
func NewRunner(analyzer *service.AnalyzerService, workers int, progress io.Writer, logger *logrus.Logger) *Runner {
	return &Runner{
		analyzer: analyzer,
		workers:  max(workers, 1),
		progress: progress,
		logger:   logger,
	}
}

// Run analyses every job. Failed jobs are reported in their summary row and do not stop
// the batch. With a non-empty outDir each job writes its artifacts into a subdirectory
// and the summary is written to outDir/summary.csv.
func (r *Runner) Run(ctx context.Context, jobs []Job, outDir string) ([]SummaryRow, error) {
	rows := make([]SummaryRow, len(jobs))
	out := r.progress
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Analysing regions"),
		progressbar.OptionShowCount(),
	)

	var mu sync.Mutex
	wp := workerpool.New(r.workers)
	for i, job := range jobs {
		wp.Submit(func() {
			rows[i] = r.runJob(ctx, job, outDir)
			mu.Lock()
			_ = bar.Add(1)
			mu.Unlock()
		})
	}
	wp.StopWait()
	_ = bar.Finish()

	if outDir != "" {
		if err := WriteSummary(filepath.Join(outDir, SummaryFile), rows); err != nil {
			return rows, err
		}
	}
	return rows, ctx.Err()
}

func (r *Runner) runJob(ctx context.Context, job Job, outDir string) SummaryRow {
	row := SummaryRow{Region: job.Name}
	log := r.logger.WithField("region", job.Name)

	if err := ctx.Err(); err != nil {
		row.Error = err.Error()
		return row
	}

	a, err := r.analyzer.Run(ctx, job.Request)
	if err != nil {
		log.Errorf("Batch analysis failed: %v", err)
		row.Error = err.Error()
		return row
	}

	row.AnalysisID = a.ID
	row.Seed = a.Params.Seed
	row.CloudPercent = geo.RoundTo(a.CloudPercent, 2)
	row.ValidPixels = a.Percentages.ValidPixels
	if a.Health != nil {
		row.HealthScore = geo.RoundTo(a.Health.Score, 2)
		row.Status = string(a.Health.Status)
		row.Dominant = a.Health.Dominant
	} else {
		row.Status = "no_data"
	}
	if a.Stats != nil {
		row.MeanNDVI = geo.RoundTo(a.Stats.Mean, 4)
	}

	if outDir != "" {
		if _, err := r.analyzer.WriteArtifacts(a, filepath.Join(outDir, Slug(job.Name))); err != nil {
			log.Errorf("Writing artifacts failed: %v", err)
			row.Error = err.Error()
		}
	}
	return row
}

// WriteSummary writes the rows as CSV with a header
func WriteSummary(path string, rows []SummaryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteSummary
func ReadSummary(path string) ([]SummaryRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open summary: %w", err)
	}
	defer file.Close()

	var rows []SummaryRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return rows, nil
}

// Slug turns a region name into a directory name: "Punjab (Wheat Belt)" -> "punjab-wheat-belt"
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
