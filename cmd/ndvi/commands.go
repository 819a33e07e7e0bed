package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"crop-health-monitor/internal/batch"
	"crop-health-monitor/internal/client"
	"crop-health-monitor/internal/config"
	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/render"
	"crop-health-monitor/internal/server"
	"crop-health-monitor/internal/service"
	"crop-health-monitor/pkg/models"
)

const requestTimeout = 2 * time.Minute

// requestFlags are the analysis parameters shared by analyze and batch
type requestFlags struct {
	location      string
	geometryFile  string
	areaSize      string
	noClouds      bool
	cloudCoverage float64
	cloudSize     int
	cloudHandling string
	seed          uint64

	coverageSet bool
	seedSet     bool
}

func (f *requestFlags) register(cmd *cobra.Command, withRegion bool) {
	flags := cmd.Flags()
	if withRegion {
		flags.StringVarP(&f.location, "location", "l", "", "predefined location name")
		flags.StringVarP(&f.geometryFile, "geometry", "g", "", "GeoJSON file with a drawn region")
	}
	flags.StringVarP(&f.areaSize, "area-size", "a", "", "area size key (small, medium, large)")
	flags.BoolVar(&f.noClouds, "no-clouds", false, "disable cloud simulation")
	flags.Float64Var(&f.cloudCoverage, "coverage", 0, "cloud coverage fraction in [0,1]")
	flags.IntVar(&f.cloudSize, "cloud-size", 0, "cloud cluster size in pixels")
	flags.StringVar(&f.cloudHandling, "handling", "", "cloud handling: show, hide or interpolate")
	flags.Uint64Var(&f.seed, "seed", 0, "random seed for a reproducible run")
}

// capture records which optional flags were given explicitly
func (f *requestFlags) capture(cmd *cobra.Command) {
	f.coverageSet = cmd.Flags().Changed("coverage")
	f.seedSet = cmd.Flags().Changed("seed")
}

// request builds the analysis request from the flags
func (f *requestFlags) request() (models.AnalyzeRequest, error) {
	req := models.AnalyzeRequest{
		Location:      f.location,
		AreaSize:      f.areaSize,
		CloudSize:     f.cloudSize,
		CloudHandling: f.cloudHandling,
	}
	if f.geometryFile != "" {
		data, err := os.ReadFile(f.geometryFile)
		if err != nil {
			return req, fmt.Errorf("read geometry: %w", err)
		}
		if !json.Valid(data) {
			return req, fmt.Errorf("geometry file %s is not valid JSON", f.geometryFile)
		}
		req.Geometry = data
	}
	if f.noClouds {
		enabled := false
		req.CloudsEnabled = &enabled
	}
	if f.coverageSet {
		coverage := f.cloudCoverage
		req.CloudCoverage = &coverage
	}
	if f.seedSet {
		seed := f.seed
		req.Seed = &seed
	}
	return req, nil
}

// localAnalyzer builds the in-process analyzer from the environment configuration
func localAnalyzer(height, width int) (*service.AnalyzerService, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if height > 0 {
		cfg.Analysis.Height = height
	}
	if width > 0 {
		cfg.Analysis.Width = width
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := config.NewLogger(cfg.Logging)
	logger.SetOutput(os.Stderr)
	svc := service.NewAnalyzerService(
		geo.NewCalculator(),
		render.NewRenderer(cfg.Render.Scale),
		service.Defaults{
			Height:        cfg.Analysis.Height,
			Width:         cfg.Analysis.Width,
			CloudCoverage: cfg.Analysis.CloudCoverage,
			CloudSize:     cfg.Analysis.CloudSize,
			CloudHandling: cfg.Analysis.CloudHandling,
		},
		logger,
	)
	return svc, logger, nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		flags         requestFlags
		height, width int
		outDir        string
		serverURL     string
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one crop health analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.capture(cmd)
			req, err := flags.request()
			if err != nil {
				return err
			}

			var resp *models.AnalyzeResponse
			if serverURL != "" {
				resp, err = analyzeRemote(cmd, serverURL, req, outDir)
			} else {
				resp, err = analyzeLocal(cmd, req, height, width, outDir)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printReport(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().IntVar(&height, "height", 0, "raster height in pixels")
	cmd.Flags().IntVar(&width, "width", 0, "raster width in pixels")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for images and report")
	cmd.Flags().StringVar(&serverURL, "server", "", "analyze on a running API server instead of in process")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON report")
	return cmd
}

func analyzeLocal(cmd *cobra.Command, req models.AnalyzeRequest, height, width int, outDir string) (*models.AnalyzeResponse, error) {
	svc, logger, err := localAnalyzer(height, width)
	if err != nil {
		return nil, err
	}
	a, err := svc.Run(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		written, err := svc.WriteArtifacts(a, outDir)
		if err != nil {
			return nil, err
		}
		logger.WithField("files", len(written)).Infof("Artifacts written to %s", outDir)
	}
	return a.Response(""), nil
}

func analyzeRemote(cmd *cobra.Command, serverURL string, req models.AnalyzeRequest, outDir string) (*models.AnalyzeResponse, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	api := client.NewAPIClient(serverURL, requestTimeout, logger)

	resp, err := api.Analyze(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		return resp, nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	for kind, link := range resp.Images {
		data, err := api.FetchImage(cmd.Context(), link)
		if err != nil {
			return nil, fmt.Errorf("fetch %s image: %w", kind, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, kind+".png"), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s image: %w", kind, err)
		}
	}
	report, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, service.ReportFile), report, 0o644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return resp, nil
}

func newBatchCmd() *cobra.Command {
	var (
		flags         requestFlags
		height, width int
		workers       int
		outDir        string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every predefined location and write a CSV summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.capture(cmd)
			template, err := flags.request()
			if err != nil {
				return err
			}
			svc, logger, err := localAnalyzer(height, width)
			if err != nil {
				return err
			}

			runner := batch.NewRunner(svc, workers, cmd.ErrOrStderr(), logger)
			rows, err := runner.Run(cmd.Context(), batch.LocationJobs(template), outDir)
			printSummary(cmd.OutOrStdout(), rows)
			if err != nil {
				return err
			}
			if outDir != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSummary written to %s\n", filepath.Join(outDir, batch.SummaryFile))
			}
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().IntVar(&height, "height", 0, "raster height in pixels")
	cmd.Flags().IntVar(&width, "width", 0, "raster width in pixels")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of concurrent analyses")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for per-region artifacts and summary.csv")
	return cmd
}

func newLocationsCmd() *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List the predefined locations and area sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				svc, _, err := localAnalyzer(0, 0)
				if err != nil {
					return err
				}
				resp := svc.Locations()
				printLocations(cmd.OutOrStdout(), &resp)
				return nil
			}

			logger := logrus.New()
			logger.SetOutput(os.Stderr)
			resp, err := client.NewAPIClient(serverURL, requestTimeout, logger).Locations(cmd.Context())
			if err != nil {
				return err
			}
			printLocations(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "list the locations of a running API server")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var serverURL, grpcAddr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running API server over HTTP and/or gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" && grpcAddr == "" {
				return fmt.Errorf("either --server or --grpc is required")
			}
			out := cmd.OutOrStdout()
			if serverURL != "" {
				logger := logrus.New()
				logger.SetOutput(os.Stderr)
				resp, err := client.NewAPIClient(serverURL, 10*time.Second, logger).CheckHealth(cmd.Context())
				if err != nil {
					return fmt.Errorf("http health: %w", err)
				}
				fmt.Fprintf(out, "HTTP  %s  %s (version %s)\n", serverURL, statusColor(resp.Status), resp.Version)
			}
			if grpcAddr != "" {
				status, err := client.ProbeGRPCHealth(cmd.Context(), grpcAddr, server.AnalyzerServiceName)
				if err != nil {
					return fmt.Errorf("grpc health: %w", err)
				}
				fmt.Fprintf(out, "gRPC  %s  %s\n", grpcAddr, statusColor(status.String()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "", "API server base URL, e.g. http://localhost:8080")
	cmd.Flags().StringVar(&grpcAddr, "grpc", "", "gRPC health address, e.g. localhost:9090")
	return cmd
}
