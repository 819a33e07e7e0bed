package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crop-health-monitor/internal/config"
	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/handler"
	"crop-health-monitor/internal/render"
	"crop-health-monitor/internal/server"
	"crop-health-monitor/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info("Starting Crop Health Monitor API server")

	analyzerService := service.NewAnalyzerService(
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
	analyzerHandler := handler.NewAnalyzerHandler(analyzerService, config.Version, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	analyzerHandler.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Crop Health Monitor API Server",
			"version": config.Version,
			"status":  "running",
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var grpcServer *server.GRPCServer
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPCAddr())
		if err != nil {
			logger.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddr(), err)
		}
		grpcServer = server.NewGRPCServer(logger)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Errorf("gRPC server error: %v", err)
				stop()
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("API available at http://%s%s", cfg.HTTPAddr(), handler.APIPrefix)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if grpcServer != nil {
		grpcServer.Shutdown()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
}

// corsMiddleware adds the CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Expose-Headers", "X-Analysis-Seed")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
