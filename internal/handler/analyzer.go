package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crop-health-monitor/internal/geo"
	"crop-health-monitor/internal/insight"
	"crop-health-monitor/internal/ndvi"
	"crop-health-monitor/internal/service"
	"crop-health-monitor/pkg/models"
)

// APIPrefix is the base path of every route
const APIPrefix = "/api/v1"

// AnalyzerHandler serves the crop health API
type AnalyzerHandler struct {
	analyzerService *service.AnalyzerService
	version         string
	logger          *logrus.Logger
}

// NewAnalyzerHandler creates the handler
func NewAnalyzerHandler(analyzerService *service.AnalyzerService, version string, logger *logrus.Logger) *AnalyzerHandler {
	return &AnalyzerHandler{
		analyzerService: analyzerService,
		version:         version,
		logger:          logger,
	}
}

// RegisterRoutes registers the API routes
func (h *AnalyzerHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group(APIPrefix)
	{
		api.POST("/analyze", h.Analyze)
		api.GET("/analyze/images/:kind", h.GetImage)
		api.GET("/locations", h.ListLocations)
		api.GET("/classes", h.ListClasses)
		api.GET("/health", h.HealthCheck)
	}
}

// Analyze runs a crop health analysis
// @Summary Crop health analysis
// @Description Generates a simulated NDVI field for the area, applies clouds and classifies it
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body models.AnalyzeRequest false "Area and cloud settings"
// @Success 200 {object} models.AnalyzeResponse
// @Failure 400 {object} gin.H
// @Failure 500 {object} gin.H
// @Router /analyze [post]
func (h *AnalyzerHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warnf("Invalid analyze request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	response, err := h.analyzerService.Analyze(c.Request.Context(), req, APIPrefix)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetImage renders one view of an analysis recomputed from the query parameters
// @Summary Analysis image
// @Tags analysis
// @Produce png
// @Param kind path string true "classified, ndvi, cloud-mask or histogram"
// @Param seed query integer true "Seed of the analysis"
// @Success 200 {file} binary
// @Failure 400 {object} gin.H
// @Failure 422 {object} gin.H
// @Router /analyze/images/{kind} [get]
func (h *AnalyzerHandler) GetImage(c *gin.Context) {
	kind, err := service.ParseImageKind(c.Param("kind"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.AnalyzeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}
	if req.Seed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seed is required to reproduce an analysis"})
		return
	}
	if g := c.Query("geometry"); g != "" {
		req.Geometry = json.RawMessage(g)
	}

	analysis, err := h.analyzerService.Run(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.analyzerService.WriteImage(&buf, analysis, kind); err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("X-Analysis-Seed", strconv.FormatUint(analysis.Params.Seed, 10))
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ListLocations returns the predefined locations and area sizes
// @Summary Predefined locations
// @Tags reference
// @Produce json
// @Success 200 {object} models.LocationsResponse
// @Router /locations [get]
func (h *AnalyzerHandler) ListLocations(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzerService.Locations())
}

// ListClasses returns the classification legend
// @Summary Vegetation classes
// @Tags reference
// @Produce json
// @Success 200 {object} models.ClassesResponse
// @Router /classes [get]
func (h *AnalyzerHandler) ListClasses(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzerService.Classes())
}

// HealthCheck reports the service status
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *AnalyzerHandler) HealthCheck(c *gin.Context) {
	health := h.analyzerService.CheckHealth(h.version)

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}

// respondError maps service errors onto HTTP statuses
func (h *AnalyzerHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, geo.ErrInvalidGeometry),
		errors.Is(err, geo.ErrUnknownLocation):
		h.logger.Warnf("Rejected request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ndvi.ErrNoValidData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": insight.NoDataMessage})
	default:
		h.logger.Errorf("Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
