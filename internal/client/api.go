package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"crop-health-monitor/pkg/models"
)

// APIClient talks to a running crop health API server
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// APIError is a non-200 answer of the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// NewAPIClient creates a client for the server at baseURL (scheme://host:port)
func NewAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Analyze runs an analysis on the server
func (c *APIClient) Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var resp models.AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	c.logger.WithField("analysis_id", resp.ID).Debug("Analysis received from server")
	return &resp, nil
}

// FetchImage downloads an image link from an analysis response
func (c *APIClient) FetchImage(ctx context.Context, link string) ([]byte, error) {
	url := link
	if strings.HasPrefix(link, "/") {
		url = c.baseURL + link
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// Locations lists the predefined locations of the server
func (c *APIClient) Locations(ctx context.Context) (*models.LocationsResponse, error) {
	var resp models.LocationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/locations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckHealth calls the health endpoint
func (c *APIClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Checking API health")
	var resp models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debugf("Sending %s request to %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{StatusCode: status, Message: msg}
}
