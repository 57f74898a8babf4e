package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/interviewace/simulation-engine/internal/models"
)

// Client is a Go SDK for the simulation-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new simulation-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StartSimulation creates a new simulation session
func (c *Client) StartSimulation(ctx context.Context, req models.StartSimulationRequest) (*models.StartSimulationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp models.StartSimulationResponse
	if err := c.doJSON(ctx, "POST", "/api/v1/simulations", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ExecuteTurn submits one user action to a running simulation
func (c *Client) ExecuteTurn(ctx context.Context, id, userAction string) (*models.TurnResult, error) {
	body, err := json.Marshal(models.ExecuteTurnRequest{UserAction: userAction})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result models.TurnResult
	if err := c.doJSON(ctx, "POST", fmt.Sprintf("/api/v1/simulations/%s/turns", id), bytes.NewReader(body), &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetStatus retrieves the current status of a simulation
func (c *Client) GetStatus(ctx context.Context, id string) (*models.SimulationStatus, error) {
	var status models.SimulationStatus
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/api/v1/simulations/%s", id), nil, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// EndSimulation terminates a simulation and returns its report
func (c *Client) EndSimulation(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := c.doJSON(ctx, "DELETE", fmt.Sprintf("/api/v1/simulations/%s", id), nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// ListScenarios retrieves all available scenarios
func (c *Client) ListScenarios(ctx context.Context) ([]*models.ScenarioTemplate, error) {
	var data struct {
		Scenarios []*models.ScenarioTemplate `json:"scenarios"`
		Total     int                        `json:"total"`
	}
	if err := c.doJSON(ctx, "GET", "/api/v1/scenarios", nil, &data); err != nil {
		return nil, err
	}

	return data.Scenarios, nil
}

// GetScenario retrieves a single scenario by role type
func (c *Client) GetScenario(ctx context.Context, roleType string) (*models.ScenarioTemplate, error) {
	var scenario models.ScenarioTemplate
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/api/v1/scenarios/%s", roleType), nil, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// GetReport retrieves the archived report for an ended simulation
func (c *Client) GetReport(ctx context.Context, sessionID string) (*models.Report, error) {
	var report models.Report
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/api/v1/reports/%s", sessionID), nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// doJSON performs a request and decodes the envelope's data field
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(resp, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			return fmt.Errorf("API error: %s - %s", envelope.Error.Code, envelope.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
