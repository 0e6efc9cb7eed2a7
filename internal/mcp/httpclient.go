package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/planner"
)

// HTTPClient implements DataSource by calling the FitTrack REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, data)
	}

	return data, nil
}

func getJSON[T any](ctx context.Context, c *HTTPClient, path string) (T, error) {
	var v T
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return v, nil
}

func (c *HTTPClient) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return getJSON[[]models.Profile](ctx, c, "/api/v1/profiles")
}

func (c *HTTPClient) Workouts(ctx context.Context, profileID string) ([]models.Workout, error) {
	return getJSON[[]models.Workout](ctx, c, "/api/v1/profiles/"+profileID+"/workouts")
}

func (c *HTTPClient) WeightLog(ctx context.Context, profileID string) ([]models.WeightEntry, error) {
	return getJSON[[]models.WeightEntry](ctx, c, "/api/v1/profiles/"+profileID+"/weightlog")
}

func (c *HTTPClient) Plans(ctx context.Context, profileID string) ([]models.WorkoutPlan, error) {
	return getJSON[[]models.WorkoutPlan](ctx, c, "/api/v1/profiles/"+profileID+"/plans")
}

// GeneratePlan proxies plan generation through the server, which holds
// the model API key. The generate route is profile-scoped on the wire
// even though the result does not depend on the profile, so any
// profile id works; the client picks the first one.
func (c *HTTPClient) GeneratePlan(ctx context.Context, goal string) (planner.WeeklyPlan, error) {
	profiles, err := c.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("httpclient: no profiles exist")
	}

	body, err := json.Marshal(map[string]string{"goal": goal})
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/api/v1/profiles/"+profiles[0].ID+"/generate-plan", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp struct {
		WeeklyPlan planner.WeeklyPlan `json:"weeklyPlan"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode plan: %w", err)
	}
	return resp.WeeklyPlan, nil
}
