package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pmadmin-backend/internal/interfaces/http/handlers"
	"pmadmin-backend/pkg/api"
)

const requestTimeout = 10 * time.Second

// apiClient talks to a running API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(addr, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(addr, "/"),
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *apiClient) cacheStats(ctx context.Context) (handlers.CacheStatsResponse, error) {
	var out handlers.CacheStatsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/cache/stats", &out)
	return out, err
}

func (c *apiClient) invalidate(ctx context.Context, kind string) (handlers.InvalidateResponse, error) {
	var out handlers.InvalidateResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/cache/invalidate/"+kind, &out)
	return out, err
}

func (c *apiClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
