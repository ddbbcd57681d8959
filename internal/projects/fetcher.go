package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/extd/internal/settings"
)

const defaultFetchTimeout = 10 * time.Second

// CloudFetcher lists projects from the configured remote API.
type CloudFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewCloudFetcher creates a fetcher for the given API configuration.
func NewCloudFetcher(pc settings.ProviderConfig) *CloudFetcher {
	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &CloudFetcher{
		baseURL: strings.TrimRight(pc.BaseURL, "/"),
		token:   pc.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET against the project listing endpoint.
func (f *CloudFetcher) Fetch(ctx context.Context) ([]Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v1/projects", nil)
	if err != nil {
		return nil, fmt.Errorf("building project list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("project list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("project list request failed: %s", resp.Status)
	}

	var list []Summary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding project list: %w", err)
	}
	return list, nil
}
