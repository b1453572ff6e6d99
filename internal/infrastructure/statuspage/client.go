// Package statuspage fetches unresolved incidents from the StatusPage API.
package statuspage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

// ErrUnexpectedStatus is returned when the API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("statuspage: unexpected status")

// ErrNotConfigured is returned when no page id or api key is set.
var ErrNotConfigured = errors.New("statuspage: page id and api key are required")

type Client struct {
	baseURL string
	pageID  string
	apiKey  string
	http    *http.Client
}

type Options struct {
	BaseURL string
	PageID  string
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

func OptionsFromConfig() Options {
	return Options{
		BaseURL: config.StatusPageAPIURL,
		PageID:  config.StatusPagePageID,
		APIKey:  config.StatusPageAPIKey,
		Timeout: config.StatusPageTimeout,
	}
}

func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		pageID:  opts.PageID,
		apiKey:  opts.APIKey,
		http:    client,
	}
}

// UnresolvedIncidents returns every incident of the page that is not resolved,
// maintenance included.
func (c *Client) UnresolvedIncidents(ctx context.Context) ([]incidents.IncidentInfo, error) {
	if c.pageID == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/pages/%s/incidents/unresolved", c.baseURL, url.PathEscape(c.pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("statuspage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list []incidents.IncidentInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode incidents: %w", err)
	}
	return list, nil
}
