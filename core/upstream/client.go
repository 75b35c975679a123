package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Client defines the interface for upstream pull request listing.
type Client interface {
	// ListPulls fetches one page of pull requests, sorted by update time
	// descending. state is one of StateOpen, StateClosed, StateAll.
	ListPulls(ctx context.Context, state string, page, perPage int) ([]Pull, error)
}

// NewClient creates a new upstream client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	// Ensure timeout defaults if not set
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Create custom transport with strict timeouts
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration, // Connection setup timeout
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &httpClient{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		token:   token,
	}, nil
}

type httpClient struct {
	http    *http.Client
	baseURL string
	owner   string
	repo    string
	token   string
}

func (c *httpClient) ListPulls(ctx context.Context, state string, page, perPage int) ([]Pull, error) {
	q := url.Values{}
	q.Set("state", state)
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls?%s", c.baseURL, c.owner, c.repo, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("upstream returned %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var pulls []Pull
	if err := json.NewDecoder(res.Body).Decode(&pulls); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	return pulls, nil
}
