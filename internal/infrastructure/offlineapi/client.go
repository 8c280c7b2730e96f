// Package offlineapi is a typed client for the offline shopping endpoints
// (match-candidates, geocode, plan generation and selection).
package offlineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	matchCandidatesPath = "/v1/offline/utils/match-candidates"
	geocodePath         = "/v1/offline/utils/geocode"
	generatePlansPath   = "/v1/offline/plans/generate"
	selectPlanPath      = "/v1/offline/plans/select"
)

// Options configures the client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RetryMax is 0 by default: every failure is terminal for the user action.
	RetryMax      int
	RatePerSecond float64
	Burst         int
	Logger        *zap.Logger
}

// Client talks to the offline API
type Client struct {
	httpClient  *retryablehttp.Client
	baseURL     string
	rateLimiter *rate.Limiter
	log         *zap.Logger
}

// NewClient creates a new offline API client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = logger.NewLeveledLogger(opts.Logger)
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient:  retryClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		log:         opts.Logger,
	}
}

// MatchCandidates asks the matcher about a batch of items
func (c *Client) MatchCandidates(ctx context.Context, items []domain.BasketItem) ([]domain.MatchRow, error) {
	var resp domain.MatchCandidatesResponse
	err := c.doJSON(ctx, http.MethodPost, matchCandidatesPath, nil,
		domain.MatchCandidatesRequest{Items: items}, &resp, nil)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Geocode resolves a free-text address to coordinates
func (c *Client) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	var result domain.GeocodeResult
	err := c.doJSON(ctx, http.MethodGet, geocodePath, url.Values{"query": {query}}, nil, &result,
		map[int]error{
			http.StatusBadRequest:         domain.ErrInvalidRequest,
			http.StatusNotFound:           domain.ErrGeocodeNotFound,
			http.StatusServiceUnavailable: domain.ErrGeocoderUnavailable,
		})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneratePlans requests store plans for the basket. 206 (partial, some
// providers degraded) counts as success.
func (c *Client) GeneratePlans(ctx context.Context, req domain.GeneratePlanRequest) (*domain.GeneratePlanResponse, error) {
	var resp domain.GeneratePlanResponse
	if err := c.doJSON(ctx, http.MethodPost, generatePlansPath, nil, req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectPlan records the chosen plan and returns the navigation link
func (c *Client) SelectPlan(ctx context.Context, req domain.SelectPlanRequest) (*domain.SelectPlanResponse, error) {
	var resp domain.SelectPlanResponse
	err := c.doJSON(ctx, http.MethodPost, selectPlanPath, nil, req, &resp,
		map[int]error{http.StatusNotFound: domain.ErrInvalidRequest})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// doJSON sends body as JSON and decodes a 2xx response into out.
// statusErrors maps non-2xx statuses to domain errors carried by APIError.
func (c *Client) doJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	body interface{},
	out interface{},
	statusErrors map[int]error,
) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ttokjang-cli/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logger.RequestID(ctx); id != "unknown" {
		req.Header.Set(logger.RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstreamFailure, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", domain.ErrUpstreamFailure, err)
	}

	c.log.Debug("offline api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data, statusErrors[resp.StatusCode])
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
