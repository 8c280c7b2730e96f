package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Naver open API host
const DefaultBaseURL = "https://openapi.naver.com"

const localSearchPath = "/v1/search/local.json"

// Config configures the local search client
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
	RetryMax     int
	// RatePerSecond caps outgoing calls; the API allows 10 rps per key
	RatePerSecond float64
	Logger        *zap.Logger
}

// Client calls the Naver local search API
type Client struct {
	httpClient   *retryablehttp.Client
	clientID     string
	clientSecret string
	baseURL      string
	rateLimiter  *rate.Limiter
	log          *zap.Logger
}

// NewClient creates a new local search client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.Logger = logger.NewLeveledLogger(cfg.Logger)
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient:   retryClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		log:          cfg.Logger,
	}
}

// Configured reports whether API credentials are present
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// SearchPlaces returns up to five places for query
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	if !c.Configured() {
		return nil, domain.ErrGeocoderUnavailable
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("display", "5")
	params.Set("start", "1")
	params.Set("sort", "random")
	reqURL := c.baseURL + localSearchPath + "?" + params.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("local search returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("query", query),
			zap.String("error_code", gjson.GetBytes(body, "errorCode").String()),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed response", domain.ErrUpstreamFailure)
	}

	places := parsePlaces(body)
	c.log.Debug("local search", zap.String("query", query), zap.Int("places", len(places)))
	return places, nil
}
