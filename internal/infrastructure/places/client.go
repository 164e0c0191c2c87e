package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/platewise/reviewpipe/internal/domain"
)

const (
	defaultRequestsPerSecond = 5.0
	defaultTimeout           = 30 * time.Second
	maxErrorBodyBytes        = 4096
	maxResponseBytes         = 4 << 20

	// reviewsFieldMask limits the place resource to its reviews
	reviewsFieldMask = "reviews"
)

// Client handles communication with the Places API (v1)
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
	logger      *slog.Logger
}

// NewClient creates a new Places API client. Non-positive rps or timeout use defaults.
func NewClient(apiKey, baseURL string, rps float64, timeout time.Duration) *Client {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:      slog.Default().With("component", "places"),
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...any) {
	if c.debug {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}
}

// GetPlaceReviews fetches the reviews of a place. Only the reviews field is requested.
func (c *Client) GetPlaceReviews(ctx context.Context, placeID string) (*domain.PlaceDetailsResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/places/%s", c.baseURL, url.PathEscape(placeID))
	c.debugLog("GET %s", reqURL)

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		return nil, fmt.Errorf("%w: places status %d, body: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
	}

	body, err := readLimitedBody(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrProviderFailure, err)
	}

	var details domain.PlaceDetailsResponse
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.debugLog("place %s returned %d reviews", placeID, len(details.Reviews))
	return &details, nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "reviewpipe/1.0")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", reviewsFieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	return resp, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
