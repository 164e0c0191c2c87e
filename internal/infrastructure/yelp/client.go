package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/platewise/reviewpipe/internal/domain"
)

const (
	defaultRequestsPerSecond = 5.0
	defaultTimeout           = 30 * time.Second
	defaultReviewLimit       = 3
	maxErrorBodyBytes        = 4096
	maxResponseBytes         = 4 << 20
)

// Client handles communication with the Yelp Fusion API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	reviewLimit int
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// Options tune the client; zero values use defaults
type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
	ReviewLimit       int
}

// NewClient creates a new Yelp client
func NewClient(apiKey, baseURL string, opts Options) *Client {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ReviewLimit <= 0 {
		opts.ReviewLimit = defaultReviewLimit
	}

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		apiKey:      apiKey,
		baseURL:     baseURL,
		reviewLimit: opts.ReviewLimit,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:      slog.Default().With("component", "yelp"),
	}
}

// SearchBusiness returns the best business match for a restaurant name in a locality.
// It returns domain.ErrBusinessNotFound when the search is empty.
func (c *Client) SearchBusiness(ctx context.Context, name, location string) (*domain.YelpBusiness, error) {
	params := url.Values{}
	params.Set("term", name)
	params.Set("location", location)
	params.Set("limit", "1")

	var resp domain.YelpSearchResponse
	if err := c.get(ctx, "/v3/businesses/search", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Businesses) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrBusinessNotFound, name, location)
	}

	business := resp.Businesses[0]
	c.logger.Debug("business resolved", "name", name, "business_id", business.ID)
	return &business, nil
}

// GetReviews fetches at most the configured number of review excerpts of a business
func (c *Client) GetReviews(ctx context.Context, businessID string) (*domain.YelpReviewsResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.reviewLimit))
	params.Set("sort_by", "yelp_sort")

	var resp domain.YelpReviewsResponse
	path := fmt.Sprintf("/v3/businesses/%s/reviews", url.PathEscape(businessID))
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	// the API may answer with more than asked for
	if len(resp.Reviews) > c.reviewLimit {
		resp.Reviews = resp.Reviews[:c.reviewLimit]
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "reviewpipe/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("%w: yelp status %d, body: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
