package places

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/nearby/internal/interfaces"
	"github.com/ternarybob/nearby/internal/models"
	"github.com/ternarybob/nearby/internal/telemetry"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	nearbyEndpoint = "/get_nearby_places"
	placeEndpoint  = "/get_place"
)

var _ interfaces.PlacesClient = (*Client)(nil)

// Client is an HTTP client for the places backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a places backend client. Construct it once per process and share it.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-200 answer from the places backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("places API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// FetchNearby calls get_nearby_places for the request's coordinate
func (c *Client) FetchNearby(ctx context.Context, req models.NearbyRequest) (*models.PlacesResponse, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(req.Longitude, 'f', -1, 64))
	params.Set("gps_accuracy_m", strconv.Itoa(req.RadiusMeters))
	params.Set("places_limit", strconv.Itoa(req.Limit))

	resp, err := c.get(ctx, nearbyEndpoint, params)
	telemetry.RecordRemoteCall("get_nearby_places", err)
	return resp, err
}

// FetchPlaceDetail calls get_place for a single place id
func (c *Client) FetchPlaceDetail(ctx context.Context, placeID string) (*models.PlacesResponse, error) {
	params := url.Values{}
	params.Set("place_id", placeID)

	resp, err := c.get(ctx, placeEndpoint, params)
	telemetry.RecordRemoteCall("get_place", err)
	return resp, err
}

// get performs a GET request to the backend.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*models.PlacesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", reqURL).
			Msg("Places API request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("Places API response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	return &models.PlacesResponse{StatusCode: resp.StatusCode, Body: body}, nil
}
