// Package weather fetches current conditions from the OpenWeather API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrMissingAPIKey is returned when the client is constructed without a
// key.
var ErrMissingAPIKey = errors.New("weather API key is not configured")

// ErrMalformedResponse is returned when the upstream payload lacks the
// current-conditions block.
var ErrMalformedResponse = errors.New("weather response is missing current conditions")

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Report is the condensed current-weather view served to clients.
type Report struct {
	Location    string  `json:"location"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	FetchedAt   int64   `json:"fetched_at"`
}

// openWeatherResponse mirrors the fields we use from the upstream payload.
type openWeatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type cachedReport struct {
	report  *Report
	expires time.Time
}

// Client calls the OpenWeather current-weather endpoint with a short
// per-coordinate cache so repeated lookups don't burn the API quota.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]*cachedReport
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream base URL, for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithCacheTTL overrides how long reports are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// NewClient creates a weather client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		ttl:        10 * time.Minute,
		now:        time.Now,
		cache:      make(map[string]*cachedReport),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the current conditions at the given coordinates,
// metric units. Results are cached per rounded coordinate pair.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Report, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	key := cacheKey(lat, lon)
	c.mu.Lock()
	if cached, ok := c.cache[key]; ok && c.now().Before(cached.expires) {
		report := cached.report
		c.mu.Unlock()
		return report, nil
	}
	c.mu.Unlock()

	report, err := c.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = &cachedReport{report: report, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return report, nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*Report, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	query.Set("units", "metric")
	query.Set("appid", c.apiKey)

	endpoint := fmt.Sprintf("%s/weather?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if payload.Main == nil {
		return nil, ErrMalformedResponse
	}

	report := &Report{
		Location:   payload.Name,
		TempC:      payload.Main.Temp,
		FeelsLikeC: payload.Main.FeelsLike,
		Humidity:   payload.Main.Humidity,
		WindSpeed:  payload.Wind.Speed,
		FetchedAt:  c.now().UnixMilli(),
	}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
		report.Icon = payload.Weather[0].Icon
	}

	return report, nil
}

// cacheKey rounds coordinates to two decimals, roughly a kilometer.
func cacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 2, 64) + "," + strconv.FormatFloat(lon, 'f', 2, 64)
}
