// Package openmeteo fetches current weather conditions from the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

const currentFields = "temperature_2m,relative_humidity_2m,rain"

// Client implements domain.WeatherProvider. Transient failures (transport
// errors, 429 and 5xx) are retried with exponential backoff.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	maxRetries      uint64
	initialInterval time.Duration
	location        *time.Location
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// NewClient creates an Open-Meteo client. Sample times are reported in the
// server's local time zone.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         baseURL,
		maxRetries:      uint64(maxRetries),
		initialInterval: 200 * time.Millisecond,
		location:        time.Local,
		metrics:         metrics,
		logger:          logger,
	}
}

// CurrentWeather returns the current temperature (°C, one decimal), relative
// humidity (%), rain (mm) and sample time for a location.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.Weather, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":    {currentFields},
		"timeformat": {"unixtime"},
	}
	fullURL := c.baseURL + "?" + params.Encode()

	attempt := 0
	op := func() (response, error) {
		attempt++
		r, err := c.doRequest(ctx, fullURL)
		if err != nil {
			c.logger.Debug("weather request failed", "attempt", attempt, "error", err)
		}
		return r, err
	}

	start := time.Now()
	r, err := backoff.RetryWithData(op, backoff.WithContext(c.backoff(), ctx))
	c.metrics.ExternalDuration.WithLabelValues("open-meteo").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Weather{}, fmt.Errorf("weather after %d attempts: %w", attempt, err)
	}

	cur := r.Current
	if cur.Time == 0 || cur.Temperature == nil || cur.Humidity == nil || cur.Rain == nil {
		return domain.Weather{}, errors.New("open-meteo: incomplete current conditions")
	}
	return domain.Weather{
		Temperature: math.Round(*cur.Temperature*10) / 10,
		Humidity:    *cur.Humidity,
		Rain:        *cur.Rain,
		SampledAt:   time.Unix(cur.Time, 0).In(c.location),
	}, nil
}

func (c *Client) backoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(b, c.maxRetries)
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return response{}, err
		}
		return response{}, backoff.Permanent(err)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return response{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return r, nil
}

// Open-Meteo API response types.

type response struct {
	Current current `json:"current"`
}

type current struct {
	Time        int64    `json:"time"` // unix seconds
	Temperature *float64 `json:"temperature_2m"`
	Humidity    *float64 `json:"relative_humidity_2m"`
	Rain        *float64 `json:"rain"`
}
