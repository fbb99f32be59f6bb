// Package nominatim reverse-geocodes coordinates with the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// Client implements domain.ReverseGeocoder against a Nominatim instance.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode returns the state and country for a point. Both must be
// present in the response.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	params := url.Values{
		"format":          {"jsonv2"},
		"lat":             {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', -1, 64)},
		"addressdetails":  {"1"},
		"accept-language": {"en"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return domain.Address{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalDuration.WithLabelValues("nominatim").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Address{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Address{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Address{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Error != "" {
		return domain.Address{}, fmt.Errorf("nominatim: %s", r.Error)
	}
	if r.Address.State == "" || r.Address.Country == "" {
		return domain.Address{}, errors.New("nominatim: response has no state or country")
	}

	c.logger.Debug("nominatim reverse geocode", "lat", lat, "lon", lon, "state", r.Address.State)
	return domain.Address{State: r.Address.State, Country: r.Address.Country}, nil
}

type response struct {
	Error   string  `json:"error"`
	Address address `json:"address"`
}

type address struct {
	State   string `json:"state"`
	Country string `json:"country"`
}
