package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// Client implements domain.ReverseGeocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox reverse geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode resolves coordinates to the enclosing region and country.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Address, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	params := url.Values{
		"access_token": {c.token},
		"types":        {"region,country"},
	}
	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, coord, params.Encode())

	start := time.Now()
	resp, err := c.doRequest(ctx, u)
	c.metrics.ExternalDuration.WithLabelValues("mapbox").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Address{}, err
	}

	addr := resp.address()
	if addr.State == "" || addr.Country == "" {
		return domain.Address{}, errors.New("mapbox: no region and country for coordinates")
	}
	c.logger.Debug("mapbox reverse geocode", "lat", lat, "lon", lon, "state", addr.State, "country", addr.Country)
	return addr, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return response{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	return mapboxResp, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID      string         `json:"id"` // "region.123", "country.456"
	Text    string         `json:"text"`
	Context []contextEntry `json:"context"`
}

type contextEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// address collects the region and country names from every feature and its
// context chain. The first match for each kind wins.
func (r response) address() domain.Address {
	var addr domain.Address
	visit := func(id, text string) {
		switch {
		case strings.HasPrefix(id, "region.") && addr.State == "":
			addr.State = text
		case strings.HasPrefix(id, "country.") && addr.Country == "":
			addr.Country = text
		}
	}
	for _, f := range r.Features {
		visit(f.ID, f.Text)
		for _, ce := range f.Context {
			visit(ce.ID, ce.Text)
		}
	}
	return addr
}
