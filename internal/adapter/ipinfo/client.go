// Package ipinfo resolves caller IP addresses to approximate coordinates
// with the ipinfo.io API.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// Client implements domain.IPLocator.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Locate looks up ip and parses the "lat,lon" loc field.
func (c *Client) Locate(ctx context.Context, ip string) (domain.Coordinates, error) {
	u := fmt.Sprintf("%s/%s/json", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ExternalDuration.WithLabelValues("ipinfo").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ip lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Coordinates{}, fmt.Errorf("ipinfo API error: status %d: %s", resp.StatusCode, body)
	}

	var r struct {
		Loc   string `json:"loc"`
		Bogon bool   `json:"bogon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Bogon || r.Loc == "" {
		return domain.Coordinates{}, fmt.Errorf("ipinfo: no location for %s", ip)
	}
	return parseLoc(r.Loc)
}

func parseLoc(loc string) (domain.Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("ipinfo: malformed loc %q", loc)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ipinfo: malformed loc %q: %w", loc, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ipinfo: malformed loc %q: %w", loc, err)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}
