package openmeteo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// CachedProvider serves repeated lookups for the same rounded coordinates
// from memory until the entry is older than the TTL.
type CachedProvider struct {
	inner   domain.WeatherProvider
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]cachedWeather
}

type cachedWeather struct {
	weather domain.Weather
	expires time.Time
}

// NewCachedProvider wraps inner with a TTL cache. A nil clock uses real time.
func NewCachedProvider(inner domain.WeatherProvider, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]cachedWeather),
	}
}

func (c *CachedProvider) CurrentWeather(ctx context.Context, lat, lon float64) (domain.Weather, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	now := c.clock.Now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		c.metrics.WeatherCache.WithLabelValues("hit").Inc()
		return e.weather, nil
	}
	c.mu.Unlock()
	c.metrics.WeatherCache.WithLabelValues("miss").Inc()

	w, err := c.inner.CurrentWeather(ctx, lat, lon)
	if err != nil {
		return w, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cachedWeather{weather: w, expires: now.Add(c.ttl)}
	return w, nil
}
