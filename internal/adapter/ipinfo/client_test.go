package ipinfo

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/observability"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestClient_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json", r.URL.Path)
		_, _ = w.Write([]byte(`{"ip":"8.8.8.8","city":"Mountain View","loc":"37.4056,-122.0775"}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Locate(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.InDelta(t, 37.4056, got.Lat, 1e-9)
	assert.InDelta(t, -122.0775, got.Lon, 1e-9)
}

func TestClient_Locate_Bogon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"127.0.0.1","bogon":true}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Locate(context.Background(), "127.0.0.1")
	require.Error(t, err)
}

func TestClient_Locate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Locate(context.Background(), "1.1.1.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestParseLoc(t *testing.T) {
	c, err := parseLoc("47.3667,8.5500")
	require.NoError(t, err)
	assert.InDelta(t, 47.3667, c.Lat, 1e-9)

	_, err = parseLoc("nowhere")
	require.Error(t, err)
	_, err = parseLoc("1.0,abc")
	require.Error(t, err)
}
