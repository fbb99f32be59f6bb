package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{"same point", 52.52, 13.405, 52.52, 13.405, 0, 1e-9},
		{"berlin to paris", 52.5200, 13.4050, 48.8566, 2.3522, 877.5, 2},
		{"one degree of latitude", 0, 0, 1, 0, 111.195, 0.01},
		{"antipodes", 0, 0, 0, 180, 20015.1, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2), tt.delta)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(40.7128, -74.0060, 34.0522, -118.2437)
	b := DistanceKm(34.0522, -118.2437, 40.7128, -74.0060)
	assert.InDelta(t, a, b, 1e-9)
}
