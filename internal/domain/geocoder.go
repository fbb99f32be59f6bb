package domain

import (
	"context"
	"time"
)

// Address is the administrative area and country for a coordinate pair.
type Address struct {
	State   string
	Country string
}

// ReverseGeocoder maps coordinates to an address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Address, error)
}

// Weather is a current-conditions snapshot for a location.
type Weather struct {
	Temperature float64 // °C, one decimal
	Humidity    float64 // %
	Rain        float64 // mm
	SampledAt   time.Time
}

// WeatherProvider fetches current conditions.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (Weather, error)
}

// Classifier labels free text. Implementations return ErrSafetyBlocked when
// the provider refuses the text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Category, error)
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// IPLocator resolves a caller IP address to approximate coordinates.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (Coordinates, error)
}
