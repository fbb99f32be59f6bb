package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Format is a query output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Sort orders.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Params are the parsed /data query parameters.
type Params struct {
	Output    Format
	StartDate string // YYYY-MM-DD, empty for no bound
	EndDate   string
	// Max truncates the date-filtered rows before sorting. Negative means
	// no limit.
	Max int
	// Sort is newest, oldest, or any other value to keep storage order.
	Sort string
	// Geo filtering applies only when all three are given.
	Center   *domain.Coordinates
	RadiusKm float64
}

// ParamError reports a query parameter that could not be parsed.
type ParamError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %s: %v", e.Value, e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// HelpMessage formats err as the plain-text reply for invalid queries.
func HelpMessage(err error) string {
	return fmt.Sprintf("Error: %v\nYour input is not valid! See /data/help for more information.", err)
}

// ParseParams reads the /data query string. Unknown output formats fall
// back to html. Every numeric or date parameter that is present must parse;
// on error only Output is set.
func ParseParams(v url.Values) (Params, error) {
	p := Params{
		Output: Format(strings.ToLower(v.Get("output"))),
		Max:    -1,
		Sort:   v.Get("sort"),
	}
	switch p.Output {
	case FormatCSV, FormatJSON:
	default:
		p.Output = FormatHTML
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}

	var err error
	if p.StartDate, err = parseDate(v, "start_date"); err != nil {
		return Params{Output: p.Output}, err
	}
	if p.EndDate, err = parseDate(v, "end_date"); err != nil {
		return Params{Output: p.Output}, err
	}

	if s := v.Get("max"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{Output: p.Output}, &ParamError{Param: "max", Value: s, Err: err}
		}
		if n < 0 {
			return Params{Output: p.Output}, &ParamError{Param: "max", Value: s, Err: fmt.Errorf("must not be negative")}
		}
		p.Max = n
	}

	lat, hasLat, err := parseFloat(v, "lat", -90, 90)
	if err != nil {
		return Params{Output: p.Output}, err
	}
	lng, hasLng, err := parseFloat(v, "lng", -180, 180)
	if err != nil {
		return Params{Output: p.Output}, err
	}
	dist, hasDist, err := parseFloat(v, "dist", 0, math.Inf(1))
	if err != nil {
		return Params{Output: p.Output}, err
	}
	if hasLat && hasLng && hasDist {
		p.Center = &domain.Coordinates{Lat: lat, Lon: lng}
		p.RadiusKm = dist
	}
	return p, nil
}

func parseDate(v url.Values, key string) (string, error) {
	s := v.Get(key)
	if s == "" {
		return "", nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return "", &ParamError{Param: key, Value: s, Err: fmt.Errorf("expected YYYY-MM-DD")}
	}
	return t.Format(domain.DateLayout), nil
}

// parseFloat reads a finite number within [lo, hi].
func parseFloat(v url.Values, key string, lo, hi float64) (float64, bool, error) {
	s := v.Get(key)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, &ParamError{Param: key, Value: s, Err: fmt.Errorf("not a number")}
	}
	if f < lo || f > hi {
		return 0, false, &ParamError{Param: key, Value: s, Err: fmt.Errorf("out of range")}
	}
	return f, true, nil
}
