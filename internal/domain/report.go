package domain

import (
	"strings"
	"time"
)

// Category is the content-risk label assigned to a report description.
type Category string

const (
	CategoryNormal    Category = "Normal"
	CategoryOffensive Category = "Offensive"
	CategoryDangerous Category = "Dangerous"
)

// ParseCategory canonicalizes a classifier label. Labels that match one of the
// known categories case-insensitively are returned in canonical form; anything
// else is returned trimmed but otherwise verbatim.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".")
	for _, c := range []Category{CategoryNormal, CategoryOffensive, CategoryDangerous} {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return Category(s)
}

// Date and time layouts used for the weather sample columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Report is one stored incident report. Enrichment fields are nil when the
// corresponding step failed or was skipped.
type Report struct {
	UserID      string
	Latitude    float64
	Longitude   float64
	State       *string
	Country     *string
	Description string
	Category    *Category
	Temperature *float64
	Humidity    *float64
	Rain        *float64
	Date        *string
	Time        *string
	// Filepath is the relative attachment path ("files/<name>") or empty.
	Filepath string
}

// Record is a report with every column populated. Only records take part in
// queries.
type Record struct {
	UserID      string    `json:"user_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Rain        float64   `json:"rain"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Filepath    string    `json:"filepath"`
	SampledAt   time.Time `json:"-"`
}

// Complete converts r to a Record. It reports false when any enrichment
// column is null or the stored date and time cannot be parsed.
func (r Report) Complete() (Record, bool) {
	if r.State == nil || r.Country == nil || r.Category == nil ||
		r.Temperature == nil || r.Humidity == nil || r.Rain == nil ||
		r.Date == nil || r.Time == nil {
		return Record{}, false
	}
	at, err := time.ParseInLocation(DateLayout+" "+TimeLayout, *r.Date+" "+*r.Time, time.UTC)
	if err != nil {
		return Record{}, false
	}
	return Record{
		UserID:      r.UserID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		State:       *r.State,
		Country:     *r.Country,
		Description: r.Description,
		Category:    *r.Category,
		Temperature: *r.Temperature,
		Humidity:    *r.Humidity,
		Rain:        *r.Rain,
		Date:        *r.Date,
		Time:        *r.Time,
		Filepath:    r.Filepath,
		SampledAt:   at,
	}, true
}

// Columns lists the exported report columns in output order.
var Columns = []string{
	"user_id", "latitude", "longitude", "state", "country", "description",
	"category", "temperature", "humidity", "rain", "date", "time", "filepath",
}
