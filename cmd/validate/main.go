// Command validate runs end-to-end checks against a running report service's
// /data endpoint: format parity between html, csv and json, sort order,
// field completeness, max truncation, the date window, the distance filter
// and the invalid-query reply.
//
// Usage:
//
//	go run ./cmd/validate -url http://localhost:8080
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type client struct {
	base string
	http *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the report service")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for /readyz")
	flag.Parse()

	c := &client{base: strings.TrimRight(*baseURL, "/"), http: &http.Client{Timeout: 30 * time.Second}}
	if code := run(c, *wait); code != 0 {
		os.Exit(code)
	}
}

func run(c *client, wait time.Duration) int {
	fmt.Println("=== Incident Report Query Validation ===")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := c.waitReady(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: service not ready: %v\n", err)
		return 1
	}

	all, err := c.fetchJSON(url.Values{"sort": {"oldest"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load /data json: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFormatParity(c),
		validateSortOrder(c),
		validateCompleteness(all),
		validateMax(c, len(all)),
		validateDateWindow(c, all),
		validateDistance(c, all),
		validateInvalidQuery(c),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d queryable\n", len(all))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── HTTP ──

func (c *client) waitReady(ctx context.Context) error {
	delay := 250 * time.Millisecond
	for {
		resp, err := c.http.Get(c.base + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if !retry.SleepWithContext(ctx, delay) {
			return errors.New("timed out waiting for /readyz")
		}
		delay = retry.NextBackoff(delay, 5*time.Second)
	}
}

func (c *client) get(q url.Values) (string, string, error) {
	resp, err := c.http.Get(c.base + "/data?" + q.Encode())
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return string(body), resp.Header.Get("Content-Type"), nil
}

func (c *client) fetchJSON(q url.Values) ([]domain.Record, error) {
	q = cloneWith(q, "output", "json")
	body, _, err := c.get(q)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return records, nil
}

func (c *client) fetchCSV(q url.Values) ([][]string, error) {
	body, _, err := c.get(cloneWith(q, "output", "csv"))
	if err != nil {
		return nil, err
	}
	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return rows, nil
}

func (c *client) fetchHTMLRows(q url.Values) (int, error) {
	body, _, err := c.get(cloneWith(q, "output", "html"))
	if err != nil {
		return 0, err
	}
	// One <tr> for the header row.
	return strings.Count(body, "<tr") - 1, nil
}

func cloneWith(q url.Values, key, value string) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	out.Set(key, value)
	return out
}

// ── Phases ──

func validateFormatParity(c *client) *phase {
	p := &phase{name: "Format parity (html/csv/json)"}
	for _, sort := range []string{"newest", "oldest"} {
		q := url.Values{"sort": {sort}}
		records, err := c.fetchJSON(q)
		if err != nil {
			p.errorf("sort=%s json: %v", sort, err)
			continue
		}
		rows, err := c.fetchCSV(q)
		if err != nil {
			p.errorf("sort=%s csv: %v", sort, err)
			continue
		}
		htmlRows, err := c.fetchHTMLRows(q)
		if err != nil {
			p.errorf("sort=%s html: %v", sort, err)
			continue
		}

		if len(rows) == 0 {
			p.errorf("sort=%s csv: missing header", sort)
			continue
		}
		if strings.Join(rows[0], ",") != strings.Join(domain.Columns, ",") {
			p.errorf("csv header %v, want %v", rows[0], domain.Columns)
		}
		if len(rows)-1 != len(records) || htmlRows != len(records) {
			p.errorf("sort=%s row counts: json=%d csv=%d html=%d", sort, len(records), len(rows)-1, htmlRows)
			continue
		}
		for i, r := range records {
			if rows[i+1][0] != r.UserID || rows[i+1][5] != r.Description {
				p.errorf("sort=%s row %d: csv (%s, %q) != json (%s, %q)",
					sort, i, rows[i+1][0], rows[i+1][5], r.UserID, r.Description)
			}
		}
	}
	return p
}

func validateSortOrder(c *client) *phase {
	p := &phase{name: "Sort order"}
	for _, sort := range []string{"newest", "oldest"} {
		records, err := c.fetchJSON(url.Values{"sort": {sort}})
		if err != nil {
			p.errorf("sort=%s: %v", sort, err)
			continue
		}
		for i := 1; i < len(records); i++ {
			prev, cur := stamp(records[i-1]), stamp(records[i])
			if sort == "newest" && cur > prev {
				p.errorf("sort=newest row %d: %s after %s", i, cur, prev)
			}
			if sort == "oldest" && cur < prev {
				p.errorf("sort=oldest row %d: %s after %s", i, cur, prev)
			}
		}
	}
	return p
}

func stamp(r domain.Record) string { return r.Date + " " + r.Time }

func validateCompleteness(records []domain.Record) *phase {
	p := &phase{name: "Field completeness"}
	for i, r := range records {
		if r.UserID == "" || r.State == "" || r.Country == "" || r.Date == "" || r.Time == "" {
			p.errorf("row %d (%s): empty required field", i, r.UserID)
		}
		switch r.Category {
		case domain.CategoryNormal, domain.CategoryOffensive, domain.CategoryDangerous:
		default:
			p.errorf("row %d (%s): unexpected category %q", i, r.UserID, r.Category)
		}
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("row %d (%s): coordinates out of range (%g, %g)", i, r.UserID, r.Latitude, r.Longitude)
		}
		if _, err := time.Parse(domain.DateLayout, r.Date); err != nil {
			p.errorf("row %d (%s): bad date %q", i, r.UserID, r.Date)
		}
		if _, err := time.Parse(domain.TimeLayout, r.Time); err != nil {
			p.errorf("row %d (%s): bad time %q", i, r.UserID, r.Time)
		}
	}
	return p
}

func validateMax(c *client, total int) *phase {
	p := &phase{name: "Max truncation"}
	for _, n := range []int{0, 1, 3, total + 5} {
		records, err := c.fetchJSON(url.Values{"max": {fmt.Sprint(n)}})
		if err != nil {
			p.errorf("max=%d: %v", n, err)
			continue
		}
		want := min(n, total)
		if len(records) != want {
			p.errorf("max=%d: got %d rows, want %d", n, len(records), want)
		}
	}
	return p
}

func validateDateWindow(c *client, all []domain.Record) *phase {
	p := &phase{name: "Date window"}
	if len(all) == 0 {
		return p
	}
	// all is sorted oldest first.
	lo, hi := all[0].Date, all[len(all)-1].Date
	records, err := c.fetchJSON(url.Values{"start_date": {lo}, "end_date": {hi}})
	if err != nil {
		p.errorf("window %s..%s: %v", lo, hi, err)
		return p
	}
	if len(records) != len(all) {
		p.errorf("inclusive window %s..%s: got %d rows, want %d", lo, hi, len(records), len(all))
	}

	records, err = c.fetchJSON(url.Values{"start_date": {hi}, "end_date": {hi}})
	if err != nil {
		p.errorf("single day %s: %v", hi, err)
		return p
	}
	for _, r := range records {
		if r.Date != hi {
			p.errorf("single day %s returned %s", hi, r.Date)
		}
	}
	if len(records) == 0 {
		p.errorf("single day %s returned no rows", hi)
	}
	return p
}

func validateDistance(c *client, all []domain.Record) *phase {
	p := &phase{name: "Distance filter"}
	if len(all) == 0 {
		return p
	}
	center := domain.Coordinates{Lat: all[0].Latitude, Lon: all[0].Longitude}
	for _, km := range []float64{0, 50, 1000} {
		records, err := c.fetchJSON(url.Values{
			"lat":  {fmt.Sprint(center.Lat)},
			"lng":  {fmt.Sprint(center.Lon)},
			"dist": {fmt.Sprint(km)},
		})
		if err != nil {
			p.errorf("dist=%g: %v", km, err)
			continue
		}
		want := 0
		for _, r := range all {
			if domain.DistanceKm(center.Lat, center.Lon, r.Latitude, r.Longitude) <= km {
				want++
			}
		}
		if len(records) != want {
			p.errorf("dist=%g: got %d rows, want %d", km, len(records), want)
		}
		for _, r := range records {
			if d := domain.DistanceKm(center.Lat, center.Lon, r.Latitude, r.Longitude); d > km {
				p.errorf("dist=%g: %s is %.3f km away", km, r.UserID, d)
			}
		}
	}
	return p
}

func validateInvalidQuery(c *client) *phase {
	p := &phase{name: "Invalid query reply"}
	for _, q := range []url.Values{
		{"max": {"lots"}},
		{"start_date": {"04/01/2024"}},
		{"lat": {"north"}, "lng": {"1"}, "dist": {"1"}},
	} {
		body, ctype, err := c.get(q)
		if err != nil {
			p.errorf("%s: %v", q.Encode(), err)
			continue
		}
		if !strings.HasPrefix(ctype, "text/plain") {
			p.errorf("%s: content type %q", q.Encode(), ctype)
		}
		if !strings.HasPrefix(body, "Error: ") || !strings.Contains(body, "See /data/help") {
			p.errorf("%s: unexpected reply %q", q.Encode(), body)
		}
	}
	return p
}
