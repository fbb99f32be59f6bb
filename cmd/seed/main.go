// Command seed loads a JSON fixture of incident reports into the report store
// and prints the counts the query tests and cmd/validate rely on.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -fixture data/mock/reports.json \
//	  -driver sqlite -dsn 'file:incident-reports.db?_pragma=busy_timeout(5000)'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/auth"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/query"
	"github.com/couchcryptid/incident-report-service/internal/store"
)

// fixtureReport mirrors one row of the reports table. Null columns are
// omitted or null in the fixture.
type fixtureReport struct {
	UserID      string   `json:"user_id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	State       *string  `json:"state"`
	Country     *string  `json:"country"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Rain        *float64 `json:"rain"`
	Date        *string  `json:"date"`
	Time        *string  `json:"time"`
	Filepath    string   `json:"filepath"`
}

func (f fixtureReport) report() domain.Report {
	r := domain.Report{
		UserID:      f.UserID,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
		State:       f.State,
		Country:     f.Country,
		Description: f.Description,
		Temperature: f.Temperature,
		Humidity:    f.Humidity,
		Rain:        f.Rain,
		Date:        f.Date,
		Time:        f.Time,
		Filepath:    f.Filepath,
	}
	if f.Category != nil {
		c := domain.ParseCategory(*f.Category)
		r.Category = &c
	}
	return r
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fixture := flag.String("fixture", "data/mock/reports.json", "path to the JSON report fixture")
	driver := flag.String("driver", "sqlite", "database driver: sqlite or pgx")
	dsn := flag.String("dsn", "file:incident-reports.db?_pragma=busy_timeout(5000)", "database DSN")
	password := flag.String("password", "", "if set, register every fixture user with this password")
	dryRun := flag.Bool("dry-run", false, "print stats without writing to the database")
	flag.Parse()

	reports, err := loadFixture(*fixture)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}
	log.Printf("fixture: %d reports", len(reports))

	if !*dryRun {
		if err := load(*driver, *dsn, *password, reports); err != nil {
			return err
		}
	}

	printStats(reports)
	return nil
}

func loadFixture(path string) ([]domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []fixtureReport
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	reports := make([]domain.Report, len(rows))
	for i, row := range rows {
		reports[i] = row.report()
	}
	return reports, nil
}

func load(driver, dsn, password string, reports []domain.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if password != "" {
		svc := auth.NewService(st.Credentials, slog.Default())
		seen := map[string]bool{}
		for _, r := range reports {
			if seen[r.UserID] {
				continue
			}
			seen[r.UserID] = true
			if err := svc.EnsureUser(ctx, r.UserID, password); err != nil {
				return fmt.Errorf("registering %s: %w", r.UserID, err)
			}
		}
		log.Printf("registered %d users", len(seen))
	}

	for i, r := range reports {
		if err := st.Reports.Insert(ctx, r); err != nil {
			return fmt.Errorf("inserting report %d: %w", i, err)
		}
	}
	log.Printf("inserted %d reports", len(reports))
	return nil
}

type count struct {
	key string
	n   int
}

func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}

func printStats(reports []domain.Report) {
	all := query.Apply(reports, query.Params{Max: -1, Sort: query.SortOldest})

	categories := map[string]int{}
	states := map[string]int{}
	for _, r := range all {
		categories[string(r.Category)]++
		states[r.State]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Stored: %d\n", len(reports))
	fmt.Printf("Queryable (no null columns): %d\n", len(all))
	fmt.Printf("By category: Normal=%d, Offensive=%d, Dangerous=%d\n",
		categories[string(domain.CategoryNormal)],
		categories[string(domain.CategoryOffensive)],
		categories[string(domain.CategoryDangerous)])

	fmt.Printf("States (%d):", len(states))
	for _, c := range sortedCounts(states) {
		fmt.Printf(" %s=%d", c.key, c.n)
	}
	fmt.Println()

	if len(all) > 0 {
		fmt.Printf("Date range: %s .. %s\n", all[0].Date, all[len(all)-1].Date)
	}

	// max is applied before sorting, so this is the first three queryable
	// rows in storage order, newest first.
	first3 := query.Apply(reports, query.Params{Max: 3, Sort: query.SortNewest})
	fmt.Println("\nmax=3&sort=newest:")
	for _, r := range first3 {
		fmt.Printf("  %s %s %s %q\n", r.Date, r.Time, r.UserID, r.Description)
	}

	if len(all) > 0 {
		c := domain.Coordinates{Lat: all[0].Latitude, Lon: all[0].Longitude}
		for _, km := range []float64{0, 50, 500} {
			geo := query.Apply(reports, query.Params{Max: -1, Sort: query.SortNewest, Center: &c, RadiusKm: km})
			fmt.Printf("Within %g km of (%g, %g): %d\n", km, c.Lat, c.Lon, len(geo))
		}
	}
}
