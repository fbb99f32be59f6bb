// Package query filters, orders and serializes the stored report log for the
// /data endpoint.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// ReportLister loads every stored report in insertion order.
type ReportLister interface {
	List(ctx context.Context) ([]domain.Report, error)
}

// Engine answers report queries against the store.
type Engine struct {
	reports ReportLister
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewEngine(reports ReportLister, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{reports: reports, logger: logger, metrics: metrics}
}

// Run loads the report log and applies p to it.
func (e *Engine) Run(ctx context.Context, p Params) ([]domain.Record, error) {
	reports, err := e.reports.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}
	records := Apply(reports, p)
	e.metrics.RowsReturned.Observe(float64(len(records)))
	e.logger.Debug("report query", "stored", len(reports), "returned", len(records),
		"output", p.Output, "sort", p.Sort, "max", p.Max)
	return records, nil
}

// Apply runs the query stages in order:
//
//  1. drop reports with any null column
//  2. keep dates within [StartDate, EndDate]
//  3. truncate to the first Max rows
//  4. sort by sample date and time
//  5. keep rows within RadiusKm of Center
//
// Truncation happens before sorting and the radius filter, so max=N returns
// at most the first N date-matching rows in storage order, reordered.
func Apply(reports []domain.Report, p Params) []domain.Record {
	records := make([]domain.Record, 0, len(reports))
	for _, r := range reports {
		rec, ok := r.Complete()
		if !ok {
			continue
		}
		if p.StartDate != "" && rec.Date < p.StartDate {
			continue
		}
		if p.EndDate != "" && rec.Date > p.EndDate {
			continue
		}
		records = append(records, rec)
	}

	if p.Max >= 0 && p.Max < len(records) {
		records = records[:p.Max]
	}

	switch p.Sort {
	case SortNewest:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SampledAt.After(records[j].SampledAt)
		})
	case SortOldest:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SampledAt.Before(records[j].SampledAt)
		})
	}

	if p.Center != nil {
		kept := records[:0]
		for _, rec := range records {
			if domain.DistanceKm(p.Center.Lat, p.Center.Lon, rec.Latitude, rec.Longitude) <= p.RadiusKm {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	return records
}
