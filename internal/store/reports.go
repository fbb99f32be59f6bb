package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// ReportRepository appends and lists incident reports.
type ReportRepository struct {
	db      DBTX
	dialect Dialect
}

func NewReportRepository(db DBTX, dialect Dialect) *ReportRepository {
	return &ReportRepository{db: db, dialect: dialect}
}

// Insert appends one report. Nil enrichment fields are stored as NULL.
func (r *ReportRepository) Insert(ctx context.Context, rep domain.Report) error {
	query := rebind(r.dialect,
		`INSERT INTO reports (user_id, latitude, longitude, state, country, description,
		                      category, temperature, humidity, rain, date, time, filepath)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	var category *string
	if rep.Category != nil {
		c := string(*rep.Category)
		category = &c
	}

	_, err := r.db.ExecContext(ctx, query,
		rep.UserID, rep.Latitude, rep.Longitude, rep.State, rep.Country, rep.Description,
		category, rep.Temperature, rep.Humidity, rep.Rain, rep.Date, rep.Time, rep.Filepath)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns every stored report in insertion order.
func (r *ReportRepository) List(ctx context.Context) ([]domain.Report, error) {
	query := `SELECT user_id, latitude, longitude, state, country, description,
	                 category, temperature, humidity, rain, date, time, filepath
	          FROM reports
	          ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Report
	for rows.Next() {
		var (
			rep                  domain.Report
			state, country, cat  sql.NullString
			date, clock          sql.NullString
			temp, humidity, rain sql.NullFloat64
		)
		if err := rows.Scan(&rep.UserID, &rep.Latitude, &rep.Longitude, &state, &country,
			&rep.Description, &cat, &temp, &humidity, &rain, &date, &clock, &rep.Filepath); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rep.State = nullString(state)
		rep.Country = nullString(country)
		if cat.Valid {
			c := domain.Category(cat.String)
			rep.Category = &c
		}
		rep.Temperature = nullFloat(temp)
		rep.Humidity = nullFloat(humidity)
		rep.Rain = nullFloat(rain)
		rep.Date = nullString(date)
		rep.Time = nullString(clock)
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
