package query

import (
	"fmt"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// report builds a complete report sampled at date and clock.
func report(user, date, clock string, lat, lon float64) domain.Report {
	return domain.Report{
		UserID:      user,
		Latitude:    lat,
		Longitude:   lon,
		State:       ptr("Zurich"),
		Country:     ptr("Switzerland"),
		Description: "report by " + user,
		Category:    ptr(domain.CategoryNormal),
		Temperature: ptr(10.5),
		Humidity:    ptr(70.0),
		Rain:        ptr(0.0),
		Date:        ptr(date),
		Time:        ptr(clock),
		Filepath:    "",
	}
}

// tenReports returns reports u0..u9 stored in that order, sampled on
// distinct days of May 2024 so that storage order is not date order.
func tenReports() []domain.Report {
	days := []int{3, 9, 1, 7, 5, 10, 2, 8, 4, 6}
	out := make([]domain.Report, len(days))
	for i, d := range days {
		out[i] = report(fmt.Sprintf("u%d", i), fmt.Sprintf("2024-05-%02d", d), "12:00:00", 47.37, 8.54)
	}
	return out
}
