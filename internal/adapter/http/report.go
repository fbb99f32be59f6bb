package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/pipeline"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	sub := pipeline.Submission{
		Token:       r.FormValue("api_key"),
		ManualLat:   r.FormValue("man_gps_lat"),
		ManualLon:   r.FormValue("man_gps_long"),
		IPLat:       r.FormValue("gps_lat"),
		IPLon:       r.FormValue("gps_long"),
		UserIP:      r.FormValue("user_ip"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if header.Filename != "" {
			sub.Attachment = &pipeline.Attachment{Filename: header.Filename, Content: file}
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no attachment
	default:
		logger.Warn("read attachment", "error", err)
	}

	res, err := s.deps.Reports.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, domain.ErrAuth):
		s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{Message: "Invalid API key! Please log in again."})
		return
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.Error("submit report", "error", err)
		http.Error(w, "could not store report", http.StatusInternalServerError)
		return
	}

	rep := res.Report
	s.render(w, r, http.StatusOK, "report.html", reportPage{
		Username:    res.Username,
		UserIP:      res.UserIP,
		Coordinates: formatCoord(rep.Latitude) + ", " + formatCoord(rep.Longitude),
		State:       orNone(rep.State),
		Country:     orNone(rep.Country),
		Weather:     res.WeatherSummary,
		Description: rep.Description,
		Category:    categoryText(rep.Category),
		Filepath:    rep.Filepath,
	})
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orNone(v *string) string {
	if v == nil {
		return "None"
	}
	return *v
}

func categoryText(c *domain.Category) string {
	if c == nil {
		return "None"
	}
	return string(*c)
}
