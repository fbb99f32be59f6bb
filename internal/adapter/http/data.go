package http

import (
	"bytes"
	"net/http"

	"github.com/couchcryptid/incident-report-service/internal/query"
)

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query())
	if err != nil {
		s.deps.Metrics.Queries.WithLabelValues(string(params.Output), "invalid").Inc()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(query.HelpMessage(err)))
		return
	}

	records, err := s.deps.Query.Run(r.Context(), params)
	if err != nil {
		s.deps.Metrics.Queries.WithLabelValues(string(params.Output), "error").Inc()
		s.requestLogger(r).Error("report query failed", "error", err)
		http.Error(w, "could not load reports", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := query.Render(&buf, params.Output, records); err != nil {
		s.deps.Metrics.Queries.WithLabelValues(string(params.Output), "error").Inc()
		s.requestLogger(r).Error("render reports", "output", params.Output, "error", err)
		http.Error(w, "could not render reports", http.StatusInternalServerError)
		return
	}
	s.deps.Metrics.Queries.WithLabelValues(string(params.Output), "success").Inc()
	w.Header().Set("Content-Type", query.ContentType(params.Output))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "help.html", helpPage{URL: baseURL(r)})
}

// baseURL is the scheme and host the caller used, with a trailing slash.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + "/"
}
