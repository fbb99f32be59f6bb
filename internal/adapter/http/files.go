package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/gorilla/mux"
)

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.NotFound(w, r)
		return
	}

	rc, err := s.deps.Attachments.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.requestLogger(r).Error("open attachment", "name", name, "error", err)
		http.Error(w, "could not open attachment", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		s.requestLogger(r).Warn("stream attachment", "name", name, "error", err)
	}
}
