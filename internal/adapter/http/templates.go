package http

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type loginPage struct {
	Message string
}

type homePage struct {
	Username  string
	Latitude  string
	Longitude string
	APIKey    string
	UserIP    string
}

type reportPage struct {
	Username    string
	UserIP      string
	Coordinates string
	State       string
	Country     string
	Weather     string
	Description string
	Category    string
	Filepath    string
}

type helpPage struct {
	URL string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.requestLogger(r).Error("render page", "page", name, "error", err)
	}
}
