// Package http is the browser and API boundary of the report service: the
// login and landing pages, report submission, the /data query endpoint,
// stored attachments, and the health and metrics routes.
package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
	"github.com/couchcryptid/incident-report-service/internal/pipeline"
	"github.com/couchcryptid/incident-report-service/internal/query"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sessionName     = "incident-session"
	sessionUsername = "username"

	defaultMaxUpload = 10 << 20
)

// Authenticator covers the account operations the pages need.
type Authenticator interface {
	Register(ctx context.Context, username, password string) error
	Verify(ctx context.Context, username, password string) (string, error)
	TokenFor(ctx context.Context, username string) (string, error)
}

// Submitter runs a report submission through enrichment and storage.
type Submitter interface {
	Submit(ctx context.Context, sub pipeline.Submission) (pipeline.Result, error)
}

// QueryRunner evaluates a /data query against the report log.
type QueryRunner interface {
	Run(ctx context.Context, p query.Params) ([]domain.Record, error)
}

// AttachmentOpener serves stored attachments by name.
type AttachmentOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Deps wires the server's collaborators. Locator may be nil, in which case
// the landing page always asks for manual coordinates.
type Deps struct {
	Auth           Authenticator
	Reports        Submitter
	Query          QueryRunner
	Attachments    AttachmentOpener
	Locator        domain.IPLocator
	Sessions       sessions.Store
	Ready          sharedobs.ReadinessChecker
	MaxUploadBytes int64
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

// Server owns the HTTP listener and the routes.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer builds the router and wraps it in an http.Server listening on addr.
func NewServer(addr string, deps Deps) *Server {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUpload
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// Submissions wait on geocoding, weather and classification in turn.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, s.accessLog)

	r.HandleFunc("/", s.handleLoginForm).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/home/{username}", s.handleHome).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/report", s.handleReport).Methods(http.MethodPost)

	r.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	r.HandleFunc("/data/help", s.handleHelp).Methods(http.MethodGet)
	r.HandleFunc("/files/{name}", s.handleFile).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/readyz", sharedobs.ReadinessHandler(s.deps.Ready)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
