// Package pipeline turns an authenticated report submission into a stored,
// enriched incident report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// TokenResolver maps an API token to its owner.
type TokenResolver interface {
	UsernameFor(ctx context.Context, token string) (string, error)
}

// ReportWriter appends a report to the report log.
type ReportWriter interface {
	Insert(ctx context.Context, report domain.Report) error
}

// AttachmentSaver stores an uploaded file under the given name and removes
// it again when the report cannot be stored.
type AttachmentSaver interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Remove(ctx context.Context, name string) error
}

// EventPublisher announces stored reports to downstream consumers.
type EventPublisher interface {
	PublishReport(ctx context.Context, report domain.Report, submittedAt time.Time) error
}

// Deps wires the pipeline's collaborators. Geocoder, Weather, Classifier,
// Attachments and Events may be nil; the matching step is then skipped and
// its fields stay null.
type Deps struct {
	Tokens      TokenResolver
	Reports     ReportWriter
	Geocoder    domain.ReverseGeocoder
	Weather     domain.WeatherProvider
	Classifier  domain.Classifier
	Attachments AttachmentSaver
	Events      EventPublisher
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// Attachment is an uploaded file as received from the client.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// Submission is one report as entered on the landing page. Coordinates arrive
// as text: the manual pair typed by the user and the pair derived from the
// caller's IP address.
type Submission struct {
	Token       string
	ManualLat   string
	ManualLon   string
	IPLat       string
	IPLon       string
	UserIP      string
	Description string
	Attachment  *Attachment
}

// Result is the stored report plus what the confirmation page shows.
type Result struct {
	Report         domain.Report
	Username       string
	UserIP         string
	WeatherSummary string
}

// Pipeline runs the submission steps in order: authenticate, resolve
// coordinates, reverse geocode, weather, classify, save attachment, persist.
// Only authentication, coordinate parsing and persistence can fail a
// submission; every enrichment step degrades to null.
type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Submit processes one submission. It returns an error wrapping
// domain.ErrAuth for an unknown token and domain.ErrInvalidInput for
// unusable coordinates; in both cases nothing is written and no external
// service is called.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (Result, error) {
	username, err := p.deps.Tokens.UsernameFor(ctx, sub.Token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			p.deps.Metrics.ReportsSubmitted.WithLabelValues("unauthorized").Inc()
			return Result{}, domain.ErrAuth
		}
		p.deps.Metrics.ReportsSubmitted.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("resolve token: %w", err)
	}

	coords, err := ResolveCoordinates(sub.ManualLat, sub.ManualLon, sub.IPLat, sub.IPLon)
	if err != nil {
		p.deps.Metrics.ReportsSubmitted.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	submittedAt := domain.Now()
	logger := p.deps.Logger.With("user_id", username, "lat", coords.Lat, "lon", coords.Lon)

	addr := p.geocode(ctx, logger, coords)
	weather := p.weather(ctx, logger, coords)
	category := p.classify(ctx, logger, sub.Description)
	filepath := p.saveAttachment(ctx, logger, sub.Attachment, submittedAt)

	report := domain.Report{
		UserID:      username,
		Latitude:    coords.Lat,
		Longitude:   coords.Lon,
		Description: sub.Description,
		Category:    category.Ptr(),
		Filepath:    filepath,
	}
	if addr.OK() {
		report.State = &addr.Value.State
		report.Country = &addr.Value.Country
	}
	if weather.OK() {
		w := weather.Value
		date := w.SampledAt.Format(domain.DateLayout)
		clock := w.SampledAt.Format(domain.TimeLayout)
		report.Temperature = &w.Temperature
		report.Humidity = &w.Humidity
		report.Rain = &w.Rain
		report.Date = &date
		report.Time = &clock
	}

	if err := p.deps.Reports.Insert(ctx, report); err != nil {
		p.deps.Metrics.ReportsSubmitted.WithLabelValues("error").Inc()
		p.discardAttachment(ctx, logger, report.Filepath)
		return Result{}, fmt.Errorf("persist report: %w", err)
	}
	p.deps.Metrics.ReportsSubmitted.WithLabelValues("stored").Inc()
	logger.Info("report stored", "category", derefOr(report.Category, ""), "filepath", report.Filepath)

	p.publish(ctx, logger, report, submittedAt)

	return Result{
		Report:         report,
		Username:       username,
		UserIP:         sub.UserIP,
		WeatherSummary: WeatherSummary(report),
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, report domain.Report, at time.Time) {
	if p.deps.Events == nil {
		return
	}
	if err := p.deps.Events.PublishReport(ctx, report, at); err != nil {
		p.deps.Metrics.EventsPublished.WithLabelValues("error").Inc()
		logger.Warn("report event publish failed", "error", err)
		return
	}
	p.deps.Metrics.EventsPublished.WithLabelValues("success").Inc()
}

// discardAttachment removes a file saved for a report that was not stored.
func (p *Pipeline) discardAttachment(ctx context.Context, logger *slog.Logger, filepath string) {
	name, ok := strings.CutPrefix(filepath, attachmentURLPrefix)
	if !ok || name == "" {
		return
	}
	if err := p.deps.Attachments.Remove(ctx, name); err != nil {
		logger.Error("orphaned attachment", "name", name, "error", err)
	}
}

func derefOr[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
