package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Step names used in logs and the enrichment metric.
const (
	stepGeocode    = "geocode"
	stepWeather    = "weather"
	stepClassify   = "classify"
	stepAttachment = "attachment"
)

// attachmentURLPrefix is the path under which stored attachments are served.
const attachmentURLPrefix = "files/"

var errStepDisabled = errors.New("step disabled")

// ResolveCoordinates picks the manual pair when both manual values are
// present, otherwise the IP-derived pair, and parses it.
func ResolveCoordinates(manualLat, manualLon, ipLat, ipLon string) (domain.Coordinates, error) {
	latStr, lonStr := strings.TrimSpace(ipLat), strings.TrimSpace(ipLon)
	if m1, m2 := strings.TrimSpace(manualLat), strings.TrimSpace(manualLon); m1 != "" && m2 != "" {
		latStr, lonStr = m1, m2
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return domain.Coordinates{}, fmt.Errorf("%w: latitude %q", domain.ErrInvalidInput, latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return domain.Coordinates{}, fmt.Errorf("%w: longitude %q", domain.ErrInvalidInput, lonStr)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

func (p *Pipeline) record(logger *slog.Logger, step string, err error) {
	switch {
	case err == nil:
		p.deps.Metrics.EnrichmentSteps.WithLabelValues(step, "success").Inc()
	case errors.Is(err, errStepDisabled):
		p.deps.Metrics.EnrichmentSteps.WithLabelValues(step, "skipped").Inc()
	default:
		p.deps.Metrics.EnrichmentSteps.WithLabelValues(step, "failure").Inc()
		logger.Warn("enrichment step failed", "step", step, "error", err)
	}
}

func (p *Pipeline) geocode(ctx context.Context, logger *slog.Logger, c domain.Coordinates) domain.StepResult[domain.Address] {
	if p.deps.Geocoder == nil {
		p.record(logger, stepGeocode, errStepDisabled)
		return domain.Failed[domain.Address](errStepDisabled)
	}
	addr, err := p.deps.Geocoder.ReverseGeocode(ctx, c.Lat, c.Lon)
	p.record(logger, stepGeocode, err)
	if err != nil {
		return domain.Failed[domain.Address](err)
	}
	return domain.Succeeded(addr)
}

func (p *Pipeline) weather(ctx context.Context, logger *slog.Logger, c domain.Coordinates) domain.StepResult[domain.Weather] {
	if p.deps.Weather == nil {
		p.record(logger, stepWeather, errStepDisabled)
		return domain.Failed[domain.Weather](errStepDisabled)
	}
	w, err := p.deps.Weather.CurrentWeather(ctx, c.Lat, c.Lon)
	p.record(logger, stepWeather, err)
	if err != nil {
		return domain.Failed[domain.Weather](err)
	}
	return domain.Succeeded(w)
}

// classify maps a safety block to Dangerous; any other failure leaves the
// category null.
func (p *Pipeline) classify(ctx context.Context, logger *slog.Logger, text string) domain.StepResult[domain.Category] {
	if p.deps.Classifier == nil {
		p.record(logger, stepClassify, errStepDisabled)
		return domain.Failed[domain.Category](errStepDisabled)
	}
	cat, err := p.deps.Classifier.Classify(ctx, text)
	if errors.Is(err, domain.ErrSafetyBlocked) {
		logger.Info("classification blocked, marking report dangerous", "reason", err)
		p.record(logger, stepClassify, nil)
		return domain.Succeeded(domain.CategoryDangerous)
	}
	p.record(logger, stepClassify, err)
	if err != nil {
		return domain.Failed[domain.Category](err)
	}
	return domain.Succeeded(cat)
}

// saveAttachment returns the relative path of the stored file, or "" when
// there is no attachment or it could not be stored.
func (p *Pipeline) saveAttachment(ctx context.Context, logger *slog.Logger, a *Attachment, at time.Time) string {
	if a == nil || a.Content == nil || a.Filename == "" {
		return ""
	}
	if p.deps.Attachments == nil {
		p.record(logger, stepAttachment, errStepDisabled)
		return ""
	}
	name := domain.AttachmentName(at, a.Filename)
	if name == "" {
		p.record(logger, stepAttachment, fmt.Errorf("unusable filename %q", a.Filename))
		return ""
	}
	err := p.deps.Attachments.Save(ctx, name, a.Content)
	p.record(logger, stepAttachment, err)
	if err != nil {
		return ""
	}
	return attachmentURLPrefix + name
}

// WeatherSummary renders the weather columns of r for the confirmation page.
// Null values print as "None".
func WeatherSummary(r domain.Report) string {
	return fmt.Sprintf("Temperature: %s °C, Rain: %s mm, Humidity: %s %%, Sampled at: %s, %s.",
		formatFloat(r.Temperature), formatFloat(r.Rain), formatFloat(r.Humidity),
		derefOr(r.Date, "None"), derefOr(r.Time, "None"))
}

func formatFloat(v *float64) string {
	if v == nil {
		return "None"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
