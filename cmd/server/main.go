package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-report-service/internal/adapter/attachment"
	"github.com/couchcryptid/incident-report-service/internal/adapter/gemini"
	"github.com/couchcryptid/incident-report-service/internal/adapter/geocache"
	httpadapter "github.com/couchcryptid/incident-report-service/internal/adapter/http"
	"github.com/couchcryptid/incident-report-service/internal/adapter/ipinfo"
	kafkaadapter "github.com/couchcryptid/incident-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-report-service/internal/adapter/mapbox"
	"github.com/couchcryptid/incident-report-service/internal/adapter/nominatim"
	"github.com/couchcryptid/incident-report-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/incident-report-service/internal/auth"
	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
	"github.com/couchcryptid/incident-report-service/internal/pipeline"
	"github.com/couchcryptid/incident-report-service/internal/query"
	"github.com/couchcryptid/incident-report-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	authSvc := auth.NewService(db.Credentials, logger)
	if cfg.AdminPassword != "" {
		if err := authSvc.EnsureUser(ctx, "admin", cfg.AdminPassword); err != nil {
			logger.Error("failed to create admin user", "error", err)
			os.Exit(1)
		}
	}

	files, err := newAttachmentStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open attachment store", "backend", cfg.AttachmentBackend, "error", err)
		os.Exit(1)
	}
	logger.Info("attachment store ready", "backend", cfg.AttachmentBackend)

	deps := pipeline.Deps{
		Tokens:      authSvc,
		Reports:     db.Reports,
		Geocoder:    newGeocoder(cfg, logger, metrics),
		Attachments: files,
		Logger:      logger,
		Metrics:     metrics,
	}

	// Enrichment and events are feature-flagged; a disabled step leaves its
	// fields null.
	if cfg.WeatherEnabled {
		client := openmeteo.NewClient(cfg.WeatherURL, cfg.WeatherTimeout, cfg.WeatherMaxRetries, logger, metrics)
		deps.Weather = openmeteo.NewCachedProvider(client, cfg.WeatherCacheTTL, clockwork.NewRealClock(), metrics)
		logger.Info("weather enabled", "retries", cfg.WeatherMaxRetries, "cache_ttl", cfg.WeatherCacheTTL)
	} else {
		logger.Info("weather disabled")
	}
	if cfg.ClassifierEnabled {
		deps.Classifier = gemini.NewClient(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ClassifierTimeout, logger, metrics)
		logger.Info("classifier enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("classifier disabled")
	}
	var writer *kafkaadapter.Writer
	if cfg.ReportEventsEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		deps.Events = writer
		logger.Info("report events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Auth:           authSvc,
		Reports:        pipeline.New(deps),
		Query:          query.NewEngine(db.Reports, logger, metrics),
		Attachments:    files,
		Locator:        ipinfo.NewClient(cfg.IPInfoURL, cfg.GeocoderTimeout, logger, metrics),
		Sessions:       newSessionStore(cfg, logger),
		Ready:          db,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
		Metrics:        metrics,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newGeocoder(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.ReverseGeocoder {
	var inner domain.ReverseGeocoder
	switch cfg.GeocoderProvider {
	case "mapbox":
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.GeocoderTimeout, logger, metrics)
	case "nominatim":
		inner = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocoderTimeout, logger, metrics)
	default:
		logger.Info("reverse geocoding disabled")
		return nil
	}
	logger.Info("reverse geocoding enabled", "provider", cfg.GeocoderProvider, "cache_size", cfg.GeocoderCacheSize)
	return geocache.New(inner, cfg.GeocoderCacheSize, metrics)
}

func newAttachmentStore(ctx context.Context, cfg *config.Config) (attachment.Store, error) {
	if cfg.AttachmentBackend == "s3" {
		return attachment.NewS3(ctx, attachment.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
	}
	return attachment.NewLocal(cfg.AttachmentDir)
}

func newSessionStore(cfg *config.Config, logger *slog.Logger) *sessions.CookieStore {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	cs := sessions.NewCookieStore(secret)
	cs.Options.HttpOnly = true
	cs.Options.SameSite = http.SameSiteLaxMode
	cs.Options.MaxAge = 86400
	return cs
}
