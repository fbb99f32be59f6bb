package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DBDriver string
	DBDSN    string

	SessionSecret  string
	AdminPassword  string
	MaxUploadBytes int64

	// Attachment storage.
	AttachmentBackend string
	AttachmentDir     string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
	S3Prefix          string

	// Reverse geocoding.
	GeocoderProvider   string
	GeocoderTimeout    time.Duration
	GeocoderCacheSize  int
	NominatimURL       string
	NominatimUserAgent string
	MapboxToken        string

	// Weather.
	WeatherEnabled    bool
	WeatherURL        string
	WeatherTimeout    time.Duration
	WeatherMaxRetries int
	WeatherCacheTTL   time.Duration

	// Content classification.
	ClassifierEnabled bool
	GeminiAPIKey      string
	GeminiModel       string
	GeminiURL         string
	ClassifierTimeout time.Duration

	IPInfoURL string

	// Report events.
	ReportEventsEnabled bool
	KafkaBrokers        []string
	KafkaReportTopic    string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory and the YAML file named by CONFIG_FILE
// supply values for variables that are not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(path); err != nil {
			return nil, err
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	classifierTimeout, err := parseDuration("CLASSIFIER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	weatherRetries, err := parseInt("WEATHER_MAX_RETRIES", 5, 0)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("GEOCODER_CACHE_SIZE", 1000, 1)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parseInt("MAX_UPLOAD_BYTES", 10<<20, 1)
	if err != nil {
		return nil, err
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBDriver: sharedcfg.EnvOrDefault("DB_DRIVER", "sqlite"),
		DBDSN:    sharedcfg.EnvOrDefault("DB_DSN", "file:incident-reports.db?_pragma=busy_timeout(5000)"),

		SessionSecret:  os.Getenv("SESSION_SECRET"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		MaxUploadBytes: int64(maxUpload),

		AttachmentBackend: sharedcfg.EnvOrDefault("ATTACHMENT_BACKEND", "local"),
		AttachmentDir:     sharedcfg.EnvOrDefault("ATTACHMENT_DIR", "files"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          sharedcfg.EnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3Prefix:          sharedcfg.EnvOrDefault("S3_PREFIX", "files"),

		GeocoderProvider:   sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", "nominatim"),
		GeocoderTimeout:    geocoderTimeout,
		GeocoderCacheSize:  cacheSize,
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "incident-report-service"),
		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),

		WeatherEnabled:    parseBool("WEATHER_ENABLED", true),
		WeatherURL:        sharedcfg.EnvOrDefault("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:    weatherTimeout,
		WeatherMaxRetries: weatherRetries,
		WeatherCacheTTL:   weatherCacheTTL,

		ClassifierEnabled: parseBool("CLASSIFIER_ENABLED", geminiKey != ""),
		GeminiAPIKey:      geminiKey,
		GeminiModel:       sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiURL:         sharedcfg.EnvOrDefault("GEMINI_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ClassifierTimeout: classifierTimeout,

		IPInfoURL: sharedcfg.EnvOrDefault("IPINFO_URL", "https://ipinfo.io"),

		ReportEventsEnabled: parseBool("REPORT_EVENTS_ENABLED", false),
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:    sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "incident-reports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want sqlite or pgx", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}
	switch c.AttachmentBackend {
	case "local":
		if c.AttachmentDir == "" {
			return errors.New("ATTACHMENT_DIR is required for the local attachment backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("ATTACHMENT_BACKEND is s3 but S3_BUCKET is not set")
		}
	default:
		return fmt.Errorf("invalid ATTACHMENT_BACKEND %q: want local or s3", c.AttachmentBackend)
	}
	switch c.GeocoderProvider {
	case "nominatim", "none":
	case "mapbox":
		if c.MapboxToken == "" {
			return errors.New("GEOCODER_PROVIDER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return fmt.Errorf("invalid GEOCODER_PROVIDER %q: want nominatim, mapbox or none", c.GeocoderProvider)
	}
	if c.ClassifierEnabled && c.GeminiAPIKey == "" {
		return errors.New("CLASSIFIER_ENABLED is true but GEMINI_API_KEY is not set")
	}
	if c.ReportEventsEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when REPORT_EVENTS_ENABLED is true")
		}
		if c.KafkaReportTopic == "" {
			return errors.New("KAFKA_REPORT_TOPIC is required when REPORT_EVENTS_ENABLED is true")
		}
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
