package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Writer publishes stored reports to a Kafka topic.
// It implements pipeline.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 5 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishReport writes one report event keyed by user, so a user's reports
// stay ordered within a partition.
func (w *Writer) PublishReport(ctx context.Context, report domain.Report, submittedAt time.Time) error {
	msg, err := serializeToMessage(report, submittedAt)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	w.logger.Debug("report event published", "topic", w.writer.Topic, "user_id", report.UserID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// ReportEvent is the JSON payload written for each stored report.
type ReportEvent struct {
	UserID      string   `json:"user_id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	State       *string  `json:"state"`
	Country     *string  `json:"country"`
	Description string   `json:"description"`
	Category    *string  `json:"category"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Rain        *float64 `json:"rain"`
	Date        *string  `json:"date"`
	Time        *string  `json:"time"`
	Filepath    string   `json:"filepath"`
	SubmittedAt string   `json:"submitted_at"`
}

func serializeToMessage(r domain.Report, submittedAt time.Time) (kafkago.Message, error) {
	event := ReportEvent{
		UserID:      r.UserID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		State:       r.State,
		Country:     r.Country,
		Description: r.Description,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Rain:        r.Rain,
		Date:        r.Date,
		Time:        r.Time,
		Filepath:    r.Filepath,
		SubmittedAt: submittedAt.UTC().Format(time.RFC3339),
	}
	category := ""
	if r.Category != nil {
		category = string(*r.Category)
		event.Category = &category
	}

	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(r.UserID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(category)},
			{Key: "submitted_at", Value: []byte(event.SubmittedAt)},
		},
	}, nil
}
