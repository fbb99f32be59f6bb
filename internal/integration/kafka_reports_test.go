//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"golang.org/x/crypto/bcrypt"

	"github.com/couchcryptid/incident-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/incident-report-service/internal/auth"
	"github.com/couchcryptid/incident-report-service/internal/config"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
	"github.com/couchcryptid/incident-report-service/internal/pipeline"
	"github.com/couchcryptid/incident-report-service/internal/store"
)

const testReportTopic = "test-incident-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("incident-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestReportEventPublished submits a report through the pipeline and reads
// the resulting event back from Kafka.
func TestReportEventPublished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	st, err := store.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	authSvc := auth.NewService(st.Credentials, logger).WithCost(bcrypt.MinCost)
	require.NoError(t, authSvc.Register(ctx, "alice", "pw"))
	token, err := authSvc.TokenFor(ctx, "alice")
	require.NoError(t, err)

	writer := kafka.NewWriter(&config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}, logger)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(pipeline.Deps{
		Tokens:  authSvc,
		Reports: st.Reports,
		Events:  writer,
		Logger:  logger,
		Metrics: metrics,
	})

	res, err := p.Submit(ctx, pipeline.Submission{
		Token:       token,
		ManualLat:   "32.84",
		ManualLon:   "-83.63",
		Description: "Fallen tree blocking the road",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testReportTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read report event")

	assert.Equal(t, "alice", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "", headers["category"])
	assert.NotEmpty(t, headers["submitted_at"])

	var event kafka.ReportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "alice", event.UserID)
	assert.InDelta(t, 32.84, event.Latitude, 1e-9)
	assert.InDelta(t, -83.63, event.Longitude, 1e-9)
	assert.Equal(t, "Fallen tree blocking the road", event.Description)
	assert.Nil(t, event.State)
	assert.Nil(t, event.Temperature)

	stored, err := st.Reports.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.Report{
		UserID:      "alice",
		Latitude:    32.84,
		Longitude:   -83.63,
		Description: "Fallen tree blocking the road",
	}, stored[0])
}
