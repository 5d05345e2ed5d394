package redis

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	redis "github.com/redis/go-redis/v9"
)

var (
	redisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_requests_total",
			Help: "Total number of Redis requests by method.",
		},
		[]string{"method"},
	)
	redisErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total number of Redis errors by method.",
		},
		[]string{"method"},
	)
	redisRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_request_duration_seconds",
			Help:    "Redis request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// MetricsClient wraps Client to collect Prometheus metrics.
type MetricsClient struct {
	next *Client
}

// NewMetricsClient creates an instrumented Redis client.
func NewMetricsClient(next *Client) *MetricsClient {
	return &MetricsClient{next: next}
}

// Get instruments Client.Get.
func (m *MetricsClient) Get(ctx context.Context, key string) (string, error) {
	defer observe("get", time.Now())
	result, err := m.next.Get(ctx, key)
	record("get", err)
	return result, err
}

// Set instruments Client.Set.
func (m *MetricsClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	defer observe("set", time.Now())
	err := m.next.Set(ctx, key, value, ttl)
	record("set", err)
	return err
}

// Delete instruments Client.Delete.
func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	defer observe("delete", time.Now())
	err := m.next.Delete(ctx, key)
	record("delete", err)
	return err
}

// TxPipeline counts the pipeline creation; the commands inside execute as one
// round trip and are not observed individually.
func (m *MetricsClient) TxPipeline() redis.Pipeliner {
	record("tx_pipeline", nil)
	return m.next.TxPipeline()
}

// HealthCheck forwards to the underlying client.
func (m *MetricsClient) HealthCheck(ctx context.Context) error {
	return m.next.HealthCheck(ctx)
}

// Close closes the underlying client.
func (m *MetricsClient) Close() error {
	return m.next.Close()
}

func observe(method string, start time.Time) {
	redisRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func record(method string, err error) {
	redisRequestsTotal.WithLabelValues(method).Inc()
	if err != nil {
		redisErrorsTotal.WithLabelValues(method).Inc()
	}
}
