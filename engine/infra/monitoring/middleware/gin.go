package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/chatdeploy/configurator/engine/infra/monitoring/metrics"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	inFlight  metric.Int64UpDownCounter
	respBytes metric.Int64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	var (
		inst instruments
		err  error
	)
	if inst.requests, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("http", "requests_total"),
		metric.WithDescription("Total HTTP requests"),
	); err != nil {
		return nil, err
	}
	if inst.duration, err = meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if inst.inFlight, err = meter.Int64UpDownCounter(
		metrics.MetricNameWithSubsystem("http", "requests_in_flight"),
		metric.WithDescription("Currently active HTTP requests"),
	); err != nil {
		return nil, err
	}
	if inst.respBytes, err = meter.Int64Histogram(
		metrics.MetricNameWithSubsystem("http", "response_size_bytes"),
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(metrics.HTTPSizeBucketBoundaries...),
	); err != nil {
		return nil, err
	}
	return &inst, nil
}

// HTTPMetrics records request count, latency, size and concurrency labelled
// by route template, so path parameters never explode cardinality.
func HTTPMetrics(ctx context.Context, meter metric.Meter) gin.HandlerFunc {
	inst, err := newInstruments(meter)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to create HTTP instruments", "error", err)
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqCtx := c.Request.Context()
		inst.inFlight.Add(reqCtx, 1)
		defer inst.inFlight.Add(reqCtx, -1)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		inst.requests.Add(reqCtx, 1, attrs)
		inst.duration.Record(reqCtx, time.Since(start).Seconds(), attrs)
		if size := c.Writer.Size(); size > 0 {
			inst.respBytes.Record(reqCtx, int64(size), attrs)
		}
	}
}
