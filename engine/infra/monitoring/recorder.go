package monitoring

import (
	"context"

	"github.com/chatdeploy/configurator/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Recorder counts domain events: generated packages, validation runs and
// deployment tasks. A Recorder built from a no-op meter discards everything.
type Recorder struct {
	packages         metric.Int64Counter
	packageFiles     metric.Int64Histogram
	validations      metric.Int64Counter
	validationErrors metric.Int64Counter
	deployTasks      metric.Int64Counter
}

func NewRecorder(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error
	if r.packages, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("package", "generated_total"),
		metric.WithDescription("Package generation attempts by outcome"),
	); err != nil {
		return nil, err
	}
	if r.packageFiles, err = meter.Int64Histogram(
		metrics.MetricNameWithSubsystem("package", "files"),
		metric.WithDescription("Artifacts per generated package"),
		metric.WithExplicitBucketBoundaries(metrics.PackageFileBuckets...),
	); err != nil {
		return nil, err
	}
	if r.validations, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("validation", "runs_total"),
		metric.WithDescription("Configuration validations by outcome"),
	); err != nil {
		return nil, err
	}
	if r.validationErrors, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("validation", "errors_total"),
		metric.WithDescription("Field errors reported by validation"),
	); err != nil {
		return nil, err
	}
	if r.deployTasks, err = meter.Int64Counter(
		metrics.MetricNameWithSubsystem("deploy", "tasks_total"),
		metric.WithDescription("Deployment tasks by kind and outcome"),
	); err != nil {
		return nil, err
	}
	return r, nil
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeSuccess
}

func (r *Recorder) RecordPackage(ctx context.Context, files int, err error) {
	r.packages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
	if err == nil {
		r.packageFiles.Record(ctx, int64(files))
	}
}

func (r *Recorder) RecordValidation(ctx context.Context, errors int) {
	result := "valid"
	if errors > 0 {
		result = "invalid"
		r.validationErrors.Add(ctx, int64(errors))
	}
	r.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result)))
}

func (r *Recorder) RecordDeploymentTask(ctx context.Context, kind string, err error) {
	r.deployTasks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(err)),
	))
}
