package monitoring

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/chatdeploy/configurator/engine/infra/monitoring/metrics"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/chatdeploy/configurator/pkg/version"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// buildInfo resolves version data, preferring ldflags over module metadata.
func buildInfo() (ver, commit, goVersion string) {
	info := version.Get()
	ver, commit = info.Version, info.CommitHash
	if bi, ok := debug.ReadBuildInfo(); ok {
		if ver == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			ver = bi.Main.Version
		}
		if commit == "unknown" {
			for _, setting := range bi.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}
	return ver, commit, runtime.Version()
}

// registerSystemMetrics exposes build info and uptime as observable gauges.
// The returned registration must be unregistered on shutdown.
func registerSystemMetrics(ctx context.Context, meter metric.Meter) (metric.Registration, error) {
	log := logger.FromContext(ctx)
	info, err := meter.Int64ObservableGauge(
		metrics.MetricName("build_info"),
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64ObservableGauge(
		metrics.MetricName("uptime_seconds"),
		metric.WithDescription("Service uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	ver, commit, goVersion := buildInfo()
	attrs := metric.WithAttributes(
		attribute.String("version", ver),
		attribute.String("commit_hash", commit),
		attribute.String("go_version", goVersion),
	)
	started := time.Now()
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(info, 1, attrs)
		o.ObserveFloat64(uptime, time.Since(started).Seconds())
		return nil
	}, info, uptime)
	if err != nil {
		return nil, err
	}
	log.Debug("System metrics registered", "version", ver, "commit", commit, "go_version", goVersion)
	return reg, nil
}
