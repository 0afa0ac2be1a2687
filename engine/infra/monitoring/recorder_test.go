package monitoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
	rec, err := NewRecorder(provider.Meter("test"))
	require.NoError(t, err)
	return rec, reader
}

func sumByAttr(t *testing.T, reader *sdkmetric.ManualReader, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestRecorder(t *testing.T) {
	t.Run("Should count packages by outcome", func(t *testing.T) {
		rec, reader := newTestRecorder(t)
		rec.RecordPackage(t.Context(), 7, nil)
		rec.RecordPackage(t.Context(), 2, nil)
		rec.RecordPackage(t.Context(), 0, errors.New("render failed"))
		got := sumByAttr(t, reader, "configurator_package_generated_total", "outcome")
		assert.Equal(t, map[string]int64{"success": 2, "error": 1}, got)
	})

	t.Run("Should count validations and their errors", func(t *testing.T) {
		rec, reader := newTestRecorder(t)
		rec.RecordValidation(t.Context(), 0)
		rec.RecordValidation(t.Context(), 3)
		rec.RecordValidation(t.Context(), 1)
		assert.Equal(t,
			map[string]int64{"valid": 1, "invalid": 2},
			sumByAttr(t, reader, "configurator_validation_runs_total", "outcome"),
		)
		assert.Equal(t,
			map[string]int64{"": 4},
			sumByAttr(t, reader, "configurator_validation_errors_total", "outcome"),
		)
	})

	t.Run("Should count deployment tasks by kind", func(t *testing.T) {
		rec, reader := newTestRecorder(t)
		rec.RecordDeploymentTask(t.Context(), "initiate", nil)
		rec.RecordDeploymentTask(t.Context(), "health", errors.New("unreachable"))
		rec.RecordDeploymentTask(t.Context(), "health", nil)
		assert.Equal(t,
			map[string]int64{"initiate": 1, "health": 2},
			sumByAttr(t, reader, "configurator_deploy_tasks_total", "kind"),
		)
		assert.Equal(t,
			map[string]int64{"success": 2, "error": 1},
			sumByAttr(t, reader, "configurator_deploy_tasks_total", "outcome"),
		)
	})
}
