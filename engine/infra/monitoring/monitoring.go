package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/chatdeploy/configurator/engine/infra/monitoring/middleware"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "configurator"

// Service owns the meter provider and the Prometheus registry behind the
// metrics endpoint.
type Service struct {
	meter             metric.Meter
	provider          *sdkmetric.MeterProvider
	registry          *prom.Registry
	system            metric.Registration
	recorder          *Recorder
	config            *Config
	initialized       bool
	initializationErr error
}

func newDisabledService(cfg *Config, initErr error) *Service {
	meter := noop.NewMeterProvider().Meter(meterName)
	// Instruments from a no-op meter cannot fail.
	recorder, _ := NewRecorder(meter)
	return &Service{
		config:            cfg,
		meter:             meter,
		recorder:          recorder,
		initializationErr: initErr,
	}
}

// NewMonitoringService builds the Prometheus exporter. A disabled config
// yields a service whose instruments are no-ops.
func NewMonitoringService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg, nil), nil
	}
	registry := prom.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry), prometheus.WithoutScopeInfo())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)
	recorder, err := NewRecorder(meter)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create domain instruments: %w", err)
	}
	system, err := registerSystemMetrics(ctx, meter)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to register system metrics: %w", err)
	}
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return &Service{
		meter:       meter,
		provider:    provider,
		registry:    registry,
		system:      system,
		recorder:    recorder,
		config:      cfg,
		initialized: true,
	}, nil
}

// NewMonitoringServiceWithFallback never fails: initialization errors are
// logged and a no-op service is returned instead.
func NewMonitoringServiceWithFallback(ctx context.Context, cfg *Config) *Service {
	service, err := NewMonitoringService(ctx, cfg)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to initialize monitoring, using no-op implementation", "error", err)
		if cfg == nil {
			cfg = DefaultConfig()
		}
		return newDisabledService(cfg, err)
	}
	return service
}

func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Recorder returns the domain event recorder backed by this service's meter.
func (s *Service) Recorder() *Recorder {
	return s.recorder
}

func (s *Service) Path() string {
	return s.config.Path
}

func (s *Service) GinMiddleware(ctx context.Context) gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return middleware.HTTPMetrics(ctx, s.meter)
}

// ExporterHandler serves the Prometheus text format, or 503 while disabled.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error
	if s.system != nil {
		if err := s.system.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.provider != nil {
		if err := s.provider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) IsInitialized() bool {
	return s.initialized
}

func (s *Service) InitializationError() error {
	return s.initializationErr
}
