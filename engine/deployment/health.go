package deployment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const healthPath = "/health"

type HealthConfig struct {
	Timeout     time.Duration
	MaxRetries  uint64
	Backoff     time.Duration
	Concurrency int
}

func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		Backoff:     250 * time.Millisecond,
		Concurrency: 4,
	}
}

// URLCheck is the outcome of checking one URL.
type URLCheck struct {
	URL      string `json:"url"`
	Healthy  bool   `json:"healthy"`
	Status   int    `json:"status,omitempty"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// HealthChecker checks the health endpoint of each deployment URL.
type HealthChecker struct {
	client *resty.Client
	cfg    HealthConfig
}

func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	def := DefaultHealthConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json, text/plain")
	return &HealthChecker{client: client, cfg: cfg}
}

// Check checks every URL concurrently. A URL that never answers 2xx within
// the retry budget is reported unhealthy; Check itself only fails when ctx
// is done.
func (h *HealthChecker) Check(ctx context.Context, urls []string) ([]URLCheck, error) {
	checks := make([]URLCheck, len(urls))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			checks[i] = h.checkURL(gCtx, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("health check interrupted: %w", err)
	}
	return checks, nil
}

func (h *HealthChecker) checkURL(ctx context.Context, base string) URLCheck {
	p := URLCheck{URL: base}
	target := strings.TrimRight(base, "/") + healthPath
	backoff := retry.WithMaxRetries(h.cfg.MaxRetries, retry.NewExponential(h.cfg.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p.Attempts++
		resp, err := h.client.R().SetContext(ctx).Get(target)
		if err != nil {
			return retry.RetryableError(err)
		}
		p.Status = resp.StatusCode()
		if resp.IsError() {
			return retry.RetryableError(fmt.Errorf("unexpected status %d", p.Status))
		}
		return nil
	})
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.Healthy = true
	return p
}

func allHealthy(checks []URLCheck) bool {
	if len(checks) == 0 {
		return false
	}
	for _, p := range checks {
		if !p.Healthy {
			return false
		}
	}
	return true
}
