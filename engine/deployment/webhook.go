package deployment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const PlatformWebhook = "webhook"

type WebhookConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	RetryCount int
}

// WebhookPlatform hands the package to an external deployer over HTTP. The
// deployer answers with the status it reached and the URLs it serves.
type WebhookPlatform struct {
	client *resty.Client
	url    string
}

type webhookRequest struct {
	Deployment webhookDeployment `json:"deployment"`
	Files      map[string]string `json:"files"`
}

type webhookDeployment struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Platform string   `json:"platform"`
	URLs     []string `json:"urls"`
}

type webhookError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func NewWebhookPlatform(cfg WebhookConfig) *WebhookPlatform {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryableResponse)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &WebhookPlatform{client: client, url: strings.TrimRight(cfg.URL, "/")}
}

func retryableResponse(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429 || code == 408
}

func (p *WebhookPlatform) Name() string { return PlatformWebhook }

func (p *WebhookPlatform) Deploy(ctx context.Context, d *Deployment, files map[string]string) (*Result, error) {
	var out Result
	var failure webhookError
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(webhookRequest{
			Deployment: webhookDeployment{
				ID:       d.ID.String(),
				Name:     d.Name,
				Platform: d.Platform,
				URLs:     d.URLs,
			},
			Files: files,
		}).
		SetResult(&out).
		SetError(&failure).
		Post(p.url)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("webhook rejected deployment: %s", describeFailure(resp, failure))
	}
	if out.Status == "" {
		out.Status = StatusDeploying
	}
	if !out.Status.Valid() {
		return nil, fmt.Errorf("webhook reported unknown status %q", out.Status)
	}
	return &out, nil
}

func (p *WebhookPlatform) Teardown(ctx context.Context, d *Deployment) error {
	var failure webhookError
	resp, err := p.client.R().
		SetContext(ctx).
		SetError(&failure).
		Delete(p.url + "/" + d.ID.String())
	if err != nil {
		return fmt.Errorf("webhook teardown failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook rejected teardown: %s", describeFailure(resp, failure))
	}
	return nil
}

func describeFailure(resp *resty.Response, failure webhookError) string {
	msg := failure.Error
	if failure.Details != "" {
		msg = strings.TrimSpace(msg + ": " + failure.Details)
	}
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Sprintf("%d %s", resp.StatusCode(), msg)
}
