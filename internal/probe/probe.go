// Package probe checks that external URLs answer with HTTP 200.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TheAllen/Acadia/internal/metrics"
)

const DefaultTimeout = 5 * time.Second

type Prober struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns a Prober that bounds every request by timeout and issues at
// most rps requests per second. rps <= 0 disables the limit.
func New(timeout time.Duration, rps float64, logger *zap.Logger, m *metrics.Metrics) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Prober{
		client:  &http.Client{},
		timeout: timeout,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.Named("probe"),
		metrics: m,
	}
}

// Status performs a GET against url and returns the response status code.
func (p *Prober) Status(ctx context.Context, url string) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode, nil
}

// Validate probes urls in order and returns those that answered 200, in the
// same order. Failures are logged and dropped. The result is never nil.
func (p *Prober) Validate(ctx context.Context, urls []string) []string {
	valid := make([]string, 0, len(urls))
	for _, url := range urls {
		code, err := p.Status(ctx, url)
		switch {
		case err != nil:
			p.logger.Warn("url probe failed", zap.String("url", url), zap.Error(err))
		case code != http.StatusOK:
			p.logger.Warn("url probe returned non-200", zap.String("url", url), zap.Int("status", code))
		default:
			valid = append(valid, url)
			p.metrics.RecordProbe(true)
			continue
		}
		p.metrics.RecordProbe(false)
	}
	return valid
}
