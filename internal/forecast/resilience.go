package forecast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

// DefaultTimeout is the per-call upstream timeout: any forecast adapter
// HTTP call must enforce this and, on timeout, return a transient failure
// rather than hang a compose.
const DefaultTimeout = 10 * time.Second

// HTTPConfig bundles the HTTP client and breaker an adapter uses to talk to
// its upstream.
type HTTPConfig struct {
	Client  *http.Client
	Breaker *gobreaker.CircuitBreaker
	Timeout time.Duration
}

// NewBreaker builds a per-adapter circuit breaker, one instance per
// registered provider tag.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do executes buildRequest's HTTP request with a bounded timeout, retried
// with exponential backoff, and guarded by cfg.Breaker. A context deadline,
// breaker-open state, or exhausted retries all surface as
// UpstreamTransient so the caller can degrade gracefully instead of
// hanging.
func Do(ctx context.Context, provider string, cfg HTTPConfig, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp *http.Response

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		req, err := buildRequest()
		if err != nil {
			return backoff.Permanent(err)
		}
		req = req.WithContext(ctx)

		result, err := cfg.Breaker.Execute(func() (interface{}, error) {
			r, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				r.Body.Close()
				return nil, fmt.Errorf("status %d", r.StatusCode)
			}
			if r.StatusCode < 200 || r.StatusCode >= 300 {
				r.Body.Close()
				return nil, backoff.Permanent(fmt.Errorf("unexpected status %d", r.StatusCode))
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}

		resp = result.(*http.Response)
		return nil
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, core.ErrUpstreamTransient(provider, err)
	}

	return resp, nil
}
