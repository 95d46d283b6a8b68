package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
)

// throttle is an http.RoundTripper restricting outbound calls with a
// token bucket limiter.
type throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    http.RoundTripper
	logger  *slog.Logger
}

func newThrottle(rps, burst int, logger *slog.Logger, next http.RoundTripper) (*throttle, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logger:  logger,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if !t.limiter.Allow() {
		t.logger.Debug("throttle tokens exhausted", "rate", t.rps, "burst", t.burst, "path", r.URL.Path)

		start := time.Now()
		if err := t.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, ctxErr)
			}
			// Wait refuses up front when the deadline would pass first.
			if _, ok := ctx.Deadline(); ok {
				return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, context.DeadlineExceeded)
			}
			return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
		}
		t.logger.Debug("throttle wait complete", "waited", time.Since(start).String())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return t.next.RoundTrip(r)
}
