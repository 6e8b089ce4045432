package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing perSecond requests with the given
// burst, or nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/perSecond)), burst)
}

type limited struct {
	next    Doer
	limiter *rate.Limiter
}

// RateLimited wraps next so that every request first waits on limiter under
// the request context. A nil limiter returns next unchanged.
func RateLimited(next Doer, limiter *rate.Limiter) Doer {
	if limiter == nil {
		return next
	}
	return limited{next: next, limiter: limiter}
}

func (l limited) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := l.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rate limit wait: %w", ctxErr)
		}
		// Wait refuses early when the deadline cannot be met.
		return nil, fmt.Errorf("rate limit wait: %w: %v", context.DeadlineExceeded, err)
	}
	return l.next.Do(req)
}
