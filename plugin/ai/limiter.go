package ai

import (
	"golang.org/x/time/rate"

	chaterrors "github.com/plumechat/plume/internal/errors"
)

// SendLimiter gates outgoing turns with a token bucket. It exists so a
// misbehaving client loop cannot hammer the provider; the provider's own
// quota errors surface through the same error code.
type SendLimiter struct {
	limiter *rate.Limiter
}

// NewSendLimiter creates a limiter allowing turnsPerMinute sends.
// A non-positive rate disables the gate.
func NewSendLimiter(turnsPerMinute float64) *SendLimiter {
	if turnsPerMinute <= 0 {
		return &SendLimiter{}
	}
	burst := int(turnsPerMinute)
	if burst < 1 {
		burst = 1
	}
	return &SendLimiter{
		limiter: rate.NewLimiter(rate.Limit(turnsPerMinute/60.0), burst),
	}
}

// Allow consumes one send token. Returns a rate limit error when exhausted.
func (l *SendLimiter) Allow() error {
	if l == nil || l.limiter == nil {
		return nil
	}
	if !l.limiter.Allow() {
		return chaterrors.RateLimitExceeded("send budget exhausted")
	}
	return nil
}
