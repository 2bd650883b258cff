package interceptors

import (
	"golang.org/x/time/rate"
)

// RateLimiter holds each request until limiter grants it a slot, or until
// the request context is done.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimiter) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if err := r.limiter.Wait(data.Ctx); err != nil {
		return data, err
	}
	return data, nil
}

func (r *RateLimiter) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}
