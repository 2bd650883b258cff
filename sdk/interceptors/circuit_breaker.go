package interceptors

import (
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tablerkit/tabler-api-go/sdk/constants"
)

type CircuitBreakerInterceptor struct {
	abortOnFailure bool
	cb             *gobreaker.CircuitBreaker
}

// statusError carries a response status into gobreaker's IsSuccessful.
type statusError int

func (s statusError) Error() string { return strconv.Itoa(int(s)) }

// NewStatusCircuitBreaker returns a breaker that opens as soon as one of
// statuses is seen and half-opens again after timeout.
func NewStatusCircuitBreaker(name string, statuses []int, timeout time.Duration) *gobreaker.CircuitBreaker {
	trip := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		trip[s] = true
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 0,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 0
		},
		IsSuccessful: func(err error) bool {
			se, ok := err.(statusError)
			if !ok {
				return err == nil
			}
			return !trip[int(se)]
		},
	})
}

// NewCircuitBreakerInterceptor wraps cb. Every response status is reported to
// cb. With abortOnFailure the request is rejected while cb is open; otherwise
// the failure is recorded on the chain and returned after it completes.
func NewCircuitBreakerInterceptor(cb *gobreaker.CircuitBreaker, abortOnFailure bool) *CircuitBreakerInterceptor {
	if cb == nil {
		panic("cb should not be nil")
	}

	return &CircuitBreakerInterceptor{
		abortOnFailure: abortOnFailure,
		cb:             cb,
	}
}

func (c *CircuitBreakerInterceptor) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if c.cb.State() == gobreaker.StateOpen {
		if c.abortOnFailure {
			return data, constants.ErrCircuitBreakerOpen
		}
		data.Error = constants.ErrCircuitBreakerOpen
	}
	return data, nil
}

func (c *CircuitBreakerInterceptor) AfterResponse(data InterceptorData) (InterceptorData, error) {
	status := data.Response.StatusCode
	_, _ = c.cb.Execute(func() (interface{}, error) {
		return nil, statusError(status)
	})
	return data, nil
}
