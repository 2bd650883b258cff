// Package interceptors implements the ordered request/response middleware
// chain that wraps every outgoing HTTP call.
package interceptors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tablerkit/tabler-api-go/sdk/constants"
)

type InterceptorData struct {
	ID             string
	Ctx            context.Context
	InitialRequest *http.Request
	Request        *http.Request
	Response       *http.Response
	// StartedAt is set right before the network call.
	StartedAt time.Time
	// Error is a soft failure recorded by an interceptor. The chain keeps
	// running and the transport returns it once the chain is done.
	Error error
}

type Interceptor interface {
	BeforeRequest(data InterceptorData) (InterceptorData, error)
	AfterResponse(data InterceptorData) (InterceptorData, error)
}

// TokenSource yields the current access token. It is consulted on every
// request, never cached.
type TokenSource interface {
	AccessToken() (string, bool)
}

// TokenClearer drops the stored tokens.
type TokenClearer interface {
	Clear()
}

type Phase string

const (
	PhaseRequest  Phase = "request"
	PhaseResponse Phase = "response"
)

// InterceptorError reports that an interceptor itself failed.
type InterceptorError struct {
	Phase Phase
	Index int
	Err   error
}

func (e *InterceptorError) Error() string {
	return fmt.Sprintf("%s interceptor #%d failed: %v", e.Phase, e.Index, e.Err)
}

func (e *InterceptorError) Unwrap() error { return e.Err }

// Reduce folds list into seed in order. Each call to fn receives the
// accumulated result of the previous calls; the first error stops the fold.
func Reduce[S, T any](ctx context.Context, list []S, seed T, fn func(ctx context.Context, acc T, index int, item S) (T, error)) (T, error) {
	acc := seed
	for i, item := range list {
		next, err := fn(ctx, acc, i, item)
		if err != nil {
			return acc, err
		}
		acc = next
	}
	return acc, nil
}

// ApplyRequest runs BeforeRequest of every interceptor in registration order.
func ApplyRequest(chain []Interceptor, data InterceptorData) (InterceptorData, error) {
	return Reduce(data.Ctx, chain, data, func(_ context.Context, acc InterceptorData, i int, interceptor Interceptor) (InterceptorData, error) {
		next, err := interceptor.BeforeRequest(acc)
		if err != nil {
			return acc, &InterceptorError{Phase: PhaseRequest, Index: i, Err: err}
		}
		if next.Request == nil {
			return acc, &InterceptorError{Phase: PhaseRequest, Index: i, Err: constants.ErrNilRequest}
		}
		return next, nil
	})
}

// ApplyResponse runs AfterResponse of every interceptor in registration order.
func ApplyResponse(chain []Interceptor, data InterceptorData) (InterceptorData, error) {
	return Reduce(data.Ctx, chain, data, func(_ context.Context, acc InterceptorData, i int, interceptor Interceptor) (InterceptorData, error) {
		next, err := interceptor.AfterResponse(acc)
		if err != nil {
			return acc, &InterceptorError{Phase: PhaseResponse, Index: i, Err: err}
		}
		if next.Response == nil {
			return acc, &InterceptorError{Phase: PhaseResponse, Index: i, Err: constants.ErrNilResponse}
		}
		return next, nil
	})
}

// RequestFunc adapts a plain request transformer to an Interceptor.
type RequestFunc func(ctx context.Context, req *http.Request) (*http.Request, error)

func (f RequestFunc) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	req, err := f(data.Ctx, data.Request)
	if err != nil {
		return data, err
	}
	data.Request = req
	return data, nil
}

func (f RequestFunc) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

// ResponseFunc adapts a plain response observer to an Interceptor.
type ResponseFunc func(ctx context.Context, resp *http.Response) (*http.Response, error)

func (f ResponseFunc) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (f ResponseFunc) AfterResponse(data InterceptorData) (InterceptorData, error) {
	resp, err := f(data.Ctx, data.Response)
	if err != nil {
		return data, err
	}
	data.Response = resp
	return data, nil
}
