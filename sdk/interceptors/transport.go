package interceptors

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InterceptorTransport is an http.RoundTripper that threads every request
// through its interceptors before and after the inner transport.
//
// The chain is interceptors followed by tail. Tail interceptors always run
// last, so interceptors added later still run before them.
type InterceptorTransport struct {
	rt           http.RoundTripper
	mu           sync.RWMutex
	interceptors []Interceptor
	tail         []Interceptor
}

type DefaultOptions struct {
	// Transport performs the network call. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// OnSessionExpired is fired on every 401 response.
	OnSessionExpired SessionExpiredFunc
	Logger           *zerolog.Logger
}

// NewDefaultInterceptorTransport builds the default chain: bearer token
// injection, session handling, then the JSON content type default.
func NewDefaultInterceptorTransport(tokens interface {
	TokenSource
	TokenClearer
}, opts DefaultOptions) *InterceptorTransport {
	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &InterceptorTransport{
		rt: rt,
		interceptors: []Interceptor{
			NewAuthenticator(tokens),
			NewSessionGuard(tokens, opts.OnSessionExpired, opts.Logger),
		},
		tail: []Interceptor{
			NewContentTypeDefaulter(),
		},
	}
}

func NewInterceptorTransport(rt http.RoundTripper, interceptors []Interceptor) *InterceptorTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &InterceptorTransport{
		rt:           rt,
		interceptors: interceptors,
	}
}

func (it *InterceptorTransport) AddInterceptors(interceptors ...Interceptor) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.interceptors = append(it.interceptors, interceptors...)
}

// Chain returns a snapshot of the interceptors in execution order.
func (it *InterceptorTransport) Chain() []Interceptor {
	it.mu.RLock()
	defer it.mu.RUnlock()
	chain := make([]Interceptor, 0, len(it.interceptors)+len(it.tail))
	chain = append(chain, it.interceptors...)
	return append(chain, it.tail...)
}

func (it *InterceptorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return it.RoundTripWithID(req, uuid.New().String())
}

func (it *InterceptorTransport) RoundTripWithID(req *http.Request, id string) (*http.Response, error) {
	ctx := req.Context()
	chain := it.Chain()

	// Interceptors work on a clone; a failed chain leaves nothing behind.
	data := InterceptorData{
		ID:             id,
		Ctx:            ctx,
		InitialRequest: req,
		Request:        req.Clone(ctx),
	}

	data, err := ApplyRequest(chain, data)
	if err != nil {
		closeRequestBody(req)
		return nil, err
	}
	if data.Error != nil {
		closeRequestBody(req)
		return nil, data.Error
	}

	data.StartedAt = time.Now()
	resp, err := it.rt.RoundTrip(data.Request)
	if err != nil {
		return nil, err
	}

	// A call cancelled while in flight never reaches the response chain.
	if ctxErr := data.Request.Context().Err(); ctxErr != nil {
		_ = resp.Body.Close()
		return nil, ctxErr
	}
	data.Response = resp

	data, err = ApplyResponse(chain, data)
	if err != nil {
		closeBody(data.Response)
		return nil, err
	}
	if data.Error != nil {
		closeBody(data.Response)
		return nil, data.Error
	}
	return data.Response, nil
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// closeRequestBody honours the RoundTripper contract on paths that never
// reach the inner transport.
func closeRequestBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
