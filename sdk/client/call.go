package client

import (
	"context"
	"net/http"
)

// Call is a request that has not been sent yet. Nothing touches the network
// until Do, Into or Subscribe is called.
type Call struct {
	client *Client
	method string
	url    string
	header http.Header
	body   any
}

func (c *Call) Method() string { return c.method }
func (c *Call) URL() string    { return c.url }

// Do sends the call and waits for the decoded JSON body.
func (c *Call) Do(ctx context.Context) (any, error) {
	return c.client.Dispatch(ctx, c.url, c.method, c.header, c.body)
}

// Into sends the call and decodes the body into out.
func (c *Call) Into(ctx context.Context, out any) error {
	return c.client.DispatchInto(ctx, c.url, c.method, c.header, c.body, out)
}

// Subscribe starts the call in the background. Unsubscribing before the
// response arrives cancels it, and no response interceptor runs for it.
func (c *Call) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer cancel()
		s.value, s.err = c.Do(ctx)
	}()
	return s
}

type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	value  any
	err    error
}

// Unsubscribe cancels the call. It is a no-op once the call has completed.
func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Done is closed once the call has completed or was cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Result blocks until the call is done.
func (s *Subscription) Result() (any, error) {
	<-s.done
	return s.value, s.err
}
