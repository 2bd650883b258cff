// Package client is the entry point callers use to talk to a JSON HTTP API.
// Every call is threaded through an interceptors.InterceptorTransport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tablerkit/tabler-api-go/sdk/interceptors"
)

// TokenStore is what the client needs from the token storage.
type TokenStore interface {
	AccessToken() (string, bool)
	Clear()
}

type Client struct {
	baseURL   string
	header    http.Header
	http      *http.Client
	transport *interceptors.InterceptorTransport
}

type options struct {
	baseURL      string
	timeout      time.Duration
	rt           http.RoundTripper
	onExpired    interceptors.SessionExpiredFunc
	logger       *zerolog.Logger
	interceptors []interceptors.Interceptor
	header       http.Header
}

type Option func(*options)

// WithBaseURL is prefixed to every relative call URL.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithRoundTripper sets the transport that performs the network call.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.rt = rt }
}

// WithSessionExpired registers the callback fired on every 401 response.
func WithSessionExpired(fn interceptors.SessionExpiredFunc) Option {
	return func(o *options) { o.onExpired = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithInterceptor appends interceptors after the default ones. They still
// run before the JSON content type default.
func WithInterceptor(i ...interceptors.Interceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, i...) }
}

// WithDefaultHeader is sent on every call unless the caller sets key itself.
func WithDefaultHeader(key, value string) Option {
	return func(o *options) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// NewClient builds a client whose calls read bearer tokens from tokens and
// clear them on 401.
func NewClient(tokens TokenStore, opts ...Option) *Client {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	transport := interceptors.NewDefaultInterceptorTransport(tokens, interceptors.DefaultOptions{
		Transport:        o.rt,
		OnSessionExpired: o.onExpired,
		Logger:           o.logger,
	})
	transport.AddInterceptors(o.interceptors...)

	return &Client{
		baseURL:   strings.TrimRight(o.baseURL, "/"),
		header:    o.header,
		transport: transport,
		http: &http.Client{
			Transport: transport,
			Timeout:   o.timeout,
		},
	}
}

func (c *Client) AddInterceptors(i ...interceptors.Interceptor) {
	c.transport.AddInterceptors(i...)
}

func (c *Client) Transport() *interceptors.InterceptorTransport {
	return c.transport
}

func (c *Client) Get(url string, header http.Header) *Call {
	return c.newCall(http.MethodGet, url, header, nil)
}

func (c *Client) Post(url string, body any, header http.Header) *Call {
	return c.newCall(http.MethodPost, url, header, body)
}

func (c *Client) Put(url string, body any, header http.Header) *Call {
	return c.newCall(http.MethodPut, url, header, body)
}

func (c *Client) Delete(url string, header http.Header) *Call {
	return c.newCall(http.MethodDelete, url, header, nil)
}

// Dispatch sends one call and returns the decoded JSON body. Statuses
// outside 2xx fail with *HTTPError; an empty 2xx body yields nil.
func (c *Client) Dispatch(ctx context.Context, url, method string, header http.Header, body any) (any, error) {
	raw, err := c.send(ctx, url, method, header, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	return v, nil
}

// DispatchInto is Dispatch decoding into out instead of a generic value.
func (c *Client) DispatchInto(ctx context.Context, url, method string, header http.Header, body, out any) error {
	raw, err := c.send(ctx, url, method, header, body)
	if err != nil {
		return err
	}
	if len(raw) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (c *Client) newCall(method, url string, header http.Header, body any) *Call {
	return &Call{client: c, method: method, url: url, header: header, body: body}
}

func (c *Client) send(ctx context.Context, rawURL, method string, header http.Header, body any) ([]byte, error) {
	req, err := c.buildRequest(ctx, rawURL, method, header, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp, raw)
	}
	return bytes.TrimSpace(raw), nil
}

func (c *Client) buildRequest(ctx context.Context, rawURL, method string, header http.Header, body any) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}
	reader, err := encodeBody(method, body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(rawURL), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = append([]string(nil), v...)
	}
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return req, nil
}

func (c *Client) resolve(rawURL string) string {
	if c.baseURL == "" {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.IsAbs() {
		return rawURL
	}
	return c.baseURL + "/" + strings.TrimLeft(rawURL, "/")
}

// encodeBody serializes body for methods other than GET. Byte slices,
// strings and readers are sent as they are; anything else becomes JSON.
func encodeBody(method string, body any) (io.Reader, error) {
	if body == nil || method == http.MethodGet {
		return nil, nil
	}
	switch b := body.(type) {
	case io.Reader:
		return b, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(encoded), nil
}
