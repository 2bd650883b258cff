package interceptors_test

import (
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tablerkit/tabler-api-go/sdk/tokenstore"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// trackingBody records whether it was closed.
type trackingBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackingBody) Close() error {
	b.closed.Store(true)
	return nil
}

func newResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// staticTransport answers every request with status and records what it saw.
func staticTransport(status int, seen *[]*http.Request) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if seen != nil {
			*seen = append(*seen, req)
		}
		return newResponse(req, status, `{}`), nil
	})
}

func newStore(t *testing.T, access string) *tokenstore.Store {
	t.Helper()
	store := tokenstore.New(tokenstore.NewMemoryBackend())
	if access != "" {
		store.Save(tokenstore.TokenPair{AccessToken: access})
	}
	return store
}

func newRequest(t *testing.T, method, url string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	return req
}

func tokenStorePair(access string) tokenstore.TokenPair {
	return tokenstore.TokenPair{AccessToken: access}
}
