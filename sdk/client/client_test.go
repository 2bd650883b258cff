package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablerkit/tabler-api-go/sdk/client"
	"github.com/tablerkit/tabler-api-go/sdk/interceptors"
	"github.com/tablerkit/tabler-api-go/sdk/tokenstore"
)

type recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// recordingServer answers with status and body and keeps every request it saw.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recorded{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: string(b)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), seen...)
	}
}

func newClient(t *testing.T, baseURL string, store *tokenstore.Store, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{
		client.WithBaseURL(baseURL),
		client.WithLogger(zerolog.Nop()),
	}, opts...)
	return client.NewClient(store, opts...)
}

func memoryStore(access string) *tokenstore.Store {
	store := tokenstore.New(tokenstore.NewMemoryBackend())
	if access != "" {
		store.Save(tokenstore.TokenPair{AccessToken: access})
	}
	return store
}

func TestDispatch_DecodesJSONBody(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, `{"id":1,"name":"x"}`)
	c := newClient(t, server.URL, memoryStore(""))

	got, err := c.Dispatch(context.Background(), "/items/1", http.MethodGet, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "x"}, got)
}

func TestDispatch_NotFoundIsHTTPError(t *testing.T) {
	server, _ := recordingServer(t, http.StatusNotFound, `{"message":"no such item"}`)
	c := newClient(t, server.URL, memoryStore(""))

	_, err := c.Dispatch(context.Background(), "/items/9", http.MethodGet, nil, nil)
	var herr *client.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusNotFound, herr.Status)
	assert.Equal(t, "Not Found", herr.StatusText)
	assert.Equal(t, "no such item", herr.Message)
	assert.Equal(t, "HTTP 404: Not Found: no such item", herr.Error())

	status, ok := client.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDispatch_AttachesStoredToken(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{}`)
	store := memoryStore("abc123")
	c := newClient(t, server.URL, store)

	_, err := c.Get("/me", nil).Do(context.Background())
	require.NoError(t, err)

	store.Clear()
	_, err = c.Get("/me", nil).Do(context.Background())
	require.NoError(t, err)

	reqs := seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Bearer abc123", reqs[0].Header.Get("Authorization"))
	assert.Empty(t, reqs[1].Header.Values("Authorization"))
}

func TestDispatch_BodyEncoding(t *testing.T) {
	server, seen := recordingServer(t, http.StatusCreated, `{"ok":true}`)
	c := newClient(t, server.URL, memoryStore(""))
	ctx := context.Background()

	_, err := c.Post("/items", map[string]any{"name": "x"}, nil).Do(ctx)
	require.NoError(t, err)
	_, err = c.Put("/items/1", []byte("plain text"), http.Header{"Content-Type": []string{"text/plain"}}).Do(ctx)
	require.NoError(t, err)
	_, err = c.Dispatch(ctx, "/items", http.MethodGet, nil, map[string]any{"ignored": true})
	require.NoError(t, err)
	_, err = c.Post("/notes", "hello", nil).Do(ctx)
	require.NoError(t, err)

	reqs := seen()
	require.Len(t, reqs, 4)

	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.JSONEq(t, `{"name":"x"}`, reqs[0].Body)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))

	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.Equal(t, "plain text", reqs[1].Body)
	assert.Equal(t, "text/plain", reqs[1].Header.Get("Content-Type"))

	assert.Empty(t, reqs[2].Body, "GET never carries a body")

	assert.Equal(t, `"hello"`, reqs[3].Body)
	assert.Equal(t, "application/json", reqs[3].Header.Get("Content-Type"))
}

func TestDispatch_EmptyBodyYieldsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	c := newClient(t, server.URL, memoryStore(""))

	got, err := c.Delete("/items/1", nil).Do(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDispatch_InvalidJSONBody(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, `not json`)
	c := newClient(t, server.URL, memoryStore(""))

	_, err := c.Get("/", nil).Do(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response body")
}

func TestDispatch_UnencodableBody(t *testing.T) {
	c := newClient(t, "http://example.test", memoryStore(""))
	_, err := c.Post("/", map[string]any{"bad": make(chan int)}, nil).Do(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode request body")
}

func TestDispatch_UnauthorizedClearsSessionThenFails(t *testing.T) {
	server, _ := recordingServer(t, http.StatusUnauthorized, `{"error":"token expired"}`)
	store := memoryStore("abc123")
	expired := make(chan interceptors.SessionEvent, 1)
	c := newClient(t, server.URL, store, client.WithSessionExpired(func(ev interceptors.SessionEvent) {
		expired <- ev
	}))

	_, err := c.Get("/secure", nil).Do(context.Background())
	status, ok := client.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.True(t, store.Read().IsEmpty(), "side effects run before the caller sees the error")

	select {
	case ev := <-expired:
		assert.Equal(t, http.MethodGet, ev.Method)
	case <-time.After(time.Second):
		t.Fatal("session expired callback not fired")
	}
}

func TestDispatch_InterceptorFailureNeverReachesNetwork(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{}`)
	boom := errors.New("refused by policy")
	c := newClient(t, server.URL, memoryStore(""), client.WithInterceptor(
		interceptors.RequestFunc(func(context.Context, *http.Request) (*http.Request, error) { return nil, boom }),
	))

	_, err := c.Get("/", nil).Do(context.Background())
	require.ErrorIs(t, err, boom)
	var ierr *interceptors.InterceptorError
	require.ErrorAs(t, err, &ierr)
	assert.Empty(t, seen())
}

func TestDispatch_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := newClient(t, url, memoryStore(""))
	_, err := c.Get("/", nil).Do(context.Background())
	require.Error(t, err)
	_, isHTTP := client.StatusCode(err)
	assert.False(t, isHTTP)
}

func TestDispatch_DefaultHeadersAndAbsoluteURL(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{}`)
	c := newClient(t, "http://unused.invalid", memoryStore(""),
		client.WithDefaultHeader("X-App", "tabler"),
		client.WithDefaultHeader("Accept-Language", "pt-BR"),
	)

	_, err := c.Get(server.URL+"/abs", http.Header{"Accept-Language": []string{"en"}}).Do(context.Background())
	require.NoError(t, err)

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/abs", reqs[0].Path)
	assert.Equal(t, "tabler", reqs[0].Header.Get("X-App"))
	assert.Equal(t, "en", reqs[0].Header.Get("Accept-Language"))
}

func TestCall_Into(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, `{"id":7,"name":"report"}`)
	c := newClient(t, server.URL, memoryStore(""))

	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.Get("/reports/7", nil).Into(context.Background(), &out))
	assert.Equal(t, 7, out.ID)
	assert.Equal(t, "report", out.Name)
}

func TestCall_IsLazy(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{}`)
	c := newClient(t, server.URL, memoryStore(""))

	call := c.Post("/items", json.RawMessage(`{"a":1}`), nil)
	assert.Equal(t, http.MethodPost, call.Method())
	assert.Equal(t, "/items", call.URL())
	assert.Empty(t, seen())

	_, err := call.Do(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen(), 1)
}

func TestSubscription_Result(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, `[1,2,3]`)
	c := newClient(t, server.URL, memoryStore(""))

	sub := c.Get("/numbers", nil).Subscribe(context.Background())
	got, err := sub.Result()
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, got)

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel should be closed")
	}
	sub.Unsubscribe()
}

func TestSubscription_UnsubscribeBeforeResponseSkipsResponseChain(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	defer close(release)

	store := memoryStore("abc123")
	var fired, afterRan atomic.Int32
	c := newClient(t, server.URL, store,
		client.WithSessionExpired(func(interceptors.SessionEvent) { fired.Add(1) }),
		client.WithInterceptor(interceptors.ResponseFunc(func(_ context.Context, resp *http.Response) (*http.Response, error) {
			afterRan.Add(1)
			return resp, nil
		})),
	)

	sub := c.Get("/slow", nil).Subscribe(context.Background())
	<-arrived
	sub.Unsubscribe()

	_, err := sub.Result()
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "canceled"), err.Error())
	assert.Zero(t, afterRan.Load())
	assert.Zero(t, fired.Load())
	assert.Equal(t, "abc123", store.Read().AccessToken)
}

func TestDispatch_ConcurrentCallsAreIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path, "trace": r.Header.Get("X-Trace")})
	}))
	defer server.Close()

	c := newClient(t, server.URL, memoryStore("abc123"), client.WithInterceptor(
		interceptors.RequestFunc(func(_ context.Context, req *http.Request) (*http.Request, error) {
			req.Header.Add("X-Trace", req.URL.Path)
			return req, nil
		}),
	))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "/items/" + string(rune('a'+i))
			got, err := c.Get(path, nil).Do(context.Background())
			if assert.NoError(t, err) {
				assert.Equal(t, map[string]any{"path": path, "trace": path}, got)
			}
		}(i)
	}
	wg.Wait()
}

func TestHTTPError_MessageEnvelopes(t *testing.T) {
	cases := map[string]string{
		`{"message":{"detail":"nested"}}`: "nested",
		`{"reason":"why"}`:                "why",
		`{"error":"bad"}`:                 "bad",
		`{"details":"info"}`:              "info",
		`not json`:                        "",
	}
	for body, want := range cases {
		server, _ := recordingServer(t, http.StatusBadRequest, body)
		c := newClient(t, server.URL, memoryStore(""))
		_, err := c.Get("/", nil).Do(context.Background())
		var herr *client.HTTPError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, want, herr.Message, body)
		assert.Equal(t, body, string(herr.Body))
	}
}
