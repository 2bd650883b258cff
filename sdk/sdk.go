// Package tabler wires the token store, the interceptor pipeline, the
// client and the auth service from one configuration.
package tabler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tablerkit/tabler-api-go/sdk/auth"
	"github.com/tablerkit/tabler-api-go/sdk/client"
	"github.com/tablerkit/tabler-api-go/sdk/config"
	"github.com/tablerkit/tabler-api-go/sdk/interceptors"
	"github.com/tablerkit/tabler-api-go/sdk/tokenstore"
)

type SDK struct {
	Tokens *tokenstore.Store
	Client *client.Client
	Auth   *auth.Service
	// Metrics is nil unless WithRegisterer was given.
	Metrics *interceptors.Metrics

	closer io.Closer
}

type settings struct {
	backend      tokenstore.Backend
	rt           http.RoundTripper
	onExpired    interceptors.SessionExpiredFunc
	interceptors []interceptors.Interceptor
	registerer   prometheus.Registerer
	logger       zerolog.Logger
}

type SDKOption func(*settings)

// WithInterceptor adds custom interceptors to every call.
func WithInterceptor(interceptors ...interceptors.Interceptor) SDKOption {
	return func(s *settings) {
		s.interceptors = append(s.interceptors, interceptors...)
	}
}

// WithSessionExpired is fired when a call is rejected with 401 and after an
// explicit logout. The host application routes the user to its login view.
func WithSessionExpired(fn interceptors.SessionExpiredFunc) SDKOption {
	return func(s *settings) {
		s.onExpired = fn
	}
}

// WithBackend replaces the backend selected by the store configuration.
func WithBackend(backend tokenstore.Backend) SDKOption {
	return func(s *settings) {
		s.backend = backend
	}
}

// WithRoundTripper sets the transport that performs the network calls.
func WithRoundTripper(rt http.RoundTripper) SDKOption {
	return func(s *settings) {
		s.rt = rt
	}
}

// WithRegisterer enables request metrics on reg.
func WithRegisterer(reg prometheus.Registerer) SDKOption {
	return func(s *settings) {
		s.registerer = reg
	}
}

func WithLogger(logger zerolog.Logger) SDKOption {
	return func(s *settings) {
		s.logger = logger
	}
}

func NewSDK(cfg *config.Config, opts ...SDKOption) (*SDK, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := settings{logger: log.Logger}
	for _, opt := range opts {
		opt(&s)
	}

	sdk := &SDK{}
	if s.backend == nil {
		backend, closer, err := openBackend(cfg.Store)
		if err != nil {
			return nil, err
		}
		s.backend = backend
		sdk.closer = closer
	}
	sdk.Tokens = tokenstore.New(s.backend, tokenstore.WithLogger(s.logger))

	var chain []interceptors.Interceptor
	if cfg.RateLimit.RPS > 0 {
		chain = append(chain, interceptors.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	if cfg.Breaker.Enabled {
		cb := interceptors.NewStatusCircuitBreaker("tabler-api", cfg.Breaker.Statuses, cfg.Breaker.Timeout)
		chain = append(chain, interceptors.NewCircuitBreakerInterceptor(cb, true))
	}
	if cfg.Log.Requests {
		logger := s.logger
		chain = append(chain, interceptors.NewLogger(interceptors.LoggerOptions{
			Logger:       &logger,
			LogBasicInfo: true,
			LogHeaders:   cfg.Log.Headers,
			LogBody:      cfg.Log.Bodies,
		}))
	}
	if s.registerer != nil {
		sdk.Metrics = interceptors.NewMetrics(s.registerer)
		chain = append(chain, sdk.Metrics)
	}
	chain = append(chain, s.interceptors...)

	sdk.Client = client.NewClient(sdk.Tokens,
		client.WithBaseURL(cfg.BaseURL),
		client.WithTimeout(cfg.Timeout),
		client.WithRoundTripper(s.rt),
		client.WithSessionExpired(s.onExpired),
		client.WithLogger(s.logger),
		client.WithInterceptor(chain...),
	)

	sdk.Auth = auth.NewService(sdk.Client, sdk.Tokens,
		auth.WithLoginPath(cfg.LoginPath),
		auth.WithLogoutHandler(s.onExpired),
		auth.WithLogger(s.logger),
	)
	return sdk, nil
}

// Close releases the token database when the SDK opened one.
func (s *SDK) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func openBackend(cfg config.StoreConfig) (tokenstore.Backend, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return tokenstore.NewMemoryBackend(), nil, nil
	case config.DriverSQLite:
		backend, err := tokenstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store driver %q", cfg.Driver)
	}
}
