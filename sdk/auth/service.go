// Package auth logs users in and out against the API and keeps the token
// store in step.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tablerkit/tabler-api-go/sdk/constants"
	"github.com/tablerkit/tabler-api-go/sdk/interceptors"
	"github.com/tablerkit/tabler-api-go/sdk/tokenstore"
)

const DefaultLoginPath = "/api/auth/login"

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse accepts both the "token" and the "accessToken" spellings.
type loginResponse struct {
	Token        string          `json:"token"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken json.RawMessage `json:"refreshToken"`
}

// Service orchestrates login and logout using its dependencies.
type Service struct {
	Poster    Poster
	Storer    TokenStorer
	loginPath string
	onLogout  interceptors.SessionExpiredFunc
	logger    zerolog.Logger
}

type Option func(*Service)

func WithLoginPath(path string) Option {
	return func(s *Service) { s.loginPath = path }
}

// WithLogoutHandler is called after Logout cleared the tokens, typically to
// send the user to the login view.
func WithLogoutHandler(fn interceptors.SessionExpiredFunc) Option {
	return func(s *Service) { s.onLogout = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(poster Poster, storer TokenStorer, opts ...Option) *Service {
	s := &Service{
		Poster:    poster,
		Storer:    storer,
		loginPath: DefaultLoginPath,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login posts the credentials and saves the returned tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (tokenstore.TokenPair, error) {
	var resp loginResponse
	if err := s.Poster.DispatchInto(ctx, s.loginPath, http.MethodPost, nil, creds, &resp); err != nil {
		return tokenstore.TokenPair{}, fmt.Errorf("login request failed: %w", err)
	}

	access := resp.AccessToken
	if access == "" {
		access = resp.Token
	}
	if access == "" {
		return tokenstore.TokenPair{}, constants.ErrTokenMissing
	}

	pair := tokenstore.TokenPair{AccessToken: access}
	if len(resp.RefreshToken) > 0 && string(resp.RefreshToken) != "null" {
		pair.RefreshToken = resp.RefreshToken
	}
	s.Storer.Save(pair)
	s.logger.Info().Bool("refresh_token", len(pair.RefreshToken) > 0).Msg("Token saved, requests now carry an Authorization header")
	return pair, nil
}

// Logout removes the stored tokens and fires the logout handler.
func (s *Service) Logout() {
	s.Storer.Clear()
	s.logger.Info().Msg("Token removed, requests go out without Authorization")
	if s.onLogout != nil {
		s.onLogout(interceptors.SessionEvent{})
	}
}

func (s *Service) IsAuthenticated() bool {
	_, ok := s.Storer.AccessToken()
	return ok
}

// Token returns the current access token.
func (s *Service) Token() (string, bool) {
	return s.Storer.AccessToken()
}
