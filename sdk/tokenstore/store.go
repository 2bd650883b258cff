// Package tokenstore persists the access and refresh token pair in a
// single-key client-side storage backend.
//
// The store never returns an error. A failing backend is logged and the
// affected value is treated as absent.
package tokenstore

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tablerkit/tabler-api-go/sdk/constants"
)

// TokenPair is the access/refresh token pair owned by a Store.
// An empty AccessToken or RefreshToken means the value is absent.
type TokenPair struct {
	AccessToken  string          `json:"accessToken,omitempty"`
	RefreshToken json.RawMessage `json:"refreshToken,omitempty"`
}

// HasAccessToken reports whether an access token is present.
func (p TokenPair) HasAccessToken() bool {
	return p.AccessToken != ""
}

// IsEmpty reports whether neither token is present.
func (p TokenPair) IsEmpty() bool {
	return p.AccessToken == "" && len(p.RefreshToken) == 0
}

// Backend is a string-keyed persistent storage. Every operation touches
// exactly one key.
type Backend interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Store reads and writes a TokenPair through a Backend.
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on top of backend. A nil backend yields a store whose
// operations are all no-ops.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists the access token as a raw string and the refresh token as
// JSON, overwriting prior values. An absent field removes its key.
func (s *Store) Save(pair TokenPair) {
	if pair.AccessToken != "" {
		s.set(constants.AccessTokenKey, pair.AccessToken)
	} else {
		s.delete(constants.AccessTokenKey)
	}

	if len(pair.RefreshToken) == 0 {
		s.delete(constants.RefreshTokenKey)
		return
	}
	encoded, err := json.Marshal(pair.RefreshToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("Refresh token is not valid JSON, not saving it")
		s.delete(constants.RefreshTokenKey)
		return
	}
	s.set(constants.RefreshTokenKey, string(encoded))
}

// Read returns the current pair. Missing or unreadable entries are absent.
func (s *Store) Read() TokenPair {
	var pair TokenPair
	if access, ok := s.get(constants.AccessTokenKey); ok {
		pair.AccessToken = access
	}
	if refresh, ok := s.get(constants.RefreshTokenKey); ok {
		if json.Valid([]byte(refresh)) {
			pair.RefreshToken = json.RawMessage(refresh)
		} else {
			s.logger.Warn().Str("key", constants.RefreshTokenKey).Msg("Stored refresh token is not valid JSON, ignoring it")
		}
	}
	return pair
}

// AccessToken returns the stored access token alone.
func (s *Store) AccessToken() (string, bool) {
	token, ok := s.get(constants.AccessTokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RefreshToken decodes the stored refresh token into out. It returns false
// when no refresh token is stored or it cannot be decoded into out.
func (s *Store) RefreshToken(out any) bool {
	raw := s.Read().RefreshToken
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to decode refresh token")
		return false
	}
	return true
}

// Clear removes both entries.
func (s *Store) Clear() {
	s.delete(constants.AccessTokenKey)
	s.delete(constants.RefreshTokenKey)
}

func (s *Store) get(key string) (string, bool) {
	if s == nil || s.backend == nil {
		return "", false
	}
	value, found, err := s.backend.Get(key)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to read from token storage")
		return "", false
	}
	return value, found
}

func (s *Store) set(key, value string) {
	if s == nil || s.backend == nil {
		return
	}
	if err := s.backend.Set(key, value); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to write to token storage")
	}
}

func (s *Store) delete(key string) {
	if s == nil || s.backend == nil {
		return
	}
	if err := s.backend.Delete(key); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to delete from token storage")
	}
}
