package interceptors

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionEvent describes the response that ended the session.
type SessionEvent struct {
	ID     string
	Method string
	URL    string
	Status int
}

// SessionExpiredFunc is where the host application sends the user back to
// its login view.
type SessionExpiredFunc func(SessionEvent)

// SessionGuard clears the stored tokens on 401 and reports server errors.
// It never changes or rejects a response.
type SessionGuard struct {
	tokens    TokenClearer
	onExpired SessionExpiredFunc
	logger    zerolog.Logger
}

func NewSessionGuard(tokens TokenClearer, onExpired SessionExpiredFunc, logger *zerolog.Logger) *SessionGuard {
	l := log.Logger
	if logger != nil {
		l = *logger
	}
	return &SessionGuard{
		tokens:    tokens,
		onExpired: onExpired,
		logger:    l,
	}
}

func (s *SessionGuard) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (s *SessionGuard) AfterResponse(data InterceptorData) (InterceptorData, error) {
	status := data.Response.StatusCode
	switch {
	case status == http.StatusUnauthorized:
		ev := SessionEvent{ID: data.ID, Method: data.Request.Method, URL: data.Request.URL.String(), Status: status}
		s.logger.Warn().Str("id", ev.ID).Str("url", ev.URL).Msg("Unauthorized response, clearing stored tokens")
		if s.tokens != nil {
			s.tokens.Clear()
		}
		// Fire and forget: every 401 fires, even when several calls fail together.
		if s.onExpired != nil {
			go s.onExpired(ev)
		}
	case status >= http.StatusInternalServerError:
		s.logger.Error().
			Str("id", data.ID).
			Str("method", data.Request.Method).
			Str("url", data.Request.URL.String()).
			Int("status", status).
			Msg("Server error")
	}
	return data, nil
}
