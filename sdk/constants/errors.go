package constants

import "errors"

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrNilRequest         = errors.New("interceptor returned a nil request")
	ErrNilResponse        = errors.New("interceptor returned a nil response")
	ErrTokenMissing       = errors.New("login response did not contain a token")
)

// Storage keys shared by every token backend.
const (
	AccessTokenKey  = "authToken"
	RefreshTokenKey = "refreshToken"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	ContentTypeJSON     = "application/json"
)
