package interceptors

import "github.com/tablerkit/tabler-api-go/sdk/constants"

// Authenticator sets "Authorization: Bearer <token>" from the token source
// at call time. Requests go out without the header when no token is stored.
type Authenticator struct {
	tokens TokenSource
}

func NewAuthenticator(tokens TokenSource) *Authenticator {
	return &Authenticator{
		tokens: tokens,
	}
}

func (a *Authenticator) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if a.tokens == nil {
		return data, nil
	}
	if token, ok := a.tokens.AccessToken(); ok {
		data.Request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	return data, nil
}

func (a *Authenticator) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}
