package auth

import (
	"context"
	"net/http"

	"github.com/tablerkit/tabler-api-go/sdk/tokenstore"
)

// Poster sends a JSON body and decodes the JSON reply into out.
type Poster interface {
	DispatchInto(ctx context.Context, url, method string, header http.Header, body, out any) error
}

// TokenStorer defines the token storage the service writes to.
type TokenStorer interface {
	Save(pair tokenstore.TokenPair)
	Read() tokenstore.TokenPair
	AccessToken() (string, bool)
	Clear()
}
