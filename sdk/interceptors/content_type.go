package interceptors

import "github.com/tablerkit/tabler-api-go/sdk/constants"

// ContentTypeDefaulter sets the JSON content type on requests that carry none.
type ContentTypeDefaulter struct {
	contentType string
}

func NewContentTypeDefaulter() *ContentTypeDefaulter {
	return &ContentTypeDefaulter{contentType: constants.ContentTypeJSON}
}

func (c *ContentTypeDefaulter) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if data.Request.Header.Get(constants.HeaderContentType) == "" {
		data.Request.Header.Set(constants.HeaderContentType, c.contentType)
	}
	return data, nil
}

func (c *ContentTypeDefaulter) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}
