package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// HTTPError is returned when a call completed with a status outside 2xx.
// Response interceptors have already run when a caller sees it.
type HTTPError struct {
	Status     int
	StatusText string
	// Message is the server's own explanation, when the body carried one.
	Message string
	Body    []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.Status, e.StatusText, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.StatusText)
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.Status, true
	}
	return 0, false
}

type errorTemplate struct {
	Details string          `json:"details"`
	Reason  string          `json:"reason"`
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	statusText := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if statusText == "" || statusText == resp.Status {
		statusText = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{
		Status:     resp.StatusCode,
		StatusText: statusText,
		Message:    errorMessage(body),
		Body:       body,
	}
}

// errorMessage picks the explanation out of the usual JSON error envelopes.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var tmpl errorTemplate
	if err := json.Unmarshal(body, &tmpl); err != nil {
		return ""
	}

	if len(tmpl.Message) > 0 {
		var msg string
		if err := json.Unmarshal(tmpl.Message, &msg); err == nil && msg != "" {
			return msg
		}
		var detailed struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(tmpl.Message, &detailed); err == nil && detailed.Detail != "" {
			return detailed.Detail
		}
	}

	switch {
	case tmpl.Reason != "":
		return tmpl.Reason
	case tmpl.Error != "":
		return tmpl.Error
	default:
		return tmpl.Details
	}
}
