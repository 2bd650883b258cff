package interceptors

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOptions defines configuration options for the logger interceptor
type LoggerOptions struct {
	// Logger receives the events. Defaults to the global zerolog logger.
	Logger *zerolog.Logger

	// Logging control flags
	LogBasicInfo bool // Log method, URL, status code
	LogHeaders   bool // Log HTTP headers
	LogBody      bool // Log request/response bodies

	// MaxBodyLogSize is the maximum size of request/response body to log (in bytes). default is 1024 bytes
	MaxBodyLogSize int
	// SkipHeaders is a list of headers to exclude from logs. Authorization is always excluded.
	SkipHeaders []string
	// SkipPaths is a list of URL paths to exclude from logging
	SkipPaths []string
}

// Logger is an interceptor that logs HTTP requests and responses
type Logger struct {
	opts        LoggerOptions
	logger      zerolog.Logger
	skipHeaders map[string]bool
}

func NewLogger(opts LoggerOptions) *Logger {
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	if opts.MaxBodyLogSize == 0 {
		opts.MaxBodyLogSize = 1024
	}

	skip := map[string]bool{"authorization": true}
	for _, header := range opts.SkipHeaders {
		skip[strings.ToLower(header)] = true
	}

	return &Logger{opts: opts, logger: l, skipHeaders: skip}
}

func (l *Logger) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if l.skipPath(data.Request) {
		return data, nil
	}

	ev := l.logger.Info().Str("id", data.ID)
	if l.opts.LogBasicInfo {
		ev = ev.Str("method", data.Request.Method).Str("url", data.Request.URL.String())
	}
	if l.opts.LogHeaders {
		ev = ev.Dict("headers", l.headerDict(data.Request.Header))
	}
	if l.opts.LogBody && data.Request.Body != nil && data.Request.Body != http.NoBody {
		body, err := io.ReadAll(data.Request.Body)
		if err != nil {
			ev = ev.AnErr("body_error", err)
		} else {
			data.Request.Body = io.NopCloser(bytes.NewReader(body))
			ev = l.withBody(ev, body)
		}
	}
	ev.Msg("-->")

	return data, nil
}

func (l *Logger) AfterResponse(data InterceptorData) (InterceptorData, error) {
	if l.skipPath(data.Request) {
		return data, nil
	}

	ev := l.logger.Info().Str("id", data.ID)
	if l.opts.LogBasicInfo {
		ev = ev.Int("status", data.Response.StatusCode).Str("status_text", http.StatusText(data.Response.StatusCode))
	}
	if l.opts.LogHeaders {
		ev = ev.Dict("headers", l.headerDict(data.Response.Header))
	}
	if l.opts.LogBody && data.Response.Body != nil {
		body, err := io.ReadAll(data.Response.Body)
		if err != nil {
			ev = ev.AnErr("body_error", err)
		} else {
			data.Response.Body = io.NopCloser(bytes.NewReader(body))
			ev = l.withBody(ev, body)
		}
	}
	ev.Msg("<--")

	return data, nil
}

func (l *Logger) skipPath(req *http.Request) bool {
	for _, path := range l.opts.SkipPaths {
		if strings.HasPrefix(req.URL.Path, path) {
			return true
		}
	}
	return false
}

func (l *Logger) withBody(ev *zerolog.Event, body []byte) *zerolog.Event {
	if len(body) > l.opts.MaxBodyLogSize {
		return ev.Bytes("body", body[:l.opts.MaxBodyLogSize]).Bool("truncated", true)
	}
	return ev.Bytes("body", body)
}

func (l *Logger) headerDict(headers http.Header) *zerolog.Event {
	dict := zerolog.Dict()
	for name, values := range headers {
		if l.skipHeaders[strings.ToLower(name)] {
			continue
		}
		dict = dict.Strs(name, values)
	}
	return dict
}
