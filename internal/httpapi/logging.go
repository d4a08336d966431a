package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

var defaultRequestLevel = zerolog.InfoLevel

// SetRequestLogLevel sets the level used when a request carries no override.
func SetRequestLogLevel(s string) {
	defaultRequestLevel = parseRequestLevel(s, zerolog.InfoLevel)
}

// parseRequestLevel accepts zerolog level names plus "off" and the "1"
// shorthand for debug. Anything else yields fallback.
func parseRequestLevel(s string, fallback zerolog.Level) zerolog.Level {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return fallback
	case "off", "0":
		return zerolog.Disabled
	case "1":
		return zerolog.DebugLevel
	default:
		lvl, err := zerolog.ParseLevel(v)
		if err != nil || lvl == zerolog.NoLevel {
			return fallback
		}
		return lvl
	}
}

// requestLevel honours ?log= first, then the X-Log-Level header.
func requestLevel(r *http.Request) zerolog.Level {
	if v := r.URL.Query().Get("log"); v != "" {
		return parseRequestLevel(v, defaultRequestLevel)
	}
	return parseRequestLevel(r.Header.Get("X-Log-Level"), defaultRequestLevel)
}

// requestLogger returns the HTTP logger at the request's level, tagged with
// the job and request ids.
func requestLogger(r *http.Request, jobID string) zerolog.Logger {
	c := zlog.Level(requestLevel(r)).With().Str("job_id", jobID)
	if rid := middleware.GetReqID(r.Context()); rid != "" && rid != jobID {
		c = c.Str("request_id", rid)
	}
	return c.Logger()
}
