package httpapi

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
)

// zlog is the structured logger for the HTTP layer. Defaults to a
// disabled logger until SetLogger is called.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls how chatty per-request logging is.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

var levelNames = map[string]LogLevel{
	"off":   LevelOff,
	"error": LevelError,
	"info":  LevelInfo,
	"debug": LevelDebug,
}

// Unknown non-empty names land on info rather than silence.
func parseLevel(s string) LogLevel {
	if s == "" {
		return LevelOff
	}
	if lvl, ok := levelNames[s]; ok {
		return lvl
	}
	return LevelInfo
}

// read once at startup
var defaultLogLevel = parseLevel(os.Getenv("OPENWHISPR_HTTP_LOG_LEVEL"))

// requestLogLevel resolves the effective log level for one request.
// Query and header overrides let a caller turn on debug output for a
// single transcription without restarting the daemon.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}
