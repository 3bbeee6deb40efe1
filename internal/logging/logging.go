package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "KDECONNECT_LOG_LEVEL"
	EnvLogNoColor = "KDECONNECT_LOG_NOCOLOR"
)

// New returns a console logger on stderr tagged with app. Stdout is left to
// command output.
func New(app string) zerolog.Logger {
	return newLogger(os.Stderr, app, os.Getenv(EnvLogLevel), os.Getenv(EnvLogNoColor), true)
}

// NewTest logs at debug level without timestamps or colour.
func NewTest(w io.Writer) zerolog.Logger {
	return newLogger(w, "test", "debug", "true", false)
}

func newLogger(w io.Writer, app, level, noColor string, timestamp bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	if v, ok := parseBool(noColor); ok {
		output.NoColor = v
	}

	ctx := zerolog.New(output).With().Str("app", app)
	if timestamp {
		ctx = ctx.Timestamp()
	}

	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = zerolog.InfoLevel
	}
	return ctx.Logger().Level(lvl)
}

// ParseLevel maps a level name to a zerolog level. ok is false for empty or
// unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
