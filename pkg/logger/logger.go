package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// SlowQuery is the duration above which successful queries are logged at
// warn level instead of debug.
var SlowQuery = 250 * time.Millisecond

var log = zerolog.Nop()

type ctxKey struct{}

// Init sets up the process logger. Development builds get the console
// writer; everything else logs JSON lines to stdout.
func Init(env string, logLevel string) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(logLevel))
	log = newLogger(os.Stdout, isDevelopment(env))
}

func newLogger(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

func isDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

func parseLevel(logLevel string) zerolog.Level {
	l := strings.ToLower(strings.TrimSpace(logLevel))
	if l == "warning" {
		l = "warn"
	}
	level, err := zerolog.ParseLevel(l)
	if err != nil || l == "" {
		return zerolog.InfoLevel
	}
	return level
}

func Get() *zerolog.Logger {
	return &log
}

// WithContext returns the request logger stored in ctx, or the global one.
func WithContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &log
}

func NewContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func WithRequestID(requestID string) zerolog.Logger {
	return log.With().Str("request_id", requestID).Logger()
}

func WithUserID(l zerolog.Logger, userID string) zerolog.Logger {
	return l.With().Str("user_id", userID).Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event { return log.Info() }
func Warn() *zerolog.Event { return log.Warn() }

// DBQuery logs a finished query with the request logger from ctx. Failures
// log at error level and queries slower than SlowQuery at warn.
func DBQuery(ctx context.Context, query string, duration time.Duration, err error) {
	l := WithContext(ctx)
	switch {
	case err != nil:
		l.Error().Err(err).Str("query", compactSQL(query)).Dur("duration_ms", duration).Msg("DB Query Failed")
	case duration > SlowQuery:
		l.Warn().Str("query", compactSQL(query)).Dur("duration_ms", duration).Msg("Slow DB Query")
	default:
		l.Debug().Str("query", compactSQL(query)).Dur("duration_ms", duration).Msg("DB Query")
	}
}

// compactSQL folds the whitespace of multi-line statements onto one line.
func compactSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func ServiceStart(name, version, port string) {
	log.Info().
		Str("service", name).
		Str("version", version).
		Str("port", port).
		Msg("Service Started")
}

func ServiceStop(name string) {
	log.Info().Str("service", name).Msg("Service Stopped")
}
