package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger. Development gets a console writer;
// every other environment gets JSON with timestamp and caller. The global
// zerolog logger is replaced as well.
func NewLogger(serviceName, env string) zerolog.Logger {
	return newLogger(os.Stdout, serviceName, env)
}

func newLogger(out io.Writer, serviceName, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	} else {
		logger = zerolog.New(out).
			With().
			Timestamp().
			Caller().
			Str("service", serviceName).
			Logger()
	}
	log.Logger = logger
	return logger
}

// StdLogWriter adapts a zerolog logger for APIs that want an io.Writer, such
// as http.Server.ErrorLog.
type StdLogWriter struct {
	Logger zerolog.Logger
}

func (w StdLogWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.Logger.Error().Msg(msg)
	return len(p), nil
}
