package observability

import (
	"bytes"
	"encoding/json"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "eventmarket", "production")
	logger.Info().Str("path", "/api/categories").Msg("request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "eventmarket", entry["service"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "/api/categories", entry["path"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "eventmarket", "development")
	logger.Warn().Msg("slow query")

	assert.Contains(t, buf.String(), "slow query")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestStdLogWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "eventmarket", "production")

	std := log.New(StdLogWriter{Logger: logger}, "", 0)
	std.Print("http: TLS handshake error")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "http: TLS handshake error", entry["message"])
}
