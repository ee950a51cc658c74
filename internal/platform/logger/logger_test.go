package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	got := redact([]interface{}{"isbn13", "9780306406157", "api_key", "abc", "DB_DSN", "postgres://u:p@h/db"})
	assert.Equal(t, []interface{}{"isbn13", "9780306406157", "api_key", "[REDACTED]", "DB_DSN", "[REDACTED]"}, got)
}

func TestRedactOddLength(t *testing.T) {
	got := redact([]interface{}{"source", "google_books", "dangling"})
	assert.Equal(t, []interface{}{"source", "google_books", "dangling"}, got)
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("service", "lookup").Warn("source failed", "source", "open_library", "token", "t0k3n")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "lookup", ctx["service"])
		assert.Equal(t, "open_library", ctx["source"])
		assert.Equal(t, "[REDACTED]", ctx["token"])
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"prod", "dev", ""} {
		l, err := New(mode)
		assert.NoError(t, err, mode)
		assert.NotNil(t, l)
	}
}
