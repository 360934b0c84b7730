package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/halq/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"unknown defaults to info", "chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(&config.Config{
				Env:       "development",
				LogLevel:  tt.level,
				LogFormat: "json",
			})
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
}

func TestWithField(t *testing.T) {
	log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: "json"})

	child := log.WithField("module", "store")
	require.NotNil(t, child)
	// The parent logger is not mutated.
	assert.NotSame(t, log, child)
}

func TestWithFields(t *testing.T) {
	log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: "json"})

	child := log.WithFields(map[string]interface{}{
		"period": "2021-1Q",
		"corps":  123,
	})
	require.NotNil(t, child)
	assert.NotSame(t, log, child)
}
