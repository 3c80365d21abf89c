package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/config"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), "cvforge-test", "test",
		config.ObservabilityConfig{OtelExporter: ExporterNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), "cvforge-test", "test",
		config.ObservabilityConfig{OtelExporter: "zipkin"})
	assert.Error(t, err)
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}

func TestInitSentryWithoutDSN(t *testing.T) {
	enabled, err := InitSentry("", "test")
	require.NoError(t, err)
	assert.False(t, enabled)
}
