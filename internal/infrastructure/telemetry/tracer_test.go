package telemetry_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/persistence"
	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_InProcess(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{
		Enabled:       true,
		ServiceName:   "test",
		SamplingRatio: 1,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, tp.Shutdown(ctx)) }()

	assert.True(t, tp.IsEnabled())
	_, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
}

func TestNewTracerProvider_NeverSample(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, tp.Shutdown(ctx)) }()

	_, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()
	assert.False(t, span.IsRecording())
	assert.False(t, span.SpanContext().IsSampled())
}

func TestRegisterDBTracing(t *testing.T) {
	log := zaptest.NewLogger(t)
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "trace.db"),
	}, log)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, telemetry.RegisterDBTracing(db.DB, "sqlite", log))

	var one int
	require.NoError(t, db.DB.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}
