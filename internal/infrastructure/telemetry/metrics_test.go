package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	"github.com/storefront/cartsync/internal/infrastructure/config"
	"github.com/storefront/cartsync/internal/infrastructure/telemetry"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"telemetry off", config.TelemetryConfig{MetricsEnabled: true, CollectorEndpoint: "localhost:4317"}},
		{"metrics off", config.TelemetryConfig{Enabled: true, CollectorEndpoint: "localhost:4317"}},
		{"no endpoint", config.TelemetryConfig{Enabled: true, MetricsEnabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := telemetry.NewMeterProvider(ctx, tt.cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.False(t, mp.IsEnabled())
			assert.NotNil(t, mp.Meter("test"))
			assert.NoError(t, mp.ForceFlush(ctx))
			assert.NoError(t, mp.Shutdown(ctx))
		})
	}
}

func TestNewCartMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewCartMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func newManualProvider(t *testing.T) (*telemetry.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp, err := telemetry.NewMeterProviderWithReader(config.TelemetryConfig{ServiceName: "test"}, reader, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

// counterValue sums the data points of a counter carrying every given attribute
func counterValue(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for _, kv := range attrs {
			v, found := dp.Attributes.Value(kv.Key)
			if !found || v != kv.Value {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestCartMetrics(t *testing.T) {
	mp, reader := newManualProvider(t)
	assert.True(t, mp.IsEnabled())

	m, err := telemetry.NewCartMetrics(mp.Meter("cartsync"))
	require.NoError(t, err)

	ctx := context.Background()
	m.IntentCompleted(ctx, "add_item", "anonymous", nil, 3*time.Millisecond)
	m.IntentCompleted(ctx, "add_item", "anonymous", nil, 4*time.Millisecond)
	m.IntentCompleted(ctx, "login", "authenticated", errors.New("partial"), 200*time.Millisecond)
	m.LoginMerged(ctx, 2, 1)
	m.LoginMerged(ctx, 0, 0)
	m.RemoteFailure(ctx, "add")
	m.WarningRaised(ctx, "TAX_RATE_NOT_FOUND")
	m.WarningRaised(ctx, "TAX_RATE_NOT_FOUND")

	data := collect(t, reader)

	intents := data["cart_intents_total"]
	require.NotNil(t, intents)
	assert.Equal(t, int64(2), counterValue(t, intents,
		telemetry.AttrIntent.String("add_item"), telemetry.AttrOutcome.String("ok")))
	assert.Equal(t, int64(1), counterValue(t, intents,
		telemetry.AttrIntent.String("login"), telemetry.AttrMode.String("authenticated"), telemetry.AttrOutcome.String("error")))

	hist, ok := data["cart_intent_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)

	pushes := data["cart_login_pushes_total"]
	assert.Equal(t, int64(2), counterValue(t, pushes, telemetry.AttrResult.String("pushed")))
	assert.Equal(t, int64(1), counterValue(t, pushes, telemetry.AttrResult.String("failed")))

	assert.Equal(t, int64(1), counterValue(t, data["cart_remote_failures_total"], telemetry.AttrOp.String("add")))
	assert.Equal(t, int64(2), counterValue(t, data["cart_warnings_total"], telemetry.AttrCode.String("TAX_RATE_NOT_FOUND")))
}
