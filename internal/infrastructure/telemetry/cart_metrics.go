package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Cart metric attribute keys
var (
	AttrIntent  = attribute.Key("intent")
	AttrMode    = attribute.Key("mode")
	AttrOutcome = attribute.Key("outcome")
	AttrResult  = attribute.Key("result")
	AttrOp      = attribute.Key("op")
	AttrCode    = attribute.Key("code")
)

// CartMetrics records cart coordinator activity
type CartMetrics struct {
	intents        *Counter
	intentDuration *Histogram
	loginPushes    *Counter
	remoteFailures *Counter
	warnings       *Counter
}

// NewCartMetrics registers the cart instruments on meter
func NewCartMetrics(meter metric.Meter) (*CartMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &CartMetrics{}
	var err error

	if m.intents, err = NewCounter(meter, "cart_intents_total",
		"Cart intents handled, by session mode and outcome", "{intent}"); err != nil {
		return nil, err
	}
	if m.intentDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "cart_intent_duration_seconds",
		Description: "Time spent handling a cart intent",
		Unit:        "s",
		Boundaries:  IntentDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.loginPushes, err = NewCounter(meter, "cart_login_pushes_total",
		"Local cart lines pushed to the remote cart on login", "{item}"); err != nil {
		return nil, err
	}
	if m.remoteFailures, err = NewCounter(meter, "cart_remote_failures_total",
		"Failed remote cart operations", "{call}"); err != nil {
		return nil, err
	}
	if m.warnings, err = NewCounter(meter, "cart_warnings_total",
		"Warnings raised while computing or storing the cart", "{warning}"); err != nil {
		return nil, err
	}
	return m, nil
}

// IntentCompleted counts one intent and its duration
func (m *CartMetrics) IntentCompleted(ctx context.Context, intent, mode string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.intents.Inc(ctx, AttrIntent.String(intent), AttrMode.String(mode), AttrOutcome.String(outcome))
	m.intentDuration.RecordDuration(ctx, elapsed, AttrIntent.String(intent), AttrMode.String(mode))
}

// LoginMerged counts pushed and failed lines of one login merge
func (m *CartMetrics) LoginMerged(ctx context.Context, pushed, failed int) {
	if pushed > 0 {
		m.loginPushes.Add(ctx, int64(pushed), AttrResult.String("pushed"))
	}
	if failed > 0 {
		m.loginPushes.Add(ctx, int64(failed), AttrResult.String("failed"))
	}
}

func (m *CartMetrics) RemoteFailure(ctx context.Context, op string) {
	m.remoteFailures.Inc(ctx, AttrOp.String(op))
}

func (m *CartMetrics) WarningRaised(ctx context.Context, code string) {
	m.warnings.Inc(ctx, AttrCode.String(code))
}
