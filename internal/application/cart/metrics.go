package cart

import (
	"context"
	"time"
)

// MetricsRecorder receives coordinator activity. Labels are plain strings so a
// metrics backend does not depend on this package.
type MetricsRecorder interface {
	// IntentCompleted is called once per intent with the session mode it started in
	IntentCompleted(ctx context.Context, intent, mode string, err error, elapsed time.Duration)
	LoginMerged(ctx context.Context, pushed, failed int)
	RemoteFailure(ctx context.Context, op string)
	WarningRaised(ctx context.Context, code string)
}

type nopMetrics struct{}

func (nopMetrics) IntentCompleted(context.Context, string, string, error, time.Duration) {}
func (nopMetrics) LoginMerged(context.Context, int, int)                                 {}
func (nopMetrics) RemoteFailure(context.Context, string)                                 {}
func (nopMetrics) WarningRaised(context.Context, string)                                 {}
