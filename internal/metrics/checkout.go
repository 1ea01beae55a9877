package metrics

import (
	"context"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Checkout implements checkout.Observer.
type Checkout struct {
	commits   metric.Int64Counter
	conflicts metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewCheckout(meter metric.Meter) (*Checkout, error) {
	c := &Checkout{}
	var err error
	c.commits, err = meter.Int64Counter("dailyfresh.checkout.commits",
		metric.WithDescription("Order commits by outcome"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}
	c.conflicts, err = meter.Int64Counter("dailyfresh.checkout.cas_conflicts",
		metric.WithDescription("Conditional stock updates that lost a race"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	c.duration, err = meter.Float64Histogram("dailyfresh.checkout.duration",
		metric.WithDescription("CommitOrder latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Outcome: "ok" untuk sukses, selain itu nama checkout.Kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	k := checkout.KindOf(err)
	if k == checkout.KindUnknown {
		return checkout.KindPersistenceFailure.String()
	}
	return k.String()
}

func (c *Checkout) CommitFinished(ctx context.Context, err error, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", Outcome(err)))
	c.commits.Add(ctx, 1, attrs)
	c.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// ReserveConflict cocok dipasang sebagai checkout.RetryPolicy.OnConflict.
// sku_id sengaja tidak jadi atribut: cardinality ikut ukuran katalog.
// attempt dibatasi oleh RetryPolicy.MaxAttempts.
func (c *Checkout) ReserveConflict(ctx context.Context, _ string, attempt int) {
	c.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}
