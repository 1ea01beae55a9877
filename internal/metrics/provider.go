// Package metrics exposes checkout RED metrics over OpenTelemetry.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type Options struct {
	ServiceName  string
	Env          string
	OTLPEndpoint string // kosong = metrics tidak diekspor (noop provider)
	Insecure     bool
	Interval     time.Duration
}

// Setup memasang MeterProvider global. Return fungsi shutdown yang mem-flush
// sisa data; aman dipanggil walau exporter tidak aktif.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	if opts.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	eopts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(opts.OTLPEndpoint)}
	if opts.Insecure {
		eopts = append(eopts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, eopts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("deployment.environment", opts.Env),
		)),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
