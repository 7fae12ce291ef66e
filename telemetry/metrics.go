// Package telemetry provides the metrics and tracing instruments recorded for
// every Vault API call, and OTLP provider setup for short-lived processes.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	InstrumentationName = "github.com/crmarques/vaultapi"

	namespace = "vault_client"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics records per-call counters and latencies. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	calls     *prometheus.CounterVec
	durations *prometheus.HistogramVec
	histogram metric.Float64Histogram
}

// NewMetrics registers the Prometheus collectors with registerer (skipped when
// nil; collectors already registered by an earlier call are reused) and creates
// the OpenTelemetry histogram from meterProvider, defaulting to the global one.
func NewMetrics(registerer prometheus.Registerer, meterProvider metric.MeterProvider) (*Metrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Number of API calls issued to Vault",
	}, []string{"group", "call", "status"})

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_call_duration_seconds",
		Help:      "Duration of API calls issued to Vault",
		Buckets:   prometheus.DefBuckets,
	}, []string{"group", "call"})

	if registerer != nil {
		var err error
		if calls, err = register(registerer, calls); err != nil {
			return nil, err
		}
		if durations, err = register(registerer, durations); err != nil {
			return nil, err
		}
	}

	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	histogram, err := meterProvider.Meter(InstrumentationName).Float64Histogram(
		"vault.client.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of API calls issued to Vault"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		calls:     calls,
		durations: durations,
		histogram: histogram,
	}, nil
}

// ObserveCall records one completed call. err is the call's final outcome.
func (m *Metrics) ObserveCall(ctx context.Context, group, call string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := DeriveStatus(err)
	m.calls.WithLabelValues(group, call, status).Inc()
	m.durations.WithLabelValues(group, call).Observe(duration.Seconds())
	m.histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("vault.group", group),
		attribute.String("vault.call", call),
		attribute.String("vault.status", status),
	))
}

func DeriveStatus(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return collector, err
}
