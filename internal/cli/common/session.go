package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/crmarques/vaultapi/telemetry"
	"github.com/crmarques/vaultapi/vault"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "vaultctl"

// Session holds the per-invocation logging and telemetry plumbing handed to
// every vault Configuration the command builds.
type Session struct {
	Logger   logr.Logger
	Metrics  *telemetry.Metrics
	Registry *prometheus.Registry

	providers   *telemetry.Providers
	metricsFile string
	closeOnce   sync.Once
}

type sessionKey struct{}

func NewSession(ctx context.Context, flags *GlobalFlags, stderr io.Writer) (*Session, error) {
	session := &Session{
		Logger:   logr.Discard(),
		Registry: prometheus.NewRegistry(),
	}
	if flags == nil {
		flags = &GlobalFlags{}
	}

	if flags.Debug {
		var mu sync.Mutex
		session.Logger = funcr.New(func(prefix, args string) {
			mu.Lock()
			defer mu.Unlock()
			if prefix != "" {
				_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, args)
				return
			}
			_, _ = fmt.Fprintln(stderr, args)
		}, funcr.Options{Verbosity: 1}).WithName(serviceName)
	}

	var meterProvider metric.MeterProvider
	if flags.OTLPEndpoint != "" {
		providers, err := telemetry.SetupOTLP(ctx, flags.OTLPEndpoint, flags.OTLPInsecure, serviceName)
		if err != nil {
			return nil, err
		}
		session.providers = providers
		meterProvider = providers.MeterProvider
	}

	metrics, err := telemetry.NewMetrics(session.Registry, meterProvider)
	if err != nil {
		_ = session.providers.Shutdown(ctx)
		return nil, err
	}
	session.Metrics = metrics
	session.metricsFile = flags.MetricsFile

	return session, nil
}

// ConfigurationOptions wires the session into a vault Configuration.
func (s *Session) ConfigurationOptions() []vault.Option {
	if s == nil {
		return nil
	}

	opts := []vault.Option{
		vault.WithLogger(s.Logger),
		vault.WithMetrics(s.Metrics),
	}
	if s.providers != nil {
		var tracerProvider trace.TracerProvider = s.providers.TracerProvider
		opts = append(opts, vault.WithTracerProvider(tracerProvider))
	}
	return opts
}

// Close writes the metrics file, if requested, and flushes the exporters.
// It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var err error
	s.closeOnce.Do(func() {
		if s.metricsFile != "" {
			if writeErr := prometheus.WriteToTextfile(s.metricsFile, s.Registry); writeErr != nil {
				err = errors.Join(err, ValidationError("failed to write metrics file", writeErr))
			}
		}
		if shutdownErr := s.providers.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
	})
	return err
}

func WithSession(ctx context.Context, session *Session) context.Context {
	ctx = logr.NewContext(ctx, session.Logger)
	return context.WithValue(ctx, sessionKey{}, session)
}

func SessionFrom(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	session, _ := ctx.Value(sessionKey{}).(*Session)
	return session
}
