package vault

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crmarques/vaultapi/config"
	"github.com/crmarques/vaultapi/internal/tlsconfig"
	"github.com/crmarques/vaultapi/telemetry"
	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 4 << 20

	tokenHeader = "X-Vault-Token"
)

// Configuration is the immutable connection state shared by every endpoint
// group: the server address, the access token and the transport plumbing.
// It is safe for concurrent use.
type Configuration struct {
	address          string
	token            string
	client           *http.Client
	logger           logr.Logger
	metrics          *telemetry.Metrics
	tracer           trace.Tracer
	maxResponseBytes int64
}

type settings struct {
	client           *http.Client
	timeout          time.Duration
	tlsConfig        *tls.Config
	logger           logr.Logger
	metrics          *telemetry.Metrics
	tracerProvider   trace.TracerProvider
	maxResponseBytes int64
}

type Option func(*settings)

// WithHTTPClient replaces the default client. Timeout and TLS options are
// ignored when a client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

func WithTLSConfig(tlsConfig *tls.Config) Option {
	return func(s *settings) {
		s.tlsConfig = tlsConfig
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *settings) {
		s.metrics = metrics
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(s *settings) {
		s.tracerProvider = provider
	}
}

// WithMaxResponseBytes bounds how much of a response body is read.
func WithMaxResponseBytes(limit int64) Option {
	return func(s *settings) {
		s.maxResponseBytes = limit
	}
}

// NewConfiguration validates address and returns a Configuration. The token
// is sent verbatim in the X-Vault-Token header; an empty token sends no header.
func NewConfiguration(address string, token string, opts ...Option) (*Configuration, error) {
	normalizedAddress, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}

	resolved := settings{
		timeout:          defaultTimeout,
		logger:           logr.Discard(),
		maxResponseBytes: defaultMaxResponseBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}

	if resolved.timeout < 0 {
		return nil, validationError("timeout must not be negative", nil)
	}
	if resolved.maxResponseBytes <= 0 {
		return nil, validationError("max response bytes must be positive", nil)
	}

	client := resolved.client
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if resolved.tlsConfig != nil {
			transport.TLSClientConfig = resolved.tlsConfig
		}
		client = &http.Client{
			Timeout:   resolved.timeout,
			Transport: transport,
		}
	}

	tracerProvider := resolved.tracerProvider
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}

	return &Configuration{
		address:          normalizedAddress,
		token:            token,
		client:           client,
		logger:           resolved.logger,
		metrics:          resolved.metrics,
		tracer:           tracerProvider.Tracer(telemetry.InstrumentationName),
		maxResponseBytes: resolved.maxResponseBytes,
	}, nil
}

// NewConfigurationFromConfig builds a Configuration from loaded settings.
// Options given here are applied after the ones derived from cfg.
func NewConfigurationFromConfig(cfg config.Vault, opts ...Option) (*Configuration, error) {
	tlsConfig, err := tlsconfig.Build(cfg.TLS)
	if err != nil {
		return nil, err
	}

	derived := make([]Option, 0, len(opts)+2)
	if cfg.Timeout > 0 {
		derived = append(derived, WithTimeout(cfg.Timeout))
	}
	if tlsConfig != nil {
		derived = append(derived, WithTLSConfig(tlsConfig))
	}
	derived = append(derived, opts...)

	return NewConfiguration(cfg.Address, cfg.Token, derived...)
}

// Address returns the normalized server address without a trailing slash.
func (c *Configuration) Address() string {
	return c.address
}

func (c *Configuration) Token() string {
	return c.token
}

func normalizeAddress(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", validationError("vault address is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return "", validationError("vault address is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", validationError("vault address must use http or https", nil)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", validationError("vault address host is required", nil)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return "", validationError("vault address must not contain a query or fragment", nil)
	}

	return strings.TrimRight(parsed.String(), "/"), nil
}
