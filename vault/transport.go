package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crmarques/vaultapi/faults"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// apiCall describes one HTTP round trip. group and name label logs, spans
// and metrics.
type apiCall struct {
	group    string
	name     string
	method   string
	endpoint string
	query    url.Values
	payload  any
	// token overrides the configured token when non-empty.
	token string
}

type apiResponse struct {
	status int
	body   []byte
}

func (r apiResponse) succeeded() bool {
	return r.status >= 200 && r.status < 300
}

// execute issues call once and maps the outcome: transport failures and
// non-2xx statuses become errors, and decode (when set) turns a successful
// response into the caller's result. It returns the HTTP status, which is 0
// when no response arrived.
func (c *Configuration) execute(ctx context.Context, call apiCall, decode func(apiResponse) error) (int, error) {
	started := time.Now()
	requestID := uuid.NewString()
	callName := call.group + "." + call.name

	ctx, span := c.tracer.Start(ctx, "vault "+callName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", call.method),
			attribute.String("url.path", call.endpoint),
			attribute.String("vault.request_id", requestID),
		),
	)
	defer span.End()

	response, err := c.send(ctx, call)
	if err == nil && !response.succeeded() {
		err = serviceError(decodeErrorResponse(response.status, response.body))
	}
	if err == nil && decode != nil {
		err = decode(response)
	}
	duration := time.Since(started)

	if response.status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", response.status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.metrics.ObserveCall(ctx, call.group, call.name, duration, err)

	logger := c.logger.WithValues(
		"call", callName,
		"method", call.method,
		"path", call.endpoint,
		"requestID", requestID,
	)
	switch {
	case faults.IsCategory(err, faults.TransportError):
		logger.Error(err, "vault request failed", "duration", duration)
	case err != nil:
		logger.V(1).Info("vault request completed", "status", response.status, "duration", duration, "error", err.Error())
	default:
		logger.V(1).Info("vault request completed", "status", response.status, "duration", duration)
	}

	return response.status, err
}

func (c *Configuration) send(ctx context.Context, call apiCall) (apiResponse, error) {
	var body io.Reader
	if call.payload != nil {
		encoded, err := json.Marshal(call.payload)
		if err != nil {
			return apiResponse{}, internalError("failed to encode vault request payload", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestURL := c.address + call.endpoint
	if len(call.query) > 0 {
		requestURL += "?" + call.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, call.method, requestURL, body)
	if err != nil {
		return apiResponse{}, internalError("failed to build vault request", err)
	}
	if call.payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token := c.token
	if call.token != "" {
		token = call.token
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apiResponse{}, transportError("vault request failed", err)
	}
	defer resp.Body.Close()

	data, err := readResponseBody(resp.Body, c.maxResponseBytes)
	if err != nil {
		return apiResponse{status: resp.StatusCode}, transportError("failed to read vault response body", err)
	}

	return apiResponse{status: resp.StatusCode, body: data}, nil
}

func readResponseBody(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errors.New("vault response body too large")
	}
	return data, nil
}

// secret executes call and decodes the Secret envelope. When required is
// false an empty body yields a nil Secret.
func (c *Configuration) secret(ctx context.Context, call apiCall, required bool) (*Secret, error) {
	var secret *Secret
	_, err := c.execute(ctx, call, func(response apiResponse) error {
		decoded, err := decodeSecret(response.body, required)
		if err != nil {
			return err
		}
		secret = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// exec executes call for its outcome only. The response body may be empty
// or an envelope; anything else is a DecodeError.
func (c *Configuration) exec(ctx context.Context, call apiCall) error {
	_, err := c.execute(ctx, call, acknowledge)
	return err
}

func acknowledge(response apiResponse) error {
	_, err := decodeSecret(response.body, false)
	return err
}

func decodeSecret(body []byte, required bool) (*Secret, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if required {
			return nil, decodeError("vault response body is empty", nil)
		}
		return nil, nil
	}
	if trimmed[0] != '{' {
		return nil, decodeError("vault response body is not a JSON object", nil)
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var secret Secret
	if err := decoder.Decode(&secret); err != nil {
		return nil, decodeError("failed to decode vault response body", err)
	}
	return &secret, nil
}
