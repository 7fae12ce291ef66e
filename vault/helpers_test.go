package vault

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/crmarques/vaultapi/faults"
	"github.com/stretchr/testify/require"
)

const testToken = "s.test-token"

type recordedRequest struct {
	Method   string
	Path     string
	Query    url.Values
	Token    string
	HasToken bool
	Body     string
}

// stubVault answers every request with a fixed status and body and records
// what it received.
type stubVault struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []recordedRequest
}

func (s *stubVault) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	tokens, hasToken := request.Header[http.CanonicalHeaderKey(tokenHeader)]
	token := ""
	if hasToken && len(tokens) > 0 {
		token = tokens[0]
	}

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method:   request.Method,
		Path:     request.URL.EscapedPath(),
		Query:    request.URL.Query(),
		Token:    token,
		HasToken: hasToken,
		Body:     string(body),
	})
	status, responseBody := s.status, s.body
	s.mu.Unlock()

	if responseBody != "" {
		writer.Header().Set("Content-Type", "application/json")
	}
	writer.WriteHeader(status)
	_, _ = io.WriteString(writer, responseBody)
}

func (s *stubVault) lastRequest(t *testing.T) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests, "expected at least one request")
	return s.requests[len(s.requests)-1]
}

func (s *stubVault) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newStubVault(t *testing.T, status int, body string, opts ...Option) (*stubVault, *Configuration) {
	t.Helper()

	stub := &stubVault{status: status, body: body}
	conf := newTestConfiguration(t, stub, testToken, opts...)
	return stub, conf
}

func newTestConfiguration(t *testing.T, handler http.Handler, token string, opts ...Option) *Configuration {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	conf, err := NewConfiguration(server.URL, token, opts...)
	require.NoError(t, err)
	return conf
}

func requireCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()
	require.Error(t, err)

	var typedErr *faults.TypedError
	require.True(t, errors.As(err, &typedErr), "expected typed error, got %T: %v", err, err)
	require.Equal(t, category, typedErr.Category, "unexpected category for %v", err)
}
