package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	clitestkit "github.com/crmarques/vaultapi/internal/cli/testkit"
)

const fakeToken = "s.cli-token"

type fakeResponse struct {
	status int
	body   string
}

type fakeRequest struct {
	method string
	path   string
	query  string
	token  string
	body   string
}

// fakeVault answers "METHOD /escaped/path" routes with canned responses and
// 404 otherwise.
type fakeVault struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	routes   map[string]fakeResponse
	requests []fakeRequest
}

func newFakeVault(t *testing.T, routes map[string]fakeResponse) *fakeVault {
	t.Helper()

	fake := &fakeVault{t: t, routes: routes}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeVault) serve(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)

	f.mu.Lock()
	f.requests = append(f.requests, fakeRequest{
		method: request.Method,
		path:   request.URL.EscapedPath(),
		query:  request.URL.RawQuery,
		token:  request.Header.Get("X-Vault-Token"),
		body:   string(body),
	})
	response, found := f.routes[request.Method+" "+request.URL.EscapedPath()]
	f.mu.Unlock()

	if !found {
		response = fakeResponse{status: http.StatusNotFound, body: `{"errors":[]}`}
	}
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(response.status)
	_, _ = io.WriteString(writer, response.body)
}

func (f *fakeVault) lastRequest() fakeRequest {
	f.t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("expected at least one request to the fake vault")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeVault) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// args prepends the connection flags pointing at the fake server.
func (f *fakeVault) args(args ...string) []string {
	return append([]string{"--address", f.server.URL, "--token", fakeToken}, args...)
}

func executeForTest(deps Dependencies, stdin string, args ...string) (string, error) {
	return clitestkit.ExecuteCommandForTest(NewRootCommand(deps), stdin, args...)
}

func executeForTestWithStreams(deps Dependencies, stdin string, args ...string) (string, string, error) {
	return clitestkit.ExecuteCommandForTestWithStreams(NewRootCommand(deps), stdin, args...)
}
