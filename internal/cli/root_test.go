package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/crmarques/vaultapi/faults"
	clitestkit "github.com/crmarques/vaultapi/internal/cli/testkit"
	"github.com/spf13/cobra"
)

const childTokenResponse = `{
	"auth": {
		"client_token": "s.child",
		"accessor": "acc-1",
		"policies": ["default"],
		"token_policies": ["default"],
		"lease_duration": 3600,
		"renewable": true
	}
}`

func TestRequiredCommandPathsRegistered(t *testing.T) {
	t.Parallel()

	requiredPaths := []string{
		"read",
		"list",
		"write",
		"delete",
		"token",
		"token create",
		"token renew",
		"token renew-self",
		"token revoke-self",
		"token revoke",
		"token revoke-orphan",
		"token revoke-prefix",
		"login",
		"login token",
		"login userpass",
		"login ldap",
		"login github",
		"login app-id",
		"login approle",
		"audit",
		"audit list",
		"audit enable",
		"audit disable",
		"version",
	}

	registered := clitestkit.RegisteredPaths(NewRootCommand(Dependencies{}))
	for _, path := range requiredPaths {
		if !slices.Contains(registered, path) {
			t.Errorf("command %q is not registered", path)
		}
	}
}

func TestReadRendersSecretTable(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"lease_duration":60,"data":{"password":"hunter2","port":5432},"warnings":["check me"]}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/app")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Key", "lease_duration", "60", "password", "hunter2", "port", "5432", "WARNING: check me"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, output)
		}
	}

	request := fake.lastRequest()
	if request.token != fakeToken {
		t.Fatalf("expected token %q, got %q", fakeToken, request.token)
	}
}

func TestReadSeveralPathsKeepsArgumentOrder(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/a": {status: http.StatusOK, body: `{"data":{"name":"a"}}`},
		"GET /v1/secret/b": {status: http.StatusOK, body: `{"data":{"name":"b"}}`},
		"GET /v1/secret/c": {status: http.StatusOK, body: `{"data":{"name":"c"}}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/c", "secret/a", "secret/b", "--output", "json")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var results []struct {
		Path   string `json:"path"`
		Secret struct {
			Data map[string]any `json:"data"`
		} `json:"secret"`
	}
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}

	var names []string
	for _, result := range results {
		names = append(names, result.Path+"="+result.Secret.Data["name"].(string))
	}
	if got, want := strings.Join(names, ","), "secret/c=c,secret/a=a,secret/b=b"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadQuery(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"data":{"password":"hunter2","port":5432}}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "--query", ".data.password")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "hunter2\n" {
		t.Fatalf("expected raw string output, got %q", output)
	}

	output, err = executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "-q", ".data | keys")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "[\"password\",\"port\"]\n" {
		t.Fatalf("unexpected query output %q", output)
	}
}

func TestReadYAMLOutput(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"data":{"user":"app"}}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "--output", "yaml")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "data:\n    user: app\n") {
		t.Fatalf("unexpected yaml output:\n%s", output)
	}
}

func TestReadJSONOutputOmitsAbsentLeaseFields(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"data":{"id":12345678901234567890}}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "--output", "json")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, `"id": 12345678901234567890`) {
		t.Fatalf("expected the integer to keep every digit:\n%s", output)
	}
	for _, absent := range []string{"lease_id", "renewable", "lease_duration", "warnings"} {
		if strings.Contains(output, absent) {
			t.Fatalf("expected %q to be omitted:\n%s", absent, output)
		}
	}

	output, err = executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "--query", ".data.id")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "12345678901234567890\n" {
		t.Fatalf("unexpected query output %q", output)
	}
}

func TestListPrintsKeys(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/apps": {status: http.StatusOK, body: `{"data":{"keys":["a","b/"]}}`},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("list", "secret/apps/")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "a\nb/\n" {
		t.Fatalf("unexpected list output %q", output)
	}
	if query := fake.lastRequest().query; query != "list=true" {
		t.Fatalf("expected list query, got %q", query)
	}
}

func TestWriteFromAssignments(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"PUT /v1/secret/app": {status: http.StatusNoContent},
	})

	valueFile := filepath.Join(t.TempDir(), "password.txt")
	if err := os.WriteFile(valueFile, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatalf("write value file: %v", err)
	}

	output, err := executeForTest(Dependencies{}, "", fake.args(
		"write", "secret/app", "username=app", "password=@"+valueFile, "ttl:=3600", `tags:=["a","b"]`,
	)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Success! Data written to: secret/app\n" {
		t.Fatalf("unexpected output %q", output)
	}

	want := `{"username":"app","password":"s3cret","ttl":3600,"tags":["a","b"]}`
	if got := fake.lastRequest().body; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestWriteFromYAMLPayloadOnStdin(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"PUT /v1/secret/app": {status: http.StatusOK, body: `{"data":{"version":2}}`},
	})

	output, err := executeForTest(Dependencies{}, "zeta: 1\nalpha: two\nlist:\n  - true\n", fake.args(
		"write", "secret/app", "--payload", "-", "--format", "yaml", "--query", ".data.version",
	)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "2\n" {
		t.Fatalf("unexpected output %q", output)
	}

	want := `{"zeta":1,"alpha":"two","list":[true]}`
	if got := fake.lastRequest().body; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestWriteRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, nil)

	testCases := [][]string{
		{"write", "secret/app", "a=b", "--data", `{"a":"b"}`},
		{"write", "secret/app", "--data", `[1,2]`},
		{"write", "secret/app", "=value"},
		{"write", "secret/app", "n:=not-json"},
	}
	for _, args := range testCases {
		_, err := executeForTest(Dependencies{}, "", fake.args(args...)...)
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("%v: expected validation error, got %v", args, err)
		}
	}
	if count := fake.requestCount(); count != 0 {
		t.Fatalf("expected no requests, got %d", count)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"DELETE /v1/secret/app": {status: http.StatusNoContent},
	})

	if _, err := executeForTest(Dependencies{}, "", fake.args("delete", "/secret/app/")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method := fake.lastRequest().method; method != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", method)
	}
}

func TestTokenCommands(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"POST /v1/auth/token/create":                   {status: http.StatusOK, body: childTokenResponse},
		"PUT /v1/auth/token/renew/s.child":             {status: http.StatusOK, body: childTokenResponse},
		"PUT /v1/auth/token/renew-self":                {status: http.StatusOK, body: childTokenResponse},
		"POST /v1/auth/token/revoke-self":              {status: http.StatusNoContent},
		"PUT /v1/auth/token/revoke/s.child":            {status: http.StatusNoContent},
		"PUT /v1/auth/token/revoke-orphan/s.x":         {status: http.StatusNoContent},
		"PUT /v1/auth/token/revoke-prefix/auth/github": {status: http.StatusNoContent},
	})

	testCases := []struct {
		args       []string
		wantOutput string
		wantBody   string
	}{
		{args: []string{"token", "create", "ttl=1h", `policies:=["reader"]`}, wantOutput: "s.child", wantBody: `{"ttl":"1h","policies":["reader"]}`},
		{args: []string{"token", "renew", "s.child", "--increment", "60"}, wantOutput: "token_renewable", wantBody: `{"increment":60}`},
		{args: []string{"token", "renew-self"}, wantOutput: "s.child", wantBody: `{"increment":0}`},
		{args: []string{"token", "revoke-self"}, wantOutput: "Success! Token revoked (HTTP 204 No Content)"},
		{args: []string{"token", "revoke", "s.child"}, wantOutput: "Success! Token revoked"},
		{args: []string{"token", "revoke-orphan", "s.x"}, wantOutput: "Success! Token revoked"},
		{args: []string{"token", "revoke-prefix", "auth/github/"}, wantOutput: "Success! Tokens revoked under: auth/github/"},
	}

	for _, testCase := range testCases {
		output, err := executeForTest(Dependencies{}, "", fake.args(testCase.args...)...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", testCase.args, err)
		}
		if !strings.Contains(output, testCase.wantOutput) {
			t.Fatalf("%v: expected %q in output, got:\n%s", testCase.args, testCase.wantOutput, output)
		}
		if testCase.wantBody != "" {
			if got := fake.lastRequest().body; got != testCase.wantBody {
				t.Fatalf("%v: body = %s, want %s", testCase.args, got, testCase.wantBody)
			}
		}
	}
}

func TestLoginUserpassReadsPasswordFromStdin(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"POST /v1/auth/userpass/login/mitch%2Fell": {status: http.StatusOK, body: childTokenResponse},
	})

	output, err := executeForTest(Dependencies{}, "pw\n", fake.args(
		"login", "userpass", "mitch/ell", "ttl=10m", "--query", ".auth.client_token",
	)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "s.child\n" {
		t.Fatalf("unexpected output %q", output)
	}

	want := `{"username":"mitch/ell","password":"pw","ttl":"10m"}`
	if got := fake.lastRequest().body; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestLoginUsesInjectedSecretReader(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"POST /v1/auth/ldap/login/jdoe": {status: http.StatusOK, body: childTokenResponse},
		"POST /v1/auth/github/login":    {status: http.StatusOK, body: childTokenResponse},
	})

	var prompts []string
	deps := Dependencies{
		ReadSecret: func(_ *cobra.Command, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return "prompted", nil
		},
	}

	if _, err := executeForTest(deps, "", fake.args("login", "ldap", "jdoe")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.lastRequest().body; got != `{"username":"jdoe","password":"prompted"}` {
		t.Fatalf("unexpected ldap body %s", got)
	}

	if _, err := executeForTest(deps, "", fake.args("login", "github")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.lastRequest().body; got != `{"token":"prompted"}` {
		t.Fatalf("unexpected github body %s", got)
	}

	if _, err := executeForTest(deps, "", fake.args("login", "ldap", "jdoe", "--password", "flag")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("expected two prompts, got %v", prompts)
	}
}

func TestLoginOtherBackends(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/auth/token/lookup-self": {status: http.StatusOK, body: `{"data":{"id":"s.other"}}`},
		"POST /v1/auth/app-id/login":     {status: http.StatusOK, body: childTokenResponse},
		"POST /v1/auth/approle/login":    {status: http.StatusOK, body: childTokenResponse},
	})

	if _, err := executeForTest(Dependencies{}, "", fake.args("login", "token", "s.other")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token := fake.lastRequest().token; token != "s.other" {
		t.Fatalf("expected lookup with s.other, got %q", token)
	}

	if _, err := executeForTest(Dependencies{}, "", fake.args("login", "token")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token := fake.lastRequest().token; token != fakeToken {
		t.Fatalf("expected lookup with the configured token, got %q", token)
	}

	if _, err := executeForTest(Dependencies{}, "", fake.args("login", "app-id", "app", "user")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.lastRequest().body; got != `{"app_id":"app","user_id":"user"}` {
		t.Fatalf("unexpected app-id body %s", got)
	}

	if _, err := executeForTest(Dependencies{}, "", fake.args("login", "approle", "role", "secret")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fake.lastRequest().body; got != `{"role_id":"role","secret_id":"secret"}` {
		t.Fatalf("unexpected approle body %s", got)
	}
}

func TestAuditCommands(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/sys/audit": {status: http.StatusOK, body: `{"data":{
			"file/": {"type":"file","description":"","options":{"file_path":"/tmp/audit.log"}},
			"syslog/": {"type":"syslog","description":"central","options":{}}
		}}`},
		"PUT /v1/sys/audit/file":    {status: http.StatusNoContent},
		"DELETE /v1/sys/audit/file": {status: http.StatusNoContent},
	})

	output, err := executeForTest(Dependencies{}, "", fake.args("audit", "list")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fileRow := strings.Index(output, "file/")
	syslogRow := strings.Index(output, "syslog/")
	if fileRow < 0 || syslogRow < fileRow || !strings.Contains(output, "central") {
		t.Fatalf("unexpected audit list output:\n%s", output)
	}

	output, err = executeForTest(Dependencies{}, "", fake.args(
		"audit", "enable", "file", "file", "--description", "local file", "file_path=/tmp/audit.log",
	)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "Success! Enabled the file audit device at: file\n" {
		t.Fatalf("unexpected output %q", output)
	}
	want := `{"type":"file","description":"local file","options":{"file_path":"/tmp/audit.log"}}`
	if got := fake.lastRequest().body; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}

	if _, err := executeForTest(Dependencies{}, "", fake.args("audit", "disable", "file")...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method := fake.lastRequest().method; method != http.MethodDelete {
		t.Fatalf("expected DELETE, got %s", method)
	}
}

func TestServiceErrorsAreReturnedVerbatim(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusForbidden, body: `{"errors":["permission denied"]}`},
	})

	_, err := executeForTest(Dependencies{}, "", fake.args("delete", "secret/missing")...)
	if got := ExitCodeForError(err); got != 3 {
		t.Fatalf("expected exit code 3 for a service error, got %d (%v)", got, err)
	}
	if err.Error() != "empty or undecodable error body (HTTP 404 Not Found)" {
		t.Fatalf("unexpected error text %q", err.Error())
	}

	_, err = executeForTest(Dependencies{}, "", fake.args("read", "secret/app")...)
	if !faults.IsCategory(err, faults.ServiceError) {
		t.Fatalf("expected service error, got %v", err)
	}
	if !strings.HasSuffix(err.Error(), "permission denied") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestInvalidOutputFormatIsRejected(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, nil)
	_, err := executeForTest(Dependencies{}, "", fake.args("read", "secret/app", "--output", "xml")...)
	if got := ExitCodeForError(err); got != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", got, err)
	}
	if count := fake.requestCount(); count != 0 {
		t.Fatalf("expected no requests, got %d", count)
	}
}

func TestMissingAddressIsValidationError(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := executeForTest(Dependencies{}, "", "read", "secret/app")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddressFromConfigFile(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"data":{"user":"app"}}`},
	})

	configFile := filepath.Join(t.TempDir(), "vaultctl.yaml")
	content := "address: " + fake.server.URL + "\ntoken: s.from-file\ntimeout: 5s\n"
	if err := os.WriteFile(configFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := executeForTest(Dependencies{}, "", "read", "secret/app", "--config", configFile, "--token", "s.flag"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token := fake.lastRequest().token; token != "s.flag" {
		t.Fatalf("expected the flag token to win, got %q", token)
	}
}

func TestDebugLogsRequestsWithoutToken(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, map[string]fakeResponse{
		"GET /v1/secret/app": {status: http.StatusOK, body: `{"data":{}}`},
	})

	_, stderr, err := executeForTestWithStreams(Dependencies{}, "", fake.args("read", "secret/app", "--debug")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"vault request completed", `"call"="logical.read"`, `"status"=200`} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("expected %q in debug output, got:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, fakeToken) {
		t.Fatalf("debug output leaked the token:\n%s", stderr)
	}
}

func TestMetricsFileIsWrittenOnFailure(t *testing.T) {
	t.Parallel()

	fake := newFakeVault(t, nil)
	metricsFile := filepath.Join(t.TempDir(), "vaultctl.prom")

	root := NewRootCommand(Dependencies{})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(fake.args("read", "secret/missing", "--metrics-file", metricsFile))

	if err := executeRoot(root); !faults.IsCategory(err, faults.ServiceError) {
		t.Fatalf("expected service error, got %v", err)
	}

	content, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	for _, want := range []string{
		`vault_client_api_calls_total{call="read",group="logical",status="error"} 1`,
		"vault_client_api_call_duration_seconds_count",
	} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in metrics file, got:\n%s", want, content)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	t.Parallel()

	output, err := executeForTest(Dependencies{}, "", "version", "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var value map[string]string
	if err := json.Unmarshal([]byte(output), &value); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if value["version"] != "dev" {
		t.Fatalf("unexpected version output %v", value)
	}
	if !strings.HasPrefix(value["go_version"], "go") || !strings.Contains(value["platform"], "/") {
		t.Fatalf("expected runtime details, got %v", value)
	}
}
