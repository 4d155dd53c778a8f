package conformance_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/johnwards/dashgate/internal/csvtransfer"
	"github.com/johnwards/dashgate/internal/dashboard"
	"github.com/johnwards/dashgate/internal/gateway"
	"github.com/johnwards/dashgate/internal/seed"
)

// otherTenant owns no seed data.
const otherTenant = "00000000-0000-0000-0000-000000000002"

// newGateway returns a gateway for tenant against the running stub.
func newGateway(t *testing.T, tenant string) *gateway.Gateway {
	t.Helper()
	g, err := gateway.New(gateway.Settings{BaseURL: apiURL(), TenantID: tenant})
	if err != nil {
		t.Fatalf("gateway.New() error: %v", err)
	}
	return g
}

// newClient returns a dashboard client for the seeded tenant.
func newClient(t *testing.T) *dashboard.Client {
	t.Helper()
	return dashboard.New(newGateway(t, seed.Tenant))
}

// newChannel returns a CSV channel for the seeded tenant that saves into a
// fresh temp directory.
func newChannel(t *testing.T) (*csvtransfer.Channel, string) {
	t.Helper()
	dir := t.TempDir()
	return csvtransfer.New(newGateway(t, seed.Tenant), csvtransfer.WithSaver(csvtransfer.DirSaver{Dir: dir})), dir
}

// doRequest makes an HTTP request to the test server as tenant and returns
// the response. An empty tenant sends no tenant header. The caller is
// responsible for closing the response body.
func doRequest(t *testing.T, method, path, tenant string, body any) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverURL+path, bodyReader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if tenant != "" {
		req.Header.Set(gateway.TenantHeader, tenant)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// readJSON reads the response body and unmarshals it into a map.
func readJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		t.Fatalf("unmarshal response (status %d): body=%s err=%v", resp.StatusCode, string(b), err)
	}
	return result
}

// mustStatus asserts the HTTP response has the expected status code.
func mustStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d; body=%s", expected, resp.StatusCode, string(b))
	}
}

// resetServer calls POST /_dashstub/reset to return the server to its seeded state.
func resetServer(t *testing.T) {
	t.Helper()
	resp := doRequest(t, http.MethodPost, "/_dashstub/reset", "", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("reset server failed: status=%d body=%s", resp.StatusCode, string(b))
	}
}

// assertErrorEnvelope validates the {"error":{"code","message"}} body.
func assertErrorEnvelope(t *testing.T, body map[string]any, expectedCode string) {
	t.Helper()
	e := assertIsObject(t, body, "error")
	if e == nil {
		return
	}
	assertStringField(t, e, "code", expectedCode)
	if msg := assertIsString(t, e, "message"); msg == "" {
		t.Error("expected non-empty error message")
	}
}

// assertStringField checks that a key exists and has the expected string value.
func assertStringField(t *testing.T, m map[string]any, key, expected string) {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present, got keys: %v", key, mapKeys(m))
		return
	}
	s, ok := v.(string)
	if !ok {
		t.Errorf("expected field %q to be string, got %T", key, v)
		return
	}
	if s != expected {
		t.Errorf("field %q: expected %q, got %q", key, expected, s)
	}
}

// assertIsString checks that a field is a string and returns its value.
func assertIsString(t *testing.T, m map[string]any, key string) string {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		t.Errorf("expected field %q to be string, got %T", key, v)
		return ""
	}
	return s
}

// assertIsArray checks that a field is a JSON array and returns it.
func assertIsArray(t *testing.T, m map[string]any, key string) []any {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return nil
	}
	a, ok := v.([]any)
	if !ok {
		t.Errorf("expected field %q to be array, got %T", key, v)
		return nil
	}
	return a
}

// assertIsObject checks that a field is a JSON object and returns it.
func assertIsObject(t *testing.T, m map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := m[key]
	if !ok {
		t.Errorf("expected field %q to be present", key)
		return nil
	}
	o, ok := v.(map[string]any)
	if !ok {
		t.Errorf("expected field %q to be object, got %T", key, v)
		return nil
	}
	return o
}

// assertTimestamp checks that value is an RFC 3339 timestamp.
func assertTimestamp(t *testing.T, value string) {
	t.Helper()
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		t.Errorf("value %q is not an RFC 3339 timestamp", value)
	}
}

// mapKeys returns the keys of a map for diagnostic output.
func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
