package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/color-contrast-mcp/internal/metrics"
)

func newTestHandler(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	s := New(WithMetrics(metrics.New(registry)), WithVersion("test"))
	return s.HTTPHandler(HTTPOptions{BaseURL: "https://contrast.example.com/", Gatherer: registry}), registry
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHTTP_Root(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(h, http.MethodGet, "/", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["mcp_endpoint"] != "https://contrast.example.com/mcp" {
		t.Errorf("mcp_endpoint: got %s", body["mcp_endpoint"])
	}
	if body["version"] != "test" || body["server"] != ServerName {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHTTP_Healthz(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(h, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestHTTP_Widget(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(h, http.MethodGet, "/widget", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Color Accessibility Checker") {
		t.Error("expected placeholder page")
	}
}

func TestHTTP_MCP(t *testing.T) {
	h, _ := newTestHandler(t)
	body := `{"jsonrpc":"2.0","id":"a1","method":"tools/call","params":{"name":"check_contrast","arguments":{"foreground":"#000","background":"#fff"}}}`
	w := do(h, http.MethodPost, "/mcp", body, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp struct {
		ID     string `json:"id"`
		Result struct {
			IsError           bool `json:"isError"`
			StructuredContent struct {
				Data struct {
					Ratio float64 `json:"ratio"`
				} `json:"data"`
			} `json:"structuredContent"`
		} `json:"result"`
		Error *MCPError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error != nil || resp.ID != "a1" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}
	if resp.Result.StructuredContent.Data.Ratio != 21 {
		t.Errorf("ratio: got %v, want 21", resp.Result.StructuredContent.Data.Ratio)
	}
}

func TestHTTP_MCP_Notification(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("notifications get no body, got %s", w.Body.String())
	}
}

func TestHTTP_MCP_ParseError(t *testing.T) {
	h, _ := newTestHandler(t)
	w := do(h, http.MethodPost, "/mcp", `{broken`, nil)

	var resp MCPResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("expected parse error, got %s", w.Body.String())
	}
}

func TestHTTP_CORS(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(h, http.MethodOptions, "/mcp", "", map[string]string{"Origin": "https://chat.example.com"})
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: got %q", got)
	}

	w = do(h, http.MethodGet, "/healthz", "", nil)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin on GET: got %q", got)
	}
}

func TestHTTP_RequestID(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(h, http.MethodGet, "/healthz", "", map[string]string{"X-Request-ID": "req-123"})
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("propagated id: got %q", got)
	}

	w = do(h, http.MethodGet, "/healthz", "", nil)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated id should be a UUID, got %q", got)
	}
}

func TestHTTP_Metrics(t *testing.T) {
	h, _ := newTestHandler(t)
	do(h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"check_contrast","arguments":{"foreground":"#000","background":"#fff"}}}`, nil)

	w := do(h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `contrast_mcp_tool_calls_total{status="success",tool="check_contrast"} 1`) {
		t.Errorf("tool call not exported:\n%s", w.Body.String())
	}
}

func TestHTTP_MetricsDisabled(t *testing.T) {
	h := New().HTTPHandler(HTTPOptions{})
	if w := do(h, http.MethodGet, "/metrics", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}
