package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New()
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.analyzer == nil || s.pipeline == nil || s.loader == nil {
		t.Fatal("New() did not initialize collaborators")
	}
	if s.defaultLevel != "AA" {
		t.Errorf("default level: got %s, want AA", s.defaultLevel)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestMCPResponse_OmitsEmpty(t *testing.T) {
	resp := MCPResponse{JSONRPC: "2.0", ID: 1, Result: map[string]interface{}{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("success response should omit error: %s", data)
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New(WithVersion("1.2.3"))
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != ProtocolVersion {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	caps := result["capabilities"].(map[string]interface{})
	if _, ok := caps["resources"]; !ok {
		t.Error("capabilities should advertise resources")
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != ServerName || info["version"] != "1.2.3" {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "p", Method: "ping"})
	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != "p" {
		t.Errorf("ID not echoed: %v", resp.ID)
	}
}

func TestHandleRequest_Notification(t *testing.T) {
	s := New()
	for _, method := range []string{"notifications/initialized", "notifications/cancelled"} {
		if resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: method}); resp != nil {
			t.Errorf("%s: notifications get no response, got %+v", method, resp)
		}
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: "prompts/list"})
	if resp == nil || resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("code: got %d, want %d", resp.Error.Code, CodeMethodNotFound)
	}
	if !strings.Contains(resp.Error.Message, "prompts/list") {
		t.Errorf("message should name the method: %s", resp.Error.Message)
	}
}

func TestHandleMessage_ParseError(t *testing.T) {
	s := New()
	resp := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0",`))
	if resp == nil || resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != CodeParseError {
		t.Errorf("code: got %d, want %d", resp.Error.Code, CodeParseError)
	}
	if resp.ID != nil {
		t.Errorf("parse errors carry a null id, got %v", resp.ID)
	}
}

func TestRun(t *testing.T) {
	s := New()
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := s.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var responses []MCPResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp MCPResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d: %s", len(responses), out.String())
	}
	if responses[0].ID != float64(1) || responses[0].Error != nil {
		t.Errorf("first response: %+v", responses[0])
	}
	if responses[1].Error == nil || responses[1].Error.Code != CodeParseError {
		t.Errorf("second response should be a parse error: %+v", responses[1])
	}
	if responses[2].ID != float64(2) || responses[2].Error != nil {
		t.Errorf("third response: %+v", responses[2])
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	s := New()
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, r, io.Discard) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should stop cleanly on cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
