package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/metrics"
	"github.com/ironsheep/color-contrast-mcp/internal/ocr"
	"github.com/ironsheep/color-contrast-mcp/internal/pipeline"
	"github.com/ironsheep/color-contrast-mcp/internal/source"
)

const (
	// ServerName is reported in the initialize handshake.
	ServerName = "color-accessibility-checker"
	// ProtocolVersion is the MCP revision this server speaks.
	ProtocolVersion = "2024-11-05"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeToolFailed     = -32000
)

// Server handles MCP protocol communication.
//
// A Server holds no per-request state and is safe for concurrent use; the
// HTTP transport calls HandleMessage from many goroutines.
type Server struct {
	analyzer     *analysis.Analyzer
	pipeline     *pipeline.Pipeline
	loader       pipeline.Loader
	defaultLevel contrast.Level
	version      string
	logger       hclog.Logger
	metrics      *metrics.Metrics
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer sets the pair analyzer used by the pair tools and, unless
// WithPipeline is given, by the image pipeline.
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithPipeline sets the image analysis pipeline.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Server) { s.pipeline = p }
}

// WithLoader sets the image loader used by image_sample_colors and the
// default pipeline.
func WithLoader(l pipeline.Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithDefaultLevel sets the WCAG level used when a call omits wcag_level.
func WithDefaultLevel(l contrast.Level) Option {
	return func(s *Server) { s.defaultLevel = l }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger. Log output must not go to the stdio channel.
func WithLogger(l hclog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics enables tool call metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a new MCP server instance. Collaborators not supplied through
// options get defaults: a default analyzer, a loader allowing local files,
// and a pipeline that uses Tesseract when it is installed.
func New(opts ...Option) *Server {
	s := &Server{
		defaultLevel: contrast.LevelAA,
		version:      "dev",
		logger:       hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.analyzer == nil {
		s.analyzer = analysis.New(nil, analysis.WithLogger(s.logger.Named("analysis")), analysis.WithMetrics(s.metrics))
	}
	if s.loader == nil {
		s.loader = source.NewLoader(source.Options{AllowLocalFiles: true}, source.NewCache(16, source.DefaultCacheTTL), s.logger.Named("source"), s.metrics)
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New(s.loader, s.analyzer,
			pipeline.WithRecognizer(ocr.New(ocr.DefaultOptions(), s.logger.Named("ocr"))),
			pipeline.WithLogger(s.logger.Named("pipeline")))
	}
	return s
}

// Run serves line-delimited JSON-RPC from r, writing responses to w, until
// r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Inline base64 images make for long lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 32*1024*1024)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(w)
	s.logger.Info("serving MCP over stdio", "version", s.version)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stdio server stopping", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}
			resp := s.HandleMessage(ctx, line)
			if resp == nil {
				continue
			}
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}
}

// HandleMessage decodes one JSON-RPC message and returns the response to
// send, or nil when the message is a notification.
func (s *Server) HandleMessage(ctx context.Context, data []byte) *MCPResponse {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("failed to parse request", "error", err)
		return s.errorResponse(nil, CodeParseError, "Parse error", err.Error())
	}
	return s.handleRequest(ctx, &req)
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Trace("request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized", "notifications/cancelled":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return s.handleResourcesList(req)
	case "resources/read":
		return s.handleResourcesRead(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools":     map[string]interface{}{},
				"resources": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}
