package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/color-contrast-mcp/internal/analysis"
	"github.com/ironsheep/color-contrast-mcp/internal/contrast"
	"github.com/ironsheep/color-contrast-mcp/internal/imaging"
	"github.com/ironsheep/color-contrast-mcp/internal/source"
	"github.com/ironsheep/color-contrast-mcp/internal/widget"
)

var (
	errInvalidParams = errors.New("invalid params")
	errUnknownTool   = errors.New("tool not found")
	// errReported marks a call whose result carries isError for metrics.
	errReported = errors.New("tool reported an error")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "check_color_pairs").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// Content is one item of a tool result's content list.
type Content struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Resource *EmbeddedResource `json:"resource,omitempty"`
}

// EmbeddedResource is a resource inlined in a tool result or resources/read.
type EmbeddedResource struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

// ToolResult is the result of a tools/call request.
//
// Failures the caller should see (an unreachable image, undecodable data)
// are reported with IsError and an empty report, not as JSON-RPC errors.
type ToolResult struct {
	Content           []Content   `json:"content"`
	StructuredContent interface{} `json:"structuredContent,omitempty"`
	IsError           bool        `json:"isError"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// Malformed arguments return -32602, unknown tools -32601 and other tool
// execution errors -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	elapsed := time.Since(start)

	recorded := err
	if err == nil && result.IsError {
		recorded = errReported
	}
	s.metrics.RecordToolCall(params.Name, recorded, elapsed)

	log := s.logger.With("tool", params.Name, "duration", elapsed)
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		log = log.With("request_id", requestID)
	}

	switch {
	case errors.Is(err, errUnknownTool):
		log.Warn("unknown tool")
		return s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Tool not found: %s", params.Name), "")
	case errors.Is(err, errInvalidParams):
		log.Warn("invalid tool arguments", "error", err)
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	case err != nil:
		log.Error("tool execution failed", "error", err)
		return s.errorResponse(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}

	log.Info("tool call", "is_error", result.IsError)
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (*ToolResult, error) {
	switch name {
	case ToolAnalyzeImage:
		return s.handleAnalyzeImage(ctx, args)
	case ToolCheckPairs:
		return s.handleCheckPairs(ctx, args)
	case ToolCheckContrast:
		return s.handleCheckContrast(args)
	case ToolSampleColors:
		return s.handleSampleColors(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// handleResourcesRead returns the widget placeholder page.
func (s *Server) handleResourcesRead(req *MCPRequest) *MCPResponse {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}
	if params.URI != widget.ResourceURI {
		return s.errorResponse(req.ID, CodeInvalidParams, fmt.Sprintf("Resource not found: %s", params.URI), "")
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"contents": []EmbeddedResource{
				{URI: widget.ResourceURI, MIMEType: widget.MIMEType, Text: widget.Placeholder()},
			},
		},
	}
}

// decodeArgs unmarshals tool arguments; absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Server) level(raw string) (contrast.Level, error) {
	if raw == "" {
		return s.defaultLevel, nil
	}
	l, err := contrast.ParseLevel(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return l, nil
}

// reportResult wraps a report as text summary, embedded widget and
// structured data.
func reportResult(report *analysis.Report, header string, isError bool) (*ToolResult, error) {
	html, err := widget.HTML(report)
	if err != nil {
		return nil, err
	}

	text := report.Summary()
	if header != "" {
		text = header + "\n\n" + text
	}

	return &ToolResult{
		Content: []Content{
			{Type: "text", Text: text},
			{Type: "resource", Resource: &EmbeddedResource{URI: widget.ResourceURI, MIMEType: widget.MIMEType, Text: html}},
		},
		StructuredContent: map[string]interface{}{
			"data": report,
			"_meta": map[string]interface{}{
				"openai/outputTemplate": map[string]interface{}{
					"type":     "resource",
					"resource": widget.ResourceURI,
				},
			},
		},
		IsError: isError,
	}, nil
}

// === Report Tool Handlers ===

type analyzeImageArgs struct {
	ImageURL  string `json:"image_url"`
	Image     string `json:"image"`
	WCAGLevel string `json:"wcag_level"`
}

func (s *Server) handleAnalyzeImage(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var a analyzeImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := s.level(a.WCAGLevel)
	if err != nil {
		return nil, err
	}
	ref := a.ImageURL
	if ref == "" {
		ref = a.Image
	}

	report, err := s.pipeline.Run(ctx, ref, level)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		s.logger.Warn("image analysis failed", "source", source.Describe(ref), "error", err)
	}

	header := "🎨 Analyzed image"
	if report.Source != "" {
		header += ": " + report.Source
	}
	return reportResult(report, header, err != nil)
}

type checkPairsArgs struct {
	Pairs     []analysis.PairInput `json:"pairs"`
	WCAGLevel string               `json:"wcag_level"`
}

func (s *Server) handleCheckPairs(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var a checkPairsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := s.level(a.WCAGLevel)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzer.Analyze(ctx, a.Pairs, level)
	if err != nil {
		return nil, err
	}
	return reportResult(report, "", false)
}

type checkContrastArgs struct {
	Foreground string `json:"foreground"`
	Background string `json:"background"`
	WCAGLevel  string `json:"wcag_level"`
}

func (s *Server) handleCheckContrast(args json.RawMessage) (*ToolResult, error) {
	var a checkContrastArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	level, err := s.level(a.WCAGLevel)
	if err != nil {
		return nil, err
	}

	pair, err := s.analyzer.AnalyzePair(analysis.PairInput{Foreground: a.Foreground, Background: a.Background}, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return &ToolResult{
		Content:           []Content{{Type: "text", Text: describePair(pair)}},
		StructuredContent: map[string]interface{}{"data": pair},
	}, nil
}

// describePair renders a one-pair result as short plain text.
func describePair(p analysis.PairAnalysis) string {
	mark := func(pass bool) string {
		if pass {
			return "pass"
		}
		return "fail"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s: %.2f:1\n", p.Foreground.Hex(), p.Background.Hex(), p.DisplayRatio())
	fmt.Fprintf(&b, "AA normal: %s, AA large: %s, AAA normal: %s, AAA large: %s",
		mark(p.Contrast.PassesAANormal), mark(p.Contrast.PassesAALarge),
		mark(p.Contrast.PassesAAANormal), mark(p.Contrast.PassesAAALarge))
	for _, sg := range p.Suggestions {
		fmt.Fprintf(&b, "\n- %s: %s on %s = %.2f:1 (fg %s, bg %s)",
			sg.Strategy, sg.ForegroundHex, sg.BackgroundHex, sg.Ratio, sg.ForegroundOKLCH, sg.BackgroundOKLCH)
	}
	return b.String()
}

// === Sampling Tool Handler ===

type sampleColorsArgs struct {
	ImageURL      string                 `json:"image_url"`
	Image         string                 `json:"image"`
	Points        []imaging.LabeledPoint `json:"points"`
	DominantCount int                    `json:"dominant_count"`
}

// SampleColorsResult is the structured output of image_sample_colors.
type SampleColorsResult struct {
	Source   string                        `json:"source"`
	Width    int                           `json:"width"`
	Height   int                           `json:"height"`
	Samples  []imaging.LabeledColorResult  `json:"samples"`
	Dominant *imaging.DominantColorsResult `json:"dominant,omitempty"`
}

func (s *Server) handleSampleColors(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var a sampleColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ref := a.ImageURL
	if ref == "" {
		ref = a.Image
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: image_url is required", errInvalidParams)
	}
	if len(a.Points) == 0 && a.DominantCount <= 0 {
		return nil, fmt.Errorf("%w: provide points or dominant_count", errInvalidParams)
	}

	img, err := s.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	samples, err := imaging.SampleColorsMulti(img, a.Points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	result := &SampleColorsResult{
		Source:  source.Describe(ref),
		Width:   img.Width(),
		Height:  img.Height(),
		Samples: samples.Samples,
	}
	if a.DominantCount > 0 {
		result.Dominant, err = imaging.DominantColors(img, img.Bounds(), a.DominantCount)
		if err != nil {
			return nil, err
		}
	}

	text, err := indentJSON(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode samples: %w", err)
	}
	return &ToolResult{
		Content:           []Content{{Type: "text", Text: text}},
		StructuredContent: map[string]interface{}{"data": result},
	}, nil
}

// indentJSON renders v as two-space indented JSON.
func indentJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
