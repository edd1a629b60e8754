package server

import "github.com/ironsheep/color-contrast-mcp/internal/widget"

// Tool names.
const (
	ToolAnalyzeImage  = "analyze_color_accessibility"
	ToolCheckPairs    = "check_color_pairs"
	ToolCheckContrast = "check_contrast"
	ToolSampleColors  = "image_sample_colors"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Meta        map[string]interface{} `json:"_meta,omitempty"`
}

// Resource represents an MCP resource definition
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

// widgetMeta links a tool's output to the HTML widget in hosts that render it.
func widgetMeta() map[string]interface{} {
	return map[string]interface{}{
		"openai/outputTemplate":   widget.ResourceURI,
		"openai/widgetAccessible": true,
	}
}

var wcagLevelSchema = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"AA", "AAA"},
	"description": "WCAG conformance level suggestions should reach (default: AA). Pass/fail counts always use AA for normal text.",
	"default":     "AA",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        ToolAnalyzeImage,
			Description: "Analyze color accessibility in an image according to WCAG standards. Detects text and background colors, calculates contrast ratios, and provides OKLCH color suggestions for improvements. Provide the image URL when available.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_url": map[string]interface{}{
						"type":        "string",
						"description": "Image to analyze: http(s) URL, data: URL, absolute file path, or raw base64",
					},
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Alias for image_url",
					},
					"wcag_level": wcagLevelSchema,
				},
			},
			Meta: widgetMeta(),
		},
		{
			Name:        ToolCheckPairs,
			Description: "Check a list of foreground/background hex color pairs against WCAG contrast requirements and suggest OKLCH lightness adjustments for failing pairs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"pairs": map[string]interface{}{
						"type":        "array",
						"description": "Color pairs to check, in display order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"foreground": map[string]interface{}{
									"type":        "string",
									"description": "Text color as #RGB or #RRGGBB",
								},
								"background": map[string]interface{}{
									"type":        "string",
									"description": "Background color as #RGB or #RRGGBB",
								},
								"label": map[string]interface{}{
									"type":        "string",
									"description": "Optional label, e.g. the text sample",
								},
							},
							"required": []string{"foreground", "background"},
						},
					},
					"wcag_level": wcagLevelSchema,
				},
				"required": []string{"pairs"},
			},
			Meta: widgetMeta(),
		},
		{
			Name:        ToolCheckContrast,
			Description: "Compute the WCAG contrast ratio of one foreground/background color pair, with AA/AAA results for normal and large text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"foreground": map[string]interface{}{
						"type":        "string",
						"description": "Text color as #RGB or #RRGGBB",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Background color as #RGB or #RRGGBB",
					},
					"wcag_level": wcagLevelSchema,
				},
				"required": []string{"foreground", "background"},
			},
		},
		{
			Name:        ToolSampleColors,
			Description: "Get the exact colors at multiple pixel coordinates of an image, as hex, RGB, HSL and OKLCH. Optionally return the image's dominant colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_url": map[string]interface{}{
						"type":        "string",
						"description": "Image to sample: http(s) URL, data: URL, absolute file path, or raw base64",
					},
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":      map[string]interface{}{"type": "integer"},
								"y":      map[string]interface{}{"type": "integer"},
								"label":  map[string]interface{}{"type": "string"},
								"radius": map[string]interface{}{"type": "integer", "description": "Average a (2r+1) square instead of one pixel", "default": 0},
							},
							"required": []string{"x", "y"},
						},
					},
					"dominant_count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of dominant colors to return (0 = none)",
						"default":     0,
					},
				},
				"required": []string{"image_url"},
			},
		},
	}
}

// GetResourceDefinitions returns all available resources
func GetResourceDefinitions() []Resource {
	return []Resource{
		{
			URI:         widget.ResourceURI,
			Name:        widget.Name,
			Description: widget.Description,
			MIMEType:    widget.MIMEType,
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// handleResourcesList returns the list of available resources
func (s *Server) handleResourcesList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"resources": GetResourceDefinitions(),
		},
	}
}
