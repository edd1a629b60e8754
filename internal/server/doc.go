// Package server implements the MCP (Model Context Protocol) server for
// color accessibility checks.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over two transports:
//   - stdio: one request per line on stdin, responses on stdout (Run)
//   - HTTP: one request per POST /mcp body (HTTPHandler, RunHTTP)
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list, tools/call: Enumerate and execute tools
//   - resources/list, resources/read: The HTML report widget
//   - ping: Health check
//
// # Available Tools
//
//   - analyze_color_accessibility: Find text in an image and check its contrast
//   - check_color_pairs: Check a list of foreground/background hex pairs
//   - check_contrast: Check a single pair
//   - image_sample_colors: Sample pixel colors and dominant colors
//
// Report tools return a text summary, the rendered widget as an embedded
// resource, and the report under structuredContent.data.
//
// # Error Handling
//
// Malformed requests and arguments are JSON-RPC errors (-32700, -32601,
// -32602). Unexpected tool failures are -32000. An image that cannot be
// loaded is not a protocol error: analyze_color_accessibility returns an
// empty report with a diagnostic and isError set.
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger))
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    logger.Error("server failed", "error", err)
//	}
package server
