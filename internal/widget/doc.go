// Package widget renders analysis reports as the self-contained HTML page
// served to widget-capable MCP hosts.
package widget
