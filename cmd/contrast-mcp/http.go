package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/color-contrast-mcp/internal/server"
)

func newHTTPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve MCP over HTTP (POST /mcp)",
		Long: `Serve MCP over HTTP. JSON-RPC requests are accepted on POST /mcp; GET / reports
status, GET /widget serves the widget placeholder, GET /healthz is a liveness
probe and GET /metrics exposes Prometheus metrics.

Remote deployments should set image.allow_local_files=false
(CONTRAST_MCP_IMAGE_ALLOW_LOCAL_FILES=false).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			registry, m := newRegistry()
			srv, err := a.newServer(m)
			if err != nil {
				return err
			}
			if a.cfg.Image.AllowLocalFiles {
				a.logger.Warn("local file access is enabled on a network transport")
			}

			return srv.RunHTTP(ctx, server.HTTPOptions{
				Address:         a.cfg.HTTP.Address,
				BaseURL:         a.cfg.HTTP.BaseURL,
				ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
				Gatherer:        registry,
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8000)")
	cmd.Flags().String("base-url", "", "externally visible base URL")
	a.bindFlags(cmd.Flags(), map[string]string{
		"addr":     "http.address",
		"base-url": "http.base_url",
	})
	return cmd
}
