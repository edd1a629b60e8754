package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serveStdio(cmd)
		},
	}
}

func (a *app) serveStdio(cmd *cobra.Command) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	// No metrics endpoint on stdio.
	srv, err := a.newServer(nil)
	if err != nil {
		return err
	}
	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
		a.logger.Error("server error", "error", err)
		return err
	}
	return nil
}
