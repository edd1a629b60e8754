package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/color-contrast-mcp/internal/widget"
)

// maxRequestBytes bounds a POST /mcp body; inline base64 images dominate it.
const maxRequestBytes = 32 << 20

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	// Address to listen on, e.g. ":8000".
	Address string

	// BaseURL is the externally visible URL, advertised by GET /.
	// Empty means relative paths.
	BaseURL string

	// ShutdownTimeout bounds graceful shutdown once the context ends.
	ShutdownTimeout time.Duration

	// Gatherer is exposed at /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// HTTPHandler returns the gin router serving MCP over HTTP:
//
//	POST /mcp      JSON-RPC request, one per body
//	GET  /         server status
//	GET  /widget   widget placeholder page
//	GET  /healthz  liveness
//	GET  /metrics  Prometheus metrics
func (s *Server) HTTPHandler(opts HTTPOptions) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(s.loggingMiddleware())

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"server":       ServerName,
			"version":      s.version,
			"mcp_endpoint": baseURL + "/mcp",
			"widget":       baseURL + "/widget",
		})
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/widget", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(widget.Placeholder()))
	})
	router.POST("/mcp", s.handleMCP)
	router.OPTIONS("/mcp", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

func (s *Server) handleMCP(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, s.errorResponse(nil, CodeInvalidParams, "Request too large", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, s.errorResponse(nil, CodeParseError, "Parse error", err.Error()))
		return
	}

	resp := s.HandleMessage(c.Request.Context(), body)
	if resp == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunHTTP serves HTTPHandler on opts.Address until ctx ends, then shuts
// down gracefully.
func (s *Server) RunHTTP(ctx context.Context, opts HTTPOptions) error {
	srv := &http.Server{
		Addr:              opts.Address,
		Handler:           s.HTTPHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over HTTP", "address", opts.Address, "version", s.version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("http server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// corsMiddleware allows any origin, as widget hosts load from their own domains.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware propagates X-Request-ID, generating one when absent,
// and stores it in the request context for tool call logging.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, id))
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, everything else=Debug.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	log := s.logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id, ok := c.Request.Context().Value(requestIDKey{}).(string); ok {
			args = append(args, "request_id", id)
		}

		switch {
		case status >= 500:
			log.Error("request", args...)
		case status >= 400:
			log.Warn("request", args...)
		default:
			log.Debug("request", args...)
		}
	}
}
