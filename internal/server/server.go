// Package server is the thin HTTP transport over the orchestration engine.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codedesk/internal/logging"
)

// HTTPServer wraps gin with lifecycle management: it serves until the
// context is cancelled, then shuts down gracefully.
type HTTPServer struct {
	engine          *gin.Engine
	addr            string
	shutdownTimeout time.Duration
}

// New builds the server and registers all routes.
func New(addr string, shutdownTimeout time.Duration, handlers *Handlers) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLog())

	handlers.Register(engine)

	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	return &HTTPServer{
		engine:          engine,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Engine exposes the router for tests.
func (s *HTTPServer) Engine() *gin.Engine { return s.engine }

// Run serves until ctx is cancelled, then drains with the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	logging.Server("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// requestLog writes one line per request to the server log category.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Server("%s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
