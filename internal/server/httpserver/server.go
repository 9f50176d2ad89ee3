// Package httpserver exposes the HashEnv services over a JSON HTTP API.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/access"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Services bundles what the handlers call into.
type Services struct {
	Access       *access.Evaluator
	Users        *services.UserService
	Projects     *services.ProjectService
	EnvFiles     *services.EnvFileService
	Secrets      *services.SecretService
	Audit        *services.AuditService
	PanicConfigs *services.PanicConfigService
	Panic        *services.PanicService
}

type HTTPServer struct {
	address   string
	svc       Services
	logger    logging.Logger
	metrics   *metrics.Metrics
	jwtSecret []byte
	router    *gin.Engine
}

func NewHTTPServer(address string, l logging.Logger, m *metrics.Metrics, svc Services, secretKey string) *HTTPServer {
	s := &HTTPServer{
		address:   address,
		svc:       svc,
		logger:    l.With("module", "http_server"),
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
	s.router = s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
