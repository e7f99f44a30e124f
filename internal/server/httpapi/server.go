// Package httpapi exposes the marketplace services over the REST API the
// client speaks, using gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/dmitrijs2005/bidmarket/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address         string
	users           *services.UserService
	market          *services.MarketService
	logger          logging.Logger
	maxDocumentSize int64
	engine          *gin.Engine
}

func NewServer(addr string, l logging.Logger, us *services.UserService, ms *services.MarketService, maxDocumentSize int64) *Server {
	s := &Server{
		address:         addr,
		logger:          l.With("module", "http_server"),
		users:           us,
		market:          ms,
		maxDocumentSize: maxDocumentSize,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/login", s.login)
	api.POST("/requestotp", s.requestOTP)
	api.POST("/verifyotp", s.verifyOTP)
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:id", s.getProject)

	authed := api.Group("", s.requireToken())
	authed.GET("/auth/details", s.details)
	authed.POST("/projects", s.createProject)
	authed.POST("/bids", s.submitBid)
	authed.POST("/projects/:id/select", s.selectBid)
	authed.PUT("/projects/:id/status", s.completeProject)
	authed.GET("/projects/:id/document", s.document)

	return r
}

// Handler is the routed engine, for httptest and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
