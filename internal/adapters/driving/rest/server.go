// Package rest exposes summarize, chat and ingest over HTTP for the web
// front end, with Prometheus metrics on /metrics.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/notewise/internal/core/ports/driven"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
	"github.com/custodia-labs/notewise/internal/logger"
)

// DefaultMaxUploadBytes bounds a multipart upload.
const DefaultMaxUploadBytes = 20 << 20

// ErrMissingNoteService is returned when the note service is not provided.
var ErrMissingNoteService = errors.New("rest: note service is required")

// ErrMissingNormalisers is returned when no normaliser registry is provided.
var ErrMissingNormalisers = errors.New("rest: normaliser registry is required")

// Ports aggregates the services the API calls.
type Ports struct {
	// Notes provides summarize and chat.
	Notes driving.NoteService

	// Ingest backs POST /v1/ingest. Optional.
	Ingest driving.IngestService

	// Normalisers extracts text from uploads.
	Normalisers driven.NormaliserRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Notes == nil {
		return ErrMissingNoteService
	}
	if p.Normalisers == nil {
		return ErrMissingNormalisers
	}
	return nil
}

// Config holds server options.
type Config struct {
	// MaxUploadBytes bounds uploads; zero uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// Server is the REST API server.
type Server struct {
	ports   *Ports
	config  Config
	metrics *Metrics
	router  *gin.Engine
}

// NewServer creates a server and builds its routes.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		ports:   ports,
		config:  cfg,
		metrics: NewMetrics(),
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.metrics.Middleware())
	r.Use(requestLogger())
	r.MaxMultipartMemory = s.config.MaxUploadBytes

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/", s.handleIndex)
	v1.POST("/summarize", s.handleSummarize)
	v1.POST("/api/chat", s.handleChat)
	if s.ports.Ingest != nil {
		v1.POST("/ingest", s.handleIngest)
	}
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("rest: shutdown: %v", err)
		}
	}()

	logger.Info("REST API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
