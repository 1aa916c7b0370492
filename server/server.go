// Package server exposes the visualization pipeline over HTTP using gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/sonido-mach/config"
	"github.com/RyanBlaney/sonido-mach/logging"
	"github.com/RyanBlaney/sonido-mach/presets"
	"github.com/RyanBlaney/sonido-mach/transcode"
)

// Server serves the upload form, the rendered result pages and the JSON API.
type Server struct {
	cfg     *config.Config
	presets *presets.Registry
	sem     chan struct{}
	client  *http.Client
	engine  *gin.Engine
}

// New builds a server for cfg. A nil registry serves the built-in presets.
func New(cfg *config.Config, reg *presets.Registry) *Server {
	if reg == nil {
		reg = presets.NewRegistry()
	}
	workers := cfg.Server.Workers
	if workers < 1 {
		workers = 1
	}

	gin.SetMode(cfg.Server.GinMode)
	s := &Server{
		cfg:     cfg,
		presets: reg,
		sem:     make(chan struct{}, workers),
		client:  &http.Client{},
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(requestID())
	s.engine.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	s.engine.Use(requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/presets", s.handlePresets)
	s.engine.POST("/visualize", s.handleVisualizePage)

	api := s.engine.Group("/api")
	{
		api.POST("/visualize", s.handleVisualizeAPI)
		api.POST("/analyze", s.handleAnalyzeAPI)
	}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Address,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting", logging.Fields{
			"address": s.cfg.Server.Address,
			"workers": cap(s.sem),
			"version": config.Version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(err, "Server forced to shutdown")
		return err
	}
	logging.Info("Server exited")
	return nil
}

// acquire takes a worker slot, giving up when ctx ends first
func (s *Server) acquire(ctx context.Context) (release func(), err error) {
	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// decoder builds a decoder targeting sampleRate with the configured tools
func (s *Server) decoder(sampleRate int) *transcode.Decoder {
	cfg := transcode.DefaultDecoderConfig()
	cfg.TargetSampleRate = sampleRate
	cfg.FFmpegPath = s.cfg.Audio.FFmpegPath
	cfg.FFprobePath = s.cfg.Audio.FFprobePath
	return transcode.NewDecoder(cfg)
}

// waited reports how long a request waited for a worker slot
func waited(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
