// Package http exposes the classification engine over a small REST surface:
// batch classification, health, and Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careatlas/clauseguard/internal/classify/cascade"
	"github.com/careatlas/clauseguard/internal/config"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	apperrors "github.com/careatlas/clauseguard/pkg/errors"
	"github.com/careatlas/clauseguard/pkg/types/classify"
)

// Server wraps the gin engine and the classification orchestrator.
type Server struct {
	cfg          config.ServerConfig
	metricsCfg   config.MetricsConfig
	orchestrator *cascade.Orchestrator
	logger       logging.Logger
	httpServer   *http.Server
}

// NewServer builds the server and registers routes.
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, orchestrator *cascade.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	gin.SetMode(ginMode(cfg.Mode))

	s := &Server{
		cfg:          cfg,
		metricsCfg:   metricsCfg,
		orchestrator: orchestrator,
		logger:       logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(engine)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.handleHealth)
	if s.metricsCfg.Enabled {
		engine.GET(s.metricsCfg.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := engine.Group("/api/v1")
	{
		v1.POST("/classify", s.handleClassify)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

// Run starts serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type classifyRequest struct {
	Attributes []attributeInput `json:"attributes" binding:"required,min=1"`
}

type attributeInput struct {
	Name         string `json:"name" binding:"required"`
	ContractText string `json:"contract_text"`
	TemplateText string `json:"template_text"`
}

type classifyResponse struct {
	Results []classify.ClassificationResult `json:"results"`
	Summary classify.Summary                `json:"summary"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Code:    apperrors.ErrCodeBadRequest.String(),
			Message: err.Error(),
		})
		return
	}

	pairs := make([]classify.AttributePair, len(req.Attributes))
	for i, attr := range req.Attributes {
		pairs[i] = classify.AttributePair{
			Name:         attr.Name,
			ContractText: attr.ContractText,
			TemplateText: attr.TemplateText,
		}
	}

	results := s.orchestrator.ClassifyAll(c.Request.Context(), pairs)
	c.JSON(http.StatusOK, classifyResponse{
		Results: results,
		Summary: cascade.Summarize(results),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
