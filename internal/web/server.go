// Package web exposes the scoring actions and dashboard over HTTP.
package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fraudguard/internal/features"
	"fraudguard/internal/logging"
	"fraudguard/internal/metrics"
	"fraudguard/internal/report"
	"fraudguard/internal/service"
	"fraudguard/internal/version"
)

// Options tune the HTTP surface.
type Options struct {
	Mode        string
	RecentLimit int
	Chart       report.Options
}

// Server routes HTTP requests onto the action pipeline.
type Server struct {
	svc    *service.Service
	opts   Options
	logger zerolog.Logger
	router *gin.Engine

	// mu serializes pipeline actions; the store assumes a single writer.
	mu sync.Mutex
}

// NewServer builds the router.
func NewServer(svc *service.Service, opts Options, logger zerolog.Logger) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}

	s := &Server{
		svc:    svc,
		opts:   opts,
		logger: logging.Component(logger, "web"),
		router: gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(metrics.Middleware())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", metrics.Handler())

	api := s.router.Group("/api")
	{
		api.GET("/scenarios", s.handleScenarios)
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/simulate/:scenario", s.handleSimulate)
		api.GET("/predictions", s.handlePredictions)
		api.DELETE("/predictions", s.handleClear)
		api.GET("/stats", s.handleStats)
		api.GET("/dashboard", s.handleDashboard)
		api.GET("/charts/:name", s.handleChart)
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type analyzeRequest struct {
	Amount *float64 `json:"amount" binding:"required,gte=0,lte=20000"`
	Hour   *int     `json:"hour" binding:"required,gte=0,lte=24"`
	V12    float64  `json:"v12" binding:"gte=-20,lte=20"`
	V14    float64  `json:"v14" binding:"gte=-20,lte=20"`
	V17    float64  `json:"v17" binding:"gte=-20,lte=20"`
}

func (r analyzeRequest) input() features.Input {
	return features.Input{Amount: *r.Amount, Hour: *r.Hour, V12: r.V12, V14: r.V14, V17: r.V17}
}

type statsResponse struct {
	Total              int64   `json:"total"`
	Fraud              int64   `json:"fraud"`
	FraudRate          float64 `json:"fraud_rate"`
	AverageProbability float64 `json:"average_probability"`
	FraudRateDisplay   string  `json:"fraud_rate_display"`
	AverageRiskDisplay string  `json:"average_risk_display"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
}

func (s *Server) handleScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": service.Scenarios()})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	s.mu.Lock()
	analysis, err := s.svc.Analyze(c.Request.Context(), req.input())
	s.mu.Unlock()
	if err != nil {
		s.actionFailed(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) handleSimulate(c *gin.Context) {
	s.mu.Lock()
	analysis, err := s.svc.Simulate(c.Request.Context(), c.Param("scenario"))
	s.mu.Unlock()
	if errors.Is(err, service.ErrUnknownScenario) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_scenario", "message": err.Error()})
		return
	}
	if err != nil {
		s.actionFailed(c, err)
		return
	}
	c.JSON(http.StatusCreated, analysis)
}

func (s *Server) handlePredictions(c *gin.Context) {
	limit := s.opts.RecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit", "message": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	s.mu.Lock()
	records := s.svc.History(c.Request.Context(), limit)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"predictions": records, "count": len(records)})
}

func (s *Server) handleClear(c *gin.Context) {
	s.mu.Lock()
	err := s.svc.ClearAll(c.Request.Context())
	s.mu.Unlock()
	if err != nil {
		s.actionFailed(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStats(c *gin.Context) {
	s.mu.Lock()
	snap := s.svc.Stats(c.Request.Context())
	s.mu.Unlock()

	c.JSON(http.StatusOK, statsResponse{
		Total:              snap.Total,
		Fraud:              snap.Fraud,
		FraudRate:          snap.FraudRate,
		AverageProbability: snap.AverageProbability,
		FraudRateDisplay:   snap.RateDisplay(),
		AverageRiskDisplay: snap.RiskDisplay(),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	s.mu.Lock()
	dash := s.svc.Refresh(c.Request.Context(), s.opts.RecentLimit)
	s.mu.Unlock()
	c.JSON(http.StatusOK, dash)
}

func (s *Server) handleChart(c *gin.Context) {
	s.mu.Lock()
	dash := s.svc.Refresh(c.Request.Context(), 0)
	s.mu.Unlock()

	var buf bytes.Buffer
	err := report.Render(c.Param("name"), dash, s.opts.Chart, &buf)
	switch {
	case errors.Is(err, report.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "no_data", "message": "no predictions recorded yet"})
	case errors.Is(err, report.ErrUnknownChart):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_chart", "message": err.Error()})
	case err != nil:
		s.actionFailed(c, err)
	default:
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

func (s *Server) actionFailed(c *gin.Context, err error) {
	s.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("action failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "action_failed", "message": err.Error()})
}

const requestIDKey = "request_id"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := s.logger.Debug()
		switch {
		case status >= 500:
			event = s.logger.Error()
		case status >= 400:
			event = s.logger.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("request completed")
	}
}
