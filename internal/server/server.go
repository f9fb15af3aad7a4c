// Package server exposes the consensus workflow, the lung cancer analysis
// and the trial catalog over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/internal/oncology"
	"github.com/mohammad-safakhou/medconsensus/internal/report"
	"github.com/mohammad-safakhou/medconsensus/internal/trialindex"
	"github.com/mohammad-safakhou/medconsensus/internal/workflow"
)

// Runner executes one consensus run. *workflow.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, initial workflow.State) (workflow.State, error)
}

type Options struct {
	Runner     Runner
	Translator report.Translator
	Catalog    []oncology.Trial
	Index      *trialindex.Index
	Gatherer   prometheus.Gatherer
	JWTSecret  string
	MaxRounds  int
	Logger     *zap.Logger
	Now        func() time.Time
}

type Server struct {
	echo       *echo.Echo
	runner     Runner
	translator report.Translator
	catalog    []oncology.Trial
	index      *trialindex.Index
	maxRounds  int
	logger     *zap.Logger
	now        func() time.Time
}

// New wires the routes. /api/* requires a bearer token when a JWT secret is
// configured.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	s := &Server{
		runner:     opts.Runner,
		translator: opts.Translator,
		catalog:    opts.Catalog,
		index:      opts.Index,
		maxRounds:  opts.MaxRounds,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("http")
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxRounds < 1 {
		s.maxRounds = 1
	}
	if s.catalog == nil {
		catalog, err := oncology.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("load trial catalog: %w", err)
		}
		s.catalog = catalog
	}
	if s.index == nil {
		idx, err := trialindex.Build(s.catalog)
		if err != nil {
			return nil, fmt.Errorf("build trial index: %w", err)
		}
		s.index = idx
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	if opts.JWTSecret != "" {
		api.Use(AuthMiddleware([]byte(opts.JWTSecret)))
	}
	api.POST("/diagnoses", s.createDiagnosis)
	api.POST("/analyze", s.analyze)
	api.GET("/trials", s.listTrials)
	api.GET("/trials/:id", s.getTrial)
	api.GET("/languages", s.languages)

	s.echo = e
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError renders every error as {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	fields := []zap.Field{
		zap.Int("status", code),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("remote", c.RealIP()),
		zap.Error(err),
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("request rejected", fields...)
	}
	if !c.Response().Committed {
		_ = c.JSON(code, HTTPError{Error: msg})
	}
}
