package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/smartplanner/core/docs"
	httpHandlers "github.com/smartplanner/core/internal/adapters/http"
	"github.com/smartplanner/core/internal/adapters/repository"
	"github.com/smartplanner/core/internal/application/services"
	"github.com/smartplanner/core/internal/domain/entities"
	"github.com/smartplanner/core/internal/infrastructure/config"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/infrastructure/metrics"
	"github.com/smartplanner/core/internal/infrastructure/ratelimit"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	sessions *services.SessionService
	metrics  *metrics.Metrics
	redis    *redis.Client
	now      func() time.Time

	stopSweeper context.CancelFunc
}

// Option customises a Server
type Option func(*Server)

// WithRedisClient shares rate limits through Redis and adds it to readiness
func WithRedisClient(client *redis.Client) Option {
	return func(s *Server) {
		s.redis = client
	}
}

// WithClock overrides the time source of sessions, tasks and responses
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, appLogger *logger.Logger, opts ...Option) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.IsDevelopment()

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(server)
	}

	sessionOpts := []services.SessionServiceOption{
		services.WithSessionClock(server.now),
		services.WithTaskServiceOptions(services.WithClock(server.now)),
	}
	if cfg.Metrics.Enabled {
		server.metrics = metrics.New()
		sessionOpts = append(sessionOpts,
			services.WithSessionObserver(server.metrics),
			services.WithTaskServiceOptions(services.WithTaskObserver(server.metrics)),
		)
	}

	// Initialize services
	server.sessions = services.NewSessionService(repository.NewTaskRepository, cfg.Session, cfg.JWT, appLogger, sessionOpts...)

	// Initialize handlers
	sessionHandler := httpHandlers.NewSessionHandler(server.sessions, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(appLogger, server.now)

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if server.metrics != nil {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(sessionHandler, taskHandler)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			s.logger.WithRequestID(values.RequestID).LogHTTPRequest(
				values.Method,
				values.URI,
				values.UserAgent,
				values.RemoteIP,
				values.Status,
				float64(values.Latency.Nanoseconds())/1000000,
				values.Error,
			)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/ready" || c.Path() == "/metrics"
		},
		Store: s.rateLimiterStore(),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			s.logger.LogSecurityEvent("rate_limited", "", identifier, map[string]interface{}{
				"path": context.Request().URL.Path,
			})
			return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

func (s *Server) rateLimiterStore() middleware.RateLimiterStore {
	requests := s.config.Security.RateLimitRequests
	window := s.config.Security.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	if s.redis != nil {
		return ratelimit.NewRedisStore(s.redis, s.config.Redis.KeyPrefix, requests, window, s.logger)
	}

	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limiterRate(requests, window),
		Burst:     requests,
		ExpiresIn: 3 * time.Minute,
	})
}

// limiterRate spreads requests evenly over window, at most one per millisecond
func limiterRate(requests int, window time.Duration) rate.Limit {
	interval := window / time.Duration(requests)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return rate.Every(interval)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(sessionHandler *httpHandlers.SessionHandler, taskHandler *httpHandlers.TaskHandler) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	if !s.config.App.IsProduction() {
		s.echo.GET("/docs/*", echoSwagger.WrapHandler)
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	v1.POST("/sessions", sessionHandler.OpenSession)
	v1.DELETE("/sessions", sessionHandler.CloseSession, s.sessionMiddleware())
	v1.GET("/sort-options", taskHandler.SortOptions)

	// Task routes (session scoped)
	taskGroup := v1.Group("/tasks", s.sessionMiddleware())
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.POST("/:id/toggle", taskHandler.ToggleTask)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = statusFor(err)
				}
			}

			s.metrics.ObserveRequest(c.Request().Method, c.Path(), status, time.Since(start).Seconds())
			return err
		}
	})

	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"time":            s.now().UTC().Format(time.RFC3339),
		"version":         s.config.App.Version,
		"active_sessions": s.sessions.Count(),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warnw("Readiness check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "redis_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

// Sessions exposes the session registry backing the API
func (s *Server) Sessions() *services.SessionService {
	return s.sessions
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the session sweeper and the HTTP server
func (s *Server) Start(address string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweeper = cancel
	go s.sessions.Run(ctx)

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	return s.echo.Shutdown(ctx)
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs), errors.Is(err, entities.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, entities.ErrTaskNotFound), errors.Is(err, entities.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrSessionLimit):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := statusFor(err)
		msg := httpHandlers.ErrorResponse{Error: http.StatusText(code)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = httpHandlers.ErrorResponse{Error: fmt.Sprint(he.Message)}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if code != http.StatusInternalServerError {
			msg.Details = err.Error()
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
