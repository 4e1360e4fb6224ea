package v1

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/genuirouter/internal/profile"
	"github.com/hrygo/genuirouter/server/internal/observability"
	"github.com/hrygo/genuirouter/server/middleware"
	"github.com/hrygo/genuirouter/server/service/chat"
)

// MaxRequestBody caps the size of a request body.
const MaxRequestBody = "64K"

type APIV1Service struct {
	Profile     *profile.Profile
	ChatService *chat.Service

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, chatService *chat.Service) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		ChatService: chatService,
		rateLimiter: middleware.NewRateLimiter(profile.RateLimit, profile.RateBurst),
	}
}

// RegisterRoutes registers the HTTP API with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.Use(
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}),
		NewRequestContextMiddleware(),
		NewLoggingMiddleware(s.Profile.IsDev()),
		echomw.RecoverWithConfig(echomw.RecoverConfig{DisablePrintStack: !s.Profile.IsDev()}),
	)

	echoServer.GET("/healthz", s.Healthz)

	apiGroup := echoServer.Group("/api/v1")
	apiGroup.Use(echomw.BodyLimit(MaxRequestBody))
	apiGroup.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))
	apiGroup.Use(s.rateLimiter.Middleware())

	apiGroup.POST("/chat", s.Chat)
	apiGroup.GET("/intents", s.ListIntents)
	apiGroup.GET("/metrics", s.GetMetrics)
}

// NewRequestContextMiddleware attaches a RequestContext carrying the X-Request-ID
// to the request's context, so pipeline logs share the id of the HTTP log line.
func NewRequestContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			reqCtx := observability.NewRequestContextWithID(slog.Default(), requestID)
			req := c.Request()
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			return next(c)
		}
	}
}

// NewLoggingMiddleware logs one line per request through slog.
func NewLoggingMiddleware(logErrors bool) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     logErrors,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.Warn("http request failed", attrs...)
				return nil
			}
			slog.Debug("http request", attrs...)
			return nil
		},
	})
}

// Healthz reports liveness.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
}
