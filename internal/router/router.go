package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/devhsu/srt-macro/internal/config"
	"github.com/devhsu/srt-macro/internal/handler"
	"github.com/devhsu/srt-macro/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	SRT         *handler.SRTHandler
	Macro       *handler.MacroHandler
	Reservation *handler.ReservationHandler
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the control-plane API. The operator login lives
// under /v1/auth; everything else requires a valid access token. The
// token-bucket rate limiter wraps both groups and degrades to a no-op
// when Redis is unavailable.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limit := middleware.NewTokenBucket(rlCfg, rdb)

	pub := e.Group("/v1/auth", limit)
	pub.POST("/login", h.Auth.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(limit)

	// Upstream session operations.
	auth.POST("/srt/login", h.SRT.Login)
	auth.DELETE("/srt/credentials", h.SRT.DeleteCredentials)
	auth.POST("/srt/search", h.SRT.Search)
	auth.GET("/srt/reservations", h.SRT.Reservations)

	// Reservation loop control.
	auth.POST("/macro/start", h.Macro.Start)
	auth.POST("/macro/stop", h.Macro.Stop)
	auth.GET("/macro/status", h.Macro.Status)

	// Recorded booking history.
	auth.GET("/reservations", h.Reservation.List)
}
