package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
	custommiddleware "pipaura/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	MyFxBookHandler *MyFxBookHandler
	CronHandler     *CronHandler
	Verifier        domain.TokenVerifier
	CronSecret      string
	RequestTimeout  time.Duration // bounds user endpoints
	SweepTimeout    time.Duration // bounds the cron sweep endpoint
	Logger          zerolog.Logger
}

// NewEcho creates the API server with error rendering and common middleware
func NewEcho(config *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(config.Logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			config.Logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Secure())

	SetupRoutes(e, config)
	return e
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	api := e.Group("/api")

	// User routes (protected with bearer auth)
	myfxbook := api.Group("/myfxbook", custommiddleware.AuthMiddleware(config.Verifier))
	if config.RequestTimeout > 0 {
		myfxbook.Use(middleware.ContextTimeout(config.RequestTimeout))
	}
	{
		myfxbook.POST("/connect", config.MyFxBookHandler.Connect)
		myfxbook.GET("/status", config.MyFxBookHandler.Status)
		myfxbook.POST("/sync-user", config.MyFxBookHandler.SyncUser)
		myfxbook.POST("/disconnect", config.MyFxBookHandler.Disconnect)
	}

	// Cron routes (protected with the shared secret)
	// A sweep visits every linked account, so it gets its own deadline
	cron := api.Group("/cron", custommiddleware.CronSecretMiddleware(config.CronSecret))
	if config.SweepTimeout > 0 {
		cron.Use(middleware.ContextTimeout(config.SweepTimeout))
	}
	{
		cron.POST("/myfxbook-sync", config.CronHandler.SyncAll)
		cron.GET("/myfxbook-sync", config.CronHandler.SyncAll)
	}
}
