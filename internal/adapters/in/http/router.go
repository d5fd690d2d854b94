package http

import (
	"net/http"

	"ordering/internal/pkg/metrics"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RegistryGatherer is satisfied by *prometheus.Registry.
type RegistryGatherer interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRouter builds the echo instance with health, metrics and API routes.
// Request metrics are registered with registry.
func NewRouter(server *Server, registry RegistryGatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "ordering",
		Subsystem:  "http",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	server.Register(e)
	return e
}
