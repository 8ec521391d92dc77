package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/contacts-manager/api/internal/config"
	"github.com/octobees/contacts-manager/api/internal/handler"
	middlewarepkg "github.com/octobees/contacts-manager/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Contacts *handler.ContactsHandler
}

// Register wires all HTTP routes for the API. When gatherer is nil the
// /metrics endpoint is not exposed.
func Register(e *echo.Echo, cfg *config.Config, gatherer prometheus.Gatherer, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, map[string]any{"status": "ok"})
	})

	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	contacts := e.Group("/contacts", middlewarepkg.WriteRateLimiter(cfg.RateLimitWrites))
	contacts.GET("", handlers.Contacts.List)
	contacts.POST("", handlers.Contacts.Create)
	contacts.PUT("", handlers.Contacts.UpdateFromBody)
	contacts.DELETE("", handlers.Contacts.DeleteByQuery)
	contacts.GET("/:id", handlers.Contacts.Get)
	contacts.PUT("/:id", handlers.Contacts.Update)
	contacts.DELETE("/:id", handlers.Contacts.Delete)
}
