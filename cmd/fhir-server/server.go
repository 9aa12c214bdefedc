package main

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ehr/fhirstore/internal/config"
	"github.com/ehr/fhirstore/internal/domain/device"
	"github.com/ehr/fhirstore/internal/domain/observation"
	"github.com/ehr/fhirstore/internal/domain/patient"
	"github.com/ehr/fhirstore/internal/platform/db"
	"github.com/ehr/fhirstore/internal/platform/middleware"
	"github.com/ehr/fhirstore/internal/platform/resource"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

const version = "0.1.0"

type server struct {
	echo    *echo.Echo
	metrics *prometheus.Registry
}

// newServer wires the HTTP surface. A nil pool selects in-memory stores.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) *server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	reg := prometheus.NewRegistry()

	e.Use(middleware.RequestID(logger))
	e.Use(middleware.Logger(logger))
	if cfg.MetricsEnabled {
		e.Use(middleware.NewHTTPMetrics(reg).Middleware())
	}
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		}))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{echo.HeaderLocation, "ETag", echo.HeaderLastModified},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"store":   cfg.StoreDriver,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool, 5*time.Second))
	}
	if cfg.MetricsEnabled {
		gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))
	}

	fhirGroup := e.Group(resource.BasePath,
		middleware.RequestTimeout(cfg.RequestTimeout),
		middleware.BodyLimit(cfg.BodyLimitBytes()),
	)
	if pool != nil {
		fhirGroup.Use(db.ScopedConnMiddleware(pool, cfg.DBSchema))
	}

	patient.NewHandler(opener(pool, patient.Table)).RegisterRoutes(fhirGroup)
	device.NewHandler(opener(pool, device.Table)).RegisterRoutes(fhirGroup)
	observation.NewHandler(opener(pool, observation.Table)).RegisterRoutes(fhirGroup)

	return &server{echo: e, metrics: reg}
}

func opener[E versioning.Entity[E]](pool *pgxpool.Pool, table versioning.Table[E]) versioning.Opener[E] {
	if pool == nil {
		return versioning.NewMemoryStore[E](table.Name).Open
	}
	return versioning.PGOpener(pool, table)
}
