package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/auth"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/middleware"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/registry"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/synchronizer"
)

func runServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	e := newServer(ctx, a)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	// ctx is done, so active runs are cancelled and finish their dispatched
	// writes before their responses go out
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer builds the HTTP surface. Sync runs started through it are
// cancelled when ctx is done.
func newServer(ctx context.Context, a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(a.log))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.log))

	if a.cfg.IsDev() && a.cfg.AuthSigningKey == "" {
		a.log.Warn().Msg("development auth: unauthenticated requests act as admin")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     a.cfg.AuthIssuer,
			SigningKey: []byte(a.cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		body := map[string]interface{}{
			"status":  "ok",
			"sources": a.registry.Sources(),
		}
		if a.redis != nil {
			body["cache"] = "ok"
			if err := a.redis.Health(c.Request().Context()); err != nil {
				// a cache outage degrades to upstream reads, it is not fatal
				body["cache"] = err.Error()
			}
		} else if a.memCache != nil {
			body["cache"] = "memory"
			body["cache_entries"] = a.memCache.Len()
		}
		return c.JSON(http.StatusOK, body)
	})
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	} else {
		e.GET("/health/db", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "store": "memory"})
		})
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiV1 := e.Group("/api/v1")
	synchronizer.NewHandler(a.registry, registry.IsUnknownSource).
		WithBaseContext(ctx).
		RegisterRoutes(apiV1)

	return e
}
