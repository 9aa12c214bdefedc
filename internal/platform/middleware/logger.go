package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger writes one access-log event per request. Handler errors are
// rendered through echo's error handler first so the logged status is the
// one the client saw.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			began := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			level := zerolog.InfoLevel
			switch {
			case err != nil || res.Status >= 500:
				level = zerolog.ErrorLevel
			case res.Status >= 400:
				level = zerolog.WarnLevel
			}

			rid, _ := c.Get("request_id").(string)
			evt := logger.WithLevel(level).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("route", c.Path()).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(began)).
				Str("remote_ip", c.RealIP())
			if err != nil {
				evt = evt.Err(err)
			}
			evt.Msg("request")
			return nil
		}
	}
}
