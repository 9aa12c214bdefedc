package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const connKey contextKey = "db_conn"

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema reports whether name can be used as a search_path schema.
func ValidSchema(name string) bool {
	return schemaPattern.MatchString(name)
}

// SearchPath returns the SET statement that scopes a session to schema.
func SearchPath(schema string) string {
	return fmt.Sprintf("SET search_path TO %s, public", pgx.Identifier{schema}.Sanitize())
}

// ScopedConnMiddleware holds one pooled connection for the lifetime of a
// request, with its search_path set to schema. Repositories opened during
// the request pick it up through ConnFromContext. The connection is
// released when the handler returns, including on panic.
func ScopedConnMiddleware(pool *pgxpool.Pool, schema string) echo.MiddlewareFunc {
	stmt := SearchPath(schema)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("acquire connection")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, stmt); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("schema", schema).Msg("set search_path")
				return echo.NewHTTPError(http.StatusInternalServerError, "schema resolution failed")
			}

			c.SetRequest(c.Request().WithContext(WithConn(ctx, conn)))
			return next(c)
		}
	}
}

func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// ConnFromContext retrieves the request-scoped connection, nil outside
// ScopedConnMiddleware.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(connKey).(*pgxpool.Conn)
	return conn
}
