package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const connKey contextKey = "db_conn"

// WithConn attaches a dedicated connection to the context. Repositories
// prefer it over the shared pool, which lets a caller run several
// repository operations on one connection (session settings, advisory
// locks, transactions).
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// ConnFromContext retrieves the context-scoped connection, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(connKey).(*pgxpool.Conn)
	return conn
}

// WithAcquired acquires a connection from the pool, runs fn with that
// connection carried in the context, and releases it.
func WithAcquired(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(WithConn(ctx, conn))
}

// PinConnection returns echo middleware that runs mutating requests on a
// single pooled connection, so a handler's repository calls (a conflict
// check followed by an insert, for example) share one session. Reads keep
// using the pool directly.
func PinConnection(pool *pgxpool.Pool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return next(c)
			}
			return WithAcquired(c.Request().Context(), pool, func(ctx context.Context) error {
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			})
		}
	}
}
