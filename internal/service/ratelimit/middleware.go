package ratelimit

import (
	"github.com/labstack/echo/v4"
)

// Middleware rejects requests from a client IP whose bucket is empty by
// returning deny's result.
func Middleware(l *Limiter, deny func(c echo.Context) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return deny(c)
			}
			return next(c)
		}
	}
}
