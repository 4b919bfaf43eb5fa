package middleware

import (
	"time"

	applogger "DeskPortal/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDKey is the echo context key holding the request id.
const RequestIDKey = "request_id"

// RequestLogging assigns a request id and logs every request once it finishes.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(RequestIDKey, rid)
			res.Header().Set(echo.HeaderXRequestID, rid)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("request_id", rid),
				applogger.String("method", req.Method),
				applogger.String("route", c.Path()),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", ResponseStatus(c)),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if err != nil {
				l.Error("http request", append(fields, applogger.Error(err))...)
				return nil
			}
			l.Debug("http request", fields...)
			return nil
		}
	}
}
