package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "DeskPortal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns handler panics into a 500 envelope. Nothing is written when
// the response was already committed, e.g. a hijacked websocket.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				rid, _ := c.Get(RequestIDKey).(string)
				l.Error("panic recovered",
					applogger.String("request_id", rid),
					applogger.String("route", c.Path()),
					applogger.Error(perr),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				c.Set(EnvelopeStatusKey, http.StatusInternalServerError)
				err = c.JSON(http.StatusOK, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data": []map[string]string{{
						"code":    "ERR_INTERNAL",
						"message": "Something went wrong",
					}},
				})
			}()
			return next(c)
		}
	}
}
