package middleware

import (
	"strconv"
	"time"

	applogger "DeskPortal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EnvelopeStatusKey is the echo context key holding the status written inside
// the response envelope. The transport status is 200 for every envelope, so
// it is the envelope status that labels the request metrics.
const EnvelopeStatusKey = "envelope_status"

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deskportal_http_requests_total",
		Help: "HTTP requests by route and envelope status",
	}, []string{"route", "method", "status"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deskportal_http_request_duration_seconds",
		Help:    "HTTP handler latency",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
	}, []string{"route", "method", "class"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deskportal_http_in_flight_requests",
		Help: "Requests currently being served",
	})
)

// Metrics counts requests by route template and warns about requests slower
// than slowThreshold. Handler errors are passed to echo's error handler here
// so the recorded status is the one actually written.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			took := time.Since(start)

			route, method, status := c.Path(), c.Request().Method, ResponseStatus(c)
			requestCount.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			requestLatency.WithLabelValues(route, method, statusClass(status)).Observe(took.Seconds())

			if slowThreshold > 0 && took >= slowThreshold {
				l.Warn("slow request",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", status),
					applogger.Duration("duration_ms", took),
				)
			}
			return nil
		}
	}
}

// ResponseStatus returns the envelope status when one was written and the
// transport status otherwise.
func ResponseStatus(c echo.Context) int {
	if s, ok := c.Get(EnvelopeStatusKey).(int); ok {
		return s
	}
	return c.Response().Status
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
