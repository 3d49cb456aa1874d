package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/film-catalog/internal/logging"
    "github.com/iliyamo/film-catalog/internal/metrics"
)

// RequestID tags every request with an X-Request-ID, reusing the client's
// value when present.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: logging.GenerateRequestID,
    })
}

// RequestLogger writes one structured log line per request.  Server errors
// log at error level, client errors at warn.
func RequestLogger() echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogStatus:    true,
        LogMethod:    true,
        LogURI:       true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := logging.Info()
            switch {
            case v.Status >= 500:
                ev = logging.Error().Err(v.Error)
            case v.Status >= 400:
                ev = logging.Warn()
            }
            ev.Str("request_id", v.RequestID).
                Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("remote_ip", v.RemoteIP).
                Msg("request")
            return nil
        },
    })
}

// Metrics records request counts and latency per route template.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            status := c.Response().Status
            if err != nil {
                if he, ok := err.(*echo.HTTPError); ok {
                    status = he.Code
                } else if !c.Response().Committed {
                    status = 500
                }
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            metrics.RecordAPIRequest(c.Request().Method, route, status, time.Since(start))
            return err
        }
    }
}
