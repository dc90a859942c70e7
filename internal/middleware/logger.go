package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger writes one "HTTP request" entry per request.  Server errors
// are logged at error level, client errors at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            req := c.Request()
            status := c.Response().Status
            fields := []zap.Field{
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.Int("status", status),
                zap.Duration("latency", time.Since(start)),
                zap.String("ip", c.RealIP()),
                zap.String("user", currentUserID(c)),
            }
            if req.URL.RawQuery != "" {
                fields = append(fields, zap.String("query", req.URL.RawQuery))
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }

            switch {
            case status >= 500:
                log.Error("HTTP request", fields...)
            case status >= 400:
                log.Warn("HTTP request", fields...)
            default:
                log.Info("HTTP request", fields...)
            }
            return nil
        }
    }
}
