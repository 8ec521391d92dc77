package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value line per HTTP request, tagged with the route
// template and request id.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			if err != nil {
				log.Printf("request_id=%s method=%s path=%s route=%s status=%d bytes=%d latency=%s error=%q",
					RequestIDFromContext(c), req.Method, req.URL.Path, c.Path(), res.Status, res.Size, latency, err)
			} else {
				log.Printf("request_id=%s method=%s path=%s route=%s status=%d bytes=%d latency=%s",
					RequestIDFromContext(c), req.Method, req.URL.Path, c.Path(), res.Status, res.Size, latency)
			}

			return err
		}
	}
}
