package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Sentry opens a transaction per request and reports every error attached
// to the Gin context once the handlers are done. It is a no-op when Sentry
// was not initialised.
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sentry.CurrentHub().Client() == nil {
			c.Next()
			return
		}

		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetContext("Request", map[string]interface{}{
			"Method":  c.Request.Method,
			"URL":     c.Request.URL.String(),
			"Headers": safeHeaders(c.Request.Header),
		})
		ctx := sentry.SetHubOnContext(c.Request.Context(), hub)

		transaction := sentry.StartTransaction(ctx,
			fmt.Sprintf("%s %s", c.Request.Method, c.FullPath()),
			sentry.ContinueFromRequest(c.Request),
		)
		c.Request = c.Request.WithContext(transaction.Context())

		c.Next()

		transaction.Status = sentry.HTTPtoSpanStatus(c.Writer.Status())
		transaction.Finish()

		for _, ginErr := range c.Errors {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("http.route", c.FullPath())
				scope.SetExtra("status", c.Writer.Status())
				scope.SetExtra("request_id", c.GetString(RequestIDKey))
				hub.CaptureException(ginErr.Err)
			})
		}
	}
}

func safeHeaders(h http.Header) map[string]interface{} {
	safe := make(map[string]interface{}, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}
