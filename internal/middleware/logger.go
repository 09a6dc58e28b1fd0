package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"imagecompare/internal/reqctx"
)

const logFieldsKey = "log_fields"

type logField struct {
	key   string
	value string
}

// LogField adds key=value to the request's access log line. Handlers use it
// for the user, comparison and job a request acted on.
func LogField(c *gin.Context, key, value string) {
	var fields []logField
	if existing, ok := c.Get(logFieldsKey); ok {
		fields, _ = existing.([]logField)
	}
	c.Set(logFieldsKey, append(fields, logField{key: key, value: value}))
}

// Logger writes one access log line per request, tagged with the matched
// route, the dirname being browsed, the authenticated admin and any fields
// added through LogField.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", reqctx.RequestID(c.Request.Context()))

		if dirname, ok := c.GetQuery("dirname"); ok {
			event.Str("dirname", dirname)
		}
		if admin, ok := CurrentAdmin(c); ok {
			event.Int64("admin_id", admin.ID)
		}
		if existing, ok := c.Get(logFieldsKey); ok {
			fields, _ := existing.([]logField)
			for _, f := range fields {
				event.Str(f.key, f.value)
			}
		}

		event.Msg("http request")
	}
}
