package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const allowedMethods = "OPTIONS, POST, PUT, DELETE, GET"

var defaultAllowedHeaders = []string{"Content-Type", "Authorization"}

// CORS answers preflight requests with 204 and tags every response with the
// allowed origin. An empty origin list reflects any origin. The request id
// header is exposed so browser clients can quote it in bug reports.
func CORS(allowedOrigins, allowedHeaders []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originMap[strings.TrimSpace(origin)] = struct{}{}
	}

	if len(allowedHeaders) == 0 {
		allowedHeaders = defaultAllowedHeaders
	}
	headers := make([]string, 0, len(allowedHeaders))
	for _, h := range allowedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	allowHeaders := strings.Join(headers, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; allowAll || ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			}
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		c.Writer.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
