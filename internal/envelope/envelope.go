// Package envelope writes the JSON body shape shared by every API response.
package envelope

import (
	"time"

	"github.com/gin-gonic/gin"

	"imagecompare/internal/reqctx"
)

type Body struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     *string   `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Body{
		RequestID: reqctx.RequestID(c.Request.Context()),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, errorBody(c, message))
}

// Abort writes an error body and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody(c, message))
}

func errorBody(c *gin.Context, message string) Body {
	return Body{
		RequestID: reqctx.RequestID(c.Request.Context()),
		Timestamp: time.Now().UTC(),
		Error:     &message,
	}
}
