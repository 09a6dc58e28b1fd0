package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"imagecompare/internal/envelope"
	"imagecompare/internal/models"
	"imagecompare/internal/service"
)

const currentAdminKey = "current_admin"

type AdminAuthenticator interface {
	Authenticate(ctx context.Context, credential string) (models.Admin, error)
}

// AdminAuth requires "Authorization: Bearer <capability key or admin token>".
func AdminAuth(auth AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c)
			return
		}

		admin, err := auth.Authenticate(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				unauthorized(c)
				return
			}
			envelope.Abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		c.Set(currentAdminKey, admin)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	envelope.Abort(c, http.StatusUnauthorized, "Unauthorized")
}

// CurrentAdmin returns the admin stored by AdminAuth.
func CurrentAdmin(c *gin.Context) (models.Admin, bool) {
	value, ok := c.Get(currentAdminKey)
	if !ok {
		return models.Admin{}, false
	}
	admin, ok := value.(models.Admin)
	return admin, ok
}
