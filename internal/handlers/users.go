package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imagecompare/internal/envelope"
	"imagecompare/internal/middleware"
	"imagecompare/internal/models"
)

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	Comparisons   int64     `json:"comparisons"`
	AverageLambda float64   `json:"average_lambda"`
}

func toUserResponse(summary models.UserSummary) userResponse {
	return userResponse{
		ID:          summary.ID,
		Comparisons: summary.Comparisons,
	}
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	summary, err := h.users.Create(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	middleware.LogField(c, "user_id", summary.ID.String())
	envelope.OK(c, http.StatusCreated, toUserResponse(summary))
}

func (h HandlerSet) GetUser(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	middleware.LogField(c, "user_id", id.String())

	summary, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, toUserResponse(summary))
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		envelope.Error(c, http.StatusUnprocessableEntity, msgInvalidID)
		return uuid.UUID{}, false
	}
	return id, true
}
