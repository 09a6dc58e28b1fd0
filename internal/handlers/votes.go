package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imagecompare/internal/envelope"
	"imagecompare/internal/middleware"
	"imagecompare/internal/models"
	"imagecompare/internal/service"
)

type voteRequest struct {
	ComparisonID string `json:"comparison_id" binding:"required"`
	UserID       string `json:"user_id" binding:"required"`
	VoteValue    string `json:"vote_value" binding:"required"`
}

type voteResponse struct {
	ID           string    `json:"id"`
	ComparisonID uuid.UUID `json:"comparison_id"`
	UserID       uuid.UUID `json:"user_id"`
	VoteValue    string    `json:"vote_value"`
	CreatedAt    time.Time `json:"created_at"`
	ClientIP     *string   `json:"client_ip"`
}

// parseVoteValue reads "equal", "different" or an image given either as a
// bare ref or under the public image route.
func (h HandlerSet) parseVoteValue(raw string) models.VoteValue {
	switch raw {
	case string(models.VoteKindEqual):
		return models.Equal{}
	case string(models.VoteKindDifferent):
		return models.Different{}
	default:
		return models.Preferred{Image: h.imageRef(raw)}
	}
}

func (h HandlerSet) renderVoteValue(value models.VoteValue) string {
	if p, ok := value.(models.Preferred); ok {
		return h.imageURL(p.Image)
	}
	return string(value.Kind())
}

func (h HandlerSet) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	comparisonID, err := uuid.Parse(req.ComparisonID)
	if err != nil {
		envelope.Error(c, http.StatusUnprocessableEntity, "`comparison_id` is not a valid UUID")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		envelope.Error(c, http.StatusUnprocessableEntity, "`user_id` is not a valid UUID")
		return
	}

	middleware.LogField(c, "user_id", userID.String())
	middleware.LogField(c, "comparison_id", comparisonID.String())

	result, err := h.votes.Submit(c.Request.Context(), service.SubmitVoteInput{
		ComparisonID: comparisonID,
		UserID:       userID,
		Value:        h.parseVoteValue(req.VoteValue),
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		// A vote naming missing rows is a malformed submission, not a missing resource.
		switch {
		case errors.Is(err, service.ErrUnknownUser):
			envelope.Error(c, http.StatusUnprocessableEntity, msgUserNotFound)
		case errors.Is(err, service.ErrUnknownComparison):
			envelope.Error(c, http.StatusUnprocessableEntity, msgComparisonNotFound)
		default:
			h.writeError(c, err)
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	envelope.OK(c, status, voteResponse{
		ID:           result.Vote.ID,
		ComparisonID: result.Vote.ComparisonID,
		UserID:       result.Vote.UserID,
		VoteValue:    h.renderVoteValue(result.Vote.Value),
		CreatedAt:    result.Vote.CreatedAt,
		ClientIP:     result.Vote.ClientIP,
	})
}
