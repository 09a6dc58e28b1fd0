package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"imagecompare/internal/envelope"
	"imagecompare/internal/models"
	"imagecompare/internal/reqctx"
	"imagecompare/internal/service"
)

const (
	msgUserNotFound       = "`user` with requested id not found"
	msgComparisonNotFound = "`comparison` with requested id not found"
	msgImageNotFound      = "`image` not found for requested `comparison`"
	msgExhausted          = "No `comparison` available for `user`"
	msgNoCategories       = "No `comparison`s available"
	msgInvalidID          = "`id` is not a valid UUID"
	msgNotFound           = "Resource not found"
	msgInternal           = "Internal server error"
)

// writeError maps service errors to statuses. Unexpected errors are logged
// and reported without detail.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	var (
		insufficient *service.InsufficientFilesError
		fsErr        *service.FileSystemError
	)

	switch {
	case errors.Is(err, service.ErrUnknownUser):
		envelope.Error(c, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrUnknownComparison):
		envelope.Error(c, http.StatusNotFound, msgComparisonNotFound)
	case errors.Is(err, service.ErrImageNotInComparison):
		envelope.Error(c, http.StatusUnprocessableEntity, msgImageNotFound)
	case errors.Is(err, models.ErrInvalidVoteValue):
		envelope.Error(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrExhausted):
		envelope.Error(c, http.StatusServiceUnavailable, msgExhausted)
	case errors.Is(err, service.ErrNoCategories):
		envelope.Error(c, http.StatusServiceUnavailable, msgNoCategories)
	case errors.As(err, &insufficient), errors.As(err, &fsErr):
		h.log.Error().Err(err).Str("request_id", reqctx.RequestID(c.Request.Context())).Msg("generation failed")
		envelope.Error(c, http.StatusInternalServerError, err.Error())
	default:
		h.log.Error().Err(err).Str("request_id", reqctx.RequestID(c.Request.Context())).Msg("request failed")
		envelope.Error(c, http.StatusInternalServerError, msgInternal)
	}
}

// NotFound renders unknown routes.
func NotFound(c *gin.Context) {
	envelope.Error(c, http.StatusNotFound, msgNotFound)
}
