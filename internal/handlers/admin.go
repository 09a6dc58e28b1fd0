package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"imagecompare/internal/envelope"
	"imagecompare/internal/events"
	"imagecompare/internal/ids"
	"imagecompare/internal/middleware"
	"imagecompare/internal/models"
	"imagecompare/internal/reqctx"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h HandlerSet) IssueAdminToken(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		envelope.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, expires, err := h.admins.IssueToken(admin)
	if err != nil {
		h.log.Warn().Err(err).Int64("admin_id", admin.ID).Msg("issue admin token failed")
		envelope.Error(c, http.StatusServiceUnavailable, "admin tokens are disabled")
		return
	}
	envelope.OK(c, http.StatusCreated, tokenResponse{Token: token, ExpiresAt: expires})
}

// GenerateComparisons runs generation synchronously for the calling admin.
func (h HandlerSet) GenerateComparisons(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		envelope.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	comparisons, err := h.generation.GenerateAll(c.Request.Context(), admin.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, h.toComparisonResponses(comparisons))
}

type jobResponse struct {
	JobID    string `json:"job_id"`
	StreamID string `json:"stream_id"`
}

func (h HandlerSet) EnqueueGeneration(c *gin.Context) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		envelope.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if h.jobs == nil {
		envelope.Error(c, http.StatusServiceUnavailable, "job queue is not configured")
		return
	}

	ctx := c.Request.Context()
	job := models.GenerationJob{
		ID:        ids.New(),
		AdminID:   admin.ID,
		RequestID: reqctx.RequestID(ctx),
	}

	// Publish before enqueueing so a fast worker cannot be overtaken by the
	// queued event.
	if h.progress != nil {
		if err := h.progress.Publish(ctx, models.JobEvent{JobID: job.ID, Stage: models.JobStageQueued}); err != nil {
			h.log.Warn().Err(err).Str("job_id", job.ID).Msg("publish queued event failed")
		}
	}

	middleware.LogField(c, "job_id", job.ID)

	streamID, err := h.jobs.Enqueue(ctx, job)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info().Str("job_id", job.ID).Int64("admin_id", admin.ID).Msg("generation job enqueued")
	envelope.OK(c, http.StatusAccepted, jobResponse{JobID: job.ID, StreamID: streamID})
}

func (h HandlerSet) JobStatus(c *gin.Context) {
	if h.progress == nil {
		envelope.Error(c, http.StatusServiceUnavailable, "job progress is not configured")
		return
	}

	event, err := h.progress.Last(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, events.ErrJobNotFound) {
			envelope.Error(c, http.StatusNotFound, msgNotFound)
			return
		}
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, event)
}
