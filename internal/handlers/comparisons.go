package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imagecompare/internal/envelope"
	"imagecompare/internal/middleware"
	"imagecompare/internal/models"
)

type comparisonResponse struct {
	ID        uuid.UUID `json:"id"`
	Dirname   string    `json:"dirname"`
	Images    [2]string `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy int64     `json:"created_by"`
}

// imageURL renders an image ref under the public image route.
func (h HandlerSet) imageURL(ref string) string {
	return strings.TrimRight(h.cfg.Catalog.PublicRoute, "/") + "/" + ref
}

// imageRef is the inverse of imageURL; bare refs pass through unchanged.
func (h HandlerSet) imageRef(value string) string {
	prefix := strings.TrimRight(h.cfg.Catalog.PublicRoute, "/") + "/"
	return strings.TrimPrefix(value, prefix)
}

func (h HandlerSet) toComparisonResponse(c models.Comparison) comparisonResponse {
	return comparisonResponse{
		ID:        c.ID,
		Dirname:   c.Dirname,
		Images:    [2]string{h.imageURL(c.Images[0]), h.imageURL(c.Images[1])},
		CreatedAt: c.CreatedAt,
		CreatedBy: c.CreatedBy,
	}
}

func (h HandlerSet) toComparisonResponses(comparisons []models.Comparison) []comparisonResponse {
	out := make([]comparisonResponse, 0, len(comparisons))
	for _, c := range comparisons {
		out = append(out, h.toComparisonResponse(c))
	}
	return out
}

// NextComparison serves GET /user/:id/comparison?dirname=. A missing
// dirname selects the root category.
func (h HandlerSet) NextComparison(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	middleware.LogField(c, "user_id", userID.String())

	comparison, err := h.comparisons.NextForUser(c.Request.Context(), userID, c.Query("dirname"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, h.toComparisonResponse(comparison))
}

func (h HandlerSet) GetComparison(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	middleware.LogField(c, "comparison_id", id.String())

	comparison, err := h.comparisons.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, h.toComparisonResponse(comparison))
}

func (h HandlerSet) Dirnames(c *gin.Context) {
	dirnames, err := h.comparisons.Dirnames(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, dirnames)
}
