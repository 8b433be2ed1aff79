package reviews

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-review/internal/shared/server/middleware"
	"resume-review/internal/shared/server/respond"
)

// MissingFieldsMessage is shown when a submission lacks a required field.
const MissingFieldsMessage = "Please fill in all fields"

// Handler wires HTTP handlers to the reviews service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches feedback and review routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/feedback", h.submitFeedback)
	rg.GET("/reviews", h.listReviews)
	rg.GET("/reviews/:id", h.getReview)
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	upload, err := h.Svc.SubmitFeedback(c.Request.Context(), middleware.UserIDFromContext(c), sub)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", MissingFieldsMessage, gin.H{"fields": verr.Fields})
		case errors.Is(err, ErrScoring):
			respond.Error(c, http.StatusBadGateway, "scoring_failed", "Failed to generate AI feedback", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate feedback", nil)
		}
		return
	}

	c.Set("reviewId", upload.ID)
	respond.Created(c, gin.H{"id": upload.ID})
}

func (h *Handler) getReview(c *gin.Context) {
	id := c.Param("id")
	c.Set("reviewId", id)

	upload, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "review not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch review", nil)
		return
	}

	score, tips := ATS(upload.Feedback)
	respond.OK(c, gin.H{
		"id":             upload.ID,
		"companyName":    upload.CompanyName,
		"jobTitle":       upload.JobTitle,
		"jobDescription": upload.JobDescription,
		"resumeImageUrl": upload.ResumeImageURL,
		"feedback":       upload.Feedback,
		"atsScore":       score,
		"atsTips":        tips,
		"createdAt":      upload.CreatedAt,
	})
}

func (h *Handler) listReviews(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list reviews", nil)
		return
	}
	respond.OK(c, gin.H{"items": items})
}
