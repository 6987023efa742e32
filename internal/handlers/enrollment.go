package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/services"
)

type EnrollmentHandler struct {
	log        *logger.Logger
	enrollment services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollment services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:        log.With("handler", "EnrollmentHandler"),
		enrollment: enrollment,
	}
}

// EnrollSelf lets a student claim a course reference for a course whose code
// they already hold. The student row is resolved from the authenticated
// caller, never from the body.
func (h *EnrollmentHandler) EnrollSelf(c *gin.Context) {
	var body struct {
		CourseID uuid.UUID `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.enrollment.EnrollSelf(c.Request.Context(), body.CourseID); err != nil {
		h.log.Error("EnrollSelf failed", "error", err, "course_id", body.CourseID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "enrolled"})
}
