package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/services"
)

type RosterHandler struct {
	log    *logger.Logger
	roster services.RosterService
}

func NewRosterHandler(log *logger.Logger, roster services.RosterService) *RosterHandler {
	return &RosterHandler{
		log:    log.With("handler", "RosterHandler"),
		roster: roster,
	}
}

func (h *RosterHandler) CreateTeacher(c *gin.Context) {
	var spec services.TeacherSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	teacher, err := h.roster.CreateTeacher(c.Request.Context(), spec)
	if err != nil {
		h.log.Error("CreateTeacher failed", "error", err, "email", spec.Email)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"teacher": teacher})
}

func (h *RosterHandler) GetTeacher(c *gin.Context) {
	teacherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	teacher, err := h.roster.GetTeacher(c.Request.Context(), teacherID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"teacher": teacher})
}

func (h *RosterHandler) SetTeacherCodes(c *gin.Context) {
	teacherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		CourseCodes []string `json:"course_codes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	teacher, err := h.roster.SetTeacherCodes(c.Request.Context(), teacherID, body.CourseCodes)
	if err != nil {
		h.log.Error("SetTeacherCodes failed", "error", err, "teacher_id", teacherID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"teacher": teacher})
}

func (h *RosterHandler) ListTeacherStudents(c *gin.Context) {
	teacherID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	students, err := h.roster.ListTeacherStudents(c.Request.Context(), teacherID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"students": students})
}

func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var spec services.StudentSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	student, err := h.roster.CreateStudent(c.Request.Context(), spec)
	if err != nil {
		h.log.Error("CreateStudent failed", "error", err, "teacher_id", spec.TeacherID)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, gin.H{"student": student})
}

func (h *RosterHandler) GetStudent(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	student, err := h.roster.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}

func (h *RosterHandler) SetStudentCodes(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		CourseCodes []string `json:"course_codes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	student, err := h.roster.SetStudentCodes(c.Request.Context(), studentID, body.CourseCodes)
	if err != nil {
		h.log.Error("SetStudentCodes failed", "error", err, "student_id", studentID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"student": student})
}
