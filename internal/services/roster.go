package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classbridge/classbridge-backend/internal/platform/apierr"
	"github.com/classbridge/classbridge-backend/internal/platform/logger"
	"github.com/classbridge/classbridge-backend/internal/repos"
	"github.com/classbridge/classbridge-backend/internal/requestdata"
	"github.com/classbridge/classbridge-backend/internal/types"
)

type TeacherSpec struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CourseCodes []string  `json:"course_codes,omitempty"`
}

type StudentSpec struct {
	UserID      uuid.UUID `json:"user_id"`
	TeacherID   uuid.UUID `json:"teacher_id"`
	Name        string    `json:"name"`
	CourseCodes []string  `json:"course_codes,omitempty"`
}

// RosterService manages teacher and student records. Code-set changes go
// through the enrollment engine so derived course references stay
// consistent with the authorized sets.
type RosterService interface {
	CreateTeacher(ctx context.Context, spec TeacherSpec) (*types.Teacher, error)
	GetTeacher(ctx context.Context, teacherID uuid.UUID) (*types.Teacher, error)
	SetTeacherCodes(ctx context.Context, teacherID uuid.UUID, courseCodes []string) (*types.Teacher, error)
	ListTeacherStudents(ctx context.Context, teacherID uuid.UUID) ([]*types.Student, error)

	CreateStudent(ctx context.Context, spec StudentSpec) (*types.Student, error)
	GetStudent(ctx context.Context, studentID uuid.UUID) (*types.Student, error)
	SetStudentCodes(ctx context.Context, studentID uuid.UUID, courseCodes []string) (*types.Student, error)
}

type rosterService struct {
	db  *gorm.DB
	log *logger.Logger

	teacherRepo repos.TeacherRepo
	studentRepo repos.StudentRepo
	courseRepo  repos.CourseRepo
	enrollment  EnrollmentService
}

func NewRosterService(db *gorm.DB, baseLog *logger.Logger, teacherRepo repos.TeacherRepo, studentRepo repos.StudentRepo, courseRepo repos.CourseRepo, enrollment EnrollmentService) RosterService {
	return &rosterService{
		db:          db,
		log:         baseLog.With("service", "RosterService"),
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
		courseRepo:  courseRepo,
		enrollment:  enrollment,
	}
}

func (rs *rosterService) CreateTeacher(ctx context.Context, spec TeacherSpec) (*types.Teacher, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(spec.Email))
	if email == "" {
		return nil, apierr.Validation("email is required")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apierr.Validation("name is required")
	}
	if spec.UserID == uuid.Nil {
		return nil, apierr.Validation("user_id is required")
	}

	codes := datatypes.JSONSlice[string]{}
	seen := map[string]bool{}
	for _, c := range spec.CourseCodes {
		c = types.NormalizeCourseCode(c)
		if c != "" && !seen[c] {
			codes = append(codes, c)
			seen[c] = true
		}
	}

	teacher := &types.Teacher{
		ID:          uuid.New(),
		UserID:      spec.UserID,
		Email:       email,
		Name:        strings.TrimSpace(spec.Name),
		CourseCodes: codes,
		CourseIDs:   datatypes.JSONSlice[uuid.UUID]{},
	}
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := rs.teacherRepo.GetByEmails(ctx, tx, []string{email})
		if err != nil {
			return fmt.Errorf("check existing teachers: %w", err)
		}
		if len(existing) > 0 {
			return apierr.Conflict(apierr.CodeValidationFailed, "teacher with email %s already exists", email)
		}
		if _, err := rs.teacherRepo.Create(ctx, tx, []*types.Teacher{teacher}); err != nil {
			return fmt.Errorf("create teacher: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("teacher created", "teacher_id", teacher.ID, "email", email)
	return teacher, nil
}

func (rs *rosterService) GetTeacher(ctx context.Context, teacherID uuid.UUID) (*types.Teacher, error) {
	teachers, err := rs.teacherRepo.GetByIDs(ctx, nil, []uuid.UUID{teacherID})
	if err != nil {
		return nil, fmt.Errorf("load teacher: %w", err)
	}
	if len(teachers) == 0 || teachers[0] == nil {
		return nil, apierr.NotFound("teacher %s not found", teacherID)
	}
	return teachers[0], nil
}

func (rs *rosterService) SetTeacherCodes(ctx context.Context, teacherID uuid.UUID, courseCodes []string) (*types.Teacher, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return rs.enrollment.SyncTeacherCodes(ctx, teacherID, courseCodes)
}

func (rs *rosterService) ListTeacherStudents(ctx context.Context, teacherID uuid.UUID) ([]*types.Student, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}
	if !rd.IsAdmin() {
		teachers, err := rs.teacherRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
		if err != nil {
			return nil, fmt.Errorf("load requesting teacher: %w", err)
		}
		if len(teachers) == 0 || teachers[0] == nil || teachers[0].ID != teacherID {
			return nil, apierr.Forbidden("roster does not belong to the requesting teacher")
		}
	}
	return rs.studentRepo.GetByTeacherIDs(ctx, nil, []uuid.UUID{teacherID})
}

// CreateStudent assigns the student to one teacher and snapshots the
// teacher's email onto the row. Any initial codes are reconciled into
// course references through the enrollment engine after the row exists.
func (rs *rosterService) CreateStudent(ctx context.Context, spec StudentSpec) (*types.Student, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apierr.Validation("name is required")
	}
	if spec.UserID == uuid.Nil {
		return nil, apierr.Validation("user_id is required")
	}
	if spec.TeacherID == uuid.Nil {
		return nil, apierr.Validation("teacher_id is required")
	}

	student := &types.Student{
		ID:          uuid.New(),
		UserID:      spec.UserID,
		TeacherID:   spec.TeacherID,
		Name:        strings.TrimSpace(spec.Name),
		CourseCodes: datatypes.JSONSlice[string]{},
		CourseIDs:   datatypes.JSONSlice[uuid.UUID]{},
	}
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teachers, err := rs.teacherRepo.GetByIDs(ctx, tx, []uuid.UUID{spec.TeacherID})
		if err != nil {
			return fmt.Errorf("load assigned teacher: %w", err)
		}
		if len(teachers) == 0 || teachers[0] == nil {
			return apierr.NotFound("teacher %s not found", spec.TeacherID)
		}
		student.TeacherEmail = teachers[0].Email
		if _, err := rs.studentRepo.Create(ctx, tx, []*types.Student{student}); err != nil {
			return fmt.Errorf("create student: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(spec.CourseCodes) > 0 {
		synced, err := rs.enrollment.SyncStudentCodes(ctx, student.ID, spec.CourseCodes)
		if err != nil {
			return nil, err
		}
		student = synced
	}
	rs.log.Info("student created", "student_id", student.ID, "teacher_id", spec.TeacherID)
	return student, nil
}

func (rs *rosterService) GetStudent(ctx context.Context, studentID uuid.UUID) (*types.Student, error) {
	students, err := rs.studentRepo.GetByIDs(ctx, nil, []uuid.UUID{studentID})
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if len(students) == 0 || students[0] == nil {
		return nil, apierr.NotFound("student %s not found", studentID)
	}
	return students[0], nil
}

func (rs *rosterService) SetStudentCodes(ctx context.Context, studentID uuid.UUID, courseCodes []string) (*types.Student, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}
	if !rd.IsAdmin() {
		// Teachers may edit codes only for students on their own roster.
		teachers, err := rs.teacherRepo.GetByUserIDs(ctx, nil, []uuid.UUID{rd.UserID})
		if err != nil {
			return nil, fmt.Errorf("load requesting teacher: %w", err)
		}
		if len(teachers) == 0 || teachers[0] == nil {
			return nil, apierr.Forbidden("requester is not a teacher")
		}
		student, err := rs.GetStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if student.TeacherID != teachers[0].ID {
			return nil, apierr.Forbidden("student is not on the requesting teacher's roster")
		}
	}
	return rs.enrollment.SyncStudentCodes(ctx, studentID, courseCodes)
}

func requireAdmin(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.New(http.StatusUnauthorized, apierr.CodeUnauthorized, fmt.Errorf("not authenticated"))
	}
	if !rd.IsAdmin() {
		return apierr.Forbidden("admin role required")
	}
	return nil
}
