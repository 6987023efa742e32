package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course carries the normalized course code that joins the teacher, its
// students and the course itself across collections. Satellite IDs are set
// lazily, the first time a caller supplies data for that satellite.
type Course struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TeacherID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"teacher_id"`
	CourseCode     string         `gorm:"column:course_code;not null;index" json:"course_code"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description;not null" json:"description"`
	Semester       string         `gorm:"column:semester" json:"semester"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	OutcomeID      *uuid.UUID     `gorm:"type:uuid" json:"outcome_id,omitempty"`
	ScheduleID     *uuid.UUID     `gorm:"type:uuid" json:"schedule_id,omitempty"`
	SyllabusID     *uuid.UUID     `gorm:"type:uuid" json:"syllabus_id,omitempty"`
	WeeklyPlanID   *uuid.UUID     `gorm:"type:uuid" json:"weekly_plan_id,omitempty"`
	CreditPointsID *uuid.UUID     `gorm:"type:uuid" json:"credit_points_id,omitempty"`
	AttendanceID   *uuid.UUID     `gorm:"type:uuid" json:"attendance_id,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }

// NormalizeCourseCode is applied at every entry point that accepts a code.
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
