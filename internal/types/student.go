package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Student is assigned to exactly one teacher. Enrollment (CourseIDs) is
// derived from CourseCodes membership within the assigned teacher's courses.
type Student struct {
	ID           uuid.UUID                      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	TeacherID    uuid.UUID                      `gorm:"type:uuid;not null;index" json:"teacher_id"`
	TeacherEmail string                         `gorm:"column:teacher_email;not null" json:"teacher_email"`
	Name         string                         `gorm:"column:name;not null" json:"name"`
	CourseCodes  datatypes.JSONSlice[string]    `gorm:"column:course_codes;type:jsonb" json:"course_codes"`
	CourseIDs    datatypes.JSONSlice[uuid.UUID] `gorm:"column:course_ids;type:jsonb" json:"course_ids"`
	CreatedAt    time.Time                      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time                      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt                 `gorm:"index" json:"deleted_at,omitempty"`
}

func (Student) TableName() string { return "student" }

func (s *Student) HasCourseCode(code string) bool {
	for _, c := range s.CourseCodes {
		if c == code {
			return true
		}
	}
	return false
}

func (s *Student) HasCourse(id uuid.UUID) bool {
	for _, c := range s.CourseIDs {
		if c == id {
			return true
		}
	}
	return false
}
