package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Teacher owns courses. CourseCodes is the teacher's authorized code set;
// CourseIDs is the denormalized list of owned course references. Both are
// maintained by the lifecycle and enrollment services, never by the database.
type Teacher struct {
	ID          uuid.UUID                      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Email       string                         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name        string                         `gorm:"column:name;not null" json:"name"`
	CourseCodes datatypes.JSONSlice[string]    `gorm:"column:course_codes;type:jsonb" json:"course_codes"`
	CourseIDs   datatypes.JSONSlice[uuid.UUID] `gorm:"column:course_ids;type:jsonb" json:"course_ids"`
	CreatedAt   time.Time                      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time                      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt                 `gorm:"index" json:"deleted_at,omitempty"`
}

func (Teacher) TableName() string { return "teacher" }

func (t *Teacher) HasCourseCode(code string) bool {
	for _, c := range t.CourseCodes {
		if c == code {
			return true
		}
	}
	return false
}

func (t *Teacher) HasCourse(id uuid.UUID) bool {
	for _, c := range t.CourseIDs {
		if c == id {
			return true
		}
	}
	return false
}
