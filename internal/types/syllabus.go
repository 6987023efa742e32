package types

import (
	"time"

	"github.com/google/uuid"
)

// Syllabus is the root of the module -> chapter -> content tree, owned 1:1
// by a course.
type Syllabus struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"course_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Syllabus) TableName() string { return "syllabus" }

// SyllabusModule groups chapters and content items. ModuleNumber is unique
// within its syllabus; the syllabus service enforces this at creation.
type SyllabusModule struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SyllabusID   uuid.UUID `gorm:"type:uuid;not null;index" json:"syllabus_id"`
	ModuleNumber int       `gorm:"column:module_number;not null" json:"module_number"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Order        int       `gorm:"column:item_order;not null" json:"order"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SyllabusModule) TableName() string { return "syllabus_module" }
