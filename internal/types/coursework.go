package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Course-scoped dependents. They carry no cross-collection invariants of
// their own but hold object store keys that the course cascade must collect.

type Lecture struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	VideoURL  string    `gorm:"column:video_url" json:"video_url,omitempty"`
	VideoKey  string    `gorm:"column:video_key" json:"video_key,omitempty"`
	NotesURL  string    `gorm:"column:notes_url" json:"notes_url,omitempty"`
	NotesKey  string    `gorm:"column:notes_key" json:"notes_key,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Lecture) TableName() string { return "lecture" }

func (l *Lecture) BlobKeys() []string {
	var keys []string
	if l.VideoKey != "" {
		keys = append(keys, l.VideoKey)
	}
	if l.NotesKey != "" {
		keys = append(keys, l.NotesKey)
	}
	return keys
}

// AssignmentSubmission is one student's uploaded answer, stored inside the
// assignment document.
type AssignmentSubmission struct {
	StudentID   uuid.UUID `json:"student_id"`
	FileURL     string    `json:"file_url"`
	FileKey     string    `json:"file_key"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Assignment struct {
	ID             uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"course_id"`
	Title          string                      `gorm:"column:title;not null" json:"title"`
	Description    string                      `gorm:"column:description" json:"description"`
	DueAt          *time.Time                  `gorm:"column:due_at" json:"due_at,omitempty"`
	AttachmentKeys datatypes.JSONSlice[string] `gorm:"column:attachment_keys;type:jsonb" json:"attachment_keys"`
	Submissions    datatypes.JSON              `gorm:"column:submissions;type:jsonb" json:"submissions"`
	CreatedAt      time.Time                   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BlobKeys() []string {
	keys := append([]string(nil), a.AttachmentKeys...)
	var subs []AssignmentSubmission
	if len(a.Submissions) > 0 {
		_ = json.Unmarshal(a.Submissions, &subs)
	}
	for _, s := range subs {
		if s.FileKey != "" {
			keys = append(keys, s.FileKey)
		}
	}
	return keys
}

type Announcement struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url,omitempty"`
	ImageKey  string    `gorm:"column:image_key" json:"image_key,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Announcement) TableName() string { return "announcement" }

func (a *Announcement) BlobKeys() []string {
	if a.ImageKey == "" {
		return nil
	}
	return []string{a.ImageKey}
}

// DiscussionReply is nested inside the discussion document and may carry
// its own attachments.
type DiscussionReply struct {
	AuthorID       uuid.UUID `json:"author_id"`
	Body           string    `json:"body"`
	AttachmentKeys []string  `json:"attachment_keys,omitempty"`
	PostedAt       time.Time `json:"posted_at"`
}

type Discussion struct {
	ID             uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"course_id"`
	Title          string                      `gorm:"column:title;not null" json:"title"`
	Body           string                      `gorm:"column:body" json:"body"`
	AttachmentKeys datatypes.JSONSlice[string] `gorm:"column:attachment_keys;type:jsonb" json:"attachment_keys"`
	Replies        datatypes.JSON              `gorm:"column:replies;type:jsonb" json:"replies"`
	CreatedAt      time.Time                   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Discussion) TableName() string { return "discussion" }

func (d *Discussion) BlobKeys() []string {
	keys := append([]string(nil), d.AttachmentKeys...)
	var replies []DiscussionReply
	if len(d.Replies) > 0 {
		_ = json.Unmarshal(d.Replies, &replies)
	}
	for _, r := range replies {
		keys = append(keys, r.AttachmentKeys...)
	}
	return keys
}

type SupplementaryContent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	FileURL   string    `gorm:"column:file_url" json:"file_url,omitempty"`
	FileKey   string    `gorm:"column:file_key" json:"file_key,omitempty"`
	FileName  string    `gorm:"column:file_name" json:"file_name,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SupplementaryContent) TableName() string { return "supplementary_content" }

func (sc *SupplementaryContent) BlobKeys() []string {
	if sc.FileKey == "" {
		return nil
	}
	return []string{sc.FileKey}
}
