package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chapter holds ordered articles plus a small list of raw link strings.
type Chapter struct {
	ID          uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModuleID    uuid.UUID                   `gorm:"type:uuid;not null;index" json:"module_id"`
	Title       string                      `gorm:"column:title;not null" json:"title"`
	Description string                      `gorm:"column:description" json:"description"`
	Order       int                         `gorm:"column:item_order;not null" json:"order"`
	Links       datatypes.JSONSlice[string] `gorm:"column:links;type:jsonb" json:"links"`
	CreatedAt   time.Time                   `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }

type Article struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChapterID uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	Order     int       `gorm:"column:item_order;not null" json:"order"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Article) TableName() string { return "article" }

const (
	ContentTypeFile  = "file"
	ContentTypeLink  = "link"
	ContentTypeVideo = "video"
	ContentTypeText  = "text"
)

// UploadedObject is the descriptor returned by the object store for a blob.
type UploadedObject struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ContentItem is a closed tagged variant: file, link, video or text. Each
// variant carries only the columns its type requires, so rows are built
// through the per-variant constructors below, never by hand.
type ContentItem struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Type     string    `gorm:"column:type;not null;index" json:"type"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Order    int       `gorm:"column:item_order;not null" json:"order"`

	FileURL  string `gorm:"column:file_url" json:"file_url,omitempty"`
	FileKey  string `gorm:"column:file_key" json:"file_key,omitempty"`
	FileName string `gorm:"column:file_name" json:"file_name,omitempty"`
	FileSize int64  `gorm:"column:file_size" json:"file_size,omitempty"`

	LinkURL string `gorm:"column:link_url" json:"link_url,omitempty"`

	VideoURL string `gorm:"column:video_url" json:"video_url,omitempty"`
	VideoKey string `gorm:"column:video_key" json:"video_key,omitempty"`

	Text string `gorm:"column:text" json:"text,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ContentItem) TableName() string { return "content_item" }

// BlobKeys returns the object store keys held by this item, if any.
func (ci *ContentItem) BlobKeys() []string {
	var keys []string
	if ci.FileKey != "" {
		keys = append(keys, ci.FileKey)
	}
	if ci.VideoKey != "" {
		keys = append(keys, ci.VideoKey)
	}
	return keys
}

func NewFileContentItem(moduleID uuid.UUID, title string, obj UploadedObject) (*ContentItem, error) {
	if obj.URL == "" || obj.Key == "" {
		return nil, fmt.Errorf("file content item requires an uploaded object descriptor")
	}
	if obj.Name == "" {
		return nil, fmt.Errorf("file content item requires a file name")
	}
	return &ContentItem{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Type:     ContentTypeFile,
		Title:    fallbackTitle(title, obj.Name),
		FileURL:  obj.URL,
		FileKey:  obj.Key,
		FileName: obj.Name,
		FileSize: obj.Size,
	}, nil
}

func NewLinkContentItem(moduleID uuid.UUID, title, link string) (*ContentItem, error) {
	link = strings.TrimSpace(link)
	if !isAbsoluteURL(link) {
		return nil, fmt.Errorf("link content item requires an absolute url, got %q", link)
	}
	return &ContentItem{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Type:     ContentTypeLink,
		Title:    fallbackTitle(title, link),
		LinkURL:  link,
	}, nil
}

func NewVideoContentItem(moduleID uuid.UUID, title string, obj UploadedObject) (*ContentItem, error) {
	if obj.URL == "" || obj.Key == "" {
		return nil, fmt.Errorf("video content item requires an uploaded object descriptor")
	}
	return &ContentItem{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Type:     ContentTypeVideo,
		Title:    fallbackTitle(title, obj.Name),
		VideoURL: obj.URL,
		VideoKey: obj.Key,
	}, nil
}

func NewTextContentItem(moduleID uuid.UUID, title, text string) (*ContentItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text content item requires a non-empty body")
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("text content item requires a title")
	}
	return &ContentItem{
		ID:       uuid.New(),
		ModuleID: moduleID,
		Type:     ContentTypeText,
		Title:    strings.TrimSpace(title),
		Text:     text,
	}, nil
}

func fallbackTitle(title, fallback string) string {
	title = strings.TrimSpace(title)
	if title != "" {
		return title
	}
	return fallback
}

func isAbsoluteURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
