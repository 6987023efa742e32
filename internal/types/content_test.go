package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewFileContentItemRequiresDescriptor(t *testing.T) {
	if _, err := NewFileContentItem(uuid.New(), "notes", UploadedObject{}); err == nil {
		t.Fatalf("NewFileContentItem: expected error for empty descriptor")
	}
	if _, err := NewFileContentItem(uuid.New(), "notes", UploadedObject{URL: "https://cdn/x", Key: "k"}); err == nil {
		t.Fatalf("NewFileContentItem: expected error for missing name")
	}
}

func TestNewFileContentItemFallsBackToFileName(t *testing.T) {
	obj := UploadedObject{URL: "https://cdn/x", Key: "courses/a/b.pdf", Name: "b.pdf", Size: 42}
	item, err := NewFileContentItem(uuid.New(), "  ", obj)
	if err != nil {
		t.Fatalf("NewFileContentItem: %v", err)
	}
	if item.Type != ContentTypeFile {
		t.Fatalf("type: want=%q got=%q", ContentTypeFile, item.Type)
	}
	if item.Title != "b.pdf" {
		t.Fatalf("title fallback: want=%q got=%q", "b.pdf", item.Title)
	}
	if item.FileKey != obj.Key || item.FileSize != 42 {
		t.Fatalf("descriptor not carried over: %+v", item)
	}
}

func TestNewLinkContentItemRejectsRelativeURL(t *testing.T) {
	for _, link := range []string{"", "not a url", "/relative/path", "ftp://host/x"} {
		if _, err := NewLinkContentItem(uuid.New(), "t", link); err == nil {
			t.Fatalf("NewLinkContentItem(%q): expected error", link)
		}
	}
}

func TestNewLinkContentItemAcceptsAbsoluteURL(t *testing.T) {
	item, err := NewLinkContentItem(uuid.New(), "", " https://example.com/page ")
	if err != nil {
		t.Fatalf("NewLinkContentItem: %v", err)
	}
	if item.LinkURL != "https://example.com/page" {
		t.Fatalf("link not trimmed: %q", item.LinkURL)
	}
	if item.Title != "https://example.com/page" {
		t.Fatalf("title fallback: got=%q", item.Title)
	}
	if len(item.BlobKeys()) != 0 {
		t.Fatalf("link item should hold no blob keys, got %v", item.BlobKeys())
	}
}

func TestNewVideoContentItemBlobKeys(t *testing.T) {
	obj := UploadedObject{URL: "https://cdn/v", Key: "courses/a/v.mp4", Name: "v.mp4"}
	item, err := NewVideoContentItem(uuid.New(), "lecture 1", obj)
	if err != nil {
		t.Fatalf("NewVideoContentItem: %v", err)
	}
	keys := item.BlobKeys()
	if len(keys) != 1 || keys[0] != "courses/a/v.mp4" {
		t.Fatalf("blob keys: got=%v", keys)
	}
}

func TestNewTextContentItemRequiresTitleAndBody(t *testing.T) {
	if _, err := NewTextContentItem(uuid.New(), "t", "  "); err == nil {
		t.Fatalf("NewTextContentItem: expected error for empty body")
	}
	if _, err := NewTextContentItem(uuid.New(), "", "body"); err == nil {
		t.Fatalf("NewTextContentItem: expected error for empty title")
	}
	item, err := NewTextContentItem(uuid.New(), " note ", "body")
	if err != nil {
		t.Fatalf("NewTextContentItem: %v", err)
	}
	if item.Title != "note" {
		t.Fatalf("title not trimmed: %q", item.Title)
	}
}
