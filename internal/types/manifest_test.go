package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestDeleteManifestCountSkipsZero(t *testing.T) {
	m := NewDeleteManifest()
	m.Count("courses", 0)
	if len(m.DeletedCounts) != 0 {
		t.Fatalf("zero count should not create an entry: %v", m.DeletedCounts)
	}
	m.Count("courses", 1)
	m.Count("courses", 2)
	if m.DeletedCounts["courses"] != 3 {
		t.Fatalf("count accumulation: want=3 got=%d", m.DeletedCounts["courses"])
	}
}

func TestDeleteManifestAddKeysDropsEmpty(t *testing.T) {
	m := NewDeleteManifest()
	m.AddKeys("a", "", "b")
	if len(m.BlobKeys) != 2 || m.BlobKeys[0] != "a" || m.BlobKeys[1] != "b" {
		t.Fatalf("blob keys: got=%v", m.BlobKeys)
	}
}

func TestDeleteManifestMerge(t *testing.T) {
	a := NewDeleteManifest()
	a.Count("modules", 2)
	a.AddKeys("k1")
	b := NewDeleteManifest()
	b.Count("modules", 1)
	b.Count("chapters", 4)
	b.AddKeys("k2")

	a.Merge(b)
	a.Merge(nil)

	if a.DeletedCounts["modules"] != 3 || a.DeletedCounts["chapters"] != 4 {
		t.Fatalf("merged counts: %v", a.DeletedCounts)
	}
	if len(a.BlobKeys) != 2 {
		t.Fatalf("merged keys: %v", a.BlobKeys)
	}
}

func TestAssignmentBlobKeysIncludeSubmissions(t *testing.T) {
	subs, err := json.Marshal([]AssignmentSubmission{
		{StudentID: uuid.New(), FileKey: "courses/c/sub1.pdf"},
		{StudentID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("marshal submissions: %v", err)
	}
	a := &Assignment{
		AttachmentKeys: datatypes.JSONSlice[string]{"courses/c/brief.pdf"},
		Submissions:    subs,
	}
	keys := a.BlobKeys()
	if len(keys) != 2 {
		t.Fatalf("blob keys: got=%v", keys)
	}
	if keys[0] != "courses/c/brief.pdf" || keys[1] != "courses/c/sub1.pdf" {
		t.Fatalf("blob keys order: got=%v", keys)
	}
}

func TestDiscussionBlobKeysIncludeReplies(t *testing.T) {
	replies, err := json.Marshal([]DiscussionReply{
		{Body: "first", AttachmentKeys: []string{"courses/c/r1.png"}},
		{Body: "second"},
	})
	if err != nil {
		t.Fatalf("marshal replies: %v", err)
	}
	d := &Discussion{
		AttachmentKeys: datatypes.JSONSlice[string]{"courses/c/opening.pdf"},
		Replies:        replies,
	}
	keys := d.BlobKeys()
	if len(keys) != 2 {
		t.Fatalf("blob keys: got=%v", keys)
	}
}
